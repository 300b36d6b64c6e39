package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	applog "costs/internal/log"
	"costs/internal/report"
)

// SheetsWriter replaces the content of one spreadsheet tab with a report.
type SheetsWriter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ Exporter = (*SheetsWriter)(nil)

func NewSheetsWriter(svc *gsheet.Service, spreadsheetID, sheetName string) *SheetsWriter {
	return &SheetsWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

// LoadCredentials returns service account credentials from inline JSON, or
// from file when no inline JSON is set.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)

	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// NewSheetsService creates a Sheets service authenticated with a service account.
// Extra options are appended after the credentials.
func NewSheetsService(ctx context.Context, credentialsJSON []byte, opts ...goption.ClientOption) (*gsheet.Service, error) {
	opts = append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (w *SheetsWriter) Export(ctx context.Context, s report.Summary) error {
	if w.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:D", w.sheetName)
	_, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", w.sheetName, err)
	}

	rows := Rows(s)
	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}

	dataRange := fmt.Sprintf("%s!A1:D%d", w.sheetName, len(rows))
	vr := &gsheet.ValueRange{Values: values}
	// RAW: descriptions are user text and must never be evaluated as formulas.
	_, err = w.svc.Spreadsheets.Values.Update(w.spreadsheetID, dataRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet %s: %w", w.sheetName, err)
	}

	slog.InfoContext(ctx, "Report exported",
		applog.FieldFormat, "sheets",
		applog.FieldPeriod, s.Period.String(),
		applog.FieldCount, len(s.Records),
		"sheet", w.sheetName)
	return nil
}
