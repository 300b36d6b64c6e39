package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	applog "costs/internal/log"
	"costs/internal/report"
)

// CSVWriter writes a report as CSV to an io.Writer.
type CSVWriter struct {
	w io.Writer
}

var _ Exporter = (*CSVWriter)(nil)

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

func (c *CSVWriter) Export(ctx context.Context, s report.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cw := csv.NewWriter(c.w)
	if err := cw.WriteAll(Rows(s)); err != nil {
		return fmt.Errorf("writing report CSV: %w", err)
	}

	slog.DebugContext(ctx, "Report exported",
		applog.FieldFormat, "csv",
		applog.FieldPeriod, s.Period.String(),
		applog.FieldCount, len(s.Records))
	return nil
}
