package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"costs/internal/core"
	"costs/internal/report"
)

func record(id int64, cat core.Category, sum, desc, date string) core.Record {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	s, err := core.ParseSum(sum)
	if err != nil {
		panic(err)
	}
	return core.Record{ID: id, Expense: core.Expense{Sum: s, Category: cat, Description: desc, Date: d}}
}

func december(t *testing.T) report.Summary {
	t.Helper()
	s, err := report.Summarize([]core.Record{
		record(1, core.Food, "20", "groceries", "2024-12-02"),
		record(2, core.Travel, "50", "train, return", "2024-12-10"),
		record(3, core.Food, "40", "dinner", "2024-12-31"),
	}, "2024", "12")
	require.NoError(t, err)
	return s
}

func TestRows(t *testing.T) {
	rows := Rows(december(t))
	require.Len(t, rows, 6)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"FOOD", "20.00", "groceries", "2024-12-02"}, rows[1])
	assert.Equal(t, []string{"TOTAL", "110.00", "", ""}, rows[4])
	assert.Equal(t, []string{"TOP CATEGORY", "60.00", "FOOD", ""}, rows[5])
}

func TestRowsFallbackLeavesTopCategoryEmpty(t *testing.T) {
	s, err := report.Summarize([]core.Record{
		record(1, core.Food, "20", "groceries", "2024-12-02"),
	}, "2023", "1")
	require.NoError(t, err)
	require.True(t, s.Fallback)

	rows := Rows(s)
	assert.Equal(t, []string{"TOTAL", "20.00", "", ""}, rows[2])
	assert.Equal(t, []string{"TOP CATEGORY", "", "", ""}, rows[3])
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(&buf).Export(context.Background(), december(t)))

	want := strings.Join([]string{
		"category,sum,description,date",
		"FOOD,20.00,groceries,2024-12-02",
		`TRAVEL,50.00,"train, return",2024-12-10`,
		"FOOD,40.00,dinner,2024-12-31",
		"TOTAL,110.00,,",
		"TOP CATEGORY,60.00,FOOD,",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestCSVWriterHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewCSVWriter(&buf).Export(ctx, december(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

type fakeSheets struct {
	mu      sync.Mutex
	calls   []string
	updated [][]any
	input   string
	failOn  string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	op := "update"
	if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear") {
		op = "clear"
	}
	f.calls = append(f.calls, op+" "+r.URL.Path)

	if op == f.failOn {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
		return
	}
	if op == "update" {
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.updated = vr.Values
		f.input = r.URL.Query().Get("valueInputOption")
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{}`))
}

func newFakeSheetsService(t *testing.T, fake *fakeSheets) *gsheet.Service {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return svc
}

func TestSheetsWriterClearsThenWrites(t *testing.T) {
	fake := &fakeSheets{}
	w := NewSheetsWriter(newFakeSheetsService(t, fake), "sheet-id", "Report")

	require.NoError(t, w.Export(context.Background(), december(t)))

	require.Len(t, fake.calls, 2)
	assert.True(t, strings.HasPrefix(fake.calls[0], "clear /v4/spreadsheets/sheet-id/values/Report!A:D"), fake.calls[0])
	assert.True(t, strings.HasPrefix(fake.calls[1], "update /v4/spreadsheets/sheet-id/values/Report!A1:D6"), fake.calls[1])

	require.Len(t, fake.updated, 6)
	assert.Equal(t, []any{"category", "sum", "description", "date"}, fake.updated[0])
	assert.Equal(t, []any{"TOP CATEGORY", "60.00", "FOOD", ""}, fake.updated[5])
	assert.Equal(t, "RAW", fake.input)
}

func TestSheetsWriterWritesFormulaLikeTextVerbatim(t *testing.T) {
	fake := &fakeSheets{}
	w := NewSheetsWriter(newFakeSheetsService(t, fake), "sheet-id", "Report")

	s, err := report.Summarize([]core.Record{
		record(1, core.Other, "1", `=HYPERLINK("http://example.com","x")`, "2024-12-02"),
	}, "2024", "12")
	require.NoError(t, err)

	require.NoError(t, w.Export(context.Background(), s))
	assert.Equal(t, "RAW", fake.input)
	assert.Equal(t, `=HYPERLINK("http://example.com","x")`, fake.updated[1][2])
}

func TestSheetsWriterReportsFailure(t *testing.T) {
	fake := &fakeSheets{failOn: "clear"}
	w := NewSheetsWriter(newFakeSheetsService(t, fake), "sheet-id", "Report")

	err := w.Export(context.Background(), december(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clear sheet Report")
	assert.Len(t, fake.calls, 1)
}

func TestSheetsWriterWithoutService(t *testing.T) {
	err := NewSheetsWriter(nil, "id", "Report").Export(context.Background(), december(t))
	assert.Error(t, err)
}

func TestLoadCredentials(t *testing.T) {
	data, err := LoadCredentials(` {"type":"service_account"} `, "ignored")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(data))

	file := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"from":"file"}`), 0o600))
	data, err = LoadCredentials("", file)
	require.NoError(t, err)
	assert.Equal(t, `{"from":"file"}`, string(data))

	_, err = LoadCredentials("", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadCredentials("", "")
	assert.Error(t, err)
}

type exporterFunc func(context.Context, report.Summary) error

func (f exporterFunc) Export(ctx context.Context, s report.Summary) error { return f(ctx, s) }

func TestAllRunsEveryExporter(t *testing.T) {
	var mu sync.Mutex
	seen := 0
	count := exporterFunc(func(_ context.Context, s report.Summary) error {
		mu.Lock()
		defer mu.Unlock()
		seen++
		return nil
	})

	require.NoError(t, All(context.Background(), december(t), count, count, count))
	assert.Equal(t, 3, seen)
}

func TestAllReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	failing := exporterFunc(func(context.Context, report.Summary) error { return boom })
	waiting := exporterFunc(func(ctx context.Context, _ report.Summary) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := All(context.Background(), december(t), waiting, failing)
	assert.ErrorIs(t, err, boom)
}
