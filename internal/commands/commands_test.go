package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costs/internal/amqp"
	"costs/internal/core"
	"costs/internal/report"
)

// setupEnv points the CLI at a fresh SQLite data directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("COSTS_DB_NAME", "costsdb")
	t.Setenv("COSTS_DB_VERSION", "1")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	return dir
}

func runCosts(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(dir, "absent.env")))
	err := cmd.Execute()
	return out.String(), err
}

func seed(t *testing.T, dir string) {
	t.Helper()
	for _, args := range [][]string{
		{"add", "--sum", "20", "--category", "food", "--description", "groceries", "--date", "2024-12-02"},
		{"add", "--sum", "50", "--category", "TRAVEL", "--description", "train", "--date", "2024-12-10"},
		{"add", "--sum", "40", "--category", "Food", "--description", "dinner", "--date", "2024-12-31"},
		{"add", "--sum", "900", "--category", "housing", "--description", "rent", "--date", "2025-01-01"},
	} {
		_, err := runCosts(t, dir, args...)
		require.NoError(t, err, args)
	}
}

func TestAddAndList(t *testing.T) {
	dir := setupEnv(t)

	out, err := runCosts(t, dir, "add", "--sum", "12,50", "--category", "food", "--description", "lunch", "--date", "2024-12-02")
	require.NoError(t, err)
	assert.Contains(t, out, `Recorded expense #1: FOOD 12.50 "lunch" on 2024-12-02`)

	out, err = runCosts(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "DESCRIPTION")
	assert.Contains(t, out, "lunch")
	assert.Contains(t, out, "12.50")
}

func TestListEmpty(t *testing.T) {
	dir := setupEnv(t)

	out, err := runCosts(t, dir, "list")
	require.NoError(t, err)
	assert.Equal(t, "No expenses recorded.\n", out)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	dir := setupEnv(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"negative sum", []string{"--sum", "-3", "--description", "x"}, core.ErrNegativeSum},
		{"malformed sum", []string{"--sum", "abc", "--description", "x"}, core.ErrInvalidSum},
		{"blank description", []string{"--sum", "3", "--description", "  "}, core.ErrEmptyDescription},
		{"unknown category", []string{"--sum", "3", "--description", "x", "--category", "pets"}, core.ErrInvalidCategory},
		{"bad date", []string{"--sum", "3", "--description", "x", "--date", "2024-13-01"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCosts(t, dir, append([]string{"add"}, tt.args...)...)
			assert.ErrorIs(t, err, core.ErrValidation)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	out, err := runCosts(t, dir, "list")
	require.NoError(t, err)
	assert.Equal(t, "No expenses recorded.\n", out)
}

func TestReport(t *testing.T) {
	dir := setupEnv(t)
	seed(t, dir)

	out, err := runCosts(t, dir, "report", "--year", "2024", "--month", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Report for 2024-12")
	assert.Contains(t, out, "Total: 110.00")
	assert.Contains(t, out, "Top category: FOOD (60.00)")
	assert.NotContains(t, out, "rent")
	assert.NotContains(t, out, "showing all expenses")
}

func TestReportFallsBackToAllExpenses(t *testing.T) {
	dir := setupEnv(t)
	seed(t, dir)

	out, err := runCosts(t, dir, "report", "--year", "2023", "--month", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "No expenses in 2023-06; showing all expenses.")
	assert.Contains(t, out, "rent")
	assert.Contains(t, out, "Total: 1010.00")
	assert.Contains(t, out, "Top category: none")
}

func TestReportInvalidMonth(t *testing.T) {
	dir := setupEnv(t)

	_, err := runCosts(t, dir, "report", "--year", "2024", "--month", "13")
	assert.ErrorIs(t, err, report.ErrInvalidMonth)
}

func TestClearRequiresConfirmation(t *testing.T) {
	dir := setupEnv(t)
	seed(t, dir)

	_, err := runCosts(t, dir, "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out, err := runCosts(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "groceries")

	out, err = runCosts(t, dir, "clear", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "All expenses cleared.\n", out)

	out, err = runCosts(t, dir, "list")
	require.NoError(t, err)
	assert.Equal(t, "No expenses recorded.\n", out)

	// ids keep increasing after a clear
	out, err = runCosts(t, dir, "add", "--sum", "1", "--description", "gum", "--date", "2024-12-05")
	require.NoError(t, err)
	assert.Contains(t, out, "#5:")
}

func TestExportCSV(t *testing.T) {
	dir := setupEnv(t)
	seed(t, dir)

	out, err := runCosts(t, dir, "export", "--year", "2024", "--month", "12")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "category,sum,description,date", lines[0])
	assert.Equal(t, "TOTAL,110.00,,", lines[4])
	assert.Equal(t, "TOP CATEGORY,60.00,FOOD,", lines[5])

	file := filepath.Join(dir, "december.csv")
	_, err = runCosts(t, dir, "export", "--year", "2024", "--month", "12", "--output", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestExportRejectsUnknownOrUnconfiguredTargets(t *testing.T) {
	dir := setupEnv(t)

	_, err := runCosts(t, dir, "export", "--format", "pdf")
	assert.ErrorContains(t, err, `unknown export format "pdf"`)

	_, err = runCosts(t, dir, "export", "--format", "sheets")
	assert.ErrorContains(t, err, "GOOGLE_SPREADSHEET_ID")
}

func TestWatchNeedsBroker(t *testing.T) {
	dir := setupEnv(t)

	_, err := runCosts(t, dir, "watch")
	assert.ErrorContains(t, err, "AMQP_URL")
}

func TestInvalidConfiguration(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("DATA_BACKEND", "paper")

	_, err := runCosts(t, dir, "list")
	assert.ErrorContains(t, err, "invalid data backend 'paper'")
}

func TestVersion(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("DATA_BACKEND", "paper") // version skips configuration

	out, err := runCosts(t, dir, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "costs dev"), out)
}

func TestPrintEventAndChain(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	counter := func(context.Context, *amqp.Event) error { calls++; return nil }
	failing := func(context.Context, *amqp.Event) error { return errors.New("boom") }

	ev := amqp.NewExpenseRecorded("costsdb", 7)
	require.NoError(t, chain(printEvent(&buf), counter)(context.Background(), ev))
	assert.Contains(t, buf.String(), "expense.recorded #7 in costsdb")
	assert.Equal(t, 1, calls)

	err := chain(failing, counter)(context.Background(), amqp.NewCostsCleared("costsdb"))
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, calls)
}
