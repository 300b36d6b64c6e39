// Package export writes report snapshots to external targets.
package export

import (
	"context"

	"golang.org/x/sync/errgroup"

	"costs/internal/core"
	"costs/internal/report"
)

// Exporter writes one report snapshot.
type Exporter interface {
	Export(ctx context.Context, s report.Summary) error
}

// Header is the first row of every exported table.
var Header = []string{"category", "sum", "description", "date"}

const (
	totalLabel       = "TOTAL"
	topCategoryLabel = "TOP CATEGORY"
)

// Rows renders s as a table: the header, one row per displayed record, then
// the total and top category lines.
func Rows(s report.Summary) [][]string {
	rows := make([][]string, 0, len(s.Records)+3)
	rows = append(rows, Header)
	for _, r := range s.Records {
		rows = append(rows, []string{
			r.Category.String(),
			core.FormatSum(r.Sum),
			r.Description,
			r.Date.String(),
		})
	}

	rows = append(rows, []string{totalLabel, core.FormatSum(s.Total), "", ""})

	top := []string{topCategoryLabel, "", "", ""}
	if s.TopCategory != "" {
		top[1] = core.FormatSum(s.TopSum)
		top[2] = s.TopCategory.String()
	}
	return append(rows, top)
}

// All runs every exporter concurrently and returns the first failure.
func All(ctx context.Context, s report.Summary, exporters ...Exporter) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range exporters {
		g.Go(func() error {
			return e.Export(ctx, s)
		})
	}
	return g.Wait()
}
