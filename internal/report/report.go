// Package report turns a list of expense records into a filtered view and
// summary statistics. Every function is pure: no I/O, no shared state.
//
// Grouping by category follows first-seen order in the input, so results are
// deterministic for a given record order. Callers that read records from the
// store (which has no ordering contract) and need stable tie-breaks should sort
// first.
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"costs/internal/core"
)

var ErrInvalidMonth = errors.New("invalid month")

// Period is one calendar month: the half-open interval [Start, End).
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod validates free-text year and month input.
func ParsePeriod(year, month string) (Period, error) {
	year, month = strings.TrimSpace(year), strings.TrimSpace(month)
	if year == "" || month == "" {
		return Period{}, fmt.Errorf("%w: year and month are required", ErrInvalidMonth)
	}

	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return Period{}, fmt.Errorf("%w: year %q is not a positive number", ErrInvalidMonth, year)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return Period{}, fmt.Errorf("%w: month %q is not a number", ErrInvalidMonth, month)
	}
	if m < 1 || m > 12 {
		return Period{}, fmt.Errorf("%w: month %d must be between 1 and 12", ErrInvalidMonth, m)
	}

	return Period{Year: y, Month: time.Month(m)}, nil
}

// Start is the first day of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first day of the following month; December rolls into January.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether d falls in [Start, End).
func (p Period) Contains(d core.Date) bool {
	day := core.Today(d.Time).Time
	return !day.Before(p.Start()) && day.Before(p.End())
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// FilterByMonth returns the records dated inside the given month. No match is
// an empty result, not an error.
func FilterByMonth(records []core.Record, year, month string) ([]core.Record, error) {
	p, err := ParsePeriod(year, month)
	if err != nil {
		return nil, err
	}
	return InPeriod(records, p), nil
}

// InPeriod returns the records dated inside p, keeping input order.
func InPeriod(records []core.Record, p Period) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if p.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// TotalSum adds up every record's sum. It is zero for no records.
func TotalSum(records []core.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Sum)
	}
	return total
}

// ByCategory sums records per category, in the order categories first appear.
func ByCategory(records []core.Record) []core.CategoryAmount {
	index := make(map[core.Category]int)
	var out []core.CategoryAmount
	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, core.CategoryAmount{Category: r.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(r.Sum)
	}
	return out
}

// MaxCategory returns the category with the strictly largest total. On a tie
// the category seen first wins. No records yields ("", 0).
func MaxCategory(records []core.Record) (core.Category, decimal.Decimal) {
	groups := ByCategory(records)
	if len(groups) == 0 {
		return "", decimal.Zero
	}

	best := groups[0]
	for _, g := range groups[1:] {
		if g.Amount.GreaterThan(best.Amount) {
			best = g
		}
	}
	return best.Category, best.Amount
}
