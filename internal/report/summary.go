package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"costs/internal/core"
)

// Summary is what a month report displays.
type Summary struct {
	Period Period

	// Records are the displayed records: the month's records, or every record
	// when Fallback is set.
	Records []core.Record
	// Fallback is set when no record matched the month.
	Fallback bool

	Total       decimal.Decimal
	TopCategory core.Category
	TopSum      decimal.Decimal
	ByCategory  []core.CategoryAmount
}

// Summarize builds the month report. When the month has no records the
// unfiltered set is displayed instead and the top category is left empty;
// Total always covers the displayed records.
func Summarize(records []core.Record, year, month string) (Summary, error) {
	p, err := ParsePeriod(year, month)
	if err != nil {
		return Summary{}, err
	}

	matched := InPeriod(records, p)
	s := Summary{Period: p, Records: matched}
	if len(matched) == 0 {
		s.Records = append([]core.Record(nil), records...)
		s.Fallback = true
	}

	s.Total = TotalSum(s.Records)
	s.TopCategory, s.TopSum = MaxCategory(matched)
	s.ByCategory = ByCategory(matched)
	return s, nil
}

// Clone returns a copy whose slices share nothing with s.
func (s Summary) Clone() Summary {
	s.Records = slices.Clone(s.Records)
	s.ByCategory = slices.Clone(s.ByCategory)
	return s
}
