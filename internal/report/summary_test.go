package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costs/internal/core"
)

func TestSummarizeMonth(t *testing.T) {
	records := []core.Record{
		rec(1, core.Food, "20", "2024-12-02"),
		rec(2, core.Travel, "50", "2024-12-10"),
		rec(3, core.Food, "40", "2024-12-31"),
		rec(4, core.Housing, "900", "2025-01-01"),
	}

	s, err := Summarize(records, "2024", "12")
	require.NoError(t, err)
	assert.False(t, s.Fallback)
	assert.Equal(t, []int64{1, 2, 3}, ids(s.Records))
	assert.Equal(t, "110", s.Total.String())
	assert.Equal(t, core.Food, s.TopCategory)
	assert.Equal(t, "60", s.TopSum.String())
	assert.Len(t, s.ByCategory, 2)
}

func TestSummarizeFallsBackToAllRecords(t *testing.T) {
	records := []core.Record{
		rec(1, core.Food, "20", "2024-12-02"),
		rec(2, core.Travel, "5", "2025-01-10"),
	}

	s, err := Summarize(records, "2023", "6")
	require.NoError(t, err)
	assert.True(t, s.Fallback)
	assert.Equal(t, []int64{1, 2}, ids(s.Records))
	assert.Equal(t, "25", s.Total.String())
	assert.Equal(t, core.Category(""), s.TopCategory)
	assert.True(t, s.TopSum.IsZero())
	assert.Empty(t, s.ByCategory)
}

func TestSummarizeInvalidMonth(t *testing.T) {
	_, err := Summarize(nil, "2024", "13")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestSummaryCloneIsIndependent(t *testing.T) {
	s, err := Summarize([]core.Record{rec(1, core.Food, "20", "2024-12-02")}, "2024", "12")
	require.NoError(t, err)

	c := s.Clone()
	c.Records[0].Description = "changed"
	c.ByCategory[0].Category = core.Other

	assert.Equal(t, "item", s.Records[0].Description)
	assert.Equal(t, core.Food, s.ByCategory[0].Category)
}
