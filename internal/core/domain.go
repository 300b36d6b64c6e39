package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO 8601 calendar date layout used for storage and display.
const DateLayout = "2006-01-02"

const (
	Food      Category = "FOOD"
	Health    Category = "HEALTH"
	Education Category = "EDUCATION"
	Travel    Category = "TRAVEL"
	Housing   Category = "HOUSING"
	Other     Category = "OTHER"
)

type (
	Category string

	Date struct {
		time.Time
	}

	// Expense is what the caller supplies; the store assigns the ID.
	Expense struct {
		Sum         decimal.Decimal `validate:"nonnegative"`
		Category    Category        `validate:"category"`
		Description string          `validate:"notblank,max=200"`
		Date        Date            `validate:"required,dateyear"`
	}

	// Record is a persisted expense.
	Record struct {
		ID int64
		Expense
	}
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNegativeSum      = errors.New("sum must not be negative")
	ErrInvalidSum       = errors.New("invalid sum")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrMissingDate      = errors.New("missing date")
	ErrInvalidDate      = errors.New("invalid date")
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{Food, Health, Education, Travel, Housing, Other}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case Food, Health, Education, Travel, Housing, Other:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the calendar date of now in its own location.
func Today(now time.Time) Date {
	y, m, d := now.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// IsEmpty returns true if the date was never set
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// WithDefaults fills the fields the caller may omit. Only the date has a default.
func (e Expense) WithDefaults(now time.Time) Expense {
	if e.Date.IsEmpty() {
		e.Date = Today(now)
	}
	return e
}
