package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidationError reports the first field of an Expense that failed validation.
// It matches both ErrValidation and the field-specific sentinel.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return strings.ToLower(e.Field) + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

var validate = newValidator()

var fieldErrors = map[string]error{
	"Sum":         ErrNegativeSum,
	"Category":    ErrInvalidCategory,
	"Description": ErrEmptyDescription,
	"Date":        ErrMissingDate,
}

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(Date); ok {
			return d.Time
		}
		return nil
	}, Date{})

	// not empty and not only whitespace
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// checked on the decimal itself; a float conversion rounds tiny negatives to -0
	_ = v.RegisterValidation("nonnegative", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && !d.IsNegative()
	})

	// four-digit years only, the range DateLayout can read back
	_ = v.RegisterValidation("dateyear", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && t.Year() >= 1 && t.Year() <= 9999
	})

	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})

	return v
}

// Validate checks the caller-side invariants of an expense. The store never calls it.
func (e Expense) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	cause, ok := fieldErrors[fe.Field()]
	if !ok {
		cause = errors.New(fe.Tag())
	}
	if fe.Field() == "Date" && fe.Tag() == "dateyear" {
		cause = fmt.Errorf("%w: year %d outside 1-9999", ErrInvalidDate, e.Date.Year())
	}
	if fe.Field() == "Description" && fe.Tag() == "max" {
		cause = errors.New("description too long (max 200 characters)")
	}
	return &ValidationError{Field: fe.Field(), Err: cause}
}
