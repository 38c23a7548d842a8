package validation

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/invstream/errors"
)

const msgRequired = "is required"

func msgAtLeast(limit string) string { return "must be greater than or equal to " + limit }

// FieldError is one rejected field. Field uses the wire name, with list
// indexes ("lots[1].lotId").
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string { return e.Field + ": " + e.Message }

// Validator accumulates field errors across chained checks. The zero value
// is ready to use.
type Validator struct {
	fields []FieldError
}

func New() *Validator { return &Validator{} }

func (v *Validator) AddError(field, message string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
}

// Validate folds the collected errors into one invalid-input AppError, or
// returns nil.
func (v *Validator) Validate() *errors.AppError {
	return toAppError(v.fields)
}

func toAppError(fields []FieldError) *errors.AppError {
	if len(fields) == 0 {
		return nil
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.String()
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", fields)
}

// Custom records message for field when ok is false.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// Required rejects blank strings.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(strings.TrimSpace(value) != "", field, msgRequired)
}

// URL requires an absolute URL. When schemes are given the URL must use one
// of them.
func (v *Validator) URL(field, value string, schemes ...string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.Custom(false, field, msgRequired)
	}
	u, err := url.Parse(value)
	switch {
	case err != nil || u.Host == "":
		v.AddError(field, "must be a valid URL")
	case len(schemes) > 0 && !slices.Contains(schemes, strings.ToLower(u.Scheme)):
		v.AddError(field, "scheme must be one of: "+strings.Join(schemes, ", "))
	}
	return v
}

// Min requires value >= limit.
func (v *Validator) Min(field string, value, limit int) *Validator {
	return v.Custom(value >= limit, field, fmt.Sprintf("must be at least %d", limit))
}

// NonNegative rejects counts below zero.
func (v *Validator) NonNegative(field string, value int64) *Validator {
	return v.Custom(value >= 0, field, msgAtLeast("0"))
}

// MinDuration requires d >= limit.
func (v *Validator) MinDuration(field string, d, limit time.Duration) *Validator {
	return v.Custom(d >= limit, field, "must be at least "+limit.String())
}

// Between requires lo <= value <= hi.
func (v *Validator) Between(field string, value, lo, hi float64) *Validator {
	return v.Custom(value >= lo && value <= hi, field, fmt.Sprintf("must be between %s and %s",
		strconv.FormatFloat(lo, 'g', -1, 64), strconv.FormatFloat(hi, 'g', -1, 64)))
}

// OneOf accepts an empty value or a member of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	return v.Custom(value == "" || slices.Contains(allowed, value), field,
		"must be one of: "+strings.Join(allowed, ", "))
}
