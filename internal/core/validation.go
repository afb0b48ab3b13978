package core

// validation.go checks built records against their field rules before they
// reach the store. Rules live in struct tags on the entity types.
//
// Only field-local rules are checked here (presence, lengths, coordinate
// ranges). Reference checks need the store and are enforced atomically by
// it at write time.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every failed rule for one record.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	parts := make([]string, len(ve))
	for i, e := range ve {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Validator checks records against their struct-tag rules.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator. It is safe for concurrent use.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate returns nil or an ErrConstraint wrapping ValidationErrors.
func (v *Validator) Validate(rec Record) error {
	err := v.v.Struct(rec)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Value:   fmt.Sprint(fe.Value()),
			Message: ruleMessage(fe),
		})
	}
	return fmt.Errorf("%w: %w", ErrConstraint, out)
}

// ruleMessage returns a human-readable message for a failed rule.
func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field is empty"
	case "max":
		return fmt.Sprintf("longer than %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s rule", fe.Tag())
	}
}

// CheckCoordinates returns an ErrConstraint unless lat is within [-90, 90]
// and lon within [-180, 180]. Stores call it on every write.
func CheckCoordinates(lat, lon float64) error {
	if !(lat >= -90 && lat <= 90) {
		return Constraint("latitude %v out of range [-90, 90]", lat)
	}
	if !(lon >= -180 && lon <= 180) {
		return Constraint("longitude %v out of range [-180, 180]", lon)
	}
	return nil
}
