package validation

import (
	"fmt"

	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return gferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that an integer value is non-negative (>= 0).
// Returns a ValidationError if the value is negative.
func ValidateNonNegative(module, field string, value int) error {
	if value < 0 {
		return gferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateRange validates a half-open [lower, upper) bound pair.
// Both ends must be non-negative and lower must not exceed upper.
func ValidateRange(module, field string, lower, upper int) error {
	if lower < 0 || upper < 0 {
		return gferrors.NewValidationError(module, field, fmt.Sprintf("[%d,%d)", lower, upper), "bounds cannot be negative").
			WithHint("use 0 or positive millisecond values")
	}
	if lower > upper {
		return gferrors.NewValidationError(module, field, fmt.Sprintf("[%d,%d)", lower, upper), "lower bound exceeds upper bound").
			WithHint("swap the bounds or make them equal for a fixed duration")
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
// Returns a ValidationError if the value is nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return gferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return gferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}
