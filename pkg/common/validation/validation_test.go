package validation

import (
	"testing"

	"github.com/vnykmshr/prodsim/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("test", "count", tt.value)

			if tt.wantError {
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	if err := ValidateNonNegative("test", "limit", 0); err != nil {
		t.Errorf("zero should be accepted, got %v", err)
	}
	if err := ValidateNonNegative("test", "limit", -1); !errors.IsValidationError(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name         string
		lower, upper int
		wantError    bool
	}{
		{"ordinary range", 1000, 5000, false},
		{"empty range", 0, 0, false},
		{"equal bounds", 80, 80, false},
		{"inverted", 90, 80, true},
		{"negative lower", -1, 10, true},
		{"negative upper", 0, -10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange("workers", "work_time", tt.lower, tt.upper)
			if tt.wantError != (err != nil) {
				t.Fatalf("ValidateRange(%d, %d) error = %v, wantError %v", tt.lower, tt.upper, err, tt.wantError)
			}
			if err != nil && !errors.IsValidationError(err) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	if err := ValidateNotNil("test", "source", nil); err == nil {
		t.Error("expected error for nil")
	}
	if err := ValidateNotNil("test", "source", struct{}{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("test", "channel", ""); err == nil {
		t.Error("expected error for empty string")
	}
	if err := ValidateNotEmpty("test", "channel", "prodsim:log"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
