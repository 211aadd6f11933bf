package canc_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hyperengineering/canc"
)

func TestSentinelErrors_ErrorsIs(t *testing.T) {
	tests := []struct {
		name     string
		sentinel error
	}{
		{"ErrMissingLabel", canc.ErrMissingLabel},
		{"ErrEmptyRecord", canc.ErrEmptyRecord},
		{"ErrClosed", canc.ErrClosed},
		{"ErrSnapshotNotFound", canc.ErrSnapshotNotFound},
		{"ErrNoStore", canc.ErrNoStore},
		{"ErrUnknownRef", canc.ErrUnknownRef},
		{"ErrUnsupportedFormat", canc.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("operation failed: %w", tt.sentinel)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(wrapped, %v) = false, want true", tt.sentinel)
			}
		})
	}
}

func TestValidationError_ErrorsAs(t *testing.T) {
	err := fmt.Errorf("new learner: %w", &canc.ValidationError{Field: "GracePeriod", Message: "must be positive"})

	var ve *canc.ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("errors.As() = false, want true")
	}
	if got, want := ve.Error(), "config: GracePeriod: must be positive"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
