package canc

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Common errors returned by the canc package.
var (
	// ErrMissingLabel is returned when a record without a class label is learned.
	ErrMissingLabel = errors.New("record has no class label")

	// ErrEmptyRecord is returned when a record carries no attributes.
	ErrEmptyRecord = errors.New("record has no attributes")

	// ErrClosed is returned when operating on a closed client or store.
	ErrClosed = errors.New("closed")

	// ErrSnapshotNotFound is returned when a model snapshot does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrNoStore is returned when persistence is requested without a model database.
	ErrNoStore = errors.New("no model store configured")

	// ErrUnknownRef is returned when a prediction reference cannot be resolved.
	ErrUnknownRef = errors.New("prediction reference not found")

	// ErrUnsupportedFormat is returned for an unknown export format.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}
