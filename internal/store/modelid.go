package store

import (
	"regexp"

	"github.com/cockroachdb/errors"
)

// ErrInvalidModelID is returned for a model ID that cannot name a directory.
var ErrInvalidModelID = errors.New("invalid model ID: must be lowercase alphanumeric with hyphens or dots, 1-64 characters")

// DefaultModelID names the model used when none is configured.
const DefaultModelID = "default"

var modelIDRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9.-]{0,62}[a-z0-9])?$`)

// ValidateModelID checks that id is usable as a model directory name.
func ValidateModelID(id string) error {
	if id == "" || !modelIDRegex.MatchString(id) {
		return ErrInvalidModelID
	}
	return nil
}
