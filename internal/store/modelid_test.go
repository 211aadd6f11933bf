package store_test

import (
	"strings"
	"testing"

	"github.com/hyperengineering/canc/internal/store"
)

func TestValidateModelID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"default", "default", false},
		{"hyphenated", "weather-stream", false},
		{"dotted", "weather.v2", false},
		{"single char", "a", false},
		{"empty", "", true},
		{"uppercase", "Weather", true},
		{"slash", "org/model", true},
		{"leading hyphen", "-model", true},
		{"trailing dot", "model.", true},
		{"parent dir", "..", true},
		{"too long", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.ValidateModelID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateModelID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
