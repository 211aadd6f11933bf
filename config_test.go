package canc_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperengineering/canc"
)

func TestConfig_Validate_Defaults(t *testing.T) {
	cfg := canc.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() returned error for default config: %v", err)
	}
}

func TestConfig_Validate_InvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*canc.Config)
		field string
	}{
		{"grace period", func(c *canc.Config) { c.GracePeriod = 0 }, "GracePeriod"},
		{"variant", func(c *canc.Config) { c.Variant = "lattice" }, "Variant"},
		{"attribute method", func(c *canc.Config) { c.AttributeMethod = "chi2" }, "AttributeMethod"},
		{"value method", func(c *canc.Config) { c.ValueMethod = "gini" }, "ValueMethod"},
		{"sample size", func(c *canc.Config) { c.SampleSize = 0 }, "SampleSize"},
		{"sample fraction", func(c *canc.Config) {
			c.Resample = canc.ResampleRandomFraction
			c.SampleFraction = 1.5
		}, "SampleFraction"},
		{"resample", func(c *canc.Config) { c.Resample = "bootstrap" }, "Resample"},
		{"window", func(c *canc.Config) { c.WindowSize = -1 }, "WindowSize"},
		{"model", func(c *canc.Config) { c.Model = "Bad Name" }, "Model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := canc.DefaultConfig()
			tt.mod(&cfg)

			err := cfg.Validate()
			var ve *canc.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() returned %T (%v), want *ValidationError", err, err)
			}
			if ve.Field != tt.field {
				t.Errorf("ValidationError.Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := canc.Config{GracePeriod: 10}.WithDefaults()

	if cfg.GracePeriod != 10 {
		t.Errorf("GracePeriod = %d, want 10", cfg.GracePeriod)
	}
	if cfg.Variant != canc.VariantPertinentAllValues {
		t.Errorf("Variant = %q, want %q", cfg.Variant, canc.VariantPertinentAllValues)
	}
	if cfg.AttributeMethod != canc.AttributeGainRatio {
		t.Errorf("AttributeMethod = %q, want %q", cfg.AttributeMethod, canc.AttributeGainRatio)
	}
	if cfg.SampleSize != 50 {
		t.Errorf("SampleSize = %d, want 50", cfg.SampleSize)
	}
	if cfg.Persistent() {
		t.Error("Persistent() = true without model or path")
	}
}

func TestConfig_WithDefaults_DerivesPathFromModel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := canc.Config{Model: "weather"}.WithDefaults()
	if filepath.Base(cfg.LocalPath) != "canc.db" {
		t.Errorf("LocalPath = %q, want a canc.db path", cfg.LocalPath)
	}
	if filepath.Base(filepath.Dir(cfg.LocalPath)) != "weather" {
		t.Errorf("LocalPath = %q, want it under the model directory", cfg.LocalPath)
	}
	if !cfg.Persistent() {
		t.Error("Persistent() = false with a model")
	}
}

func TestConfig_Merge(t *testing.T) {
	base := canc.DefaultConfig()
	got := base.Merge(canc.Config{GracePeriod: 20, DisjointRules: true})

	if got.GracePeriod != 20 {
		t.Errorf("GracePeriod = %d, want 20", got.GracePeriod)
	}
	if !got.DisjointRules {
		t.Error("DisjointRules = false, want true")
	}
	if got.SampleSize != base.SampleSize {
		t.Errorf("SampleSize = %d, want %d", got.SampleSize, base.SampleSize)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CANC_GRACE_PERIOD", "42")
	t.Setenv("CANC_VARIANT", "canc-corv")
	t.Setenv("CANC_DISJOINT", "1")
	t.Setenv("CANC_SAMPLE_SIZE", "not-a-number")
	t.Setenv("CANC_SEED", "9")
	t.Setenv("CANC_MODEL", "")

	cfg := canc.ConfigFromEnv()
	if cfg.GracePeriod != 42 {
		t.Errorf("GracePeriod = %d, want 42", cfg.GracePeriod)
	}
	if cfg.Variant != canc.VariantAllAttributesRelevantValue {
		t.Errorf("Variant = %q, want canc-corv", cfg.Variant)
	}
	if !cfg.DisjointRules {
		t.Error("DisjointRules = false, want true")
	}
	if cfg.SampleSize != 0 {
		t.Errorf("SampleSize = %d, want 0 for unparseable value", cfg.SampleSize)
	}
	if cfg.Seed != 9 {
		t.Errorf("Seed = %d, want 9", cfg.Seed)
	}
}

func TestConfigFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := canc.DefaultConfig()
	want.WindowSize = 500
	want.Seed = 9

	if err := canc.SaveConfigFile(path, want); err != nil {
		t.Fatalf("SaveConfigFile() returned error: %v", err)
	}
	got, err := canc.LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() returned error: %v", err)
	}
	if got.WindowSize != 500 || got.Seed != 9 || got.Variant != want.Variant {
		t.Errorf("LoadConfigFile() = %+v, want %+v", got, want)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	cfg, err := canc.LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigFile() returned error for missing file: %v", err)
	}
	if cfg.GracePeriod != 0 {
		t.Errorf("GracePeriod = %d, want zero config", cfg.GracePeriod)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("grace_period: [1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := canc.LoadConfigFile(path); err == nil {
		t.Error("LoadConfigFile() returned nil error for malformed YAML")
	}
}
