package canc

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/canc/internal/store"
)

// ResampleMode selects how records are drawn after a rejection.
type ResampleMode string

const (
	// ResampleTopK keeps the SampleSize heaviest records.
	ResampleTopK ResampleMode = "top-k"
	// ResampleRandomFraction keeps a fraction of the heaviest records.
	ResampleRandomFraction ResampleMode = "random-fraction"
)

// Config configures a Learner and the Client around it.
type Config struct {
	// GracePeriod is the number of records accumulated with uniform weight
	// before the first model is built. Defaults to 1750.
	GracePeriod int `json:"grace_period" yaml:"grace_period"`

	// Variant selects the concept generation strategy.
	// Defaults to VariantPertinentAllValues.
	Variant Variant `json:"variant" yaml:"variant"`

	// AttributeMethod scores attributes. Defaults to AttributeGainRatio.
	AttributeMethod AttributeMethod `json:"attribute_method" yaml:"attribute_method"`

	// ValueMethod scores values within an attribute. Defaults to ValueSupport.
	ValueMethod ValueMethod `json:"value_method" yaml:"value_method"`

	// DisjointRules emits one rule per intent pair instead of one rule per concept.
	DisjointRules bool `json:"disjoint_rules" yaml:"disjoint_rules"`

	// Resample selects the resampling policy. Defaults to ResampleTopK.
	Resample ResampleMode `json:"resample" yaml:"resample"`

	// SampleSize is K for ResampleTopK. Defaults to 50.
	SampleSize int `json:"sample_size" yaml:"sample_size"`

	// SampleFraction is the share kept by ResampleRandomFraction.
	// Zero draws a new fraction uniformly at every resample.
	SampleFraction float64 `json:"sample_fraction" yaml:"sample_fraction"`

	// Seed seeds ResampleRandomFraction. Zero seeds from the runtime.
	Seed uint64 `json:"seed" yaml:"seed"`

	// WindowSize bounds the record store. Zero keeps every record.
	WindowSize int `json:"window_size" yaml:"window_size"`

	// Model is the model ID whose database stores snapshots.
	// If empty and LocalPath is empty, snapshots are not persisted.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// LocalPath is the path to the snapshot database.
	// If empty and Model is set, LocalPath is derived from Model.
	LocalPath string `json:"local_path,omitempty" yaml:"local_path,omitempty"`

	// Debug enables debug logging and invariant checks after every step.
	Debug bool `json:"debug" yaml:"debug"`

	// DebugLogPath is the path to write logs. Defaults to stderr if empty.
	DebugLogPath string `json:"debug_log_path,omitempty" yaml:"debug_log_path,omitempty"`

	// Evaluator computes attribute scores. Defaults to EntropyEvaluator.
	Evaluator AttributeEvaluator `json:"-" yaml:"-"`

	// Logger receives structured logs. Defaults to a no-op logger.
	Logger *zap.SugaredLogger `json:"-" yaml:"-"`

	// Registerer receives the learner's metrics. Nil disables metrics.
	Registerer prometheus.Registerer `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with the learner's standard parameters.
func DefaultConfig() Config {
	return Config{
		GracePeriod:     1750,
		Variant:         VariantPertinentAllValues,
		AttributeMethod: AttributeGainRatio,
		ValueMethod:     ValueSupport,
		Resample:        ResampleTopK,
		SampleSize:      50,
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	CANC_GRACE_PERIOD     → GracePeriod
//	CANC_VARIANT          → Variant
//	CANC_ATTRIBUTE_METHOD → AttributeMethod
//	CANC_VALUE_METHOD     → ValueMethod
//	CANC_DISJOINT         → DisjointRules (any non-empty value enables)
//	CANC_RESAMPLE         → Resample
//	CANC_SAMPLE_SIZE      → SampleSize
//	CANC_SAMPLE_FRACTION  → SampleFraction
//	CANC_SEED             → Seed
//	CANC_WINDOW           → WindowSize
//	CANC_MODEL            → Model
//	CANC_DB_PATH          → LocalPath
//	CANC_DEBUG            → Debug (any non-empty value enables)
//	CANC_DEBUG_LOG        → DebugLogPath
//
// Unparseable numbers are left zero so WithDefaults fills them in.
func ConfigFromEnv() Config {
	return Config{
		GracePeriod:     envInt("CANC_GRACE_PERIOD"),
		Variant:         Variant(os.Getenv("CANC_VARIANT")),
		AttributeMethod: AttributeMethod(os.Getenv("CANC_ATTRIBUTE_METHOD")),
		ValueMethod:     ValueMethod(os.Getenv("CANC_VALUE_METHOD")),
		DisjointRules:   os.Getenv("CANC_DISJOINT") != "",
		Resample:        ResampleMode(os.Getenv("CANC_RESAMPLE")),
		SampleSize:      envInt("CANC_SAMPLE_SIZE"),
		SampleFraction:  envFloat("CANC_SAMPLE_FRACTION"),
		Seed:            envUint64("CANC_SEED"),
		WindowSize:      envInt("CANC_WINDOW"),
		Model:           os.Getenv(store.EnvModel),
		LocalPath:       os.Getenv("CANC_DB_PATH"),
		Debug:           os.Getenv("CANC_DEBUG") != "",
		DebugLogPath:    os.Getenv("CANC_DEBUG_LOG"),
	}
}

func envInt(key string) int {
	n, _ := strconv.Atoi(os.Getenv(key))
	return n
}

func envUint64(key string) uint64 {
	n, _ := strconv.ParseUint(os.Getenv(key), 10, 64)
	return n
}

func envFloat(key string) float64 {
	f, _ := strconv.ParseFloat(os.Getenv(key), 64)
	return f
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if c.GracePeriod <= 0 {
		return &ValidationError{Field: "GracePeriod", Message: "must be positive"}
	}
	if !c.Variant.IsValid() {
		return &ValidationError{Field: "Variant", Message: "unknown variant " + strconv.Quote(string(c.Variant))}
	}
	if !c.AttributeMethod.IsValid() {
		return &ValidationError{Field: "AttributeMethod", Message: "must be info-gain or gain-ratio"}
	}
	if !c.ValueMethod.IsValid() {
		return &ValidationError{Field: "ValueMethod", Message: "must be entropy or support"}
	}

	switch c.Resample {
	case ResampleTopK:
		if c.SampleSize <= 0 {
			return &ValidationError{Field: "SampleSize", Message: "must be positive for top-k resampling"}
		}
	case ResampleRandomFraction:
		if c.SampleFraction < 0 || c.SampleFraction > 1 {
			return &ValidationError{Field: "SampleFraction", Message: "must be between 0 and 1"}
		}
	default:
		return &ValidationError{Field: "Resample", Message: "must be top-k or random-fraction"}
	}

	if c.WindowSize < 0 {
		return &ValidationError{Field: "WindowSize", Message: "must be non-negative"}
	}
	if c.Model != "" {
		if err := store.ValidateModelID(c.Model); err != nil {
			return &ValidationError{Field: "Model", Message: err.Error()}
		}
	}
	return nil
}

// Persistent reports whether snapshots are stored on disk.
func (c *Config) Persistent() bool {
	return c.LocalPath != ""
}

// WithDefaults fills in default values for unset fields.
// LocalPath is derived from Model when only Model is set.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.GracePeriod == 0 {
		c.GracePeriod = defaults.GracePeriod
	}
	if c.Variant == "" {
		c.Variant = defaults.Variant
	}
	if c.AttributeMethod == "" {
		c.AttributeMethod = defaults.AttributeMethod
	}
	if c.ValueMethod == "" {
		c.ValueMethod = defaults.ValueMethod
	}
	if c.Resample == "" {
		c.Resample = defaults.Resample
	}
	if c.Resample == ResampleTopK && c.SampleSize == 0 {
		c.SampleSize = defaults.SampleSize
	}
	if c.LocalPath == "" && c.Model != "" {
		c.LocalPath = store.ModelDBPath(c.Model)
	}
	return c
}

// Merge overlays the non-zero fields of other onto c.
func (c Config) Merge(other Config) Config {
	if other.GracePeriod != 0 {
		c.GracePeriod = other.GracePeriod
	}
	if other.Variant != "" {
		c.Variant = other.Variant
	}
	if other.AttributeMethod != "" {
		c.AttributeMethod = other.AttributeMethod
	}
	if other.ValueMethod != "" {
		c.ValueMethod = other.ValueMethod
	}
	if other.DisjointRules {
		c.DisjointRules = true
	}
	if other.Resample != "" {
		c.Resample = other.Resample
	}
	if other.SampleSize != 0 {
		c.SampleSize = other.SampleSize
	}
	if other.SampleFraction != 0 {
		c.SampleFraction = other.SampleFraction
	}
	if other.Seed != 0 {
		c.Seed = other.Seed
	}
	if other.WindowSize != 0 {
		c.WindowSize = other.WindowSize
	}
	if other.Model != "" {
		c.Model = other.Model
	}
	if other.LocalPath != "" {
		c.LocalPath = other.LocalPath
	}
	if other.Debug {
		c.Debug = true
	}
	if other.DebugLogPath != "" {
		c.DebugLogPath = other.DebugLogPath
	}
	return c
}

// LoadConfigFile reads a YAML config file. A missing file yields the zero
// Config so callers can still apply defaults.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, errors.Wrap(err, "read config")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// SaveConfigFile writes cfg as YAML, creating directories as needed.
func SaveConfigFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, data, 0o644)
}
