package main

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hyperengineering/canc"
	"github.com/hyperengineering/canc/internal/store"
)

var (
	cfgFile    string
	outputJSON bool
)

// envBindings ties each config key to its flag and environment variable.
var envBindings = []struct{ key, flag, env string }{
	{"model", "model", store.EnvModel},
	{"local_path", "db-path", "CANC_DB_PATH"},
	{"grace_period", "grace", "CANC_GRACE_PERIOD"},
	{"variant", "variant", "CANC_VARIANT"},
	{"attribute_method", "attribute-method", "CANC_ATTRIBUTE_METHOD"},
	{"value_method", "value-method", "CANC_VALUE_METHOD"},
	{"disjoint_rules", "disjoint", "CANC_DISJOINT"},
	{"resample", "resample", "CANC_RESAMPLE"},
	{"sample_size", "sample-size", "CANC_SAMPLE_SIZE"},
	{"sample_fraction", "sample-fraction", "CANC_SAMPLE_FRACTION"},
	{"seed", "seed", "CANC_SEED"},
	{"window_size", "window", "CANC_WINDOW"},
	{"debug", "debug", "CANC_DEBUG"},
	{"debug_log_path", "debug-log", "CANC_DEBUG_LOG"},
}

// v holds flag and environment values. Keys match the YAML config keys.
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "canc",
	Short: "CANC - online concept classifier",
	Long: `CANC is an online classifier for categorical data streams.

It builds formal concepts from labelled records, turns them into weighted
rules, and refines the model as each record is predicted and then learned.
Models are checkpointed as snapshots in a local SQLite database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ~/.canc/config.yaml)")
	pf.BoolVar(&outputJSON, "json", false, "Output in JSON format")

	pf.String("model", "", "Model ID (default: $CANC_MODEL or \"default\")")
	pf.String("db-path", "", "Path to the snapshot database (overrides --model)")
	pf.Int("grace", 0, "Records accumulated before the first build (default: 1750)")
	pf.String("variant", "", "Concept generation variant: cpnc-comv, cpnc-corv, canc-comv, canc-corv (default: cpnc-comv)")
	pf.String("attribute-method", "", "Attribute scoring: info-gain or gain-ratio")
	pf.String("value-method", "", "Value scoring: entropy or support")
	pf.Bool("disjoint", false, "Emit one rule per intent pair")
	pf.String("resample", "", "Resampling after a rejection: top-k or random-fraction")
	pf.Int("sample-size", 0, "Records kept by top-k resampling (default: 50)")
	pf.Float64("sample-fraction", 0, "Share kept by random-fraction resampling (0 draws one)")
	pf.Uint64("seed", 0, "Seed for random-fraction resampling")
	pf.Int("window", 0, "Maximum records kept in the store (0 keeps all)")
	pf.Bool("debug", false, "Enable debug logging and invariant checks")
	pf.String("debug-log", "", "Write logs to this file instead of stderr")

	for _, b := range envBindings {
		_ = v.BindPFlag(b.key, pf.Lookup(b.flag))
		_ = v.BindEnv(b.key, b.env)
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(statsCmd)
}

// configPath returns the config file in effect.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if env := os.Getenv("CANC_CONFIG"); env != "" {
		return env
	}
	return filepath.Join(filepath.Dir(store.DefaultModelRoot()), "config.yaml")
}

// loadConfig layers defaults, the config file, environment and flags.
// The model ID is always resolved so every command has a database.
func loadConfig() (canc.Config, error) {
	cfg := canc.DefaultConfig()

	file, err := canc.LoadConfigFile(configPath())
	if err != nil {
		return canc.Config{}, err
	}
	cfg = explicitBools(cfg.Merge(file).Merge(flagConfig()))

	if cfg.LocalPath == "" {
		model, err := store.ResolveModel(cfg.Model)
		if err != nil {
			return canc.Config{}, err
		}
		cfg.Model = model
	}
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return canc.Config{}, err
	}
	return cfg, nil
}

// explicitBools applies boolean keys set by flag or environment. Merge only
// overlays true, so an explicit false would otherwise lose to the file.
func explicitBools(cfg canc.Config) canc.Config {
	if v.IsSet("disjoint_rules") {
		cfg.DisjointRules = v.GetBool("disjoint_rules")
	}
	if v.IsSet("debug") {
		cfg.Debug = v.GetBool("debug")
	}
	return cfg
}

// flagConfig reads the viper-bound flags and environment. Unset keys are
// zero, so Merge leaves lower layers in place.
func flagConfig() canc.Config {
	return canc.Config{
		GracePeriod:     v.GetInt("grace_period"),
		Variant:         canc.Variant(v.GetString("variant")),
		AttributeMethod: canc.AttributeMethod(v.GetString("attribute_method")),
		ValueMethod:     canc.ValueMethod(v.GetString("value_method")),
		DisjointRules:   v.GetBool("disjoint_rules"),
		Resample:        canc.ResampleMode(v.GetString("resample")),
		SampleSize:      v.GetInt("sample_size"),
		SampleFraction:  v.GetFloat64("sample_fraction"),
		Seed:            v.GetUint64("seed"),
		WindowSize:      v.GetInt("window_size"),
		Model:           v.GetString("model"),
		LocalPath:       v.GetString("local_path"),
		Debug:           v.GetBool("debug"),
		DebugLogPath:    v.GetString("debug_log_path"),
	}
}

// openStore opens the snapshot database of the configured model. It does
// not create one: only run writes new models.
func openStore(cfg canc.Config) (*canc.Store, error) {
	if _, err := os.Stat(cfg.LocalPath); err != nil {
		return nil, errors.Newf("no snapshots for model %s (%s); train one with 'canc run --checkpoint'", cfg.Model, cfg.LocalPath)
	}
	s, err := canc.NewStore(cfg.LocalPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open model %s", cfg.Model)
	}
	return s, nil
}
