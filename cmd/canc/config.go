package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/canc"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default parameters",
	Long: `Write the learner's default parameters to the config file.

Flags given with init are written too, so
  canc config init --grace 200 --variant canc-corv
stores a config with those values.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, err := os.Stat(path); err == nil && !configForce {
		return errors.Newf("config file %s already exists (use --force to overwrite)", path)
	}

	cfg := explicitBools(canc.DefaultConfig().Merge(flagConfig()))
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := canc.SaveConfigFile(path, cfg); err != nil {
		return err
	}

	if outputJSON {
		return outputAsJSON(cmd, map[string]string{"path": path})
	}
	printSuccess(cmd.OutOrStdout(), "Wrote %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if outputJSON {
		return outputAsJSON(cmd, cfg)
	}

	out := cmd.OutOrStdout()
	printMuted(out, "# %s", configPath())
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, "encode config")
	}
	return enc.Close()
}
