package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/canc"
	"github.com/hyperengineering/canc/internal/store"
)

// Set via -ldflags "-X main.version=...". When unset, the VCS stamp from
// the build info is used instead.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

type buildReport struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	Date      string   `json:"date"`
	Go        string   `json:"go"`
	Platform  string   `json:"platform"`
	Schema    string   `json:"schema"`
	Variants  []string `json:"variants"`
	ModelRoot string   `json:"model_root"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and snapshot format information",
	Long: `Print the build version and commit, the snapshot schema this binary
reads and writes, the supported concept generation variants, and the
directory models are kept in.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func currentBuild() buildReport {
	r := buildReport{
		Version:   version,
		Commit:    commit,
		Date:      date,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Schema:    canc.SchemaVersion,
		ModelRoot: store.DefaultModelRoot(),
	}
	for _, variant := range canc.ValidVariants() {
		r.Variants = append(r.Variants, string(variant))
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && r.Commit == "":
				r.Commit = s.Value
			case s.Key == "vcs.time" && r.Date == "":
				r.Date = s.Value
			}
		}
	}
	if r.Commit == "" {
		r.Commit = "unknown"
	}
	if r.Date == "" {
		r.Date = "unknown"
	}
	return r
}

func runVersion(cmd *cobra.Command, args []string) error {
	r := currentBuild()
	if outputJSON {
		return outputAsJSON(cmd, r)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "canc %s\n", r.Version)
	printField(out, "Commit", r.Commit)
	printField(out, "Built", r.Date)
	printField(out, "Go", r.Go+" "+r.Platform)
	printField(out, "Snapshot schema", r.Schema)
	printField(out, "Variants", strings.Join(r.Variants, ", "))
	printField(out, "Model root", r.ModelRoot)
	return nil
}
