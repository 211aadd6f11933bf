package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/canc"
)

var (
	exportOutputPath string
	exportFormat     string
	exportSnapshot   string

	importInputPath string
	importFormat    string
	importLabel     string
	importDryRun    bool

	snapshotsLimit int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a snapshot to a file",
	Long: `Export a saved snapshot as JSON or YAML.

The exported model holds the concepts, the rules and the learner's
measurements. Writes to stdout when no output file is given.`,
	Example: `  canc export -o model.json
  canc export --snapshot 01J9Z7M3X8ZK3Q2V4N5B6C7D8E -o model.yaml`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a snapshot from a file",
	Long: `Import an exported model as a new snapshot.

The format is detected from the file extension (.json, .yaml, .yml) unless
--format is given. The model's database is created if needed.`,
	Example: `  canc import -i model.json --model churn
  canc import -i model.yaml --dry-run`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List and delete saved snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotsList,
}

var snapshotsDeleteCmd = &cobra.Command{
	Use:   "delete <snapshot-id>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotsDelete,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "Output file path (default: stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Export format: json, yaml (default: from extension, else json)")
	exportCmd.Flags().StringVar(&exportSnapshot, "snapshot", "", "Snapshot ID (default: latest)")

	importCmd.Flags().StringVarP(&importInputPath, "input", "i", "", "Input file path (required)")
	importCmd.Flags().StringVar(&importFormat, "format", "", "Override format detection: json, yaml")
	importCmd.Flags().StringVar(&importLabel, "label", "", "Label for the imported snapshot")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the model without storing it")
	_ = importCmd.MarkFlagRequired("input")

	snapshotsListCmd.Flags().IntVarP(&snapshotsLimit, "limit", "n", 0, "Maximum snapshots to list (0 for all)")
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsDeleteCmd)

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

// detectFormat picks a model format from a file extension.
func detectFormat(path, override string) (canc.Format, error) {
	f := strings.ToLower(override)
	if f == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			f = string(canc.FormatYAML)
		default:
			f = string(canc.FormatJSON)
		}
	}
	switch canc.Format(f) {
	case canc.FormatJSON, canc.FormatYAML:
		return canc.Format(f), nil
	}
	return "", errors.Wrapf(canc.ErrUnsupportedFormat, "%q: must be 'json' or 'yaml'", override)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := detectFormat(exportOutputPath, exportFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if exportOutputPath == "" {
		_, err := s.ExportSnapshot(cmd.Context(), exportSnapshot, cmd.OutOrStdout(), format)
		return err
	}

	if dir := filepath.Dir(exportOutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}
	f, err := os.Create(exportOutputPath)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	info, err := s.ExportSnapshot(cmd.Context(), exportSnapshot, f, format)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(exportOutputPath)
		return errors.Wrap(err, "export failed")
	}

	if outputJSON {
		return outputAsJSON(cmd, map[string]interface{}{
			"snapshot": info,
			"format":   format,
			"output":   exportOutputPath,
		})
	}
	out := cmd.OutOrStdout()
	outputSnapshotInfo(out, info)
	printSuccess(out, "Exported to %s (%s)", exportOutputPath, strings.ToUpper(string(format)))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	format, err := detectFormat(importInputPath, importFormat)
	if err != nil {
		return err
	}
	f, err := os.Open(importInputPath)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer f.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var info *canc.SnapshotInfo
	if importDryRun {
		m, err := canc.ReadModel(f, format)
		if err != nil {
			return err
		}
		info = &canc.SnapshotInfo{
			Variant:      m.Variant,
			RecordsSeen:  m.Stats.RecordsSeen,
			ConceptCount: len(m.Concepts),
			RuleCount:    len(m.Rules),
			Label:        importLabel,
		}
	} else {
		s, err := canc.NewStore(cfg.LocalPath)
		if err != nil {
			return err
		}
		defer s.Close()
		if info, err = s.ImportSnapshot(cmd.Context(), f, format, importLabel, false); err != nil {
			return err
		}
	}

	if outputJSON {
		return outputAsJSON(cmd, map[string]interface{}{
			"snapshot": info,
			"dry_run":  importDryRun,
		})
	}
	out := cmd.OutOrStdout()
	if importDryRun {
		printInfo(out, "Dry run: %s is a valid %s model", importInputPath, info.Variant)
		fmt.Fprintf(out, "  Records:  %d\n", info.RecordsSeen)
		fmt.Fprintf(out, "  Concepts: %d\n", info.ConceptCount)
		fmt.Fprintf(out, "  Rules:    %d\n", info.RuleCount)
		return nil
	}
	outputSnapshotInfo(out, info)
	printSuccess(out, "Imported into %s", cfg.LocalPath)
	return nil
}

func runSnapshotsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	snaps, err := s.ListSnapshots(cmd.Context(), snapshotsLimit)
	if err != nil {
		return err
	}
	if outputJSON {
		if snaps == nil {
			snaps = []canc.SnapshotInfo{}
		}
		return outputAsJSON(cmd, snaps)
	}

	out := cmd.OutOrStdout()
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots.")
		return nil
	}
	rows := make([][]string, len(snaps))
	for i, sn := range snaps {
		rows[i] = []string{
			sn.ID,
			formatRelativeTime(sn.CreatedAt),
			string(sn.Variant),
			strconv.Itoa(sn.RecordsSeen),
			strconv.Itoa(sn.RuleCount),
			sn.Label,
		}
	}
	fmt.Fprint(out, renderTable([]string{"ID", "CREATED", "VARIANT", "RECORDS", "RULES", "LABEL"}, rows))
	return nil
}

func runSnapshotsDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
		return errors.Wrapf(err, "delete %s", args[0])
	}
	if outputJSON {
		return outputAsJSON(cmd, map[string]string{"deleted": args[0]})
	}
	printSuccess(cmd.OutOrStdout(), "Deleted snapshot %s", args[0])
	return nil
}
