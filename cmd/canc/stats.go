package main

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/canc"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show model statistics",
	Long:  `Display the snapshot database and the measurements of the latest snapshot.`,
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

type statsOutput struct {
	Model       string             `json:"model,omitempty"`
	Description string             `json:"description,omitempty"`
	Store       *canc.StoreStats   `json:"store"`
	Latest      *canc.SnapshotInfo `json:"latest,omitempty"`
	Stats       *canc.Stats        `json:"stats,omitempty"`
	Accuracy    float64            `json:"accuracy,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	result := statsOutput{Model: cfg.Model}
	if result.Store, err = s.Stats(); err != nil {
		return err
	}
	if result.Description, err = s.Description(); err != nil {
		return err
	}

	model, info, err := s.LatestSnapshot(cmd.Context())
	switch {
	case errors.Is(err, canc.ErrSnapshotNotFound):
	case err != nil:
		return err
	default:
		result.Latest = info
		result.Stats = &model.Stats
		result.Accuracy = model.Stats.Accuracy()
	}

	if outputJSON {
		return outputAsJSON(cmd, result)
	}
	outputStats(cmd.OutOrStdout(), result)
	return nil
}

func outputStats(w io.Writer, r statsOutput) {
	if r.Model != "" {
		printField(w, "Model", r.Model)
	}
	if r.Description != "" {
		printField(w, "Description", r.Description)
	}
	printField(w, "Database", r.Store.Path)
	printField(w, "Schema version", r.Store.SchemaVersion)
	printField(w, "Snapshots", r.Store.SnapshotCount)
	if r.Latest == nil {
		printMuted(w, "No snapshots yet.")
		return
	}

	fmt.Fprintln(w)
	outputSnapshotInfo(w, r.Latest)
	fmt.Fprintf(w, "  State:    %s\n", r.Stats.State)
	fmt.Fprintf(w, "  Rebuilds: %d\n", r.Stats.Rebuilds)
	fmt.Fprintf(w, "  Accuracy: %.4f (correct %d, incorrect %d, rejected %d)\n",
		r.Accuracy, r.Stats.Correct, r.Stats.Incorrect, r.Stats.Rejected)
}
