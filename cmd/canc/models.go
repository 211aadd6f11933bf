package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/canc"
	"github.com/hyperengineering/canc/internal/store"
)

var (
	modelsDeleteConfirm bool
	modelsDeleteForce   bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage model databases",
	Long: `Manage the model databases under ~/.canc/models.

Each model has its own snapshot database. Commands select a model with
--model or CANC_MODEL; the model "default" is used otherwise.`,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List models",
	Args:  cobra.NoArgs,
	RunE:  runModelsList,
}

var modelsInfoCmd = &cobra.Command{
	Use:   "info [model-id]",
	Short: "Show details of a model",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModelsInfo,
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <model-id>",
	Short: "Delete a model and all its snapshots",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsDelete,
}

func init() {
	modelsDeleteCmd.Flags().BoolVar(&modelsDeleteConfirm, "confirm", false, "Confirm deletion (required)")
	modelsDeleteCmd.Flags().BoolVar(&modelsDeleteForce, "force", false, "Skip the interactive prompt")

	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsInfoCmd)
	modelsCmd.AddCommand(modelsDeleteCmd)
	rootCmd.AddCommand(modelsCmd)
}

// modelSummary is one row of models list.
type modelSummary struct {
	ID            string `json:"id"`
	Description   string `json:"description,omitempty"`
	SnapshotCount int    `json:"snapshot_count"`
	LastSnapshot  string `json:"last_snapshot,omitempty"`
	Path          string `json:"path"`
}

func describeModel(id string) (modelSummary, error) {
	path := store.ModelDBPath(id)
	sum := modelSummary{ID: id, Path: path}

	s, err := canc.NewStore(path)
	if err != nil {
		return sum, err
	}
	defer s.Close()

	stats, err := s.Stats()
	if err != nil {
		return sum, err
	}
	sum.SnapshotCount = stats.SnapshotCount
	if !stats.LastSnapshot.IsZero() {
		sum.LastSnapshot = formatRelativeTime(stats.LastSnapshot)
	}
	sum.Description, err = s.Description()
	return sum, err
}

func runModelsList(cmd *cobra.Command, args []string) error {
	root := store.DefaultModelRoot()
	ids, err := store.ListModels(root)
	if err != nil {
		return errors.Wrap(err, "list models")
	}

	models := make([]modelSummary, 0, len(ids))
	for _, id := range ids {
		m, err := describeModel(id)
		if err != nil {
			return errors.Wrapf(err, "model %s", id)
		}
		models = append(models, m)
	}

	if outputJSON {
		return outputAsJSON(cmd, models)
	}

	out := cmd.OutOrStdout()
	if len(models) == 0 {
		fmt.Fprintf(out, "No models found under %s\n", root)
		printMuted(out, "Train one with: canc run data.csv --model <id> --checkpoint")
		return nil
	}
	rows := make([][]string, len(models))
	for i, m := range models {
		last := m.LastSnapshot
		if last == "" {
			last = "never"
		}
		rows[i] = []string{m.ID, strconv.Itoa(m.SnapshotCount), last, m.Description}
	}
	fmt.Fprint(out, renderTable([]string{"MODEL", "SNAPSHOTS", "LAST SNAPSHOT", "DESCRIPTION"}, rows))
	return nil
}

func runModelsInfo(cmd *cobra.Command, args []string) error {
	var explicit string
	if len(args) == 1 {
		explicit = args[0]
	} else {
		explicit = v.GetString("model")
	}
	id, err := store.ResolveModel(explicit)
	if err != nil {
		return err
	}
	if _, err := os.Stat(store.ModelDBPath(id)); err != nil {
		return errors.Newf("model %q not found", id)
	}

	m, err := describeModel(id)
	if err != nil {
		return err
	}
	if outputJSON {
		return outputAsJSON(cmd, m)
	}

	out := cmd.OutOrStdout()
	printInfo(out, "Model %s", m.ID)
	if m.Description != "" {
		fmt.Fprintf(out, "  Description: %s\n", m.Description)
	}
	fmt.Fprintf(out, "  Database:    %s\n", m.Path)
	fmt.Fprintf(out, "  Snapshots:   %d\n", m.SnapshotCount)
	if m.LastSnapshot != "" {
		fmt.Fprintf(out, "  Last:        %s\n", m.LastSnapshot)
	}
	return nil
}

func runModelsDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := store.ValidateModelID(id); err != nil {
		return errors.Wrapf(err, "invalid model ID %q", id)
	}
	if !modelsDeleteConfirm {
		return errors.New("--confirm flag is required for delete\n\nUsage: canc models delete <model-id> --confirm [--force]")
	}

	dbPath := store.ModelDBPath(id)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return errors.Newf("model %q not found", id)
	}
	m, err := describeModel(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !modelsDeleteForce {
		printWarning(out, "This will permanently delete model '%s' and its %d snapshots.", id, m.SnapshotCount)
		fmt.Fprintf(out, "Type '%s' to confirm: ", id)

		response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil {
			return errors.Wrap(err, "read confirmation")
		}
		if strings.TrimSpace(response) != id {
			printMuted(out, "Aborted.")
			return nil
		}
	}

	if err := os.RemoveAll(filepath.Dir(dbPath)); err != nil {
		return errors.Wrap(err, "delete model")
	}
	if outputJSON {
		return outputAsJSON(cmd, map[string]interface{}{"deleted": id, "snapshots": m.SnapshotCount})
	}
	printSuccess(out, "Model deleted: %s", id)
	return nil
}
