package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/canc"
	"github.com/hyperengineering/canc/internal/stream"
)

var (
	predictSnapshot   string
	predictClass      string
	predictUnlabelled bool
	predictDelimiter  string
	predictScores     bool
)

var predictCmd = &cobra.Command{
	Use:   "predict [file.csv]",
	Short: "Score a CSV with a saved snapshot",
	Long: `Predict the class of every record in a CSV file using a saved snapshot.

The model is not updated. Without --unlabelled the class column is read and
the accuracy against it is reported.`,
	Example: `  canc predict holdout.csv --model churn
  canc predict new.csv --unlabelled --snapshot 01J9Z7M3X8ZK3Q2V4N5B6C7D8E`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictSnapshot, "snapshot", "", "Snapshot ID (default: latest)")
	predictCmd.Flags().StringVar(&predictClass, "class", "", "Class column name (default: last column)")
	predictCmd.Flags().BoolVar(&predictUnlabelled, "unlabelled", false, "Input has no class column")
	predictCmd.Flags().StringVar(&predictDelimiter, "delimiter", ",", "Field delimiter")
	predictCmd.Flags().BoolVar(&predictScores, "scores", false, "Show every label's score")
}

// predictLine is one scored record.
type predictLine struct {
	Line       int             `json:"line"`
	Actual     string          `json:"actual,omitempty"`
	Prediction canc.Prediction `json:"prediction"`
}

type predictOutput struct {
	Snapshot string        `json:"snapshot"`
	Records  []predictLine `json:"records"`
	Correct  int           `json:"correct"`
	Rejected int           `json:"rejected"`
	Accuracy float64       `json:"accuracy,omitempty"`
	Labelled bool          `json:"labelled"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	model, info, err := loadSnapshot(cmd, s, predictSnapshot)
	if err != nil {
		return err
	}
	rs := model.RuleSet()

	in, closeIn, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer closeIn()

	src, err := stream.NewCSVReader(in, stream.CSVOptions{
		ClassColumn: predictClass,
		Unlabelled:  predictUnlabelled,
		Comma:       delimiter(predictDelimiter),
	})
	if err != nil {
		return err
	}

	result := predictOutput{Snapshot: info.ID, Labelled: !predictUnlabelled}
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		pred := rs.Predict(rec)
		line := predictLine{Line: src.Line(), Prediction: pred}
		if result.Labelled {
			line.Actual = rec.Label
			if !pred.Rejected && pred.Label == rec.Label {
				result.Correct++
			}
		}
		if pred.Rejected {
			result.Rejected++
		}
		result.Records = append(result.Records, line)
	}
	if result.Labelled && len(result.Records) > 0 {
		result.Accuracy = float64(result.Correct) / float64(len(result.Records))
	}

	if outputJSON {
		return outputAsJSON(cmd, result)
	}
	outputPredictions(cmd.OutOrStdout(), result)
	return nil
}

func outputPredictions(w io.Writer, r predictOutput) {
	for _, l := range r.Records {
		label := l.Prediction.Label
		if l.Prediction.Rejected {
			label = "(rejected)"
		}
		if r.Labelled {
			mark := iconError
			if !l.Prediction.Rejected && l.Prediction.Label == l.Actual {
				mark = iconSuccess
			}
			fmt.Fprintf(w, "%s line %d: %s (actual %s)\n", mark, l.Line, label, l.Actual)
		} else {
			fmt.Fprintf(w, "line %d: %s\n", l.Line, label)
		}
		if predictScores && !l.Prediction.Rejected {
			outputScores(w, l.Prediction.Scores)
		}
	}

	fmt.Fprintln(w)
	printInfo(w, "Scored %d records with snapshot %s", len(r.Records), r.Snapshot)
	if r.Rejected > 0 {
		printWarning(w, "%d records matched no rule", r.Rejected)
	}
	if r.Labelled {
		printField(w, "Accuracy", fmt.Sprintf("%.4f (%d of %d)", r.Accuracy, r.Correct, len(r.Records)))
	}
}

// loadSnapshot loads the snapshot with id, or the latest when id is empty.
func loadSnapshot(cmd *cobra.Command, s *canc.Store, id string) (*canc.Model, *canc.SnapshotInfo, error) {
	if id == "" {
		return s.LatestSnapshot(cmd.Context())
	}
	return s.GetSnapshot(cmd.Context(), id)
}
