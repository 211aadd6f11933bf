package main

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/canc"
	"github.com/hyperengineering/canc/internal/stream"
)

var (
	runClass       string
	runEvery       int
	runLimit       int
	runSkipInvalid bool
	runCheckpoint  bool
	runLabel       string
	runDescription string
	runMetricsAddr string
	runDelimiter   string
)

var runCmd = &cobra.Command{
	Use:   "run [file.csv]",
	Short: "Train on a CSV stream and report prequential accuracy",
	Long: `Train a model on a labelled CSV stream.

Every record after the grace period is predicted before it is learned, so the
reported accuracy is the test-then-train (prequential) accuracy. The first row
is the header; the class is the last column unless --class names another.
Missing values are written as '?' or left empty. Reads stdin when no file is
given or the file is '-'.`,
	Example: `  canc run weather.csv --grace 100 --every 50
  canc run stream.csv --model churn --checkpoint --label nightly
  cat stream.csv | canc run --metrics-addr :9090`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runClass, "class", "", "Class column name (default: last column)")
	runCmd.Flags().IntVar(&runEvery, "every", 0, "Report accuracy every N records")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "Stop after N records")
	runCmd.Flags().BoolVar(&runSkipInvalid, "skip-invalid", false, "Skip unlabelled or empty records")
	runCmd.Flags().BoolVar(&runCheckpoint, "checkpoint", false, "Save a snapshot when the stream ends")
	runCmd.Flags().StringVar(&runLabel, "label", "", "Label for the saved snapshot")
	runCmd.Flags().StringVar(&runDescription, "description", "", "Set the model description")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	runCmd.Flags().StringVar(&runDelimiter, "delimiter", ",", "Field delimiter")
}

// runSummary is the JSON output of run.
type runSummary struct {
	stream.Summary
	Accuracy    float64            `json:"accuracy"`
	GracePeriod int                `json:"grace_period"`
	Stats       canc.Stats         `json:"stats"`
	Snapshot    *canc.SnapshotInfo `json:"snapshot,omitempty"`
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !runCheckpoint && runDescription == "" {
		// Both cleared, or WithDefaults derives the path from the model again.
		cfg.LocalPath, cfg.Model = "", ""
	}
	if cfg.Logger == nil {
		logger, err := canc.NewLogger(cfg.Debug, cfg.DebugLogPath)
		if err != nil {
			return err
		}
		cfg.Logger = logger
	}

	var metricsSrv *http.Server
	if runMetricsAddr != "" {
		reg := prometheus.NewRegistry()
		cfg.Registerer = reg
		metricsSrv, err = serveMetrics(runMetricsAddr, reg)
		if err != nil {
			return err
		}
		defer metricsSrv.Close()
		printMuted(cmd.ErrOrStderr(), "Serving metrics on %s/metrics", runMetricsAddr)
	}

	in, closeIn, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer closeIn()

	src, err := stream.NewCSVReader(in, stream.CSVOptions{ClassColumn: runClass, Comma: delimiter(runDelimiter)})
	if err != nil {
		return err
	}

	client, err := canc.New(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	p := &stream.Prequential{
		Every:       runEvery,
		Limit:       runLimit,
		SkipInvalid: runSkipInvalid,
		Logger:      cfg.Logger,
	}
	if !outputJSON {
		p.OnSample = func(pt stream.Point) {
			fmt.Fprintf(out, "%8d  accuracy %.4f  window %.4f\n", pt.Records, pt.Accuracy, pt.Window)
		}
	}

	start := time.Now()
	sum, err := p.Run(cmd.Context(), src, client)
	if err != nil {
		return errors.Wrapf(err, "line %d", src.Line())
	}

	result := runSummary{
		Summary:     sum,
		Accuracy:    sum.Accuracy(),
		GracePeriod: cfg.GracePeriod,
		Stats:       client.Stats(),
	}
	if runDescription != "" {
		if err := client.Store().SetDescription(runDescription); err != nil {
			return err
		}
	}
	if runCheckpoint {
		result.Snapshot, err = client.Checkpoint(cmd.Context(), runLabel)
		if err != nil {
			return err
		}
	}

	if outputJSON {
		return outputAsJSON(cmd, result)
	}
	outputRunSummary(out, result, time.Since(start))
	return nil
}

func outputRunSummary(w io.Writer, r runSummary, took time.Duration) {
	printSuccess(w, "Processed %d records in %s", r.Records, took.Round(time.Millisecond))
	if r.Skipped > 0 {
		printWarning(w, "Skipped %d invalid records", r.Skipped)
	}
	if r.Stats.State != canc.StateReady {
		printWarning(w, "Grace period not reached (%d of %d records); no model built", r.Stats.RecordsSeen, r.GracePeriod)
	}
	printField(w, "Predictions", r.Predictions())
	printField(w, "Accuracy", fmt.Sprintf("%.4f", r.Accuracy))
	printField(w, "Correct", r.Correct)
	printField(w, "Incorrect", r.Incorrect)
	printField(w, "Rejected", r.Rejected)
	printField(w, "Rebuilds", r.Rebuilds)
	printField(w, "Concepts", r.Stats.ConceptCount)
	printField(w, "Rules", r.Stats.RuleCount)
	if r.Snapshot != nil {
		printSuccess(w, "Saved snapshot %s", r.Snapshot.ID)
	}
}

// openInput returns the CSV input named by args, or stdin.
func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, errors.Wrap(err, "open input")
	}
	return f, func() { f.Close() }, nil
}

func delimiter(s string) rune {
	if s == `\t` || s == "tab" {
		return '\t'
	}
	for _, r := range s {
		return r
	}
	return ','
}

// serveMetrics exposes reg on addr until the returned server is closed.
func serveMetrics(addr string, reg *prometheus.Registry) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "listen for metrics")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	return srv, nil
}
