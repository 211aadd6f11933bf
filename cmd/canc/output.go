package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/canc"
)

// outputAsJSON writes any value as formatted JSON to the command's stdout.
func outputAsJSON(cmd *cobra.Command, v interface{}) error {
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError prints an error to stderr.
func outputError(w io.Writer, err error) {
	printError(w, "Error: %s", err.Error())
}

// outputScores prints prediction scores, highest first.
func outputScores(w io.Writer, scores map[string]float64) {
	labels := make([]string, 0, len(scores))
	for l := range scores {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if scores[labels[i]] != scores[labels[j]] {
			return scores[labels[i]] > scores[labels[j]]
		}
		return labels[i] < labels[j]
	})
	for _, l := range labels {
		fmt.Fprintf(w, "    %-12s %.4f\n", l, scores[l])
	}
}

// outputSnapshotInfo prints the description of one snapshot.
func outputSnapshotInfo(w io.Writer, info *canc.SnapshotInfo) {
	printInfo(w, "Snapshot %s", info.ID)
	if info.Label != "" {
		fmt.Fprintf(w, "  Label:    %s\n", info.Label)
	}
	if !info.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Created:  %s (%s)\n", formatTimestamp(info.CreatedAt), formatRelativeTime(info.CreatedAt))
	}
	fmt.Fprintf(w, "  Variant:  %s\n", info.Variant)
	fmt.Fprintf(w, "  Records:  %d\n", info.RecordsSeen)
	fmt.Fprintf(w, "  Concepts: %d\n", info.ConceptCount)
	fmt.Fprintf(w, "  Rules:    %d\n", info.RuleCount)
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// formatRelativeTime formats a time as relative (e.g., "2 hours ago").
func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
