package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/canc/internal/store"
)

// handleModelList handles the canc_model_list tool call.
func (s *Server) handleModelList(ctx context.Context, args map[string]any) (*ToolResult, error) {
	ids, err := store.ListModels(s.modelRoot)
	if err != nil {
		return &ToolResult{
			Content: fmt.Sprintf("list models failed: %v", err),
			IsError: true,
		}, nil
	}
	return &ToolResult{Content: formatModelList(ids, s.modelRoot)}, nil
}

// handleModelInfo handles the canc_model_info tool call.
func (s *Server) handleModelInfo(ctx context.Context, args map[string]any) (*ToolResult, error) {
	st := s.client.Store()
	if st == nil {
		return &ToolResult{
			Content: "Model info unavailable: running without a model database",
			IsError: true,
		}, nil
	}

	limit := 5
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	stats, err := st.Stats()
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("model stats failed: %v", err), IsError: true}, nil
	}
	desc, _ := st.Description()
	snapshots, err := st.ListSnapshots(ctx, limit)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("list snapshots failed: %v", err), IsError: true}, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Database: %s\n", stats.Path))
	if desc != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", desc))
	}
	sb.WriteString(fmt.Sprintf("Schema version: %s\n", stats.SchemaVersion))
	sb.WriteString(fmt.Sprintf("Snapshots: %d\n", stats.SnapshotCount))
	if !stats.LastSnapshot.IsZero() {
		sb.WriteString(fmt.Sprintf("Last snapshot: %s (%s)\n",
			formatTimestamp(stats.LastSnapshot), formatRelativeTime(stats.LastSnapshot)))
	}

	if len(snapshots) > 0 {
		sb.WriteString("\nRecent snapshots:\n")
		for _, info := range snapshots {
			sb.WriteString(fmt.Sprintf("  %s  %s  %d records, %d concepts, %d rules",
				info.ID, info.Variant, info.RecordsSeen, info.ConceptCount, info.RuleCount))
			if info.Label != "" {
				sb.WriteString(fmt.Sprintf("  [%s]", info.Label))
			}
			sb.WriteString("\n")
		}
	}
	return &ToolResult{Content: sb.String()}, nil
}

// formatModelList formats the model list response for display.
func formatModelList(ids []string, root string) string {
	if len(ids) == 0 {
		return fmt.Sprintf("No models found under %s.", root)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Models under %s (%d):\n\n", root, len(ids)))
	for _, id := range ids {
		sb.WriteString(fmt.Sprintf("  %s\n", id))
	}
	return sb.String()
}

// formatRelativeTime formats a timestamp as relative time (e.g., "2h ago").
func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)
	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return fmt.Sprintf("%dm ago", int(duration.Minutes()))
	case duration < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
	}
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
