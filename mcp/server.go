package mcp

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hyperengineering/canc"
	"github.com/hyperengineering/canc/internal/store"
)

// Server wraps the MCP server with CANC tools.
type Server struct {
	client    *canc.Client
	mcpServer *server.MCPServer
	modelRoot string
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Option configures a Server.
type Option func(*Server)

// WithModelRoot sets the directory scanned by canc_model_list.
// Defaults to ~/.canc/models.
func WithModelRoot(root string) Option {
	return func(s *Server) { s.modelRoot = root }
}

// NewServer creates a new MCP server with CANC tools registered.
func NewServer(client *canc.Client, opts ...Option) *Server {
	s := &Server{
		client:    client,
		modelRoot: store.DefaultModelRoot(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = server.NewMCPServer(
		"canc",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
// This is primarily for testing the MCP protocol layer.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "canc_learn", Description: "Learn one labelled record (test-then-train)"},
		{Name: "canc_predict", Description: "Classify an unlabelled record and return a reference for canc_label"},
		{Name: "canc_label", Description: "Supply the true label of a previous prediction so the record is learned"},
		{Name: "canc_rules", Description: "List the classification rules, heaviest first"},
		{Name: "canc_stats", Description: "Show learner statistics"},
		{Name: "canc_checkpoint", Description: "Save the current model as a snapshot"},
		{Name: "canc_model_list", Description: "List the models stored on this machine"},
		{Name: "canc_model_info", Description: "Show the snapshots of the active model"},
	}
}

// CallTool executes a tool by name with the given arguments.
// This is used for testing and direct invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "canc_learn":
		return s.handleLearn(ctx, args)
	case "canc_predict":
		return s.handlePredict(ctx, args)
	case "canc_label":
		return s.handleLabel(ctx, args)
	case "canc_rules":
		return s.handleRules(ctx, args)
	case "canc_stats":
		return s.handleStats(ctx, args)
	case "canc_checkpoint":
		return s.handleCheckpoint(ctx, args)
	case "canc_model_list":
		return s.handleModelList(ctx, args)
	case "canc_model_info":
		return s.handleModelInfo(ctx, args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("canc_learn",
		mcp.WithDescription("Learn one labelled record. Once the grace period has passed the record is classified first and the outcome (correct, incorrect, rejected) is reported."),
		mcp.WithObject("attributes",
			mcp.Description("Nominal attribute values keyed by attribute name. Use \"?\" for a missing value."),
			mcp.Required(),
		),
		mcp.WithString("label",
			mcp.Description("The record's class label"),
			mcp.Required(),
		),
	), s.wrap(s.handleLearn))

	s.mcpServer.AddTool(mcp.NewTool("canc_predict",
		mcp.WithDescription("Classify an unlabelled record. Returns a session reference (P1, P2, ...) to pass to canc_label once the true label is known."),
		mcp.WithObject("attributes",
			mcp.Description("Nominal attribute values keyed by attribute name"),
			mcp.Required(),
		),
	), s.wrap(s.handlePredict))

	s.mcpServer.AddTool(mcp.NewTool("canc_label",
		mcp.WithDescription("Supply the true label for a prediction reference. The record is then learned."),
		mcp.WithString("ref",
			mcp.Description("Prediction reference returned by canc_predict"),
			mcp.Required(),
		),
		mcp.WithString("label",
			mcp.Description("The record's true class label"),
			mcp.Required(),
		),
	), s.wrap(s.handleLabel))

	s.mcpServer.AddTool(mcp.NewTool("canc_rules",
		mcp.WithDescription("List the classification rules ordered by weight."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of rules to return (default: 20)"),
		),
	), s.wrap(s.handleRules))

	s.mcpServer.AddTool(mcp.NewTool("canc_stats",
		mcp.WithDescription("Show learner statistics: state, records seen, concepts, rules, rebuilds and prequential accuracy."),
	), s.wrap(s.handleStats))

	s.mcpServer.AddTool(mcp.NewTool("canc_checkpoint",
		mcp.WithDescription("Save the current model as a snapshot in the model database. Requires a model to be configured."),
		mcp.WithString("label",
			mcp.Description("Optional label stored with the snapshot"),
		),
	), s.wrap(s.handleCheckpoint))

	s.mcpServer.AddTool(mcp.NewTool("canc_model_list",
		mcp.WithDescription("List the models stored on this machine. This is a read-only operation."),
	), s.wrap(s.handleModelList))

	s.mcpServer.AddTool(mcp.NewTool("canc_model_info",
		mcp.WithDescription("Show the snapshot statistics of the active model. This is a read-only operation."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of snapshots to list (default: 5)"),
		),
	), s.wrap(s.handleModelInfo))
}

type handler func(ctx context.Context, args map[string]any) (*ToolResult, error)

// wrap adapts an internal handler to the mcp-go handler signature.
func (s *Server) wrap(h handler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := h(ctx, req.GetArguments())
		if err != nil {
			return nil, err
		}
		return toMCPResult(result), nil
	}
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

// Internal handlers

func (s *Server) handleLearn(ctx context.Context, args map[string]any) (*ToolResult, error) {
	attrs, ok := toAttributes(args["attributes"])
	if !ok {
		return &ToolResult{Content: "attributes is required", IsError: true}, nil
	}
	label, _ := args["label"].(string)
	if label == "" {
		return &ToolResult{Content: "label is required", IsError: true}, nil
	}

	res, err := s.client.Learn(ctx, canc.NewRecord(attrs, label))
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("learn failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: formatLearnResult(res, label)}, nil
}

func (s *Server) handlePredict(ctx context.Context, args map[string]any) (*ToolResult, error) {
	attrs, ok := toAttributes(args["attributes"])
	if !ok {
		return &ToolResult{Content: "attributes is required", IsError: true}, nil
	}

	res, err := s.client.Predict(ctx, canc.NewRecord(attrs, ""))
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("predict failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: formatPrediction(res)}, nil
}

func (s *Server) handleLabel(ctx context.Context, args map[string]any) (*ToolResult, error) {
	ref, _ := args["ref"].(string)
	if ref == "" {
		return &ToolResult{Content: "ref is required", IsError: true}, nil
	}
	label, _ := args["label"].(string)
	if label == "" {
		return &ToolResult{Content: "label is required", IsError: true}, nil
	}

	res, err := s.client.Label(ctx, ref, label)
	if errors.Is(err, canc.ErrUnknownRef) {
		return &ToolResult{
			Content: fmt.Sprintf("Unknown prediction reference %q.\nReferences come from canc_predict and can be labelled once.", ref),
			IsError: true,
		}, nil
	}
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("label failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: formatLearnResult(res, label)}, nil
}

func (s *Server) handleRules(ctx context.Context, args map[string]any) (*ToolResult, error) {
	limit := 20
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	rules := s.client.Rules()
	if len(rules) == 0 {
		return &ToolResult{Content: "No rules yet. The model is built after the grace period."}, nil
	}
	slices.SortStableFunc(rules, func(a, b canc.Rule) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rules (%d of %d):\n\n", min(limit, len(rules)), len(rules)))
	for i, r := range rules[:min(limit, len(rules))] {
		sb.WriteString(fmt.Sprintf("%3d. %s\n", i+1, r.String()))
	}
	return &ToolResult{Content: sb.String()}, nil
}

func (s *Server) handleStats(ctx context.Context, args map[string]any) (*ToolResult, error) {
	st := s.client.Stats()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("State: %s\n", st.State))
	sb.WriteString(fmt.Sprintf("Variant: %s\n", st.Variant))
	sb.WriteString(fmt.Sprintf("Records seen: %d (stored: %d)\n", st.RecordsSeen, st.StoreSize))
	sb.WriteString(fmt.Sprintf("Concepts: %d\n", st.ConceptCount))
	sb.WriteString(fmt.Sprintf("Rules: %d\n", st.RuleCount))
	sb.WriteString(fmt.Sprintf("Rebuilds: %d\n", st.Rebuilds))
	sb.WriteString(fmt.Sprintf("Predictions: %d correct, %d incorrect, %d rejected\n", st.Correct, st.Incorrect, st.Rejected))
	sb.WriteString(fmt.Sprintf("Accuracy: %.4f\n", st.Accuracy()))
	return &ToolResult{Content: sb.String()}, nil
}

func (s *Server) handleCheckpoint(ctx context.Context, args map[string]any) (*ToolResult, error) {
	label, _ := args["label"].(string)

	info, err := s.client.Checkpoint(ctx, label)
	if errors.Is(err, canc.ErrNoStore) {
		return &ToolResult{
			Content: "Checkpoint unavailable: no model configured. Set CANC_MODEL or start the server with --model.",
			IsError: true,
		}, nil
	}
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("checkpoint failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("Saved snapshot %s (%d concepts, %d rules, %d records seen)",
		info.ID, info.ConceptCount, info.RuleCount, info.RecordsSeen)}, nil
}

// Formatting functions

func formatLearnResult(res *canc.LearnResult, label string) string {
	var sb strings.Builder
	if res.Prediction == nil {
		sb.WriteString(fmt.Sprintf("Stored record at position %d (accumulating).", res.Position))
		if res.Built {
			sb.WriteString("\nGrace period reached: model built.")
		}
		return sb.String()
	}

	switch res.Outcome {
	case canc.OutcomeRejected:
		sb.WriteString(fmt.Sprintf("Rejected: no rule matched (true label %q).\n", label))
	default:
		sb.WriteString(fmt.Sprintf("Predicted %q, true label %q: %s.\n", res.Prediction.Label, label, res.Outcome))
	}
	if res.Rebuilt {
		sb.WriteString("Model rebuilt around the record.\n")
	} else {
		sb.WriteString(fmt.Sprintf("Extended %d concepts.\n", res.Touched))
	}
	return sb.String()
}

func formatPrediction(res *canc.PredictResult) string {
	var sb strings.Builder
	p := res.Prediction
	if p.Rejected {
		sb.WriteString(fmt.Sprintf("[%s] rejected: no rule matched\n", res.Ref))
	} else {
		sb.WriteString(fmt.Sprintf("[%s] %s (%d rules voted)\n", res.Ref, p.Label, p.Matched))
	}

	labels := make([]string, 0, len(p.Scores))
	for l := range p.Scores {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	for _, l := range labels {
		sb.WriteString(fmt.Sprintf("    %s: %.4f\n", l, p.Scores[l]))
	}

	sb.WriteString("\nUse canc_label with this reference once the true label is known.")
	return sb.String()
}

// toAttributes converts a JSON object of attribute values to strings.
// Numbers and booleans are formatted; nested values are rejected.
func toAttributes(v any) (map[string]string, bool) {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, false
	}

	attrs := make(map[string]string, len(obj))
	for name, raw := range obj {
		switch val := raw.(type) {
		case string:
			attrs[name] = val
		case float64, bool:
			attrs[name] = fmt.Sprint(val)
		case nil:
			attrs[name] = canc.MissingValue
		default:
			return nil, false
		}
	}
	return attrs, true
}
