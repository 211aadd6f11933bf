package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperengineering/canc"
	cancmcp "github.com/hyperengineering/canc/mcp"
)

// newClient returns an in-memory client with a grace period of three
// records.
func newClient(t *testing.T, cfg canc.Config) *canc.Client {
	t.Helper()
	cfg.GracePeriod = 3
	cfg.AttributeMethod = canc.AttributeInfoGain

	client, err := canc.New(cfg)
	if err != nil {
		t.Fatalf("canc.New() returned error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func attrs(sky, wind string) map[string]any {
	return map[string]any{"sky": sky, "wind": wind}
}

// learnGrace feeds the three-record weather stream through canc_learn.
func learnGrace(t *testing.T, server *cancmcp.Server) {
	t.Helper()
	for _, r := range []struct{ sky, wind, play string }{
		{"sunny", "no", "no"},
		{"rainy", "no", "yes"},
		{"sunny", "yes", "yes"},
	} {
		result, err := server.CallTool(context.Background(), "canc_learn", map[string]any{
			"attributes": attrs(r.sky, r.wind),
			"label":      r.play,
		})
		if err != nil {
			t.Fatalf("CallTool() returned error: %v", err)
		}
		if result.IsError {
			t.Fatalf("canc_learn returned error: %s", result.Content)
		}
	}
}

// =============================================================================
// Server Initialization Tests
// =============================================================================

func TestServer_ToolsList(t *testing.T) {
	server := cancmcp.NewServer(newClient(t, canc.Config{}))
	tools := server.ListTools()

	expected := []string{
		"canc_learn", "canc_predict", "canc_label", "canc_rules",
		"canc_stats", "canc_checkpoint", "canc_model_list", "canc_model_info",
	}
	if len(tools) != len(expected) {
		t.Errorf("ListTools() returned %d tools, want %d", len(tools), len(expected))
	}

	names := make(map[string]bool)
	for _, tool := range tools {
		names[tool.Name] = true
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("Tool %q not found in registered tools", name)
		}
	}
}

func TestServer_UnknownTool(t *testing.T) {
	server := cancmcp.NewServer(newClient(t, canc.Config{}))

	result, err := server.CallTool(context.Background(), "canc_query", nil)
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !result.IsError {
		t.Error("CallTool() with unknown tool should return error result")
	}
}

// =============================================================================
// Tool Execution Tests
// =============================================================================

func TestTool_Learn_BuildsAfterGrace(t *testing.T) {
	client := newClient(t, canc.Config{})
	server := cancmcp.NewServer(client)

	learnGrace(t, server)

	if got := client.Stats().State; got != canc.StateReady {
		t.Errorf("State = %q, want ready", got)
	}
	if len(client.Rules()) == 0 {
		t.Error("no rules after the grace period")
	}
}

func TestTool_Learn_MissingParams(t *testing.T) {
	server := cancmcp.NewServer(newClient(t, canc.Config{}))

	tests := []struct {
		name string
		args map[string]any
	}{
		{"no attributes", map[string]any{"label": "yes"}},
		{"no label", map[string]any{"attributes": attrs("sunny", "no")}},
		{"nested attribute", map[string]any{
			"attributes": map[string]any{"sky": map[string]any{"x": 1}},
			"label":      "yes",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.CallTool(context.Background(), "canc_learn", tt.args)
			if err != nil {
				t.Fatalf("CallTool() returned error: %v", err)
			}
			if !result.IsError {
				t.Errorf("canc_learn with %s should return error result", tt.name)
			}
		})
	}
}

func TestTool_PredictThenLabel(t *testing.T) {
	client := newClient(t, canc.Config{})
	server := cancmcp.NewServer(client)
	learnGrace(t, server)
	ctx := context.Background()

	result, err := server.CallTool(ctx, "canc_predict", map[string]any{"attributes": attrs("sunny", "no")})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("canc_predict returned error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "[P1] no") {
		t.Errorf("canc_predict content = %q, want reference P1 predicting no", result.Content)
	}

	result, err = server.CallTool(ctx, "canc_label", map[string]any{"ref": "P1", "label": "no"})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("canc_label returned error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "correct") {
		t.Errorf("canc_label content = %q, want correct outcome", result.Content)
	}
	if got := client.Stats().RecordsSeen; got != 4 {
		t.Errorf("RecordsSeen = %d, want 4", got)
	}

	result, _ = server.CallTool(ctx, "canc_label", map[string]any{"ref": "P1", "label": "no"})
	if !result.IsError {
		t.Error("labelling the same reference twice should return error result")
	}
}

func TestTool_Predict_Rejected(t *testing.T) {
	server := cancmcp.NewServer(newClient(t, canc.Config{}))
	learnGrace(t, server)

	result, err := server.CallTool(context.Background(), "canc_predict", map[string]any{
		"attributes": attrs("cloudy", "calm"),
	})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !strings.Contains(result.Content, "rejected") {
		t.Errorf("canc_predict content = %q, want rejection", result.Content)
	}
}

func TestTool_Rules(t *testing.T) {
	server := cancmcp.NewServer(newClient(t, canc.Config{}))
	ctx := context.Background()

	result, _ := server.CallTool(ctx, "canc_rules", map[string]any{})
	if !strings.Contains(result.Content, "No rules yet") {
		t.Errorf("canc_rules before grace = %q", result.Content)
	}

	learnGrace(t, server)
	result, err := server.CallTool(ctx, "canc_rules", map[string]any{"limit": float64(1)})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !strings.Contains(result.Content, "Rules (1 of 2)") {
		t.Errorf("canc_rules content = %q, want one of two rules", result.Content)
	}
	if !strings.Contains(result.Content, "IF sky = ") {
		t.Errorf("canc_rules content = %q, want rule text", result.Content)
	}
}

func TestTool_Stats(t *testing.T) {
	server := cancmcp.NewServer(newClient(t, canc.Config{}))
	learnGrace(t, server)

	result, err := server.CallTool(context.Background(), "canc_stats", nil)
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !strings.Contains(result.Content, "State: ready") {
		t.Errorf("canc_stats content = %q, want ready state", result.Content)
	}
	if !strings.Contains(result.Content, "Records seen: 3") {
		t.Errorf("canc_stats content = %q, want three records", result.Content)
	}
}

func TestTool_Checkpoint_NoStore(t *testing.T) {
	server := cancmcp.NewServer(newClient(t, canc.Config{}))

	result, err := server.CallTool(context.Background(), "canc_checkpoint", nil)
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !result.IsError {
		t.Error("canc_checkpoint without a store should return error result")
	}
}

func TestTool_CheckpointThenModelInfo(t *testing.T) {
	root := t.TempDir()
	client := newClient(t, canc.Config{LocalPath: filepath.Join(root, "weather", "canc.db")})
	server := cancmcp.NewServer(client, cancmcp.WithModelRoot(root))
	learnGrace(t, server)
	ctx := context.Background()

	result, err := server.CallTool(ctx, "canc_checkpoint", map[string]any{"label": "grace"})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("canc_checkpoint returned error: %s", result.Content)
	}

	result, _ = server.CallTool(ctx, "canc_model_info", nil)
	if result.IsError {
		t.Fatalf("canc_model_info returned error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Snapshots: 1") || !strings.Contains(result.Content, "[grace]") {
		t.Errorf("canc_model_info content = %q", result.Content)
	}

	result, _ = server.CallTool(ctx, "canc_model_list", nil)
	if !strings.Contains(result.Content, "weather") {
		t.Errorf("canc_model_list content = %q, want weather model", result.Content)
	}
}

func TestTool_ModelList_Empty(t *testing.T) {
	root := filepath.Join(t.TempDir(), "absent")
	server := cancmcp.NewServer(newClient(t, canc.Config{}), cancmcp.WithModelRoot(root))

	result, err := server.CallTool(context.Background(), "canc_model_list", nil)
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !strings.Contains(result.Content, "No models found") {
		t.Errorf("canc_model_list content = %q", result.Content)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("canc_model_list created the model root")
	}
}

// =============================================================================
// Protocol-Level Tests
// =============================================================================

func handle(t *testing.T, server *cancmcp.Server, message string) map[string]any {
	t.Helper()
	response := server.HandleMessage(context.Background(), []byte(message))
	if response == nil {
		t.Fatal("HandleMessage() returned nil response")
	}

	respBytes, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}
	var respMap map[string]any
	if err := json.Unmarshal(respBytes, &respMap); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return respMap
}

func TestProtocol_Initialize(t *testing.T) {
	server := cancmcp.NewServer(newClient(t, canc.Config{}))

	resp := handle(t, server, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`)

	if _, hasError := resp["error"]; hasError {
		t.Errorf("Initialize response has error: %v", resp["error"])
	}
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatal("Initialize response missing result")
	}
	serverInfo, ok := result["serverInfo"].(map[string]any)
	if !ok {
		t.Fatal("Initialize result missing serverInfo")
	}
	if serverInfo["name"] != "canc" {
		t.Errorf("serverInfo.name = %v, want 'canc'", serverInfo["name"])
	}
	capabilities, ok := result["capabilities"].(map[string]any)
	if !ok {
		t.Fatal("Initialize result missing capabilities")
	}
	if _, hasTools := capabilities["tools"]; !hasTools {
		t.Error("Capabilities should include tools")
	}
}

func TestProtocol_ToolsCall(t *testing.T) {
	client := newClient(t, canc.Config{})
	server := cancmcp.NewServer(client)

	resp := handle(t, server, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"canc_learn","arguments":{"attributes":{"sky":"sunny","wind":"no"},"label":"no"}}}`)

	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("tools/call response missing result: %v", resp)
	}
	if isErr, _ := result["isError"].(bool); isErr {
		t.Errorf("tools/call returned error result: %v", result["content"])
	}
	if got := client.Stats().RecordsSeen; got != 1 {
		t.Errorf("RecordsSeen = %d, want 1", got)
	}
}

func TestProtocol_InvalidMethod(t *testing.T) {
	server := cancmcp.NewServer(newClient(t, canc.Config{}))

	resp := handle(t, server, `{"jsonrpc":"2.0","id":1,"method":"unknown/method","params":{}}`)

	errorObj, hasError := resp["error"].(map[string]any)
	if !hasError {
		t.Fatal("Response should have error for unknown method")
	}
	// -32601 is METHOD_NOT_FOUND in JSON-RPC spec
	if code, _ := errorObj["code"].(float64); int(code) != -32601 {
		t.Errorf("Error code = %v, want -32601 (METHOD_NOT_FOUND)", errorObj["code"])
	}
}

func TestProtocol_MalformedJSON(t *testing.T) {
	server := cancmcp.NewServer(newClient(t, canc.Config{}))

	resp := handle(t, server, `{"jsonrpc":"2.0","id":1,"method":`)

	errorObj, hasError := resp["error"].(map[string]any)
	if !hasError {
		t.Fatal("Response should have error for malformed JSON")
	}
	// -32700 is PARSE_ERROR in JSON-RPC spec
	if code, _ := errorObj["code"].(float64); int(code) != -32700 {
		t.Errorf("Error code = %v, want -32700 (PARSE_ERROR)", errorObj["code"])
	}
}
