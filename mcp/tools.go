// Package mcp exposes a CANC client as MCP (Model Context Protocol) tools.
//
// NewServer builds a complete stdio MCP server on mcp-go. RegisterTools is
// the alternative for agent frameworks that bring their own tool registry;
// its handlers return structured values instead of formatted text.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/hyperengineering/canc"
)

// Registry is an interface for MCP tool registration.
type Registry interface {
	Register(tool Tool)
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string
	Description string
	Parameters  Schema
	Handler     Handler
}

// Schema defines the JSON schema for tool parameters.
type Schema map[string]ParameterDef

// ParameterDef defines a single parameter.
type ParameterDef struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// Handler is a function that handles tool invocations.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// RegisterTools registers the learning tools with a custom registry.
func RegisterTools(registry Registry, client *canc.Client) {
	registry.Register(Tool{
		Name:        "canc_learn",
		Description: "Learn one labelled record",
		Parameters: Schema{
			"attributes": {Type: "object", Description: "Attribute values keyed by name", Required: true},
			"label":      {Type: "string", Description: "Class label", Required: true},
		},
		Handler: makeLearnHandler(client),
	})

	registry.Register(Tool{
		Name:        "canc_predict",
		Description: "Classify an unlabelled record",
		Parameters: Schema{
			"attributes": {Type: "object", Description: "Attribute values keyed by name", Required: true},
		},
		Handler: makePredictHandler(client),
	})

	registry.Register(Tool{
		Name:        "canc_label",
		Description: "Supply the true label for a prediction reference",
		Parameters: Schema{
			"ref":   {Type: "string", Description: "Reference returned by canc_predict", Required: true},
			"label": {Type: "string", Description: "True class label", Required: true},
		},
		Handler: makeLabelHandler(client),
	})

	registry.Register(Tool{
		Name:        "canc_rules",
		Description: "Return the current rules",
		Parameters:  Schema{},
		Handler: func(context.Context, json.RawMessage) (any, error) {
			return client.Rules(), nil
		},
	})

	registry.Register(Tool{
		Name:        "canc_stats",
		Description: "Return learner statistics",
		Parameters:  Schema{},
		Handler: func(context.Context, json.RawMessage) (any, error) {
			return client.Stats(), nil
		},
	})
}

// recordParams represents the parameters for canc_learn and canc_predict.
type recordParams struct {
	Attributes map[string]string `json:"attributes"`
	Label      string            `json:"label"`
}

func parseRecord(raw json.RawMessage) (recordParams, error) {
	var params recordParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, errors.Wrap(err, "parse params")
	}
	if len(params.Attributes) == 0 {
		return params, errors.New("attributes is required")
	}
	return params, nil
}

func makeLearnHandler(client *canc.Client) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		params, err := parseRecord(raw)
		if err != nil {
			return nil, err
		}
		if params.Label == "" {
			return nil, errors.New("label is required")
		}
		return client.Learn(ctx, canc.NewRecord(params.Attributes, params.Label))
	}
}

func makePredictHandler(client *canc.Client) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		params, err := parseRecord(raw)
		if err != nil {
			return nil, err
		}
		return client.Predict(ctx, canc.NewRecord(params.Attributes, ""))
	}
}

// labelParams represents the parameters for canc_label.
type labelParams struct {
	Ref   string `json:"ref"`
	Label string `json:"label"`
}

func makeLabelHandler(client *canc.Client) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var params labelParams
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, errors.Wrap(err, "parse params")
		}
		if params.Ref == "" {
			return nil, errors.New("ref is required")
		}
		return client.Label(ctx, params.Ref, params.Label)
	}
}
