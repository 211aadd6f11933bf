package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperengineering/canc"
	cancmcp "github.com/hyperengineering/canc/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for coding agent integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio.

Agents can learn labelled records, request predictions, label them later,
and inspect the rules through CANC tools.

Configuration example:

  {
    "mcpServers": {
      "canc": {
        "command": "canc",
        "args": ["mcp", "--model", "tickets"],
        "env": {
          "CANC_GRACE_PERIOD": "200"
        }
      }
    }
  }

Environment variables:
  CANC_MODEL         Model ID (default: "default")
  CANC_DB_PATH       Snapshot database path (overrides CANC_MODEL)
  CANC_GRACE_PERIOD  Records accumulated before the first build
  CANC_DEBUG_LOG     Log file; stdout carries the protocol`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The client persists for the server lifetime.
	client, err := canc.New(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	return cancmcp.NewServer(client).Run()
}
