// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for Claude integration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nmrastogi/patient-mcp/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

MCP allows AI assistants like Claude to query and analyze the stored
patient data through a standardized protocol. The server communicates
via stdin/stdout.

CLAUDE DESKTOP CONFIGURATION:

  Add this to your Claude Desktop config (claude_desktop_config.json):

  {
    "mcpServers": {
      "patient": {
        "command": "patient-mcp",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  get_glucose_data         Glucose readings with date-range filter
  get_sleep_data           Sleep sessions with date-range filter
  get_exercise_data        Exercise sessions with date-range filter
  detect_patterns          Dawn phenomenon, time in range, schedules
  detect_anomalies         Z-score outlier readings
  find_hypoglycemic_event  Most recent hypo with trend and recovery
  find_correlations        Daily exercise/sleep/glucose correlations
  get_cgm_status           Monitoring health and data completeness

AVAILABLE RESOURCES:

  patient://recent    Glucose readings from the last hour
  patient://today     Today's samples across all streams
  patient://summary   CGM monitoring summary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer store.Close()

		server, err := mcpserver.NewServer(store, cfg.GetPatientID())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
