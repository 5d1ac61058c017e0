// ABOUTME: Root Cobra command for patient-mcp.
// ABOUTME: Loads configuration and applies global flag overrides.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/nmrastogi/patient-mcp/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	flagDataDir string
	flagPatient string
)

var rootCmd = &cobra.Command{
	Use:   "patient-mcp",
	Short: "High-frequency CGM data receiver and analysis server",
	Long: `patient-mcp receives physiological data from a phone export automation,
stores it in SQLite, and exposes analysis tools over MCP.

WHAT IT STORES:

  Glucose    5-minute CGM readings (mg/dL)
  Sleep      bedtime/wake intervals with stage and efficiency
  Exercise   workouts with duration, distance, and energy

RECEIVING DATA:

  $ patient-mcp serve                   # Start the HTTP receiver on :5000
  $ patient-mcp ingest export.json      # Push a saved exporter payload
  $ patient-mcp status                  # Check monitoring health

  Point the Health Auto Export automation at POST /health-data. Batches
  are deduplicated, so re-sending the same payload is safe.

ANALYSIS:

  Run 'patient-mcp mcp' to start the Model Context Protocol server for
  use with Claude Desktop or other MCP-compatible AI assistants:

  {
    "mcpServers": {
      "patient": { "command": "patient-mcp", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Samples are stored in SQLite at ~/.local/share/patient-mcp/patient.db.
  Raw request bodies are archived alongside for replay ('archive list').`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if flagDataDir != "" {
			cfg.DataDir = flagDataDir
		}
		if flagPatient != "" {
			cfg.PatientID = flagPatient
		}

		// MCP owns stdout; all logging goes to stderr.
		log.SetOutput(os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Override the data directory")
	rootCmd.PersistentFlags().StringVar(&flagPatient, "patient", "", "Patient identifier (default cgm_patient)")
}
