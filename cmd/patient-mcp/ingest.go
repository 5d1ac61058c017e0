// ABOUTME: CLI command for ingesting a saved exporter payload from a file.
// ABOUTME: Runs the same pipeline as the HTTP receiver.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/nmrastogi/patient-mcp/internal/ingest"
	"github.com/spf13/cobra"
)

var (
	ingestSession    string
	ingestAutomation string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.json>",
	Short: "Ingest an exporter payload from a file",
	Long: `Ingest a saved exporter payload through the same pipeline as the
HTTP receiver. Useful for manual exports and for testing.

The file may be a bare array of items, an object with a 'data' array,
an object with 'data.metrics', or an object with a top-level 'metrics'
array. Duplicate samples are skipped, so re-ingesting is safe.

EXAMPLES:

  patient-mcp ingest export.json
  patient-mcp ingest export.json --automation cgm-frequent`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		store, err := cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer store.Close()

		pipeline := ingest.NewPipeline(store, log.Default())
		result, err := pipeline.Process(body, ingest.Meta{
			PatientID:      cfg.GetPatientID(),
			SessionID:      ingestSession,
			AutomationType: ingestAutomation,
		})
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}

		color.Green("✓ Batch stored (session %s)", result.SessionID)
		fmt.Printf("  Glucose:  %d\n", result.ProcessedGlucose)
		fmt.Printf("  Sleep:    %d\n", result.ProcessedSleep)
		fmt.Printf("  Exercise: %d\n", result.ProcessedExercise)
		if result.ProcessedOther > 0 {
			fmt.Printf("  Dropped:  %d\n", result.ProcessedOther)
		}
		if result.TimestampFallbacks > 0 {
			color.Yellow("  %d item(s) had unparseable timestamps (stored at processing time)",
				result.TimestampFallbacks)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSession, "session", "", "Session identifier (generated if empty)")
	ingestCmd.Flags().StringVar(&ingestAutomation, "automation", "", "Automation type tag (e.g. cgm-frequent)")
	rootCmd.AddCommand(ingestCmd)
}
