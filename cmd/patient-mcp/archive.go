// ABOUTME: CLI commands for inspecting and replaying archived raw batches.
// ABOUTME: The archive holds every accepted POST body verbatim.
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/nmrastogi/patient-mcp/internal/ingest"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect and replay archived raw batches",
	Long: `Work with the raw-batch archive.

Every batch accepted over HTTP is stored verbatim before processing,
keyed by received-at time and session. Replay re-runs a batch through
the ingestion pipeline; deduplication makes this safe.`,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		arc, err := cfg.OpenArchive()
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer arc.Close()

		entries, err := arc.List()
		if err != nil {
			return fmt.Errorf("failed to list archive: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No archived batches.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, e := range entries {
			fmt.Printf("%s  session %s  %d bytes  %s\n",
				e.ReceivedAt.Format(time.RFC3339),
				e.SessionID, e.Size,
				faint.Sprint(e.Key))
		}
		return nil
	},
}

var archiveReplayCmd = &cobra.Command{
	Use:   "replay <key>",
	Short: "Re-ingest one archived batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arc, err := cfg.OpenArchive()
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer arc.Close()

		body, err := arc.Get(args[0])
		if err != nil {
			return err
		}

		store, err := cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer store.Close()

		pipeline := ingest.NewPipeline(store, log.Default())
		result, err := pipeline.Process(body, ingest.Meta{PatientID: cfg.GetPatientID()})
		if err != nil {
			return fmt.Errorf("replay failed: %w", err)
		}

		color.Green("✓ Replayed batch: %d glucose, %d sleep, %d exercise (new rows only)",
			result.ProcessedGlucose, result.ProcessedSleep, result.ProcessedExercise)
		return nil
	},
}

func init() {
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveReplayCmd)
	rootCmd.AddCommand(archiveCmd)
}
