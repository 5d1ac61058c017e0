// ABOUTME: CLI command for CGM monitoring status.
// ABOUTME: Prints windowed stats and data completeness to the terminal.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/nmrastogi/patient-mcp/internal/analysis"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show CGM monitoring status",
	Long: `Show the CGM monitoring status for the configured patient.

Reports the last-hour and last-24-hour windows: reading counts, data
completeness against the 5-minute cadence, and glucose statistics.

EXAMPLES:

  patient-mcp status
  patient-mcp status --patient alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer store.Close()

		report, err := analysis.CGMStatus(store, cfg.GetPatientID())
		if err != nil {
			return fmt.Errorf("failed to build status: %w", err)
		}

		color.Green("✓ %s", report.Service)
		fmt.Printf("Patient: %s\n\n", cfg.GetPatientID())

		printWindow("Last hour", report.LastHour)
		printWindow("Last 24 hours", report.Last24Hours)

		if report.LatestReading != nil {
			faint := color.New(color.Faint)
			fmt.Printf("Latest reading: %.1f mg/dL %s\n",
				report.LatestReading.Value,
				faint.Sprintf("(%s)", report.LatestReading.Timestamp.Format(time.RFC3339)))
		} else {
			fmt.Println("No recent readings.")
		}
		return nil
	},
}

func printWindow(label string, w analysis.WindowStats) {
	bold := color.New(color.Bold)
	bold.Println(label)
	if w.Message != "" {
		fmt.Printf("  %s\n\n", w.Message)
		return
	}
	fmt.Printf("  Readings:     %d of %d expected (%.1f%% complete)\n",
		w.TotalReadings, w.ExpectedReadings, w.DataCompletenessPercent)
	fmt.Printf("  Glucose:      avg %.1f, min %.1f, max %.1f mg/dL\n",
		w.AverageGlucose, w.MinGlucose, w.MaxGlucose)
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
