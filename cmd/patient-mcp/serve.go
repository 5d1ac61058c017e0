// ABOUTME: CLI command for starting the HTTP receiver.
// ABOUTME: Accepts exporter batches and serves the monitoring endpoint.
package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/nmrastogi/patient-mcp/internal/httpapi"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP receiver",
	Long: `Start the HTTP server that receives exporter batches.

ENDPOINTS:

  POST /health-data   Ingest one batch. Send the exporter's JSON body;
                      'session-id' and 'automation-type' request headers
                      are stored with every sample. Duplicate samples
                      are no-ops, so retries are safe.
  GET  /cgm-status    Monitoring health: reading counts, completeness
                      against the 5-minute cadence, latest reading.

Every accepted body is archived verbatim before processing; use
'patient-mcp archive list' to inspect and 'archive replay' to re-ingest.

EXAMPLES:

  patient-mcp serve                 # Listen on :5000
  patient-mcp serve --addr :8080    # Custom port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer store.Close()

		arc, err := cfg.OpenArchive()
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer arc.Close()

		addr := serveAddr
		if addr == "" {
			addr = cfg.GetListenAddr()
		}

		api := httpapi.New(store, arc, cfg.GetPatientID(), log.Default())
		return api.Serve(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Bind address (default from config, then :5000)")
	rootCmd.AddCommand(serveCmd)
}
