// ABOUTME: Integration tests for patient-mcp CLI.
// ABOUTME: Builds the binary and runs the ingest/export workflow end to end.
package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFullWorkflow(t *testing.T) {
	// Build the binary
	projectRoot, _ := filepath.Abs("..")
	binary := filepath.Join(projectRoot, "patient-mcp")

	buildCmd := exec.Command("go", "build", "-o", binary, "./cmd/patient-mcp")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}
	defer os.Remove(binary)

	// Use a temp data directory
	dataDir := t.TempDir()

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--data-dir", dataDir}, args...)
		cmd := exec.Command(binary, fullArgs...)
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	// Write an exporter payload
	payload := `{
		"metrics": [
			{"name": "Blood Glucose", "qty": 112, "date": "2025-01-15 08:30:00"},
			{"name": "Blood Glucose", "qty": 118, "date": "2025-01-15 08:35:00"},
			{"name": "sleep_analysis", "startDate": "2025-01-14T23:00:00Z", "endDate": "2025-01-15T06:30:00Z", "value": "Asleep"},
			{"workoutActivityType": "running", "date": "2025-01-15 17:00:00", "duration": 35}
		]
	}`
	file := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(file, []byte(payload), 0600); err != nil {
		t.Fatalf("Failed to write payload: %v", err)
	}

	// Ingest the payload
	output, err := run("ingest", file, "--session", "it-1")
	if err != nil {
		t.Fatalf("Failed to ingest: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Glucose:  2") {
		t.Errorf("Expected 2 glucose readings in output, got: %s", output)
	}
	if !strings.Contains(output, "Sleep:    1") {
		t.Errorf("Expected 1 sleep session in output, got: %s", output)
	}

	// Re-ingesting is a no-op thanks to deduplication
	output, err = run("ingest", file)
	if err != nil {
		t.Fatalf("Failed to re-ingest: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Glucose:  0") {
		t.Errorf("Expected all-duplicate second ingest, got: %s", output)
	}

	// Export as JSON
	output, err = run("export", "json")
	if err != nil {
		t.Fatalf("Failed to export: %v\n%s", err, output)
	}
	if !strings.Contains(output, `"glucose"`) || !strings.Contains(output, "112") {
		t.Errorf("Expected glucose data in export, got: %s", output)
	}

	// Status works even with old data
	output, err = run("status")
	if err != nil {
		t.Fatalf("Failed to get status: %v\n%s", err, output)
	}
	if !strings.Contains(output, "CGM Monitor") {
		t.Errorf("Expected monitor status header, got: %s", output)
	}
}
