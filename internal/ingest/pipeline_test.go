// ABOUTME: End-to-end pipeline tests against a temporary SQLite store.
// ABOUTME: Verifies batch counts, idempotence, and per-item fault tolerance.
package ingest

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/nmrastogi/patient-mcp/internal/storage"
)

func setupPipeline(t *testing.T) (*Pipeline, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "patient.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewPipeline(db, log.New(io.Discard)), db
}

const mixedBatch = `{
	"data": {
		"metrics": [
			{"name": "Blood Glucose", "qty": 112, "date": "2025-01-15 08:30:00"},
			{"name": "Blood Glucose", "qty": 118, "date": "2025-01-15 08:35:00"},
			{"name": "sleep_analysis", "startDate": "2025-01-14T23:00:00Z", "endDate": "2025-01-15T06:30:00Z", "value": "Asleep"},
			{"workoutActivityType": "running", "date": "2025-01-15 17:00:00", "duration": 35},
			{"name": "step_count", "qty": 4200}
		]
	}
}`

func TestProcessMixedBatch(t *testing.T) {
	p, _ := setupPipeline(t)

	result, err := p.Process([]byte(mixedBatch), Meta{AutomationType: "health-export"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.Status != "success" {
		t.Errorf("status = %q, want success", result.Status)
	}
	if result.ProcessedGlucose != 2 {
		t.Errorf("processed_glucose = %d, want 2", result.ProcessedGlucose)
	}
	if result.ProcessedSleep != 1 {
		t.Errorf("processed_sleep = %d, want 1", result.ProcessedSleep)
	}
	if result.ProcessedExercise != 1 {
		t.Errorf("processed_exercise = %d, want 1", result.ProcessedExercise)
	}
	if result.ProcessedOther != 1 {
		t.Errorf("processed_other = %d, want 1", result.ProcessedOther)
	}
	if result.PatientID != DefaultPatientID {
		t.Errorf("patient_id = %q, want default", result.PatientID)
	}
	if result.SessionID == "" {
		t.Error("missing session id should be generated")
	}
	if result.Timestamp == "" {
		t.Error("result should carry a processing timestamp")
	}
}

func TestProcessInvalidSamplesDropped(t *testing.T) {
	p, db := setupPipeline(t)

	batch := `{"metrics": [
		{"name": "Blood Glucose", "qty": 112, "date": "2025-01-15 08:30:00"},
		{"name": "Blood Glucose", "qty": 0, "date": "2025-01-15 08:35:00"},
		{"name": "Blood Glucose", "qty": -12, "date": "2025-01-15 08:40:00"},
		{"name": "sleep_analysis", "startDate": "2025-01-15T06:30:00Z", "endDate": "2025-01-14T23:00:00Z"}
	]}`

	result, err := p.Process([]byte(batch), Meta{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.ProcessedGlucose != 1 {
		t.Errorf("processed_glucose = %d, want 1", result.ProcessedGlucose)
	}
	if result.ProcessedSleep != 0 {
		t.Errorf("processed_sleep = %d, want 0", result.ProcessedSleep)
	}
	if result.ProcessedOther != 3 {
		t.Errorf("processed_other = %d, want 3", result.ProcessedOther)
	}

	glucose, err := db.ListGlucose(DefaultPatientID, storage.DateRange{}, 0)
	if err != nil {
		t.Fatalf("ListGlucose failed: %v", err)
	}
	if len(glucose) != 1 || glucose[0].Value != 112 {
		t.Errorf("stored glucose = %+v, want only the 112 reading", glucose)
	}
	sleep, err := db.ListSleep(DefaultPatientID, storage.DateRange{}, 0)
	if err != nil {
		t.Fatalf("ListSleep failed: %v", err)
	}
	if len(sleep) != 0 {
		t.Errorf("stored sleep = %d rows, want none", len(sleep))
	}
}

func TestProcessIdempotent(t *testing.T) {
	p, db := setupPipeline(t)

	if _, err := p.Process([]byte(mixedBatch), Meta{}); err != nil {
		t.Fatalf("first Process failed: %v", err)
	}
	second, err := p.Process([]byte(mixedBatch), Meta{})
	if err != nil {
		t.Fatalf("second Process failed: %v", err)
	}

	// Everything is a duplicate the second time around.
	if second.ProcessedGlucose != 0 || second.ProcessedSleep != 0 || second.ProcessedExercise != 0 {
		t.Errorf("second run counts = %d/%d/%d, want 0/0/0",
			second.ProcessedGlucose, second.ProcessedSleep, second.ProcessedExercise)
	}

	all, err := db.ListGlucose(DefaultPatientID, storage.DateRange{}, 0)
	if err != nil {
		t.Fatalf("ListGlucose failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 glucose rows after replay, got %d", len(all))
	}
}

func TestProcessMalformedItemDoesNotAbortBatch(t *testing.T) {
	p, _ := setupPipeline(t)

	batch := `[
		{"name": "glucose", "qty": "garbage"},
		{"name": "glucose", "qty": 104, "date": "2025-01-15 09:00:00"}
	]`
	result, err := p.Process([]byte(batch), Meta{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.ProcessedGlucose != 1 {
		t.Errorf("processed_glucose = %d, want 1", result.ProcessedGlucose)
	}
	if result.ProcessedOther != 1 {
		t.Errorf("processed_other = %d, want 1", result.ProcessedOther)
	}
}

func TestProcessCountsTimestampFallbacks(t *testing.T) {
	p, _ := setupPipeline(t)

	batch := `[{"name": "glucose", "qty": 100, "date": "not a time"}]`
	result, err := p.Process([]byte(batch), Meta{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.TimestampFallbacks != 1 {
		t.Errorf("timestamp_fallbacks = %d, want 1", result.TimestampFallbacks)
	}
	if result.ProcessedGlucose != 1 {
		t.Errorf("fallback reading should still be stored, got %d", result.ProcessedGlucose)
	}
}

func TestProcessInvalidJSON(t *testing.T) {
	p, _ := setupPipeline(t)

	result, err := p.Process([]byte(`{not json`), Meta{SessionID: "s9"})
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if result.Status != "error" || result.Message == "" {
		t.Errorf("result = %+v, want error status with message", result)
	}
	if result.SessionID != "s9" {
		t.Errorf("session_id = %q, want echo of caller's", result.SessionID)
	}
}

func TestProcessEmptyEnvelope(t *testing.T) {
	p, _ := setupPipeline(t)

	result, err := p.Process([]byte(`{"unrelated": true}`), Meta{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Status != "success" {
		t.Errorf("status = %q, want success for empty batch", result.Status)
	}
	total := result.ProcessedGlucose + result.ProcessedSleep + result.ProcessedExercise + result.ProcessedOther
	if total != 0 {
		t.Errorf("expected no processed items, got %d", total)
	}
}

func TestProcessCGMFrequentHeaderRoutesAnonymousItems(t *testing.T) {
	p, db := setupPipeline(t)

	batch := `[{"qty": 107, "date": "2025-01-15 10:00:00"}]`
	result, err := p.Process([]byte(batch), Meta{AutomationType: CGMFrequent})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.ProcessedGlucose != 1 {
		t.Fatalf("processed_glucose = %d, want 1", result.ProcessedGlucose)
	}

	all, err := db.ListGlucose(DefaultPatientID, storage.DateRange{}, 0)
	if err != nil {
		t.Fatalf("ListGlucose failed: %v", err)
	}
	if len(all) != 1 || all[0].AutomationType != CGMFrequent {
		t.Error("stored sample should carry the automation type")
	}
}
