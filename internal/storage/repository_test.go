// ABOUTME: Tests for Repository interface implementations.
// ABOUTME: Verifies idempotent inserts and range queries against SQLite.
package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "patient.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return db
}

func TestInsertGlucoseDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ts := time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC)
	g := models.NewGlucoseSample("cgm_patient", 112.0, ts)

	inserted, err := db.InsertGlucose(g)
	if err != nil {
		t.Fatalf("InsertGlucose failed: %v", err)
	}
	if !inserted {
		t.Error("first insert should report a new row")
	}

	// Same natural key again: no-op, not an error.
	dup := models.NewGlucoseSample("cgm_patient", 999.0, ts)
	inserted, err = db.InsertGlucose(dup)
	if err != nil {
		t.Fatalf("duplicate InsertGlucose failed: %v", err)
	}
	if inserted {
		t.Error("duplicate insert should be a no-op")
	}

	all, err := db.ListGlucose("cgm_patient", DateRange{}, 0)
	if err != nil {
		t.Fatalf("ListGlucose failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 row after duplicate insert, got %d", len(all))
	}
	if all[0].Value != 112.0 {
		t.Errorf("duplicate insert must not overwrite: got %v", all[0].Value)
	}
	if all[0].Unit != models.DefaultGlucoseUnit {
		t.Errorf("unit should default to %s, got %s", models.DefaultGlucoseUnit, all[0].Unit)
	}
}

func TestInsertGlucoseDifferentPatientsShareTimestamp(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ts := time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC)
	for _, patient := range []string{"alice", "bob"} {
		inserted, err := db.InsertGlucose(models.NewGlucoseSample(patient, 100, ts))
		if err != nil {
			t.Fatalf("InsertGlucose(%s) failed: %v", patient, err)
		}
		if !inserted {
			t.Errorf("insert for %s should succeed", patient)
		}
	}
}

func TestInsertSleepDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	bed := time.Date(2025, 1, 14, 23, 0, 0, 0, time.UTC)
	wake := bed.Add(7*time.Hour + 30*time.Minute)
	s := models.NewSleepSession("cgm_patient", bed, wake)

	if inserted, err := db.InsertSleep(s); err != nil || !inserted {
		t.Fatalf("InsertSleep = (%v, %v), want (true, nil)", inserted, err)
	}
	if inserted, err := db.InsertSleep(models.NewSleepSession("cgm_patient", bed, wake)); err != nil || inserted {
		t.Fatalf("duplicate InsertSleep = (%v, %v), want (false, nil)", inserted, err)
	}

	all, err := db.ListSleep("cgm_patient", DateRange{}, 0)
	if err != nil {
		t.Fatalf("ListSleep failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 sleep row, got %d", len(all))
	}
	if all[0].DurationMinutes != 450 {
		t.Errorf("duration = %v, want 450", all[0].DurationMinutes)
	}
	if all[0].Date != "2025-01-14" {
		t.Errorf("date = %q, want 2025-01-14", all[0].Date)
	}
}

func TestInsertExerciseDeduplicatesOnTypeAndTimestamp(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ts := time.Date(2025, 1, 15, 17, 0, 0, 0, time.UTC)
	run := models.NewExerciseSession("cgm_patient", "running", ts)
	run.DurationMinutes = 30

	if inserted, err := db.InsertExercise(run); err != nil || !inserted {
		t.Fatalf("InsertExercise = (%v, %v), want (true, nil)", inserted, err)
	}
	// Same instant, same type: duplicate.
	if inserted, err := db.InsertExercise(models.NewExerciseSession("cgm_patient", "running", ts)); err != nil || inserted {
		t.Fatalf("duplicate InsertExercise = (%v, %v), want (false, nil)", inserted, err)
	}
	// Same instant, different activity: distinct natural key.
	if inserted, err := db.InsertExercise(models.NewExerciseSession("cgm_patient", "cycling", ts)); err != nil || !inserted {
		t.Fatalf("cycling InsertExercise = (%v, %v), want (true, nil)", inserted, err)
	}

	all, err := db.ListExercise("cgm_patient", DateRange{}, 0)
	if err != nil {
		t.Fatalf("ListExercise failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 exercise rows, got %d", len(all))
	}
}

func TestGlucoseDateRangeInclusive(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	days := []string{"2025-01-10", "2025-01-11", "2025-01-12", "2025-01-13"}
	for _, day := range days {
		ts, _ := time.Parse("2006-01-02 15:04:05", day+" 09:00:00")
		if _, err := db.InsertGlucose(models.NewGlucoseSample("cgm_patient", 110, ts.UTC())); err != nil {
			t.Fatalf("InsertGlucose failed: %v", err)
		}
	}

	r := DateRange{
		Start: time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
	}
	got, err := db.ListGlucose("cgm_patient", r, 0)
	if err != nil {
		t.Fatalf("ListGlucose failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows in range (end inclusive), got %d", len(got))
	}
	// Newest first for presentation.
	if got[0].Date != "2025-01-12" || got[1].Date != "2025-01-11" {
		t.Errorf("unexpected order: %s, %s", got[0].Date, got[1].Date)
	}
}

func TestGlucoseSeriesAscending(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	base := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		g := models.NewGlucoseSample("cgm_patient", float64(100+i), base.Add(time.Duration(i)*5*time.Minute))
		if _, err := db.InsertGlucose(g); err != nil {
			t.Fatalf("InsertGlucose failed: %v", err)
		}
	}

	series, err := db.GlucoseSeries("cgm_patient", DateRange{})
	if err != nil {
		t.Fatalf("GlucoseSeries failed: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(series))
	}
	for i := 1; i < len(series); i++ {
		if series[i].Timestamp.Before(series[i-1].Timestamp) {
			t.Error("series should be oldest-first")
		}
	}
}

func TestListGlucoseLimit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	base := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		g := models.NewGlucoseSample("cgm_patient", 100, base.Add(time.Duration(i)*time.Hour))
		if _, err := db.InsertGlucose(g); err != nil {
			t.Fatalf("InsertGlucose failed: %v", err)
		}
	}

	limited, err := db.ListGlucose("cgm_patient", DateRange{}, 2)
	if err != nil {
		t.Fatalf("ListGlucose failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 rows with limit, got %d", len(limited))
	}
}

func TestGlucoseStats(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	base := time.Now().Add(-30 * time.Minute).UTC()
	for i, v := range []float64{90, 110, 130} {
		g := models.NewGlucoseSample("cgm_patient", v, base.Add(time.Duration(i)*5*time.Minute))
		if _, err := db.InsertGlucose(g); err != nil {
			t.Fatalf("InsertGlucose failed: %v", err)
		}
	}

	stats, err := db.GlucoseStats("cgm_patient", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("GlucoseStats failed: %v", err)
	}
	if stats.Count != 3 {
		t.Errorf("count = %d, want 3", stats.Count)
	}
	if stats.Average != 110 {
		t.Errorf("average = %v, want 110", stats.Average)
	}
	if stats.Min != 90 || stats.Max != 130 {
		t.Errorf("min/max = %v/%v, want 90/130", stats.Min, stats.Max)
	}

	// Empty window is a zero result, not an error.
	empty, err := db.GlucoseStats("cgm_patient", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("GlucoseStats on empty window failed: %v", err)
	}
	if empty.Count != 0 {
		t.Errorf("empty window count = %d, want 0", empty.Count)
	}
}

func TestGetAllData(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ts := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	if _, err := db.InsertGlucose(models.NewGlucoseSample("cgm_patient", 105, ts)); err != nil {
		t.Fatalf("InsertGlucose failed: %v", err)
	}
	bed := time.Date(2025, 1, 14, 23, 0, 0, 0, time.UTC)
	if _, err := db.InsertSleep(models.NewSleepSession("cgm_patient", bed, bed.Add(8*time.Hour))); err != nil {
		t.Fatalf("InsertSleep failed: %v", err)
	}

	export, err := db.GetAllData("cgm_patient")
	if err != nil {
		t.Fatalf("GetAllData failed: %v", err)
	}
	if len(export.Glucose) != 1 || len(export.Sleep) != 1 || len(export.Exercise) != 0 {
		t.Errorf("export counts = %d/%d/%d, want 1/1/0",
			len(export.Glucose), len(export.Sleep), len(export.Exercise))
	}

	if _, err := export.ToJSON(); err != nil {
		t.Errorf("ToJSON failed: %v", err)
	}
	if _, err := export.ToYAML(); err != nil {
		t.Errorf("ToYAML failed: %v", err)
	}
}

func TestTransactionalInsertRollback(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	ts := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	if _, err := InsertGlucoseTx(tx, models.NewGlucoseSample("cgm_patient", 100, ts)); err != nil {
		t.Fatalf("InsertGlucoseTx failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	all, err := db.ListGlucose("cgm_patient", DateRange{}, 0)
	if err != nil {
		t.Fatalf("ListGlucose failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("rolled-back insert should not be visible, got %d rows", len(all))
	}
}
