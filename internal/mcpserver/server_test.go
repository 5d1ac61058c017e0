// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Invokes the typed handlers directly against a temp store.
package mcpserver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/analysis"
	"github.com/nmrastogi/patient-mcp/internal/models"
	"github.com/nmrastogi/patient-mcp/internal/storage"
)

const testPatient = "cgm_patient"

func setupServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "patient.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	server, err := NewServer(db, testPatient)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server, db
}

func seedGlucose(t *testing.T, db *storage.DB, day string, hour int, values ...float64) {
	t.Helper()
	base, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatalf("bad day %q: %v", day, err)
	}
	for i, v := range values {
		ts := base.Add(time.Duration(hour)*time.Hour + time.Duration(i)*5*time.Minute)
		if _, err := db.InsertGlucose(models.NewGlucoseSample(testPatient, v, ts)); err != nil {
			t.Fatalf("InsertGlucose failed: %v", err)
		}
	}
}

func TestNewServer(t *testing.T) {
	server, _ := setupServer(t)
	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.store == nil || server.cache == nil {
		t.Error("Expected wired store and cache")
	}
}

func TestHandleGetGlucoseData(t *testing.T) {
	server, db := setupServer(t)
	seedGlucose(t, db, "2025-01-14", 8, 100, 110)
	seedGlucose(t, db, "2025-01-15", 8, 120)

	_, out, err := server.handleGetGlucoseData(context.Background(), nil, queryInput{
		StartDate: "2025-01-15",
		EndDate:   "2025-01-15",
	})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	q, ok := out.(queryOutput)
	if !ok {
		t.Fatalf("output type %T, want queryOutput", out)
	}
	if q.Table != "glucose" || q.TotalRecords != 1 {
		t.Errorf("table/total = %s/%d, want glucose/1", q.Table, q.TotalRecords)
	}
	if q.Limit != DefaultQueryLimit {
		t.Errorf("limit echo = %d, want default", q.Limit)
	}
}

func TestHandleGetGlucoseDataUnlimited(t *testing.T) {
	server, db := setupServer(t)

	// More readings than the default cap.
	base := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultQueryLimit+10; i++ {
		g := models.NewGlucoseSample(testPatient, 100, base.Add(time.Duration(i)*time.Minute))
		if _, err := db.InsertGlucose(g); err != nil {
			t.Fatalf("InsertGlucose failed: %v", err)
		}
	}

	_, out, err := server.handleGetGlucoseData(context.Background(), nil, queryInput{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	q := out.(queryOutput)
	if q.TotalRecords != DefaultQueryLimit {
		t.Errorf("default total = %d, want %d", q.TotalRecords, DefaultQueryLimit)
	}

	_, out, err = server.handleGetGlucoseData(context.Background(), nil, queryInput{Limit: UnlimitedQueryLimit})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	q = out.(queryOutput)
	if q.TotalRecords != DefaultQueryLimit+10 {
		t.Errorf("unlimited total = %d, want %d", q.TotalRecords, DefaultQueryLimit+10)
	}
	if q.Limit != UnlimitedQueryLimit {
		t.Errorf("limit echo = %d, want %d", q.Limit, UnlimitedQueryLimit)
	}
}

func TestHandleGetGlucoseDataValidation(t *testing.T) {
	server, _ := setupServer(t)

	tests := []struct {
		name  string
		input queryInput
	}{
		{"start without end", queryInput{StartDate: "2025-01-15"}},
		{"bad date format", queryInput{StartDate: "01/15/2025", EndDate: "2025-01-16"}},
		{"end before start", queryInput{StartDate: "2025-01-16", EndDate: "2025-01-15"}},
		{"negative limit", queryInput{Limit: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := server.handleGetGlucoseData(context.Background(), nil, tt.input)
			if err != nil {
				t.Fatalf("validation should not be a Go error: %v", err)
			}
			errOut, ok := out.(*errorOutput)
			if !ok || errOut.Error == "" {
				t.Errorf("output = %#v, want structured error payload", out)
			}
		})
	}
}

func TestHandleDetectPatternsModes(t *testing.T) {
	server, db := setupServer(t)
	seedGlucose(t, db, "2025-01-15", 8, 100, 120, 140)

	_, out, err := server.handleDetectPatterns(context.Background(), nil, patternsInput{Mode: "glucose"})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	p, ok := out.(patternsOutput)
	if !ok {
		t.Fatalf("output type %T", out)
	}
	if p.Glucose == nil {
		t.Error("glucose mode should include the glucose report")
	}
	if p.Sleep != nil || p.Exercise != nil {
		t.Error("glucose mode must not include other sections")
	}

	_, out, err = server.handleDetectPatterns(context.Background(), nil, patternsInput{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	p = out.(patternsOutput)
	if p.Mode != "all" || p.Glucose == nil || p.Sleep == nil || p.Exercise == nil {
		t.Error("default mode should run every section")
	}
}

func TestHandleDetectPatternsUnknownMode(t *testing.T) {
	server, _ := setupServer(t)
	_, out, err := server.handleDetectPatterns(context.Background(), nil, patternsInput{Mode: "stress"})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if errOut, ok := out.(errorOutput); !ok || errOut.Error == "" {
		t.Errorf("output = %#v, want structured error", out)
	}
}

func TestHandleDetectAnomaliesInsufficientData(t *testing.T) {
	server, db := setupServer(t)
	seedGlucose(t, db, "2025-01-15", 8, 100, 110)

	_, out, err := server.handleDetectAnomalies(context.Background(), nil, anomaliesInput{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	report, ok := out.(*analysis.AnomalyReport)
	if !ok {
		t.Fatalf("output type %T", out)
	}
	if report.Message == "" {
		t.Error("2 readings should report insufficient data, not an error")
	}
}

func TestHandleFindHypoglycemicEvent(t *testing.T) {
	server, db := setupServer(t)
	seedGlucose(t, db, "2025-01-15", 8, 90, 80, 65, 75)

	_, out, err := server.handleFindHypoglycemicEvent(context.Background(), nil, hypoInput{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	report := out.(*analysis.HypoReport)
	if !report.Found || report.Value != 65 {
		t.Errorf("report = %+v", report)
	}
	if report.Recovery == nil || report.Recovery.DurationMinutes != 5 {
		t.Errorf("recovery = %+v, want 5 minutes", report.Recovery)
	}
}

func TestHandleFindCorrelationsInsufficientOverlap(t *testing.T) {
	server, db := setupServer(t)
	seedGlucose(t, db, "2025-01-15", 8, 100)

	_, out, err := server.handleFindCorrelations(context.Background(), nil, rangeInput{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	report := out.(*analysis.CorrelationReport)
	if report.ExerciseVsGlucose.Message != "insufficient overlapping data" {
		t.Errorf("message = %q", report.ExerciseVsGlucose.Message)
	}
}

func TestHandleGetCGMStatus(t *testing.T) {
	server, db := setupServer(t)

	now := time.Now()
	for i := 0; i < 6; i++ {
		g := models.NewGlucoseSample(testPatient, 100+float64(i), now.Add(-time.Duration(i)*5*time.Minute))
		if _, err := db.InsertGlucose(g); err != nil {
			t.Fatalf("InsertGlucose failed: %v", err)
		}
	}

	_, out, err := server.handleGetCGMStatus(context.Background(), nil, struct{}{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	report := out.(*analysis.CGMStatusReport)
	if report.Status != "healthy" {
		t.Errorf("status = %q", report.Status)
	}
	if report.LastHour.TotalReadings != 6 {
		t.Errorf("last hour readings = %d, want 6", report.LastHour.TotalReadings)
	}
	if report.LastHour.ExpectedReadings != 12 {
		t.Errorf("expected readings = %d, want 12", report.LastHour.ExpectedReadings)
	}
	if report.LastHour.DataCompletenessPercent != 50 {
		t.Errorf("completeness = %v, want 50", report.LastHour.DataCompletenessPercent)
	}
	if report.LatestReading == nil {
		t.Error("expected latest reading")
	}
}

func TestHandleResources(t *testing.T) {
	server, db := setupServer(t)
	seedGlucose(t, db, time.Now().Format("2006-01-02"), time.Now().Hour(), 105)

	recent, err := server.handleRecentResource(context.Background(), nil)
	if err != nil {
		t.Fatalf("recent resource failed: %v", err)
	}
	if len(recent.Contents) != 1 || recent.Contents[0].Text == "" {
		t.Error("recent resource should return JSON text")
	}

	today, err := server.handleTodayResource(context.Background(), nil)
	if err != nil {
		t.Fatalf("today resource failed: %v", err)
	}
	if len(today.Contents) != 1 {
		t.Error("today resource should return one content block")
	}

	summary, err := server.handleSummaryResource(context.Background(), nil)
	if err != nil {
		t.Fatalf("summary resource failed: %v", err)
	}
	if len(summary.Contents) != 1 {
		t.Error("summary resource should return one content block")
	}
}
