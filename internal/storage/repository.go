// ABOUTME: Repository interface for patient sample storage.
// ABOUTME: Defines the contract the ingestion pipeline and read tools depend on.
package storage

import (
	"database/sql"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/models"
)

// DateRange is an inclusive calendar-date window. Zero value means unbounded.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether no range was requested.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Repository defines the storage interface for patient samples.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// Write path. Inserts are idempotent on the natural key: a duplicate
	// returns (false, nil), never an error.
	Begin() (*sql.Tx, error)
	InsertGlucose(g *models.GlucoseSample) (bool, error)
	InsertSleep(s *models.SleepSession) (bool, error)
	InsertExercise(e *models.ExerciseSession) (bool, error)

	// Read path. List* return newest-first for presentation; *Series return
	// oldest-first for analysis. limit <= 0 means unlimited.
	ListGlucose(patientID string, r DateRange, limit int) ([]*models.GlucoseSample, error)
	ListSleep(patientID string, r DateRange, limit int) ([]*models.SleepSession, error)
	ListExercise(patientID string, r DateRange, limit int) ([]*models.ExerciseSession, error)
	GlucoseSeries(patientID string, r DateRange) ([]*models.GlucoseSample, error)
	SleepSeries(patientID string, r DateRange) ([]*models.SleepSession, error)
	ExerciseSeries(patientID string, r DateRange) ([]*models.ExerciseSession, error)

	// Monitoring.
	RecentGlucose(patientID string, since time.Time, limit int) ([]*models.GlucoseSample, error)
	GlucoseStats(patientID string, since time.Time) (*GlucoseStats, error)

	// Export.
	GetAllData(patientID string) (*ExportData, error)

	// Lifecycle.
	Close() error
}
