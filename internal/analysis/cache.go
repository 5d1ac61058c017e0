// ABOUTME: Explicitly-invalidated snapshot cache over the store's series.
// ABOUTME: Serves repeated analysis calls without re-querying per call.
package analysis

import (
	"fmt"
	"sync"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/models"
	"github.com/nmrastogi/patient-mcp/internal/storage"
)

// SeriesSource is the slice of the store the analysis layer reads.
type SeriesSource interface {
	GlucoseSeries(patientID string, r storage.DateRange) ([]*models.GlucoseSample, error)
	SleepSeries(patientID string, r storage.DateRange) ([]*models.SleepSession, error)
	ExerciseSeries(patientID string, r storage.DateRange) ([]*models.ExerciseSession, error)
}

// Snapshot is one patient's three series for a window, loaded together so an
// analysis call computes over a consistent view.
type Snapshot struct {
	PatientID string
	Range     storage.DateRange
	Glucose   []*models.GlucoseSample
	Sleep     []*models.SleepSession
	Exercise  []*models.ExerciseSession
	LoadedAt  time.Time
}

// Cache memoizes the most recent snapshot. Ingestion invalidates it after
// every committed batch; there is no time-based expiry.
type Cache struct {
	source SeriesSource

	mu   sync.Mutex
	last *Snapshot
}

// NewCache creates a cache reading from the given source.
func NewCache(source SeriesSource) *Cache {
	return &Cache{source: source}
}

// Snapshot returns the cached snapshot when the patient and window match the
// previous call, otherwise reloads from the store.
func (c *Cache) Snapshot(patientID string, r storage.DateRange) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && c.last.PatientID == patientID && sameRange(c.last.Range, r) {
		return c.last, nil
	}

	snap, err := load(c.source, patientID, r)
	if err != nil {
		return nil, err
	}
	c.last = snap
	return snap, nil
}

// Invalidate drops the cached snapshot; the next call reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.last = nil
	c.mu.Unlock()
}

func load(source SeriesSource, patientID string, r storage.DateRange) (*Snapshot, error) {
	glucose, err := source.GlucoseSeries(patientID, r)
	if err != nil {
		return nil, fmt.Errorf("load glucose series: %w", err)
	}
	sleep, err := source.SleepSeries(patientID, r)
	if err != nil {
		return nil, fmt.Errorf("load sleep series: %w", err)
	}
	exercise, err := source.ExerciseSeries(patientID, r)
	if err != nil {
		return nil, fmt.Errorf("load exercise series: %w", err)
	}
	return &Snapshot{
		PatientID: patientID,
		Range:     r,
		Glucose:   glucose,
		Sleep:     sleep,
		Exercise:  exercise,
		LoadedAt:  time.Now(),
	}, nil
}

func sameRange(a, b storage.DateRange) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}
