// ABOUTME: Ingestion pipeline: unwrap exporter envelopes, classify, persist.
// ABOUTME: One transaction per batch; per-item failures never abort the batch.
package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nmrastogi/patient-mcp/internal/models"
	"github.com/nmrastogi/patient-mcp/internal/storage"
)

// DefaultPatientID is used when the caller supplies no patient.
const DefaultPatientID = "cgm_patient"

// Result is the ingestion response echoed back to the export automation.
type Result struct {
	Status             string `json:"status"`
	Message            string `json:"message,omitempty"`
	ProcessedGlucose   int    `json:"processed_glucose"`
	ProcessedSleep     int    `json:"processed_sleep"`
	ProcessedExercise  int    `json:"processed_exercise"`
	ProcessedOther     int    `json:"processed_other"`
	TimestampFallbacks int    `json:"timestamp_fallbacks"`
	PatientID          string `json:"patient_id"`
	SessionID          string `json:"session_id,omitempty"`
	AutomationType     string `json:"automation_type,omitempty"`
	Timestamp          string `json:"timestamp"`
}

// Pipeline routes raw exporter batches into the store.
type Pipeline struct {
	store  *storage.DB
	logger *log.Logger
}

// NewPipeline creates a pipeline writing to the given store.
func NewPipeline(store *storage.DB, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{store: store, logger: logger}
}

// Process ingests one raw JSON batch. The body may be a bare array, an object
// with a data array, an object with data.metrics, or an object with a
// top-level metrics array; anything else is treated as empty. The whole batch
// commits as one unit.
func (p *Pipeline) Process(body []byte, meta Meta) (*Result, error) {
	if meta.PatientID == "" {
		meta.PatientID = DefaultPatientID
	}
	if meta.SessionID == "" {
		meta.SessionID = uuid.NewString()
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return errorResult(meta, fmt.Sprintf("invalid JSON body: %v", err)),
			fmt.Errorf("decode batch: %w", err)
	}

	items := Unwrap(payload)
	p.logger.Info("processing batch",
		"session_id", meta.SessionID,
		"automation_type", meta.AutomationType,
		"items", len(items))

	result := &Result{
		Status:         "success",
		PatientID:      meta.PatientID,
		SessionID:      meta.SessionID,
		AutomationType: meta.AutomationType,
	}

	tx, err := p.store.Begin()
	if err != nil {
		return errorResult(meta, err.Error()), fmt.Errorf("begin batch: %w", err)
	}

	now := time.Now()
	for i, item := range items {
		c := Classify(item, meta, now)
		if c.TimestampFallback {
			result.TimestampFallbacks++
			p.logger.Warn("timestamp fallback to processing time",
				"session_id", meta.SessionID, "item", i)
		}
		if c.Reject != "" {
			result.ProcessedOther++
			p.logger.Warn("dropped item",
				"session_id", meta.SessionID, "item", i, "reason", c.Reject)
			continue
		}

		var inserted bool
		switch c.Stream {
		case models.StreamGlucose:
			inserted, err = storage.InsertGlucoseTx(tx, c.Glucose)
		case models.StreamSleep:
			inserted, err = storage.InsertSleepTx(tx, c.Sleep)
		case models.StreamExercise:
			inserted, err = storage.InsertExerciseTx(tx, c.Exercise)
		}
		if err != nil {
			// A store failure is not a data-quality problem: abort the
			// whole batch so no partial write is visible.
			tx.Rollback()
			return errorResult(meta, err.Error()), fmt.Errorf("persist batch: %w", err)
		}
		if !inserted {
			continue
		}

		switch c.Stream {
		case models.StreamGlucose:
			result.ProcessedGlucose++
		case models.StreamSleep:
			result.ProcessedSleep++
		case models.StreamExercise:
			result.ProcessedExercise++
		}
	}

	if err := tx.Commit(); err != nil {
		return errorResult(meta, err.Error()), fmt.Errorf("commit batch: %w", err)
	}

	result.Timestamp = time.Now().Format(time.RFC3339)
	p.logger.Info("batch stored",
		"session_id", meta.SessionID,
		"glucose", result.ProcessedGlucose,
		"sleep", result.ProcessedSleep,
		"exercise", result.ProcessedExercise,
		"other", result.ProcessedOther)
	return result, nil
}

// Unwrap flattens the accepted envelope shapes to a list of raw items.
// Non-object entries inside the array are skipped.
func Unwrap(payload any) []map[string]any {
	var list []any
	switch v := payload.(type) {
	case []any:
		list = v
	case map[string]any:
		if data, ok := v["data"]; ok {
			switch d := data.(type) {
			case []any:
				list = d
			case map[string]any:
				list, _ = d["metrics"].([]any)
			}
		} else if metrics, ok := v["metrics"].([]any); ok {
			list = metrics
		}
	}

	items := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if item, ok := entry.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items
}

func errorResult(meta Meta, message string) *Result {
	return &Result{
		Status:    "error",
		Message:   message,
		PatientID: meta.PatientID,
		SessionID: meta.SessionID,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
