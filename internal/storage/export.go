// ABOUTME: Export functionality for stored patient samples.
// ABOUTME: Supports JSON and YAML export formats.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for patient data.
type ExportData struct {
	Version    string                    `json:"version" yaml:"version"`
	ExportedAt time.Time                 `json:"exported_at" yaml:"exported_at"`
	Tool       string                    `json:"tool" yaml:"tool"`
	PatientID  string                    `json:"patient_id" yaml:"patient_id"`
	Glucose    []*models.GlucoseSample   `json:"glucose" yaml:"glucose"`
	Sleep      []*models.SleepSession    `json:"sleep" yaml:"sleep"`
	Exercise   []*models.ExerciseSession `json:"exercise" yaml:"exercise"`
}

// GetAllData retrieves all samples for a patient for export.
func (d *DB) GetAllData(patientID string) (*ExportData, error) {
	glucose, err := d.ListGlucose(patientID, DateRange{}, 0)
	if err != nil {
		return nil, fmt.Errorf("list glucose: %w", err)
	}

	sleep, err := d.ListSleep(patientID, DateRange{}, 0)
	if err != nil {
		return nil, fmt.Errorf("list sleep: %w", err)
	}

	exercise, err := d.ListExercise(patientID, DateRange{}, 0)
	if err != nil {
		return nil, fmt.Errorf("list exercise: %w", err)
	}

	return &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "patient-mcp",
		PatientID:  patientID,
		Glucose:    glucose,
		Sleep:      sleep,
		Exercise:   exercise,
	}, nil
}

// MarshalJSON-style helpers keep the format decision in one place.

// ToJSON renders the export as indented JSON.
func (e *ExportData) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export json: %w", err)
	}
	return data, nil
}

// ToYAML renders the export as YAML.
func (e *ExportData) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal export yaml: %w", err)
	}
	return data, nil
}
