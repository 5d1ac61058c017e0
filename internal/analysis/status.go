// ABOUTME: CGM monitoring status: windowed stats and cadence completeness.
// ABOUTME: Expected readings assume the exporter's 5-minute cadence.
package analysis

import (
	"fmt"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/models"
	"github.com/nmrastogi/patient-mcp/internal/storage"
)

// ReadingsPerHour is the expected CGM cadence (one reading every 5 minutes).
const ReadingsPerHour = 12

// StatsSource is the slice of the store the status report reads.
type StatsSource interface {
	GlucoseStats(patientID string, since time.Time) (*storage.GlucoseStats, error)
	RecentGlucose(patientID string, since time.Time, limit int) ([]*models.GlucoseSample, error)
}

// WindowStats summarizes one lookback window against the expected cadence.
type WindowStats struct {
	TotalReadings           int        `json:"total_readings"`
	ExpectedReadings        int        `json:"expected_readings,omitempty"`
	DataCompletenessPercent float64    `json:"data_completeness_percent,omitempty"`
	AverageGlucose          float64    `json:"average_glucose,omitempty"`
	MinGlucose              float64    `json:"min_glucose,omitempty"`
	MaxGlucose              float64    `json:"max_glucose,omitempty"`
	GlucoseRange            float64    `json:"glucose_range,omitempty"`
	FirstReadingTime        *time.Time `json:"first_reading_time,omitempty"`
	LastReadingTime         *time.Time `json:"last_reading_time,omitempty"`
	TimeRangeHours          int        `json:"time_range_hours"`
	Message                 string     `json:"message,omitempty"`
}

// CGMStatusReport is the monitoring health summary.
type CGMStatusReport struct {
	Status         string                `json:"status"`
	Service        string                `json:"service"`
	Timestamp      string                `json:"timestamp"`
	LastHour       WindowStats           `json:"last_hour"`
	Last24Hours    WindowStats           `json:"last_24_hours"`
	RecentReadings int                   `json:"recent_readings"`
	LatestReading  *models.GlucoseSample `json:"latest_reading,omitempty"`
}

// CGMStatus builds the monitoring report from 1-hour and 24-hour windows
// plus the readings of the last 30 minutes.
func CGMStatus(source StatsSource, patientID string) (*CGMStatusReport, error) {
	lastHour, err := windowStats(source, patientID, 1)
	if err != nil {
		return nil, err
	}
	last24, err := windowStats(source, patientID, 24)
	if err != nil {
		return nil, err
	}

	recent, err := source.RecentGlucose(patientID, time.Now().Add(-30*time.Minute), 100)
	if err != nil {
		return nil, fmt.Errorf("recent readings: %w", err)
	}

	report := &CGMStatusReport{
		Status:         "healthy",
		Service:        "5-Minute CGM Monitor",
		Timestamp:      time.Now().Format(time.RFC3339),
		LastHour:       lastHour,
		Last24Hours:    last24,
		RecentReadings: len(recent),
	}
	if len(recent) > 0 {
		report.LatestReading = recent[0]
	}
	return report, nil
}

func windowStats(source StatsSource, patientID string, hoursBack int) (WindowStats, error) {
	stats, err := source.GlucoseStats(patientID, time.Now().Add(-time.Duration(hoursBack)*time.Hour))
	if err != nil {
		return WindowStats{}, fmt.Errorf("glucose stats %dh: %w", hoursBack, err)
	}

	if stats.Count == 0 {
		return WindowStats{
			TimeRangeHours: hoursBack,
			Message:        "no CGM data found in specified time range",
		}, nil
	}

	expected := hoursBack * ReadingsPerHour
	return WindowStats{
		TotalReadings:           stats.Count,
		ExpectedReadings:        expected,
		DataCompletenessPercent: round1(float64(stats.Count) / float64(expected) * 100),
		AverageGlucose:          round1(stats.Average),
		MinGlucose:              round1(stats.Min),
		MaxGlucose:              round1(stats.Max),
		GlucoseRange:            round1(stats.Max - stats.Min),
		FirstReadingTime:        stats.FirstReading,
		LastReadingTime:         stats.LastReading,
		TimeRangeHours:          hoursBack,
	}, nil
}
