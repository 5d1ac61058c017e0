// ABOUTME: Z-score anomaly detection and hypoglycemic event analysis.
// ABOUTME: Small series produce explicit insufficient-data results.
package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/models"
)

// DefaultAnomalyThreshold is the z-score factor used when the caller
// supplies none.
const DefaultAnomalyThreshold = 2.5

// MinAnomalyReadings is the smallest series the detector will analyze.
const MinAnomalyReadings = 5

// HypoThreshold is the default hypoglycemia boundary in mg/dL.
const HypoThreshold = 70.0

// Anomaly is one reading outside the z-score bounds.
type Anomaly struct {
	Timestamp       time.Time `json:"timestamp"`
	Value           float64   `json:"value"`
	Direction       string    `json:"direction"`
	Severity        string    `json:"severity"`
	DeviationFactor float64   `json:"deviation_factor"`
}

// AnomalyReport carries the detection bounds and every flagged reading.
// Message is set instead when the series is too small to analyze.
type AnomalyReport struct {
	TotalReadings int       `json:"total_readings"`
	Mean          float64   `json:"mean"`
	StdDev        float64   `json:"std_dev"`
	Threshold     float64   `json:"threshold_factor"`
	UpperBound    float64   `json:"upper_bound"`
	LowerBound    float64   `json:"lower_bound"`
	Anomalies     []Anomaly `json:"anomalies"`
	Message       string    `json:"message,omitempty"`
}

// DetectAnomalies flags readings whose z-score magnitude meets the threshold
// factor. A reading more than three deviations out is severe. threshold <= 0
// selects the default.
func DetectAnomalies(samples []*models.GlucoseSample, threshold float64) *AnomalyReport {
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}
	if len(samples) < MinAnomalyReadings {
		return &AnomalyReport{
			TotalReadings: len(samples),
			Threshold:     threshold,
			Message: fmt.Sprintf("insufficient data: %d readings, need at least %d",
				len(samples), MinAnomalyReadings),
		}
	}

	values := make([]float64, len(samples))
	for i, g := range samples {
		values[i] = g.Value
	}
	mu := mean(values)
	sigma := sampleStdDev(values)

	report := &AnomalyReport{
		TotalReadings: len(samples),
		Mean:          round1(mu),
		StdDev:        round1(sigma),
		Threshold:     threshold,
		UpperBound:    round1(mu + threshold*sigma),
		LowerBound:    round1(mu - threshold*sigma),
	}
	if sigma == 0 {
		// A flat series has no outliers.
		return report
	}

	for _, g := range samples {
		z := (g.Value - mu) / sigma
		if math.Abs(z) < threshold {
			continue
		}
		direction := "high"
		if z < 0 {
			direction = "low"
		}
		severity := "moderate"
		if math.Abs(z) > 3 {
			severity = "severe"
		}
		report.Anomalies = append(report.Anomalies, Anomaly{
			Timestamp:       g.Timestamp,
			Value:           g.Value,
			Direction:       direction,
			Severity:        severity,
			DeviationFactor: math.Round(z*100) / 100,
		})
	}
	return report
}

// Recovery is the first reading at or above the hypo threshold after the
// event.
type Recovery struct {
	Timestamp       time.Time `json:"timestamp"`
	Value           float64   `json:"value"`
	DurationMinutes float64   `json:"duration_minutes"`
}

// HypoReport describes the most recent hypoglycemic reading, the immediate
// trend into it, and the recovery if one occurred.
type HypoReport struct {
	Threshold float64    `json:"threshold"`
	Found     bool       `json:"found"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Value     float64    `json:"value,omitempty"`
	Trend     string     `json:"trend,omitempty"`
	Recovery  *Recovery  `json:"recovery,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// FindHypoglycemicEvent locates the most recent reading below the threshold
// in an oldest-first series. threshold <= 0 selects the default 70 mg/dL.
func FindHypoglycemicEvent(samples []*models.GlucoseSample, threshold float64) *HypoReport {
	if threshold <= 0 {
		threshold = HypoThreshold
	}

	eventIdx := -1
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Value < threshold {
			eventIdx = i
			break
		}
	}
	if eventIdx < 0 {
		return &HypoReport{
			Threshold: threshold,
			Message:   fmt.Sprintf("no readings below %.0f mg/dL in the analyzed window", threshold),
		}
	}

	event := samples[eventIdx]
	report := &HypoReport{
		Threshold: threshold,
		Found:     true,
		Timestamp: &event.Timestamp,
		Value:     event.Value,
		Trend:     hypoTrend(samples, eventIdx),
	}

	for _, g := range samples[eventIdx+1:] {
		if g.Value >= threshold {
			report.Recovery = &Recovery{
				Timestamp:       g.Timestamp,
				Value:           g.Value,
				DurationMinutes: round1(g.Timestamp.Sub(event.Timestamp).Minutes()),
			}
			break
		}
	}
	if report.Recovery == nil {
		report.Message = "no recovery reading at or above threshold yet"
	}
	return report
}

// hypoTrend classifies the slope into the event from up to 3 prior readings.
// The last consecutive difference between the prior readings decides it.
func hypoTrend(samples []*models.GlucoseSample, eventIdx int) string {
	start := eventIdx - 3
	if start < 0 {
		start = 0
	}
	prior := samples[start:eventIdx]
	if len(prior) < 2 {
		return "unknown"
	}

	diff := prior[len(prior)-1].Value - prior[len(prior)-2].Value
	switch {
	case diff < -10:
		return "falling rapidly"
	case diff < -5:
		return "falling"
	case diff > 5:
		return "rising"
	default:
		return "stable"
	}
}
