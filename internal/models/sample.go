// ABOUTME: Sample models for the three persisted physiological streams.
// ABOUTME: Defines GlucoseSample, SleepSession, and ExerciseSession.
package models

import (
	"time"
)

// Stream identifies which typed stream a classified sample belongs to.
type Stream string

const (
	StreamGlucose  Stream = "glucose"
	StreamSleep    Stream = "sleep"
	StreamExercise Stream = "exercise"
	StreamOther    Stream = "other"
)

// DefaultGlucoseUnit is assumed when the exporter omits a unit.
const DefaultGlucoseUnit = "mg/dL"

// GlucoseSample is a single blood glucose reading.
// Natural key: (PatientID, Timestamp).
type GlucoseSample struct {
	ID             int64     `json:"id,omitempty" yaml:"id,omitempty"`
	PatientID      string    `json:"patient_id" yaml:"patient_id"`
	Value          float64   `json:"glucose_mg_dl" yaml:"glucose_mg_dl"`
	Unit           string    `json:"unit" yaml:"unit"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	Date           string    `json:"date" yaml:"date"`
	Hour           int       `json:"hour" yaml:"hour"`
	Minute         int       `json:"minute" yaml:"minute"`
	SourceName     string    `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	AutomationType string    `json:"automation_type,omitempty" yaml:"automation_type,omitempty"`
	SessionID      string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// NewGlucoseSample creates a glucose sample for a patient at the given instant.
// Date, hour, and minute are derived from the timestamp.
func NewGlucoseSample(patientID string, value float64, ts time.Time) *GlucoseSample {
	return &GlucoseSample{
		PatientID: patientID,
		Value:     value,
		Unit:      DefaultGlucoseUnit,
		Timestamp: ts,
		Date:      ts.Format("2006-01-02"),
		Hour:      ts.Hour(),
		Minute:    ts.Minute(),
		CreatedAt: time.Now(),
	}
}

// SleepSession is one sleep interval with optional stage and heart-rate detail.
// Natural key: (PatientID, Bedtime).
type SleepSession struct {
	ID              int64     `json:"id,omitempty" yaml:"id,omitempty"`
	PatientID       string    `json:"patient_id" yaml:"patient_id"`
	Date            string    `json:"date" yaml:"date"`
	Bedtime         time.Time `json:"bedtime" yaml:"bedtime"`
	WakeTime        time.Time `json:"wake_time" yaml:"wake_time"`
	DurationMinutes float64   `json:"duration_minutes" yaml:"duration_minutes"`
	Stage           string    `json:"sleep_stage,omitempty" yaml:"sleep_stage,omitempty"`
	DeepMinutes     *float64  `json:"deep_minutes,omitempty" yaml:"deep_minutes,omitempty"`
	LightMinutes    *float64  `json:"light_minutes,omitempty" yaml:"light_minutes,omitempty"`
	REMMinutes      *float64  `json:"rem_minutes,omitempty" yaml:"rem_minutes,omitempty"`
	Efficiency      *float64  `json:"efficiency,omitempty" yaml:"efficiency,omitempty"`
	HeartRateMin    *float64  `json:"heart_rate_min,omitempty" yaml:"heart_rate_min,omitempty"`
	HeartRateAvg    *float64  `json:"heart_rate_avg,omitempty" yaml:"heart_rate_avg,omitempty"`
	HeartRateMax    *float64  `json:"heart_rate_max,omitempty" yaml:"heart_rate_max,omitempty"`
	SourceName      string    `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	AutomationType  string    `json:"automation_type,omitempty" yaml:"automation_type,omitempty"`
	SessionID       string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// NewSleepSession creates a sleep session from a bedtime/wake pair.
// Duration is derived; the date is the bedtime's calendar day.
func NewSleepSession(patientID string, bedtime, wakeTime time.Time) *SleepSession {
	return &SleepSession{
		PatientID:       patientID,
		Date:            bedtime.Format("2006-01-02"),
		Bedtime:         bedtime,
		WakeTime:        wakeTime,
		DurationMinutes: wakeTime.Sub(bedtime).Minutes(),
		CreatedAt:       time.Now(),
	}
}

// ExerciseSession is one workout or activity interval.
// Natural key: (PatientID, ActivityType, Timestamp).
type ExerciseSession struct {
	ID              int64      `json:"id,omitempty" yaml:"id,omitempty"`
	PatientID       string     `json:"patient_id" yaml:"patient_id"`
	ActivityType    string     `json:"activity_type" yaml:"activity_type"`
	Timestamp       time.Time  `json:"timestamp" yaml:"timestamp"`
	EndTime         *time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	DurationMinutes float64    `json:"duration_minutes" yaml:"duration_minutes"`
	Distance        *float64   `json:"total_distance,omitempty" yaml:"total_distance,omitempty"`
	DistanceUnit    string     `json:"distance_unit,omitempty" yaml:"distance_unit,omitempty"`
	Energy          *float64   `json:"total_energy,omitempty" yaml:"total_energy,omitempty"`
	EnergyUnit      string     `json:"energy_unit,omitempty" yaml:"energy_unit,omitempty"`
	HeartRateMin    *float64   `json:"heart_rate_min,omitempty" yaml:"heart_rate_min,omitempty"`
	HeartRateAvg    *float64   `json:"heart_rate_avg,omitempty" yaml:"heart_rate_avg,omitempty"`
	HeartRateMax    *float64   `json:"heart_rate_max,omitempty" yaml:"heart_rate_max,omitempty"`
	Date            string     `json:"date" yaml:"date"`
	SourceName      string     `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	AutomationType  string     `json:"automation_type,omitempty" yaml:"automation_type,omitempty"`
	SessionID       string     `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// NewExerciseSession creates an exercise session starting at the given instant.
func NewExerciseSession(patientID, activityType string, ts time.Time) *ExerciseSession {
	return &ExerciseSession{
		PatientID:    patientID,
		ActivityType: activityType,
		Timestamp:    ts,
		Date:         ts.Format("2006-01-02"),
		CreatedAt:    time.Now(),
	}
}

// WithEnd sets the end time and derives the duration when none was supplied.
func (e *ExerciseSession) WithEnd(end time.Time) *ExerciseSession {
	e.EndTime = &end
	if e.DurationMinutes == 0 {
		e.DurationMinutes = end.Sub(e.Timestamp).Minutes()
	}
	return e
}
