// ABOUTME: Classifies raw exporter items into typed physiological samples.
// ABOUTME: Field names are probed in priority order; first matching rule wins.
package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/models"
	"github.com/nmrastogi/patient-mcp/internal/timeparse"
)

// DefaultSource is assumed when the exporter does not name itself.
const DefaultSource = "Health Auto Export"

// CGMFrequent marks a batch as high-frequency glucose, which classifies
// otherwise-anonymous numeric items as glucose readings.
const CGMFrequent = "cgm-frequent"

// Field candidates, probed left to right. The export automation is not a
// fixed contract, so several generations of field names are accepted.
var (
	nameKeys   = []string{"name", "type", "metric"}
	valueKeys  = []string{"qty", "value", "amount"}
	unitKeys   = []string{"units", "unit"}
	timeKeys   = []string{"date", "timestamp", "startDate"}
	sourceKeys = []string{"source", "sourceName"}
)

var (
	exerciseTerms = []string{"workout", "exercise", "activity", "fitness"}
	glucoseTerms  = []string{"glucose", "blood", "bg"}
)

// Meta carries the out-of-band batch metadata from the export automation.
type Meta struct {
	PatientID      string
	SessionID      string
	AutomationType string
}

// Candidate is one classified item: exactly one typed record is set for the
// persisted streams, or Reject explains why the item was dropped.
type Candidate struct {
	Stream   models.Stream
	Glucose  *models.GlucoseSample
	Sleep    *models.SleepSession
	Exercise *models.ExerciseSession

	// Reject is non-empty when the item could not be turned into a record.
	Reject string

	// TimestampFallback reports that the item's timestamp was unparseable
	// and the processing instant was substituted.
	TimestampFallback bool
}

// Classify routes one raw item to its stream. Rules are evaluated in order:
// a start/end pair means sleep, an activity type or exercise keyword means
// exercise, a glucose keyword or a high-frequency batch means glucose, and
// anything else is unclassified.
func Classify(item map[string]any, meta Meta, now time.Time) Candidate {
	name := firstString(item, nameKeys)
	lower := strings.ToLower(name)

	// Sleep first: an explicit interval outranks any keyword.
	if hasKey(item, "startDate") && hasKey(item, "endDate") {
		return classifySleep(item, meta)
	}

	if hasKey(item, "workoutActivityType") || containsAny(lower, exerciseTerms) {
		return classifyExercise(item, meta, name, now)
	}

	if containsAny(lower, glucoseTerms) || meta.AutomationType == CGMFrequent {
		return classifyGlucose(item, meta, now)
	}

	return Candidate{Stream: models.StreamOther, Reject: "unrecognized metric " + strconv.Quote(name)}
}

func classifySleep(item map[string]any, meta Meta) Candidate {
	bedtime, err := timeparse.Parse(stringValue(item["startDate"]))
	if err != nil {
		return Candidate{Stream: models.StreamSleep, Reject: "unparseable sleep start: " + err.Error()}
	}
	wake, err := timeparse.Parse(stringValue(item["endDate"]))
	if err != nil {
		return Candidate{Stream: models.StreamSleep, Reject: "unparseable sleep end: " + err.Error()}
	}
	if wake.Before(bedtime) {
		return Candidate{Stream: models.StreamSleep, Reject: "sleep interval ends before it starts"}
	}

	s := models.NewSleepSession(meta.PatientID, bedtime, wake)
	s.Stage = "unknown"
	if stage, ok := item["value"].(string); ok && stage != "" {
		s.Stage = stage
	}
	if eff, ok := numeric(item["efficiency"]); ok {
		s.Efficiency = &eff
	}
	if deep, ok := numeric(item["deep"]); ok {
		s.DeepMinutes = &deep
	}
	if light, ok := numeric(item["light"]); ok {
		s.LightMinutes = &light
	}
	if rem, ok := numeric(item["rem"]); ok {
		s.REMMinutes = &rem
	}
	applySleepMeta(s, item, meta)
	return Candidate{Stream: models.StreamSleep, Sleep: s}
}

func classifyExercise(item map[string]any, meta Meta, name string, now time.Time) Candidate {
	activity := name
	if w, ok := item["workoutActivityType"].(string); ok && w != "" {
		activity = w
	}

	start, fallback := itemTimestamp(item, now)
	e := models.NewExerciseSession(meta.PatientID, activity, start)

	if d, ok := numeric(item["duration"]); ok {
		e.DurationMinutes = d
	}
	end := start.Add(30 * time.Minute)
	if raw, ok := item["endDate"]; ok {
		if t, err := timeparse.Parse(stringValue(raw)); err == nil {
			end = t
		}
	}
	e.WithEnd(end)

	if dist, ok := numeric(item["totalDistance"]); ok {
		e.Distance = &dist
		e.DistanceUnit = firstString(item, []string{"distanceUnit"})
	}
	if energy, ok := numeric(item["totalEnergyBurned"]); ok {
		e.Energy = &energy
		e.EnergyUnit = firstString(item, []string{"energyUnit"})
	}
	applyExerciseMeta(e, item, meta)
	return Candidate{Stream: models.StreamExercise, Exercise: e, TimestampFallback: fallback}
}

func classifyGlucose(item map[string]any, meta Meta, now time.Time) Candidate {
	value, ok := firstNumeric(item, valueKeys)
	if !ok {
		return Candidate{Stream: models.StreamGlucose, Reject: "non-numeric glucose value"}
	}
	if value <= 0 {
		return Candidate{Stream: models.StreamGlucose, Reject: "non-positive glucose value"}
	}

	ts, fallback := itemTimestamp(item, now)
	g := models.NewGlucoseSample(meta.PatientID, value, ts)
	if unit := firstString(item, unitKeys); unit != "" {
		g.Unit = unit
	}
	g.SourceName = sourceName(item)
	g.AutomationType = meta.AutomationType
	g.SessionID = meta.SessionID
	return Candidate{Stream: models.StreamGlucose, Glucose: g, TimestampFallback: fallback}
}

// itemTimestamp parses the item's timestamp field, substituting now on
// failure. The second return reports the substitution.
func itemTimestamp(item map[string]any, now time.Time) (time.Time, bool) {
	raw := firstString(item, timeKeys)
	if raw == "" {
		return now, true
	}
	t, err := timeparse.Parse(raw)
	if err != nil {
		return now, true
	}
	return t, false
}

func sourceName(item map[string]any) string {
	if s := firstString(item, sourceKeys); s != "" {
		return s
	}
	return DefaultSource
}

func applySleepMeta(s *models.SleepSession, item map[string]any, meta Meta) {
	s.SourceName = sourceName(item)
	s.AutomationType = meta.AutomationType
	s.SessionID = meta.SessionID
}

func applyExerciseMeta(e *models.ExerciseSession, item map[string]any, meta Meta) {
	e.SourceName = sourceName(item)
	e.AutomationType = meta.AutomationType
	e.SessionID = meta.SessionID
}

func hasKey(item map[string]any, key string) bool {
	_, ok := item[key]
	return ok
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func firstString(item map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := item[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstNumeric(item map[string]any, keys []string) (float64, bool) {
	for _, key := range keys {
		if raw, ok := item[key]; ok {
			return numeric(raw)
		}
	}
	return 0, false
}

// numeric coerces JSON numbers and numeric strings to float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
