// ABOUTME: Pearson correlation across daily aggregates of the three streams.
// ABOUTME: Series join on calendar date; each pairing gates on >=3 overlaps.
package analysis

import (
	"math"
	"sort"

	"github.com/nmrastogi/patient-mcp/internal/models"
)

// MinOverlappingDays is the smallest inner join a pairing will analyze.
const MinOverlappingDays = 3

// Correlation is one pairing's result. Coefficient is nil when the pairing
// had too little overlap or a constant series.
type Correlation struct {
	Pair            string   `json:"pair"`
	OverlappingDays int      `json:"overlapping_days"`
	Coefficient     *float64 `json:"coefficient"`
	Strength        string   `json:"strength,omitempty"`
	Direction       string   `json:"direction,omitempty"`
	Message         string   `json:"message,omitempty"`
}

// CorrelationReport holds the fixed pairings computed by find_correlations.
type CorrelationReport struct {
	ExerciseVsGlucose        Correlation `json:"exercise_vs_glucose"`
	SleepDurationVsGlucose   Correlation `json:"sleep_duration_vs_glucose"`
	SleepEfficiencyVsGlucose Correlation `json:"sleep_efficiency_vs_glucose"`
	SleepVsExercise          Correlation `json:"sleep_vs_exercise"`
}

// Correlations joins the three streams' per-day aggregates and computes the
// fixed pairings: daily exercise minutes, sleep duration, and sleep
// efficiency against daily mean glucose, plus sleep against exercise.
func Correlations(
	glucose []*models.GlucoseSample,
	sleep []*models.SleepSession,
	exercise []*models.ExerciseSession,
) *CorrelationReport {
	glucoseByDay := dailyMeanGlucose(glucose)
	sleepByDay, efficiencyByDay := dailySleep(sleep)
	exerciseByDay := dailyExerciseMinutes(exercise)

	return &CorrelationReport{
		ExerciseVsGlucose:        correlate("exercise_minutes vs mean_glucose", exerciseByDay, glucoseByDay),
		SleepDurationVsGlucose:   correlate("sleep_duration vs mean_glucose", sleepByDay, glucoseByDay),
		SleepEfficiencyVsGlucose: correlate("sleep_efficiency vs mean_glucose", efficiencyByDay, glucoseByDay),
		SleepVsExercise:          correlate("sleep_duration vs exercise_minutes", sleepByDay, exerciseByDay),
	}
}

func correlate(pair string, a, b map[string]float64) Correlation {
	dates := make([]string, 0, len(a))
	for date := range a {
		if _, ok := b[date]; ok {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	c := Correlation{Pair: pair, OverlappingDays: len(dates)}
	if len(dates) < MinOverlappingDays {
		c.Message = "insufficient overlapping data"
		return c
	}

	x := make([]float64, len(dates))
	y := make([]float64, len(dates))
	for i, date := range dates {
		x[i] = a[date]
		y[i] = b[date]
	}

	r, ok := Pearson(x, y)
	if !ok {
		c.Message = "correlation undefined: no variance in one series"
		return c
	}

	rounded := math.Round(r*1000) / 1000
	c.Coefficient = &rounded
	c.Strength = strength(r)
	c.Direction = "positive"
	if r < 0 {
		c.Direction = "negative"
	}
	return c
}

// Pearson computes the correlation coefficient with the sum-based formula.
// The second return is false when the denominator is zero (a constant
// series), which leaves the coefficient undefined rather than NaN.
func Pearson(x, y []float64) (float64, bool) {
	n := float64(len(x))
	if n == 0 || len(x) != len(y) {
		return 0, false
	}

	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
	}

	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / denom, true
}

func strength(r float64) string {
	switch abs := math.Abs(r); {
	case abs >= 0.7:
		return "strong"
	case abs >= 0.4:
		return "moderate"
	case abs >= 0.2:
		return "weak"
	default:
		return "very weak or none"
	}
}

func dailyMeanGlucose(samples []*models.GlucoseSample) map[string]float64 {
	byDay := GroupByDate(glucosePoints(samples))
	out := make(map[string]float64, len(byDay))
	for date, stats := range byDay {
		out[date] = stats.Mean
	}
	return out
}

// dailySleep returns per-day total sleep minutes and per-day mean efficiency
// (only for days that recorded one).
func dailySleep(sessions []*models.SleepSession) (map[string]float64, map[string]float64) {
	duration := make(map[string]float64)
	effSums := make(map[string]float64)
	effCounts := make(map[string]int)
	for _, s := range sessions {
		duration[s.Date] += s.DurationMinutes
		if s.Efficiency != nil {
			effSums[s.Date] += *s.Efficiency
			effCounts[s.Date]++
		}
	}
	efficiency := make(map[string]float64, len(effSums))
	for date, sum := range effSums {
		efficiency[date] = sum / float64(effCounts[date])
	}
	return duration, efficiency
}

func dailyExerciseMinutes(sessions []*models.ExerciseSession) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range sessions {
		out[s.Date] += s.DurationMinutes
	}
	return out
}
