// ABOUTME: Pattern detection over glucose, sleep, and exercise series.
// ABOUTME: Hourly/weekly profiles, dawn phenomenon, and time-in-range bands.
package analysis

import (
	"fmt"
	"sort"

	"github.com/nmrastogi/patient-mcp/internal/models"
)

// Clinical glucose thresholds in mg/dL.
const (
	HighGlucose = 180.0
	LowGlucose  = 70.0
)

// HourCount is one hour-of-day frequency entry.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// DawnReport compares early-morning against late-morning glucose.
type DawnReport struct {
	EarlyMorningMean float64 `json:"early_morning_mean"`
	LateMorningMean  float64 `json:"late_morning_mean"`
	Rise             float64 `json:"rise_mg_dl"`
	Detected         bool    `json:"detected"`
	Message          string  `json:"message,omitempty"`
}

// TimeInRangeReport partitions readings into five clinical bands, each as a
// percentage of total readings.
type TimeInRangeReport struct {
	VeryLowBelow54  string `json:"very_low_below_54"`
	Low54To69       string `json:"low_54_69"`
	InRange70To180  string `json:"in_range_70_180"`
	High181To250    string `json:"high_181_250"`
	VeryHighAbove250 string `json:"very_high_above_250"`
}

// GlucosePatternReport is the glucose section of detect_patterns.
type GlucosePatternReport struct {
	TotalReadings     int                  `json:"total_readings"`
	HourlyStats       map[int]GroupStats   `json:"hourly_stats"`
	WeekdayStats      map[string]GroupStats `json:"weekday_stats"`
	HighHours         []HourCount          `json:"high_reading_hours"`
	LowHours          []HourCount          `json:"low_reading_hours"`
	HourlyTimeInRange map[int]float64      `json:"hourly_time_in_range_pct"`
	TimeInRange       TimeInRangeReport    `json:"time_in_range"`
	DawnPhenomenon    DawnReport           `json:"dawn_phenomenon"`
}

// GlucosePatterns computes the full glucose pattern profile.
func GlucosePatterns(samples []*models.GlucoseSample) *GlucosePatternReport {
	points := glucosePoints(samples)

	highCounts := make(map[int]int)
	lowCounts := make(map[int]int)
	inRangeByHour := make(map[int]int)
	totalByHour := make(map[int]int)
	values := make([]float64, 0, len(samples))

	for _, p := range points {
		hour := p.Time.Hour()
		totalByHour[hour]++
		switch {
		case p.Value > HighGlucose:
			highCounts[hour]++
		case p.Value < LowGlucose:
			lowCounts[hour]++
		default:
			inRangeByHour[hour]++
		}
		values = append(values, p.Value)
	}

	hourlyTIR := make(map[int]float64, len(totalByHour))
	for hour, total := range totalByHour {
		hourlyTIR[hour] = round1(float64(inRangeByHour[hour]) / float64(total) * 100)
	}

	return &GlucosePatternReport{
		TotalReadings:     len(samples),
		HourlyStats:       GroupByHour(points),
		WeekdayStats:      GroupByWeekday(points),
		HighHours:         topHours(highCounts, 5),
		LowHours:          topHours(lowCounts, 5),
		HourlyTimeInRange: hourlyTIR,
		TimeInRange:       TimeInRange(values),
		DawnPhenomenon:    DawnPhenomenon(points),
	}
}

// DawnPhenomenon compares mean glucose across hours 4-6 against hours 6-8.
// At least 3 of the window's hours must carry readings; the rise is reported
// whether or not it crosses the detection threshold.
func DawnPhenomenon(points []Point) DawnReport {
	var early, late []float64
	represented := make(map[int]bool)

	for _, p := range points {
		hour := p.Time.Hour()
		if hour >= 4 && hour <= 8 {
			represented[hour] = true
		}
		if hour >= 4 && hour <= 6 {
			early = append(early, p.Value)
		}
		if hour >= 6 && hour <= 8 {
			late = append(late, p.Value)
		}
	}

	if len(represented) < 3 {
		return DawnReport{Message: "insufficient early-morning readings for dawn phenomenon analysis"}
	}

	earlyMean := round1(mean(early))
	lateMean := round1(mean(late))
	rise := round1(lateMean - earlyMean)
	return DawnReport{
		EarlyMorningMean: earlyMean,
		LateMorningMean:  lateMean,
		Rise:             rise,
		Detected:         rise > 15,
	}
}

// TimeInRange buckets a glucose series into the five clinical bands. An empty
// series reports every band at 0%.
func TimeInRange(values []float64) TimeInRangeReport {
	var veryLow, low, inRange, high, veryHigh int
	for _, v := range values {
		switch {
		case v < 54:
			veryLow++
		case v < 70:
			low++
		case v <= 180:
			inRange++
		case v <= 250:
			high++
		default:
			veryHigh++
		}
	}
	total := len(values)
	return TimeInRangeReport{
		VeryLowBelow54:   pct(veryLow, total),
		Low54To69:        pct(low, total),
		InRange70To180:   pct(inRange, total),
		High181To250:     pct(high, total),
		VeryHighAbove250: pct(veryHigh, total),
	}
}

// SleepPatternReport is the sleep section of detect_patterns.
type SleepPatternReport struct {
	TotalSessions     int                   `json:"total_sessions"`
	Duration          GroupStats            `json:"duration_minutes"`
	Efficiency        *GroupStats           `json:"efficiency,omitempty"`
	TypicalBedtimeHour int                  `json:"typical_bedtime_hour"`
	TypicalWakeHour    int                  `json:"typical_wake_hour"`
	WeekdayDuration   map[string]GroupStats `json:"weekday_duration"`
}

// SleepPatterns profiles sleep duration, efficiency, and schedule.
func SleepPatterns(sessions []*models.SleepSession) *SleepPatternReport {
	if len(sessions) == 0 {
		return &SleepPatternReport{}
	}

	durations := make([]float64, 0, len(sessions))
	var efficiencies []float64
	bedHours := make(map[int]int)
	wakeHours := make(map[int]int)
	points := make([]Point, 0, len(sessions))

	for _, s := range sessions {
		durations = append(durations, s.DurationMinutes)
		if s.Efficiency != nil {
			efficiencies = append(efficiencies, *s.Efficiency)
		}
		bedHours[s.Bedtime.Hour()]++
		wakeHours[s.WakeTime.Hour()]++
		points = append(points, Point{Time: s.Bedtime, Value: s.DurationMinutes})
	}

	report := &SleepPatternReport{
		TotalSessions:      len(sessions),
		Duration:           Summarize(durations),
		TypicalBedtimeHour: modeHour(bedHours),
		TypicalWakeHour:    modeHour(wakeHours),
		WeekdayDuration:    GroupByWeekday(points),
	}
	if len(efficiencies) > 0 {
		eff := Summarize(efficiencies)
		report.Efficiency = &eff
	}
	return report
}

// ExercisePatternReport is the exercise section of detect_patterns.
type ExercisePatternReport struct {
	TotalSessions    int     `json:"total_sessions"`
	MostActiveHour   int     `json:"most_active_hour"`
	MeanDuration     float64 `json:"mean_duration_minutes"`
	TotalDuration    float64 `json:"total_duration_minutes"`
	ActiveDays       int     `json:"active_days"`
	SessionsPerWeek  float64 `json:"sessions_per_week"`
}

// ExercisePatterns profiles activity frequency and volume. The per-week rate
// guards the active-day divisor at one to avoid division by zero.
func ExercisePatterns(sessions []*models.ExerciseSession) *ExercisePatternReport {
	if len(sessions) == 0 {
		return &ExercisePatternReport{}
	}

	hours := make(map[int]int)
	days := make(map[string]bool)
	var total float64
	for _, s := range sessions {
		hours[s.Timestamp.Hour()]++
		days[s.Date] = true
		total += s.DurationMinutes
	}

	activeDays := len(days)
	if activeDays < 1 {
		activeDays = 1
	}

	return &ExercisePatternReport{
		TotalSessions:   len(sessions),
		MostActiveHour:  modeHour(hours),
		MeanDuration:    round1(total / float64(len(sessions))),
		TotalDuration:   round1(total),
		ActiveDays:      len(days),
		SessionsPerWeek: round1(float64(len(sessions)) / (float64(activeDays) / 7)),
	}
}

func glucosePoints(samples []*models.GlucoseSample) []Point {
	points := make([]Point, 0, len(samples))
	for _, g := range samples {
		points = append(points, Point{Time: g.Timestamp, Value: g.Value})
	}
	return points
}

// topHours returns the n most frequent hours, highest count first. Ties
// break toward the earlier hour so output is deterministic.
func topHours(counts map[int]int, n int) []HourCount {
	out := make([]HourCount, 0, len(counts))
	for hour, count := range counts {
		out = append(out, HourCount{Hour: hour, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func modeHour(counts map[int]int) int {
	best, bestCount := 0, -1
	for hour, count := range counts {
		if count > bestCount || (count == bestCount && hour < best) {
			best, bestCount = hour, count
		}
	}
	return best
}

func pct(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
