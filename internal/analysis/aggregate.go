// ABOUTME: Grouped summary statistics over timestamped sample series.
// ABOUTME: Pure functions; groups with no samples are omitted from the maps.
package analysis

import (
	"math"
	"time"
)

// Point is one timestamped value, the common currency of the analysis
// functions regardless of which stream it came from.
type Point struct {
	Time  time.Time
	Value float64
}

// GroupStats summarizes one group of values. All fields are rounded to one
// decimal place for presentation.
type GroupStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// GroupByHour buckets points by hour of day (0-23).
func GroupByHour(points []Point) map[int]GroupStats {
	groups := make(map[int][]float64)
	for _, p := range points {
		groups[p.Time.Hour()] = append(groups[p.Time.Hour()], p.Value)
	}
	out := make(map[int]GroupStats, len(groups))
	for hour, values := range groups {
		out[hour] = Summarize(values)
	}
	return out
}

// GroupByWeekday buckets points by day-of-week name.
func GroupByWeekday(points []Point) map[string]GroupStats {
	groups := make(map[string][]float64)
	for _, p := range points {
		day := p.Time.Weekday().String()
		groups[day] = append(groups[day], p.Value)
	}
	out := make(map[string]GroupStats, len(groups))
	for day, values := range groups {
		out[day] = Summarize(values)
	}
	return out
}

// GroupByDate buckets points by calendar date (YYYY-MM-DD).
func GroupByDate(points []Point) map[string]GroupStats {
	groups := make(map[string][]float64)
	for _, p := range points {
		date := p.Time.Format("2006-01-02")
		groups[date] = append(groups[date], p.Value)
	}
	out := make(map[string]GroupStats, len(groups))
	for date, values := range groups {
		out[date] = Summarize(values)
	}
	return out
}

// Summarize computes mean, sample standard deviation, count, min, and max
// for one group. Fewer than two values yields a zero spread, not an error.
func Summarize(values []float64) GroupStats {
	if len(values) == 0 {
		return GroupStats{}
	}
	min, max := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	var std float64
	if len(values) >= 2 {
		var ss float64
		for _, v := range values {
			ss += (v - mean) * (v - mean)
		}
		std = math.Sqrt(ss / float64(len(values)-1))
	}

	return GroupStats{
		Mean:   round1(mean),
		StdDev: round1(std),
		Count:  len(values),
		Min:    round1(min),
		Max:    round1(max),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev is the n-1 deviation; fewer than two values yields 0.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
