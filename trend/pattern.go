package trend

import (
	"math"
	"time"

	"github.com/c360studio/demoscope/record"
)

// DefaultMovingAverageWindow is the smoothing window applied when callers
// pass no explicit size.
const DefaultMovingAverageWindow = 7

// DayActivity is the average activity observed on one weekday.
type DayActivity struct {
	Day         string `json:"day"`
	AvgActivity int    `json:"avg_activity"`
}

// DayOfWeekPattern averages per-record total population by calendar weekday
// over the raw records (not buckets) and returns the days observed, ordered
// Sunday through Saturday.
func DayOfWeekPattern(records []record.Record) []DayActivity {
	sums := make(map[time.Weekday]int)
	counts := make(map[time.Weekday]int)

	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		day := r.Date.Weekday()
		sums[day] += r.TotalPopulation
		counts[day]++
	}

	pattern := make([]DayActivity, 0, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		n := counts[day]
		if n == 0 {
			continue
		}
		avg := float64(sums[day]) / float64(n)
		pattern = append(pattern, DayActivity{
			Day:         day.String(),
			AvgActivity: int(math.Round(avg)),
		})
	}
	return pattern
}

// MovingAverage smooths a series with a trailing simple mean. Points before
// the window fills pass through unchanged, as does a series shorter than the
// window. Smoothed activity values are rounded to the nearest integer; all
// other fields carry over from the current point.
func MovingAverage(points []ActivityPoint, window int) []ActivityPoint {
	if window <= 0 {
		window = DefaultMovingAverageWindow
	}
	if len(points) < window {
		return points
	}

	result := make([]ActivityPoint, 0, len(points))
	for i, p := range points {
		if i < window-1 {
			result = append(result, p)
			continue
		}

		var total, demo, bio, enrol int
		for _, q := range points[i-window+1 : i+1] {
			total += q.Total
			demo += q.Demographic
			bio += q.Biometric
			enrol += q.Enrollment
		}

		smoothed := p
		smoothed.Total = roundMean(total, window)
		smoothed.Demographic = roundMean(demo, window)
		smoothed.Biometric = roundMean(bio, window)
		smoothed.Enrollment = roundMean(enrol, window)
		result = append(result, smoothed)
	}
	return result
}

func roundMean(sum, n int) int {
	return int(math.Round(float64(sum) / float64(n)))
}
