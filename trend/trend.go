// Package trend derives time-series views from unified records: bucketed
// activity points, growth indicators, day-of-week patterns, and moving
// averages. Every function is pure; callers recompute on input change.
package trend

import (
	"sort"
	"time"

	"github.com/c360studio/demoscope/record"
)

// Granularity selects the bucket width for activity aggregation.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ActivityPoint is one time bucket's activity, split by schema kind and age
// group. Timestamp is the bucket's start day and orders the series.
type ActivityPoint struct {
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`

	Demographic int `json:"demographic_activity"`
	Biometric   int `json:"biometric_activity"`
	Enrollment  int `json:"enrollment_activity"`
	Total       int `json:"total_activity"`

	Demo5to17   int `json:"demo_5_17"`
	Demo17Plus  int `json:"demo_17_plus"`
	Bio5to17    int `json:"bio_5_17"`
	Bio17Plus   int `json:"bio_17_plus"`
	Enrol0to5   int `json:"enrol_0_5"`
	Enrol5to17  int `json:"enrol_5_17"`
	Enrol18Plus int `json:"enrol_18_plus"`
}

// AggregateActivityByTime buckets records by day, ISO week (Monday start),
// or calendar month, and returns one point per bucket sorted ascending by
// bucket start. Records with no date are skipped.
func AggregateActivityByTime(records []record.Record, g Granularity) []ActivityPoint {
	buckets := make(map[time.Time]*ActivityPoint)

	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		start := bucketStart(r.Date.Time(), g)

		point, ok := buckets[start]
		if !ok {
			point = &ActivityPoint{Date: bucketLabel(start, g), Timestamp: start}
			buckets[start] = point
		}

		switch r.Kind {
		case record.KindBiometric:
			if r.Bio != nil {
				point.Biometric += r.Bio.Age5to17 + r.Bio.Age17Plus
				point.Bio5to17 += r.Bio.Age5to17
				point.Bio17Plus += r.Bio.Age17Plus
			}
		case record.KindEnrollment:
			if r.Enrol != nil {
				point.Enrollment += r.Enrol.Age0to5 + r.Enrol.Age5to17 + r.Enrol.Age18Plus
				point.Enrol0to5 += r.Enrol.Age0to5
				point.Enrol5to17 += r.Enrol.Age5to17
				point.Enrol18Plus += r.Enrol.Age18Plus
			}
		default:
			if r.Demo != nil {
				point.Demographic += r.Demo.Age5to17 + r.Demo.Age17Plus
				point.Demo5to17 += r.Demo.Age5to17
				point.Demo17Plus += r.Demo.Age17Plus
			}
		}
		point.Total = point.Demographic + point.Biometric + point.Enrollment
	}

	points := make([]ActivityPoint, 0, len(buckets))
	for _, p := range buckets {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}

// bucketStart maps a date onto its bucket's first day: unchanged for daily,
// rolled back to Monday for weekly, to day 1 for monthly.
func bucketStart(t time.Time, g Granularity) time.Time {
	switch g {
	case Weekly:
		offset := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -offset)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return t
	}
}

func bucketLabel(start time.Time, g Granularity) string {
	if g == Monthly {
		return start.Format("Jan 2006")
	}
	return start.Format("Jan 02, 2006")
}
