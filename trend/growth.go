package trend

import (
	"fmt"
	"math"
)

// Direction classifies a period-over-period change.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// stableThreshold is the percent-change magnitude below which a change
// counts as stable.
const stableThreshold = 1.0

// Indicator is a period-over-period growth summary for the latest bucket.
type Indicator struct {
	Value         int       `json:"value"`
	Change        int       `json:"change"`
	PercentChange float64   `json:"percent_change"`
	Direction     Direction `json:"direction"`
	Label         string    `json:"label"`
}

// Growth compares the last two buckets of a series. With fewer than two
// buckets there is nothing to compare and a neutral indicator is returned.
func Growth(points []ActivityPoint) Indicator {
	if len(points) < 2 {
		return Indicator{Direction: DirectionStable, Label: "→ N/A"}
	}
	current := points[len(points)-1].Total
	previous := points[len(points)-2].Total
	return growthBetween(current, previous)
}

func growthBetween(current, previous int) Indicator {
	change := current - previous

	var percentChange float64
	if previous != 0 {
		percentChange = float64(change) / float64(previous) * 100
	}

	direction := DirectionStable
	switch {
	case math.Abs(percentChange) < stableThreshold:
		direction = DirectionStable
	case percentChange > 0:
		direction = DirectionUp
	default:
		direction = DirectionDown
	}

	label := "→ Stable"
	switch direction {
	case DirectionUp:
		label = fmt.Sprintf("↑ +%.1f%%", percentChange)
	case DirectionDown:
		label = fmt.Sprintf("↓ %.1f%%", percentChange)
	}

	return Indicator{
		Value:         current,
		Change:        change,
		PercentChange: percentChange,
		Direction:     direction,
		Label:         label,
	}
}
