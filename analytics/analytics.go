// Package analytics joins records into one row per district and computes
// pairwise Pearson correlations across the seven activity metrics.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/c360studio/demoscope/record"
)

// Metric names the seven correlated columns, in their fixed matrix order.
type Metric string

const (
	MetricDemo5to17   Metric = "demo_5_17"
	MetricDemo17Plus  Metric = "demo_17_plus"
	MetricBio5to17    Metric = "bio_5_17"
	MetricBio17Plus   Metric = "bio_17_plus"
	MetricEnrol0to5   Metric = "enrol_0_5"
	MetricEnrol5to17  Metric = "enrol_5_17"
	MetricEnrol18Plus Metric = "enrol_18_plus"
)

// Metrics is the canonical metric order used by the correlation matrix.
var Metrics = []Metric{
	MetricDemo5to17, MetricDemo17Plus,
	MetricBio5to17, MetricBio17Plus,
	MetricEnrol0to5, MetricEnrol5to17, MetricEnrol18Plus,
}

// Row is one district's summed metrics across every contributing record.
type Row struct {
	District string `json:"district"`
	State    string `json:"state"`

	Demo5to17   int `json:"demo_5_17"`
	Demo17Plus  int `json:"demo_17_plus"`
	Bio5to17    int `json:"bio_5_17"`
	Bio17Plus   int `json:"bio_17_plus"`
	Enrol0to5   int `json:"enrol_0_5"`
	Enrol5to17  int `json:"enrol_5_17"`
	Enrol18Plus int `json:"enrol_18_plus"`
}

// metric returns the row's value for a named metric.
func (r Row) metric(m Metric) float64 {
	switch m {
	case MetricDemo5to17:
		return float64(r.Demo5to17)
	case MetricDemo17Plus:
		return float64(r.Demo17Plus)
	case MetricBio5to17:
		return float64(r.Bio5to17)
	case MetricBio17Plus:
		return float64(r.Bio17Plus)
	case MetricEnrol0to5:
		return float64(r.Enrol0to5)
	case MetricEnrol5to17:
		return float64(r.Enrol5to17)
	case MetricEnrol18Plus:
		return float64(r.Enrol18Plus)
	}
	return 0
}

// JoinByDistrict groups records by (state, district), case-insensitively,
// and sums each schema's metrics into one row per district. Rows come back
// sorted by key for deterministic output.
func JoinByDistrict(records []record.Record) []Row {
	rows := make(map[string]*Row)
	var order []string

	for _, r := range records {
		key := strings.ToLower(r.State + "-" + r.District)
		row, ok := rows[key]
		if !ok {
			row = &Row{District: r.District, State: r.State}
			rows[key] = row
			order = append(order, key)
		}

		switch r.Kind {
		case record.KindBiometric:
			if r.Bio != nil {
				row.Bio5to17 += r.Bio.Age5to17
				row.Bio17Plus += r.Bio.Age17Plus
			}
		case record.KindEnrollment:
			if r.Enrol != nil {
				row.Enrol0to5 += r.Enrol.Age0to5
				row.Enrol5to17 += r.Enrol.Age5to17
				row.Enrol18Plus += r.Enrol.Age18Plus
			}
		default:
			if r.Demo != nil {
				row.Demo5to17 += r.Demo.Age5to17
				row.Demo17Plus += r.Demo.Age17Plus
			}
		}
	}

	sort.Strings(order)
	result := make([]Row, 0, len(rows))
	for _, key := range order {
		result = append(result, *rows[key])
	}
	return result
}

// Correlation computes the Pearson coefficient between two equal-length
// vectors. Zero variance in either vector yields 0: no variance supports no
// correlation claim, and NaN must never escape.
func Correlation(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	numerator := float64(n)*sumXY - sumX*sumY
	denominator := math.Sqrt((float64(n)*sumX2 - sumX*sumX) * (float64(n)*sumY2 - sumY*sumY))
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// Matrix is the full pairwise correlation table, keyed by metric name.
type Matrix map[Metric]map[Metric]float64

// CorrelationMatrix computes Pearson r for every ordered metric pair. The
// result is symmetric by construction since each pair is computed
// independently.
func CorrelationMatrix(rows []Row) Matrix {
	columns := make(map[Metric][]float64, len(Metrics))
	for _, m := range Metrics {
		col := make([]float64, len(rows))
		for i, row := range rows {
			col[i] = row.metric(m)
		}
		columns[m] = col
	}

	matrix := make(Matrix, len(Metrics))
	for _, m1 := range Metrics {
		matrix[m1] = make(map[Metric]float64, len(Metrics))
		for _, m2 := range Metrics {
			matrix[m1][m2] = Correlation(columns[m1], columns[m2])
		}
	}
	return matrix
}
