// Package anomaly flags statistical outliers and hard data-quality
// violations over per-district ratios derived from the record set.
package anomaly

import (
	"fmt"
	"math"
	"sort"

	"github.com/c360studio/demoscope/record"
)

// Severity ranks how actionable an anomaly is.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityWarning  Severity = "Warning"
	SeverityInfo     Severity = "Info"
)

// minDistricts is the smallest distinct-district sample for which the
// statistics mean anything.
const minDistricts = 5

// minRatedDistricts gates the enrollment-rate rule; it needs strictly more
// than this many rated districts.
const minRatedDistricts = 5

// zeroPopulationScore is the fixed sort score for the deterministic
// zero-population rule, above any plausible z-score magnitude.
const zeroPopulationScore = 10

// Anomaly is one flagged finding. Score orders output only; it is a z-score
// magnitude or the fixed constant for hard-rule violations.
type Anomaly struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	District    string   `json:"district"`
	State       string   `json:"state"`
	Metric      string   `json:"metric"`
	Value       float64  `json:"value"`
	Score       float64  `json:"score"`
}

// Detect evaluates every rule over the record set and returns findings
// sorted by descending score. Records are first deduplicated per
// (district, state) key, last record winning. Fewer than five distinct
// districts means an insufficient sample and an empty result.
//
// The enrollment-rate rule reads both the demographic and enrollment 5-17
// counts off one deduplicated record, so it fires only on inputs that carry
// merged per-district counts; normalizer output populates a single schema
// group per record and never trips it.
func Detect(records []record.Record) []Anomaly {
	byDistrict := make(map[string]record.Record)
	var order []string
	for _, r := range records {
		key := r.District + "-" + r.State
		if _, seen := byDistrict[key]; !seen {
			order = append(order, key)
		}
		byDistrict[key] = r
	}
	if len(byDistrict) < minDistricts {
		return nil
	}

	unique := make([]record.Record, 0, len(byDistrict))
	for _, key := range order {
		unique = append(unique, byDistrict[key])
	}

	var anomalies []Anomaly
	anomalies = append(anomalies, zeroPopulation(unique)...)
	anomalies = append(anomalies, enrollmentRateOutliers(unique)...)
	anomalies = append(anomalies, ageSkewOutliers(unique)...)

	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Score > anomalies[j].Score
	})
	return anomalies
}

// zeroPopulation is the hard data-quality rule: a district reporting zero
// total population is a Critical finding with a fixed score.
func zeroPopulation(unique []record.Record) []Anomaly {
	var anomalies []Anomaly
	for _, r := range unique {
		if r.TotalPopulation != 0 {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			ID:          "zero-pop-" + r.District,
			Severity:    SeverityCritical,
			Title:       "Zero Population Detected",
			Description: "District reported 0 total population. Likely data entry error.",
			District:    r.District,
			State:       r.State,
			Metric:      "total_population",
			Value:       0,
			Score:       zeroPopulationScore,
		})
	}
	return anomalies
}

// enrollmentRateOutliers z-scores enrol/demo 5-17 rates across districts
// carrying both counts. Low outliers warn; illogical rates inform. Both
// conditions can fire for the same district.
func enrollmentRateOutliers(unique []record.Record) []Anomaly {
	type rated struct {
		rec  record.Record
		rate float64
	}
	var rates []rated
	for _, r := range unique {
		if r.Demo == nil || r.Enrol == nil {
			continue
		}
		if r.Demo.Age5to17 == 0 || r.Enrol.Age5to17 == 0 {
			continue
		}
		rate := float64(r.Enrol.Age5to17) / float64(r.Demo.Age5to17) * 100
		if math.IsInf(rate, 0) || math.IsNaN(rate) {
			continue
		}
		rates = append(rates, rated{rec: r, rate: rate})
	}
	if len(rates) <= minRatedDistricts {
		return nil
	}

	values := make([]float64, len(rates))
	for i, x := range rates {
		values[i] = x.rate
	}
	mean, stdDev := stats(values)
	if stdDev == 0 {
		// No spread: the z-score degenerates, so the rule stays silent.
		return nil
	}

	var anomalies []Anomaly
	for _, x := range rates {
		z := (x.rate - mean) / stdDev

		if z < -2 {
			anomalies = append(anomalies, Anomaly{
				ID:       "low-enrol-" + x.rec.District,
				Severity: SeverityWarning,
				Title:    "Low Youth Enrollment",
				Description: fmt.Sprintf("Enrollment rate (%.1f%%) is significantly below average (%.1f%%).",
					x.rate, mean),
				District: x.rec.District,
				State:    x.rec.State,
				Metric:   "enrolment_rate",
				Value:    x.rate,
				Score:    math.Abs(z),
			})
		}

		if x.rate > 100 || z > 3 {
			anomalies = append(anomalies, Anomaly{
				ID:       "high-enrol-" + x.rec.District,
				Severity: SeverityInfo,
				Title:    "Suspicious Enrollment Data",
				Description: fmt.Sprintf("Enrollment rate (%.1f%%) exceeds expected logical bounds.",
					x.rate),
				District: x.rec.District,
				State:    x.rec.State,
				Metric:   "enrolment_rate",
				Value:    x.rate,
				Score:    math.Abs(z),
			})
		}
	}
	return anomalies
}

// ageSkewOutliers z-scores each district's 0-5 proportion of total
// population and flags unusually low shares.
func ageSkewOutliers(unique []record.Record) []Anomaly {
	type skewed struct {
		rec   record.Record
		ratio float64
	}
	var ratios []skewed
	for _, r := range unique {
		if r.TotalPopulation == 0 {
			// Zero-population districts are the hard rule's business; a
			// ratio over zero would poison the statistics.
			continue
		}
		ratio := float64(r.Bucket0to5()) / float64(r.TotalPopulation)
		ratios = append(ratios, skewed{rec: r, ratio: ratio})
	}
	if len(ratios) == 0 {
		return nil
	}

	values := make([]float64, len(ratios))
	for i, x := range ratios {
		values[i] = x.ratio
	}
	mean, stdDev := stats(values)
	if stdDev == 0 {
		return nil
	}

	var anomalies []Anomaly
	for _, x := range ratios {
		z := (x.ratio - mean) / stdDev
		if z >= -2.5 {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			ID:          "low-birth-" + x.rec.District,
			Severity:    SeverityInfo,
			Title:       "Low 0-5 Age Group",
			Description: "0-5 age group proportion is statistically lower than peers.",
			District:    x.rec.District,
			State:       x.rec.State,
			Metric:      "age_0_5_ratio",
			Value:       x.ratio,
			Score:       math.Abs(z),
		})
	}
	return anomalies
}

// stats returns the population mean and standard deviation.
func stats(values []float64) (mean, stdDev float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= n

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= n
	return mean, math.Sqrt(variance)
}
