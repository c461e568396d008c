package anomaly

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/demoscope/record"
)

func district(name string, total int) record.Record {
	return record.Record{
		State:           "UP",
		District:        name,
		Kind:            record.KindDemographic,
		Demo:            &record.DemoCounts{Age5to17: total / 2, Age17Plus: total - total/2},
		TotalPopulation: total,
	}
}

// merged builds a district entry carrying both demographic and enrollment
// 5-17 counts, the shape the enrollment-rate rule reads.
func merged(name string, demo5to17, enrol5to17 int) record.Record {
	return record.Record{
		State:           "UP",
		District:        name,
		Kind:            record.KindDemographic,
		Demo:            &record.DemoCounts{Age5to17: demo5to17, Age17Plus: 100},
		Enrol:           &record.EnrolCounts{Age5to17: enrol5to17},
		TotalPopulation: demo5to17 + 100,
	}
}

func withYoung(name string, age0to5, total int) record.Record {
	r := district(name, total)
	r.Demo.Age0to5 = &age0to5
	return r
}

func TestDetect_InsufficientDistricts(t *testing.T) {
	records := []record.Record{
		district("A", 0),
		district("B", 100),
		district("C", 100),
		district("D", 100),
	}
	assert.Empty(t, Detect(records))
}

func TestDetect_ZeroPopulationCritical(t *testing.T) {
	records := []record.Record{
		district("A", 0),
		district("B", 0),
		district("C", 100),
		district("D", 200),
		district("E", 300),
	}

	anomalies := Detect(records)
	require.Len(t, anomalies, 2)

	for _, a := range anomalies {
		assert.Equal(t, SeverityCritical, a.Severity)
		assert.Equal(t, float64(10), a.Score)
		assert.Equal(t, "total_population", a.Metric)
		assert.Equal(t, float64(0), a.Value)
	}
	assert.ElementsMatch(t, []string{"zero-pop-A", "zero-pop-B"},
		[]string{anomalies[0].ID, anomalies[1].ID})
}

func TestDetect_LastRecordWinsPerDistrict(t *testing.T) {
	records := []record.Record{
		district("A", 0), // superseded below
		district("B", 100),
		district("C", 100),
		district("D", 100),
		district("E", 100),
		district("A", 100),
	}
	assert.Empty(t, Detect(records))
}

func TestDetect_LowEnrollmentWarning(t *testing.T) {
	records := []record.Record{
		merged("A", 100, 50),
		merged("B", 100, 50),
		merged("C", 100, 50),
		merged("D", 100, 50),
		merged("E", 100, 50),
		merged("F", 100, 10), // well below the 50% pack
	}

	anomalies := Detect(records)
	require.Len(t, anomalies, 1)

	a := anomalies[0]
	assert.Equal(t, "low-enrol-F", a.ID)
	assert.Equal(t, SeverityWarning, a.Severity)
	assert.Equal(t, "enrolment_rate", a.Metric)
	assert.InDelta(t, 10.0, a.Value, 1e-9)
	assert.Greater(t, a.Score, 2.0)
	assert.Contains(t, a.Description, "below average")
}

func TestDetect_SuspiciousEnrollmentOver100Percent(t *testing.T) {
	records := []record.Record{
		merged("A", 100, 50),
		merged("B", 100, 50),
		merged("C", 100, 50),
		merged("D", 100, 50),
		merged("E", 100, 50),
		merged("F", 100, 200), // 200% enrollment is illogical
	}

	anomalies := Detect(records)
	require.Len(t, anomalies, 1)

	a := anomalies[0]
	assert.Equal(t, "high-enrol-F", a.ID)
	assert.Equal(t, SeverityInfo, a.Severity)
	assert.InDelta(t, 200.0, a.Value, 1e-9)
}

func TestDetect_EnrollmentRuleNeedsMoreThanFiveRated(t *testing.T) {
	// Exactly five rated districts: rule stays silent.
	records := []record.Record{
		merged("A", 100, 50),
		merged("B", 100, 50),
		merged("C", 100, 50),
		merged("D", 100, 50),
		merged("E", 100, 1),
	}
	assert.Empty(t, Detect(records))
}

func TestDetect_ZeroStdDevSuppressed(t *testing.T) {
	// Identical rates everywhere: no spread, no findings, no NaN scores.
	records := []record.Record{
		merged("A", 100, 50),
		merged("B", 100, 50),
		merged("C", 100, 50),
		merged("D", 100, 50),
		merged("E", 100, 50),
		merged("F", 100, 50),
	}
	assert.Empty(t, Detect(records))
}

func TestDetect_AgeSkewOutlier(t *testing.T) {
	records := make([]record.Record, 0, 10)
	for i := 0; i < 9; i++ {
		records = append(records, withYoung(fmt.Sprintf("D%d", i), 30, 100))
	}
	records = append(records, district("Skewed", 100)) // no 0-5 count at all

	anomalies := Detect(records)
	require.Len(t, anomalies, 1)

	a := anomalies[0]
	assert.Equal(t, "low-birth-Skewed", a.ID)
	assert.Equal(t, SeverityInfo, a.Severity)
	assert.Equal(t, "age_0_5_ratio", a.Metric)
	assert.GreaterOrEqual(t, a.Score, 2.5)
}

func TestDetect_SortedByScoreDescending(t *testing.T) {
	records := make([]record.Record, 0, 12)
	for i := 0; i < 9; i++ {
		records = append(records, withYoung(fmt.Sprintf("D%d", i), 30, 100))
	}
	records = append(records, district("Skewed", 100))
	records = append(records, district("Empty", 0))

	anomalies := Detect(records)
	require.Len(t, anomalies, 2)

	// The fixed-score hard rule outranks every statistical finding.
	assert.Equal(t, "zero-pop-Empty", anomalies[0].ID)
	assert.Equal(t, "low-birth-Skewed", anomalies[1].ID)
	assert.GreaterOrEqual(t, anomalies[0].Score, anomalies[1].Score)
}
