// Package record defines the unified demographic-update record model shared
// by the ingestion pipeline and every derived view.
package record

// Kind identifies which of the three input schemas a record came from.
type Kind string

const (
	KindDemographic Kind = "demographic"
	KindBiometric   Kind = "biometric"
	KindEnrollment  Kind = "enrollment"
)

// AgeGroup selects which age slice consumers read from a record. The filter
// predicate never evaluates it; charts and maps do.
type AgeGroup string

const (
	AgeGroupTotal  AgeGroup = "Total"
	AgeGroup5to17  AgeGroup = "5-17"
	AgeGroup17Plus AgeGroup = "17+"
)

// DemoCounts holds the demographic-schema age buckets.
// Age0to5 is set only when the source file carried a positive value.
type DemoCounts struct {
	Age0to5   *int `json:"age_0_5,omitempty"`
	Age5to17  int  `json:"age_5_17"`
	Age17Plus int  `json:"age_17_plus"`
}

// BioCounts holds the biometric-schema age buckets.
type BioCounts struct {
	Age5to17  int `json:"age_5_17"`
	Age17Plus int `json:"age_17_plus"`
}

// EnrolCounts holds the enrollment-schema age buckets.
type EnrolCounts struct {
	Age0to5   int `json:"age_0_5"`
	Age5to17  int `json:"age_5_17"`
	Age18Plus int `json:"age_18_plus"`
}

// Record is the canonical output of normalization. Exactly one of Demo, Bio,
// and Enrol is non-nil, matching Kind; absent groups stay nil rather than
// zero-valued so "not applicable" never reads as a zero count.
type Record struct {
	FileID   string `json:"file_id"`
	Date     Date   `json:"date"`
	State    string `json:"state"`
	District string `json:"district"`
	Pincode  string `json:"pincode,omitempty"`

	Kind  Kind         `json:"kind"`
	Demo  *DemoCounts  `json:"demo,omitempty"`
	Bio   *BioCounts   `json:"bio,omitempty"`
	Enrol *EnrolCounts `json:"enrol,omitempty"`

	// TotalPopulation is the sum of whichever buckets applied at ingestion.
	// It is fixed then and never recomputed.
	TotalPopulation int `json:"total_population"`

	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

// AgeValue returns the record's activity value for the given age group.
func (r Record) AgeValue(g AgeGroup) int {
	switch g {
	case AgeGroup5to17:
		return r.Bucket5to17()
	case AgeGroup17Plus:
		return r.Bucket17Plus()
	default:
		return r.TotalPopulation
	}
}

// Bucket0to5 returns the 0-5 count from whichever group carries one, or 0.
func (r Record) Bucket0to5() int {
	switch {
	case r.Demo != nil && r.Demo.Age0to5 != nil:
		return *r.Demo.Age0to5
	case r.Enrol != nil:
		return r.Enrol.Age0to5
	}
	return 0
}

// Bucket5to17 returns the 5-17 count from whichever group is populated.
func (r Record) Bucket5to17() int {
	switch {
	case r.Bio != nil:
		return r.Bio.Age5to17
	case r.Enrol != nil:
		return r.Enrol.Age5to17
	case r.Demo != nil:
		return r.Demo.Age5to17
	}
	return 0
}

// Bucket17Plus returns the 17+ (18+ for enrollment) count.
func (r Record) Bucket17Plus() int {
	switch {
	case r.Bio != nil:
		return r.Bio.Age17Plus
	case r.Enrol != nil:
		return r.Enrol.Age18Plus
	case r.Demo != nil:
		return r.Demo.Age17Plus
	}
	return 0
}

// DateRange is the inclusive calendar span observed in a file.
type DateRange struct {
	Earliest Date `json:"earliest"`
	Latest   Date `json:"latest"`
}

// FileDescriptor describes one ingested CSV batch. It is created once per
// successful ingestion and removed, with its records, when the file is.
type FileDescriptor struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Size        int64      `json:"size"`
	RecordCount int        `json:"record_count"`
	Type        Kind       `json:"type"`
	DateRange   *DateRange `json:"date_range,omitempty"`
}

// Dataset pairs a file descriptor with its records; it is the unit the
// persistence boundary saves and restores.
type Dataset struct {
	Descriptor FileDescriptor `json:"descriptor"`
	Records    []Record       `json:"records"`
}
