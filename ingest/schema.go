package ingest

import (
	"strings"

	"github.com/c360studio/demoscope/record"
)

// baseColumns must be present in every recognized file.
var baseColumns = []string{"date", "state", "district", "pincode"}

// schemaSpec names the columns that identify one input schema.
type schemaSpec struct {
	kind    record.Kind
	columns []string
}

// schemaSpecs is checked in a fixed order: demographic, then biometric, then
// enrollment. A header set matching more than one schema resolves to the
// first match.
var schemaSpecs = []schemaSpec{
	{record.KindDemographic, []string{"demo_age_5_17", "demo_age_17_"}},
	{record.KindBiometric, []string{"bio_age_5_17", "bio_age_17_"}},
	{record.KindEnrollment, []string{"age_0_5", "age_5_17", "age_18_greater"}},
}

// columnsByKind maps each schema kind to its age-bucket column names, in the
// order the normalizer reads them.
var columnsByKind = map[record.Kind][]string{
	record.KindDemographic: {"demo_age_5_17", "demo_age_17_"},
	record.KindBiometric:   {"bio_age_5_17", "bio_age_17_"},
	record.KindEnrollment:  {"age_0_5", "age_5_17", "age_18_greater"},
}

// DetectSchema classifies a header set as one of the three input schemas.
// It returns ErrNoHeader for an empty header row and ErrUnknownFormat when
// the base columns are missing or no schema's column set is complete.
func DetectSchema(headers []string) (record.Kind, error) {
	if len(headers) == 0 {
		return "", ErrNoHeader
	}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}

	for _, col := range baseColumns {
		if !present[col] {
			return "", ErrUnknownFormat
		}
	}

	for _, spec := range schemaSpecs {
		if hasAll(present, spec.columns) {
			return spec.kind, nil
		}
	}
	return "", ErrUnknownFormat
}

func hasAll(present map[string]bool, columns []string) bool {
	for _, col := range columns {
		if !present[col] {
			return false
		}
	}
	return true
}
