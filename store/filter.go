package store

import "github.com/c360studio/demoscope/record"

// Level is the active geography depth, from national down to pincode.
type Level string

const (
	LevelNational Level = "National"
	LevelState    Level = "State"
	LevelDistrict Level = "District"
	LevelPincode  Level = "Pincode"
)

// FilterState holds every composable predicate input. The age group is
// carried here for chart and map consumers but never evaluated by the
// predicate itself.
type FilterState struct {
	// DateStart and DateEnd form an inclusive range. Filtering activates
	// only when both are set; a single bound is ignored entirely.
	DateStart record.Date `json:"date_start"`
	DateEnd   record.Date `json:"date_end"`

	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
	Pincode  string `json:"pincode,omitempty"`

	AgeGroup record.AgeGroup `json:"age_group"`
}

// DefaultFilterState returns the unfiltered state.
func DefaultFilterState() FilterState {
	return FilterState{AgeGroup: record.AgeGroupTotal}
}

// Matches reports whether a single record passes every active predicate.
func (f FilterState) Matches(r record.Record) bool {
	if !f.DateStart.IsZero() && !f.DateEnd.IsZero() {
		if r.Date.Before(f.DateStart) || r.Date.After(f.DateEnd) {
			return false
		}
	}
	if f.State != "" && r.State != f.State {
		return false
	}
	// District equality is not scoped by the selected state: a district-only
	// selection filters globally by name.
	if f.District != "" && r.District != f.District {
		return false
	}
	if f.Pincode != "" && r.Pincode != f.Pincode {
		return false
	}
	return true
}

// ApplyFilters returns the records passing the filter. It is a pure function
// of its inputs and is recomputed wholesale on every relevant change.
func ApplyFilters(records []record.Record, f FilterState) []record.Record {
	filtered := make([]record.Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
