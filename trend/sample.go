package trend

import "github.com/c360studio/demoscope/record"

// DefaultSampleLimit caps how many records feed the bucketing pass. It is a
// responsiveness ceiling, not a correctness constant.
const DefaultSampleLimit = 100000

// SampleStratified bounds a record set to limit records by sampling each
// source file proportionally, so no batch is cut off wholesale the way a
// prefix truncation would. Order within each file is preserved; at or under
// the limit the input is returned as-is.
func SampleStratified(records []record.Record, limit int) []record.Record {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	if len(records) <= limit {
		return records
	}

	byFile := make(map[string][]record.Record)
	var fileOrder []string
	for _, r := range records {
		if _, ok := byFile[r.FileID]; !ok {
			fileOrder = append(fileOrder, r.FileID)
		}
		byFile[r.FileID] = append(byFile[r.FileID], r)
	}

	total := len(records)
	sampled := make([]record.Record, 0, limit)
	for _, id := range fileOrder {
		group := byFile[id]
		want := len(group) * limit / total
		if want == 0 && len(group) > 0 {
			want = 1
		}
		if want >= len(group) {
			sampled = append(sampled, group...)
			continue
		}
		// Even stride through the file keeps its full date span represented.
		stride := float64(len(group)) / float64(want)
		for i := 0; i < want; i++ {
			sampled = append(sampled, group[int(float64(i)*stride)])
		}
	}
	return sampled
}
