package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/demoscope/record"
	"github.com/c360studio/demoscope/store"
)

// filterFlags are the selection flags shared by the analysis commands.
type filterFlags struct {
	state    string
	district string
	pincode  string
	from     string
	to       string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.state, "state", "", "Filter by state")
	cmd.Flags().StringVar(&f.district, "district", "", "Filter by district")
	cmd.Flags().StringVar(&f.pincode, "pincode", "", "Filter by pincode")
	cmd.Flags().StringVar(&f.from, "from", "", "Start of date range (DD-MM-YYYY)")
	cmd.Flags().StringVar(&f.to, "to", "", "End of date range (DD-MM-YYYY)")
}

// apply narrows records to the flag selection. The date range only takes
// effect when both bounds are given.
func (f *filterFlags) apply(records []record.Record) ([]record.Record, error) {
	filter := store.DefaultFilterState()
	filter.State = f.state
	filter.District = f.district
	filter.Pincode = f.pincode

	var err error
	if f.from != "" {
		if filter.DateStart, err = record.ParseDate(f.from); err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
	}
	if f.to != "" {
		if filter.DateEnd, err = record.ParseDate(f.to); err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
	}

	return store.ApplyFilters(records, filter), nil
}
