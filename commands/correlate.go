package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/c360studio/demoscope/analytics"
)

// NewCorrelateCommand creates the correlate subcommand: the pairwise Pearson
// correlation matrix over per-district metric totals.
func NewCorrelateCommand(app *App) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "correlate [pattern]...",
		Short: "Show cross-metric correlations across districts",
		Long: `Correlate joins records by district, sums each schema's age buckets into
seven metrics, and prints the pairwise Pearson correlation matrix.

With CSV patterns, records are ingested in memory; without arguments the
persisted batches are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := app.collectRecords(cmd.Context(), args)
			if err != nil {
				return err
			}
			if records, err = filters.apply(records); err != nil {
				return err
			}

			rows := analytics.JoinByDistrict(records)
			if len(rows) == 0 {
				fmt.Println("no districts")
				return nil
			}
			matrix := analytics.CorrelationMatrix(rows)

			fmt.Printf("districts: %d\n\n", len(rows))
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprint(w, "METRIC")
			for _, m := range analytics.Metrics {
				fmt.Fprintf(w, "\t%s", m)
			}
			fmt.Fprintln(w)
			for _, row := range analytics.Metrics {
				fmt.Fprint(w, row)
				for _, col := range analytics.Metrics {
					fmt.Fprintf(w, "\t%+.2f", matrix[row][col])
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}

	filters.register(cmd)
	return cmd
}
