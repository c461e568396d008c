package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/c360studio/demoscope/anomaly"
)

// NewAnomaliesCommand creates the anomalies subcommand: statistical outlier
// detection across districts.
func NewAnomaliesCommand(app *App) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "anomalies [pattern]...",
		Short: "Flag districts with anomalous population or enrollment figures",
		Long: `Anomalies deduplicates records per district and applies three rules:
zero reported population, enrollment-rate outliers, and unusually low
under-5 population shares. Findings are sorted by descending score.

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

			findings := anomaly.Detect(records)
			if len(findings) == 0 {
				fmt.Println("no anomalies")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEVERITY\tDISTRICT\tSTATE\tSCORE\tFINDING")
			for _, f := range findings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n",
					f.Severity, f.District, f.State, f.Score, f.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\n%d finding(s)\n", len(findings))
			return nil
		},
	}

	filters.register(cmd)
	return cmd
}
