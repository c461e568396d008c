package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/c360studio/demoscope/trend"
)

// NewTrendsCommand creates the trends subcommand: time-series activity with
// growth and day-of-week indicators.
func NewTrendsCommand(app *App) *cobra.Command {
	var (
		granularity   string
		movingAverage bool
		filters       filterFlags
	)

	cmd := &cobra.Command{
		Use:   "trends [pattern]...",
		Short: "Show activity over time with growth indicators",
		Long: `Trends aggregates records into daily, weekly, or monthly buckets and
reports per-schema activity, a growth indicator computed from the last two
buckets, and average activity by day of week.

With CSV patterns, records are ingested in memory; without arguments the
persisted batches are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := trend.Granularity(granularity)
			switch g {
			case trend.Daily, trend.Weekly, trend.Monthly:
			default:
				return fmt.Errorf("granularity must be one of: daily, weekly, monthly")
			}

			records, err := app.collectRecords(cmd.Context(), args)
			if err != nil {
				return err
			}
			if records, err = filters.apply(records); err != nil {
				return err
			}

			total := len(records)
			records = trend.SampleStratified(records, app.Config.Trend.MaxRecords)
			if len(records) < total {
				fmt.Fprintf(os.Stderr, "sampled %s of %s records\n",
					humanize.Comma(int64(len(records))), humanize.Comma(int64(total)))
			}

			points := trend.AggregateActivityByTime(records, g)
			growth := trend.Growth(points)
			if movingAverage {
				points = trend.MovingAverage(points, app.Config.Trend.MovingAverageWindow)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tDEMOGRAPHIC\tBIOMETRIC\tENROLLMENT\tTOTAL")
			for _, p := range points {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					p.Date,
					humanize.Comma(int64(p.Demographic)),
					humanize.Comma(int64(p.Biometric)),
					humanize.Comma(int64(p.Enrollment)),
					humanize.Comma(int64(p.Total)))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\ngrowth: %s\n", growth.Label)

			pattern := trend.DayOfWeekPattern(records)
			if len(pattern) > 0 {
				fmt.Println("\naverage activity by day of week:")
				dw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				for _, d := range pattern {
					fmt.Fprintf(dw, "%s\t%s\n", d.Day, humanize.Comma(int64(d.AvgActivity)))
				}
				if err := dw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&granularity, "granularity", "g", string(trend.Daily), "Bucket size (daily, weekly, monthly)")
	cmd.Flags().BoolVar(&movingAverage, "moving-average", false, "Smooth the series with a moving average")
	filters.register(cmd)
	return cmd
}
