package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewIngestCommand creates the ingest subcommand: normalize CSV files and
// persist each one as a batch.
func NewIngestCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <pattern>...",
		Short: "Normalize CSV files and persist them as batches",
		Long: `Ingest reads demographic, biometric, and enrollment CSV files,
detects each file's schema from its header row, and normalizes rows into
unified records. A file with any invalid row is rejected whole.

Patterns support ** globs, e.g. 'data/**/*.csv'.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			paths, err := expandGlobs(args)
			if err != nil {
				return err
			}
			jobs, err := readJobs(paths)
			if err != nil {
				return err
			}

			backend, closeFn, err := app.openBackend(ctx)
			if err != nil {
				return err
			}
			defer closeFn()
			if backend == nil {
				fmt.Fprintln(os.Stderr, "warning: no NATS URL configured; validating only, records are not persisted")
			}

			results, summary := app.pool().Run(ctx, jobs)
			for _, res := range results {
				if res.Err != nil {
					fmt.Fprintf(os.Stderr, "rejected: %s\n", res.Err)
					continue
				}
				desc := res.Result.Descriptor
				fmt.Printf("%s: %s file, %s records (%s)\n",
					desc.Name,
					desc.Type,
					humanize.Comma(int64(desc.RecordCount)),
					humanize.Bytes(uint64(desc.Size)))

				if backend != nil {
					if err := backend.Save(ctx, desc, res.Result.Records); err != nil {
						return fmt.Errorf("persist %s: %w", desc.Name, err)
					}
				}
			}

			fmt.Println(summary.String())
			if summary.Succeeded == 0 {
				return fmt.Errorf("all files rejected")
			}
			return nil
		},
	}
	return cmd
}
