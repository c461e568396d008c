package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/c360studio/demoscope/storage"
)

// NewFilesCommand creates the files subcommand group for managing persisted
// batches.
func NewFilesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List and manage persisted batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFiles(cmd, app)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one persisted batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, closeFn, err := app.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			bs, ok := backend.(*storage.Store)
			if !ok {
				return fmt.Errorf("no NATS URL configured")
			}

			ds, err := bs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			desc := ds.Descriptor
			fmt.Printf("id:      %s\n", desc.ID)
			fmt.Printf("name:    %s\n", desc.Name)
			fmt.Printf("type:    %s\n", desc.Type)
			fmt.Printf("size:    %s\n", humanize.Bytes(uint64(desc.Size)))
			fmt.Printf("records: %s\n", humanize.Comma(int64(len(ds.Records))))
			if desc.DateRange != nil {
				fmt.Printf("dates:   %s .. %s\n", desc.DateRange.Earliest, desc.DateRange.Latest)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete one persisted batch and its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, closeFn, err := app.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			if backend == nil {
				return fmt.Errorf("no NATS URL configured")
			}
			if err := backend.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every persisted batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, closeFn, err := app.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			if backend == nil {
				return fmt.Errorf("no NATS URL configured")
			}
			if err := backend.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("cleared all batches")
			return nil
		},
	})

	return cmd
}

func listFiles(cmd *cobra.Command, app *App) error {
	st, closeFn, err := app.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	files := st.Files()
	if len(files) == 0 {
		fmt.Println("no batches")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tRECORDS\tSIZE\tDATES")
	for _, f := range files {
		dates := "-"
		if f.DateRange != nil {
			dates = fmt.Sprintf("%s .. %s", f.DateRange.Earliest, f.DateRange.Latest)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			f.ID,
			f.Name,
			f.Type,
			humanize.Comma(int64(f.RecordCount)),
			humanize.Bytes(uint64(f.Size)),
			dates)
	}
	return w.Flush()
}
