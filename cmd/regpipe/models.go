package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newModelsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect the model registry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered model versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := root.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			models, err := store.ListModels()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(root.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tRUN\tCREATED")
			for _, m := range models {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", m.Name, m.Version, m.RunID, m.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	})
	return cmd
}
