package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/tracking"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect tracked training runs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List runs, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return listRuns(root)
			},
		},
		&cobra.Command{
			Use:   "show <run-id>",
			Short: "Print one run as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return showRun(root, args[0])
			},
		},
	)
	return cmd
}

func listRuns(root *rootOptions) error {
	store, err := root.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(root.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSTARTED\tMSE\tR2")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, r.Status, r.StartTime.Format(time.RFC3339),
			metricCell(r.Metrics, "MSE"), metricCell(r.Metrics, "R2"))
	}
	return w.Flush()
}

func metricCell(m map[string]float64, key string) string {
	v, ok := m[key]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}

// runView is a run record plus the model rebuilt from its model artifact.
type runView struct {
	tracking.RunRecord
	Model *modelView `json:"model,omitempty"`
}

type modelView struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

func showRun(root *rootOptions, id string) error {
	store, err := root.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.GetRun(id)
	if err != nil {
		return err
	}
	view := runView{RunRecord: rec}

	lr, err := store.LoadModel(id)
	switch {
	case errors.Is(err, tracking.ErrNotFound):
		// failed runs have no model
	case err != nil:
		return err
	default:
		view.Model = &modelView{Intercept: lr.Intercept(), Coefficients: make(map[string]float64)}
		names := lr.FeatureNames()
		for i, c := range lr.Coefficients() {
			name := fmt.Sprintf("x%d", i)
			if i < len(names) {
				name = names[i]
			}
			view.Model.Coefficients[name] = c
		}
	}

	enc := json.NewEncoder(root.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
