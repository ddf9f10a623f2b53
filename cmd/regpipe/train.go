package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/regpipe/config"
	"github.com/YuminosukeSato/regpipe/pipeline"
)

type trainOptions struct {
	data        string
	configPath  string
	target      string
	metricsFile string
	noTracking  bool
}

func newTrainCmd(root *rootOptions) *cobra.Command {
	opts := &trainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run the training pipeline on a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.data, "data", "", "path to the input CSV file")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a YAML pipeline configuration")
	cmd.Flags().StringVar(&opts.target, "target", "", "target column (overrides the configuration)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write stage metrics to this node-exporter textfile")
	cmd.Flags().BoolVar(&opts.noTracking, "no-tracking", false, "do not record the run")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// loadConfig reads the configuration file, if any, applies the --target
// override and validates the result.
func loadConfig(path, target string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return config.Config{}, err
		}
	}
	if target != "" {
		cfg.Target = target
	}
	return cfg, cfg.Validate()
}

func runTrain(cmd *cobra.Command, root *rootOptions, opts *trainOptions) error {
	cfg, err := loadConfig(opts.configPath, opts.target)
	if err != nil {
		return err
	}
	if opts.noTracking {
		cfg.Tracking.Enabled = false
	}

	stageMetrics := pipeline.NewStageMetrics()
	pipeOpts := []pipeline.Option{
		pipeline.WithLogger(root.logger),
		pipeline.WithStageMetrics(stageMetrics),
	}
	if cfg.Tracking.Enabled {
		store, err := root.openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		pipeOpts = append(pipeOpts, pipeline.WithTracking(store))
	}

	p, err := pipeline.New(cfg, pipeOpts...)
	if err != nil {
		return err
	}
	out, runErr := p.Run(cmd.Context(), opts.data)

	if opts.metricsFile != "" {
		if err := stageMetrics.WriteTextfile(opts.metricsFile); err != nil {
			root.logger.Warn("failed to write stage metrics", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	w := tabwriter.NewWriter(root.stdout, 0, 4, 2, ' ', 0)
	for _, name := range out.Metrics.Names() {
		v, _ := out.Metrics.Get(name)
		fmt.Fprintf(w, "%s\t%.6g\n", name, v)
	}
	if out.RunID != "" {
		fmt.Fprintf(w, "run\t%s\n", out.RunID)
	}
	return w.Flush()
}
