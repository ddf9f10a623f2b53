package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/regpipe/pkg/log"
	"github.com/YuminosukeSato/regpipe/tracking"
)

const defaultTrackingDir = ".regpipe"

type rootOptions struct {
	trackingDir string
	logLevel    string
	stdout      io.Writer
	stderr      io.Writer
	logger      log.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:           "regpipe",
		Short:         "Train and track linear regression models on tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			provider := log.NewZerologProviderWithWriter(opts.stderr, level)
			provider.RouteWarnings()
			log.SetProvider(provider)
			opts.logger = provider.GetLoggerWithName("regpipe")
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVar(&opts.trackingDir, "tracking-dir", defaultTrackingDir, "directory of the experiment tracking store")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	cmd.AddCommand(newTrainCmd(opts), newRunsCmd(opts), newModelsCmd(opts))
	return cmd
}

func (o *rootOptions) openStore() (*tracking.Store, error) {
	return tracking.Open(tracking.Config{Dir: o.trackingDir, SyncWrites: true, Logger: o.logger})
}
