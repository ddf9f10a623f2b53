// Command regpipe trains a linear regression model from a CSV file and
// inspects the tracked runs and registered models.
package main

import (
	"log/slog"
	"os"

	"github.com/YuminosukeSato/regpipe/pkg/log"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		log.SetupLogger(os.Stderr, log.LevelError)
		slog.Error("regpipe failed", log.ErrAttr(err))
		os.Exit(1)
	}
}
