// Package ingest loads datasets from external sources.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
)

// Ingestor produces a dataset.
type Ingestor interface {
	Ingest(ctx context.Context) (*dataset.Dataset, error)
}

// CSV reads a delimited text file. A nil Options means
// dataset.DefaultCSVOptions. When no delimiter is set, a .tsv extension
// selects tab and anything else comma.
type CSV struct {
	Path    string
	Options *dataset.CSVOptions
}

var _ Ingestor = CSV{}

// Ingest implements Ingestor. The file is closed before Ingest returns.
func (c CSV) Ingest(ctx context.Context) (*dataset.Dataset, error) {
	if c.Path == "" {
		return nil, errors.NewConfigError("CSV.Ingest", "path", "a data path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := dataset.DefaultCSVOptions()
	opts.Delimiter = 0
	if c.Options != nil {
		opts = *c.Options
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
		if strings.EqualFold(filepath.Ext(c.Path), ".tsv") {
			opts.Delimiter = '\t'
		}
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", c.Path)
	}
	defer f.Close()

	ds, err := dataset.ReadCSV(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", c.Path)
	}
	return ds, nil
}
