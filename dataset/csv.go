package dataset

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/regpipe/pkg/errors"
)

// DefaultNATokens are the cell values read as null.
var DefaultNATokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None"}

// CSVOptions configures ReadCSV.
type CSVOptions struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// Comment starts a comment line when non-zero.
	Comment rune
	// NATokens overrides DefaultNATokens when non-nil.
	NATokens []string
	// TrimSpace trims surrounding whitespace from every cell.
	TrimSpace bool
}

// DefaultCSVOptions returns comma-separated options with the default NA tokens.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', TrimSpace: true}
}

// ReadCSV reads a header row followed by data rows. A column is numeric
// when every non-null cell parses as a float, otherwise categorical.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = ','
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.Comment = opts.Comment
	reader.TrimLeadingSpace = opts.TrimSpace

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV")
	}
	if len(records) == 0 {
		return nil, errors.NewModelError("dataset.ReadCSV", "no header row", errors.ErrEmptyData)
	}

	na := opts.NATokens
	if na == nil {
		na = DefaultNATokens
	}
	isNA := make(map[string]bool, len(na))
	for _, t := range na {
		isNA[t] = true
	}

	headers := records[0]
	rows := records[1:]

	cols := make([]*Column, len(headers))
	for j, h := range headers {
		name := strings.TrimSpace(h)
		cells := make([]string, len(rows))
		valid := make([]bool, len(rows))
		for i, row := range rows {
			cell := row[j]
			if opts.TrimSpace {
				cell = strings.TrimSpace(cell)
			}
			cells[i] = cell
			valid[i] = !isNA[cell]
		}
		cols[j] = inferColumn(name, cells, valid)
	}
	return New(cols...)
}

// inferColumn parses cells as float64 when every valid cell allows it.
func inferColumn(name string, cells []string, valid []bool) *Column {
	values := make([]float64, len(cells))
	for i, cell := range cells {
		if !valid[i] {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return NewCategoricalColumn(name, cells, valid)
		}
		values[i] = v
	}
	return NewNumericColumn(name, values, valid)
}

// WriteCSV writes ds with a header row. Null cells are written empty.
func WriteCSV(w io.Writer, ds *Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ds.Names()); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}

	record := make([]string, ds.NumCols())
	for i := 0; i < ds.NumRows(); i++ {
		for j, c := range ds.cols {
			record[j], _ = c.Text(i)
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrapf(err, "writing CSV row %d", i)
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "flushing CSV")
}
