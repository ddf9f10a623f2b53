// Package dataset provides the immutable tabular container passed between
// pipeline stages. Columns are Apache Arrow arrays: float64 for numeric
// columns and utf8 for categorical ones. Every operation returns a new
// Dataset and never mutates its receiver.
package dataset

import (
	"math"
	"strings"

	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a rectangular table of named columns.
type Dataset struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a Dataset from columns of equal length with unique names.
func New(cols ...*Column) (*Dataset, error) {
	ds := &Dataset{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if c == nil {
			return nil, errors.NewValueErrorf("dataset.New", "column %d is nil", i)
		}
		if strings.TrimSpace(c.Name()) == "" {
			return nil, errors.NewValueErrorf("dataset.New", "column %d has an empty name", i)
		}
		if _, dup := ds.index[c.Name()]; dup {
			return nil, errors.NewValueErrorf("dataset.New", "duplicate column name %q", c.Name())
		}
		if i == 0 {
			ds.rows = c.Len()
		} else if c.Len() != ds.rows {
			return nil, errors.NewDimensionError("dataset.New", ds.rows, c.Len(), 0)
		}
		ds.index[c.Name()] = len(ds.cols)
		ds.cols = append(ds.cols, c)
	}
	return ds, nil
}

// NumRows returns the number of rows.
func (ds *Dataset) NumRows() int { return ds.rows }

// NumCols returns the number of columns.
func (ds *Dataset) NumCols() int { return len(ds.cols) }

// Names returns the column names in order.
func (ds *Dataset) Names() []string {
	out := make([]string, len(ds.cols))
	for i, c := range ds.cols {
		out[i] = c.Name()
	}
	return out
}

// Columns returns the columns in order. The slice is a copy.
func (ds *Dataset) Columns() []*Column {
	return append([]*Column(nil), ds.cols...)
}

// Column looks up a column by name.
func (ds *Dataset) Column(name string) (*Column, bool) {
	i, ok := ds.index[name]
	if !ok {
		return nil, false
	}
	return ds.cols[i], true
}

// Has reports whether a column with the given name exists.
func (ds *Dataset) Has(name string) bool {
	_, ok := ds.index[name]
	return ok
}

// Require returns the named column or a ValueError naming op.
func (ds *Dataset) Require(op, name string) (*Column, error) {
	c, ok := ds.Column(name)
	if !ok {
		return nil, errors.NewValueErrorf(op, "column %q not found in dataset (columns: %s)", name, strings.Join(ds.Names(), ", "))
	}
	return c, nil
}

// NumericColumns returns the names of float64 columns, recomputed from the
// stored arrays.
func (ds *Dataset) NumericColumns() []string {
	return ds.namesOfKind(Numeric)
}

// CategoricalColumns returns the names of utf8 columns.
func (ds *Dataset) CategoricalColumns() []string {
	return ds.namesOfKind(Categorical)
}

func (ds *Dataset) namesOfKind(k Kind) []string {
	var out []string
	for _, c := range ds.cols {
		if c.Kind() == k {
			out = append(out, c.Name())
		}
	}
	return out
}

// NullCount returns the total number of null cells.
func (ds *Dataset) NullCount() int {
	n := 0
	for _, c := range ds.cols {
		n += c.NullCount()
	}
	return n
}

// NullCounts returns null counts per column, omitting columns without nulls.
func (ds *Dataset) NullCounts() map[string]int {
	out := make(map[string]int)
	for _, c := range ds.cols {
		if n := c.NullCount(); n > 0 {
			out[c.Name()] = n
		}
	}
	return out
}

// Drop returns a Dataset without the named columns.
func (ds *Dataset) Drop(names ...string) (*Dataset, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if !ds.Has(n) {
			return nil, errors.NewValueErrorf("Dataset.Drop", "column %q not found", n)
		}
		drop[n] = true
	}
	kept := make([]*Column, 0, len(ds.cols))
	for _, c := range ds.cols {
		if !drop[c.Name()] {
			kept = append(kept, c)
		}
	}
	return ds.derive(kept), nil
}

// Select returns a Dataset with only the named columns, in the given order.
func (ds *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, err := ds.Require("Dataset.Select", n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// WithColumn returns a Dataset where col replaces the column of the same
// name in place, or is appended when no such column exists.
func (ds *Dataset) WithColumn(col *Column) (*Dataset, error) {
	if ds.NumCols() > 0 && col.Len() != ds.rows {
		return nil, errors.NewDimensionError("Dataset.WithColumn", ds.rows, col.Len(), 0)
	}
	cols := ds.Columns()
	if i, ok := ds.index[col.Name()]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return New(cols...)
}

// Take returns the given rows, in the given order.
func (ds *Dataset) Take(rows []int) (*Dataset, error) {
	for _, r := range rows {
		if r < 0 || r >= ds.rows {
			return nil, errors.NewValueErrorf("Dataset.Take", "row index %d out of range [0, %d)", r, ds.rows)
		}
	}
	cols := make([]*Column, len(ds.cols))
	for i, c := range ds.cols {
		cols[i] = c.take(rows)
	}
	out := ds.derive(cols)
	out.rows = len(rows)
	return out, nil
}

// Filter keeps the rows where keep[i] is true.
func (ds *Dataset) Filter(keep []bool) (*Dataset, error) {
	if len(keep) != ds.rows {
		return nil, errors.NewDimensionError("Dataset.Filter", ds.rows, len(keep), 0)
	}
	rows := make([]int, 0, ds.rows)
	for i, k := range keep {
		if k {
			rows = append(rows, i)
		}
	}
	return ds.Take(rows)
}

// Matrix exports the named columns (all columns when none are named) as a
// dense rows × columns matrix. Every column must be numeric and null-free.
func (ds *Dataset) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		names = ds.Names()
	}
	if ds.rows == 0 || len(names) == 0 {
		return nil, errors.NewModelError("Dataset.Matrix", "empty data", errors.ErrEmptyData)
	}
	out := mat.NewDense(ds.rows, len(names), nil)
	for j, n := range names {
		c, err := ds.Require("Dataset.Matrix", n)
		if err != nil {
			return nil, err
		}
		if err := requireDenseNumeric("Dataset.Matrix", c); err != nil {
			return nil, err
		}
		out.SetCol(j, c.Floats())
	}
	return out, nil
}

// Vector exports one numeric, null-free column.
func (ds *Dataset) Vector(name string) (*mat.VecDense, error) {
	c, err := ds.Require("Dataset.Vector", name)
	if err != nil {
		return nil, err
	}
	if err := requireDenseNumeric("Dataset.Vector", c); err != nil {
		return nil, err
	}
	if c.Len() == 0 {
		return nil, errors.NewModelError("Dataset.Vector", "empty data", errors.ErrEmptyData)
	}
	return mat.NewVecDense(c.Len(), c.Floats()), nil
}

func requireDenseNumeric(op string, c *Column) error {
	if c.Kind() != Numeric {
		return errors.NewInputTypeError(op, c.Name(), "a numeric column", "categorical column '"+c.Name()+"'")
	}
	if n := c.NullCount(); n > 0 {
		return errors.NewInputTypeError(op, c.Name(), "a null-free column", "column with nulls")
	}
	for _, v := range c.NonNullFloats() {
		if math.IsInf(v, 0) {
			return errors.NewInputTypeError(op, c.Name(), "a finite column", "column with infinite values")
		}
	}
	return nil
}

func (ds *Dataset) derive(cols []*Column) *Dataset {
	out := &Dataset{
		cols:  cols,
		index: make(map[string]int, len(cols)),
		rows:  ds.rows,
	}
	for i, c := range cols {
		out.index[c.Name()] = i
	}
	return out
}
