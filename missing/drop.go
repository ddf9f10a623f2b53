package missing

import (
	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
)

// Axis selects what DropStrategy removes.
type Axis int

const (
	AxisRows    Axis = 0
	AxisColumns Axis = 1
)

// DropStrategy removes rows (AxisRows) or columns (AxisColumns) that have
// fewer than Threshold non-null values. Threshold 0 drops any row or column
// containing a null.
type DropStrategy struct {
	Axis      Axis
	Threshold int
}

func (DropStrategy) missingStrategy() {}

// Handle implements Strategy.
func (s DropStrategy) Handle(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if s.Threshold < 0 {
		return nil, errors.NewConfigError("DropStrategy.Handle", "threshold", "must be non-negative")
	}
	switch s.Axis {
	case AxisRows:
		return s.dropRows(ds)
	case AxisColumns:
		return s.dropColumns(ds)
	default:
		return nil, errors.NewConfigError("DropStrategy.Handle", "axis", "must be 0 (rows) or 1 (columns)")
	}
}

func (s DropStrategy) keep(nonNull, total int) bool {
	if s.Threshold == 0 {
		return nonNull == total
	}
	return nonNull >= s.Threshold
}

func (s DropStrategy) dropRows(ds *dataset.Dataset) (*dataset.Dataset, error) {
	cols := ds.Columns()
	keep := make([]bool, ds.NumRows())
	for i := range keep {
		nonNull := 0
		for _, c := range cols {
			if !c.IsNull(i) {
				nonNull++
			}
		}
		keep[i] = s.keep(nonNull, len(cols))
	}
	return ds.Filter(keep)
}

func (s DropStrategy) dropColumns(ds *dataset.Dataset) (*dataset.Dataset, error) {
	var drop []string
	for _, c := range ds.Columns() {
		if !s.keep(c.Len()-c.NullCount(), c.Len()) {
			drop = append(drop, c.Name())
		}
	}
	return ds.Drop(drop...)
}
