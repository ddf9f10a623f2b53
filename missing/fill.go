package missing

import (
	"math"
	"slices"
	"strconv"

	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Fill methods.
const (
	MethodMean     = "mean"
	MethodMedian   = "median"
	MethodMode     = "mode"
	MethodConstant = "constant"
)

// FillStrategy replaces nulls.
//
//   - mean, median: numeric columns only
//   - mode: every column, ties broken by the smallest value
//   - constant: every column; Value is used verbatim for categorical columns
//     and parsed as float64 for numeric ones
//
// Any other Method leaves the input unchanged and returns a NoOpWarning.
type FillStrategy struct {
	Method string
	Value  string
}

func (FillStrategy) missingStrategy() {}

// Handle implements Strategy.
func (s FillStrategy) Handle(ds *dataset.Dataset) (*dataset.Dataset, error) {
	var fill func(c *dataset.Column) (*dataset.Column, error)
	switch s.Method {
	case MethodMean:
		fill = numericOnly(func(v []float64) float64 { return stat.Mean(v, nil) })
	case MethodMedian:
		fill = numericOnly(median)
	case MethodMode:
		fill = fillMode
	case MethodConstant:
		fill = s.fillConstant
	default:
		return ds, errors.NewNoOpWarning("FillStrategy.Handle", s.Method)
	}

	out := ds
	for _, c := range ds.Columns() {
		if c.NullCount() == 0 {
			continue
		}
		// 全てnullの列には統計量がない
		if c.NullCount() == c.Len() && s.Method != MethodConstant {
			continue
		}
		filled, err := fill(c)
		if err != nil {
			return nil, err
		}
		if filled == nil {
			continue
		}
		if out, err = out.WithColumn(filled); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s FillStrategy) fillConstant(c *dataset.Column) (*dataset.Column, error) {
	if c.Kind() == dataset.Categorical {
		return fillStrings(c, s.Value), nil
	}
	v, err := strconv.ParseFloat(s.Value, 64)
	if err != nil || math.IsNaN(v) {
		return nil, errors.NewConfigError("FillStrategy.Handle", "value",
			"constant "+strconv.Quote(s.Value)+" is not numeric but column '"+c.Name()+"' is")
	}
	return fillFloats(c, v), nil
}

// numericOnly wraps a statistic over non-null values; categorical columns
// are skipped (nil result).
func numericOnly(statistic func([]float64) float64) func(*dataset.Column) (*dataset.Column, error) {
	return func(c *dataset.Column) (*dataset.Column, error) {
		if c.Kind() != dataset.Numeric {
			return nil, nil
		}
		return fillFloats(c, statistic(c.NonNullFloats())), nil
	}
}

func fillMode(c *dataset.Column) (*dataset.Column, error) {
	if c.Kind() == dataset.Numeric {
		return fillFloats(c, mostFrequent(c.NonNullFloats())), nil
	}
	return fillStrings(c, mostFrequent(c.NonNullStrings())), nil
}

func fillFloats(c *dataset.Column, v float64) *dataset.Column {
	values := c.Floats()
	for i, x := range values {
		if math.IsNaN(x) {
			values[i] = v
		}
	}
	return dataset.NewNumericColumn(c.Name(), values, nil)
}

func fillStrings(c *dataset.Column, v string) *dataset.Column {
	values := c.Strings()
	for i := range values {
		if c.IsNull(i) {
			values[i] = v
		}
	}
	return dataset.NewCategoricalColumn(c.Name(), values, nil)
}

// median averages the two middle values of an even-length input.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mostFrequent returns the most common value; ties go to the smallest.
func mostFrequent[T float64 | string](values []T) T {
	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	var best T
	bestCount := 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}
