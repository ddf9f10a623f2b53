package outlier

import (
	"math"
	"slices"

	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultZThreshold    = 3.0
	DefaultIQRMultiplier = 1.5
)

// Strategy is implemented by ZScoreStrategy and IQRStrategy only.
type Strategy interface {
	// Detect flags cells of every numeric column. Null cells are never flagged.
	Detect(ds *dataset.Dataset) (Mask, error)
	outlierStrategy()
}

// ZScoreStrategy flags values whose absolute z-score (sample standard
// deviation) is strictly greater than Threshold. Zero means DefaultZThreshold.
type ZScoreStrategy struct {
	Threshold float64
}

func (ZScoreStrategy) outlierStrategy() {}

// Detect implements Strategy.
func (s ZScoreStrategy) Detect(ds *dataset.Dataset) (Mask, error) {
	threshold := s.Threshold
	if threshold == 0 {
		threshold = DefaultZThreshold
	}
	if threshold < 0 || math.IsNaN(threshold) {
		return Mask{}, errors.NewConfigError("ZScoreStrategy.Detect", "threshold", "must be positive")
	}

	return detect(ds, func(values []float64) func(float64) bool {
		if len(values) < 2 {
			return nil
		}
		mean, std := stat.MeanStdDev(values, nil)
		if std == 0 {
			return nil
		}
		return func(v float64) bool {
			return math.Abs(v-mean)/std > threshold
		}
	}), nil
}

// IQRStrategy flags values outside [Q1 − k·IQR, Q3 + k·IQR] where k is
// Multiplier (zero means DefaultIQRMultiplier). Quartiles use linear
// interpolation between order statistics.
type IQRStrategy struct {
	Multiplier float64
}

func (IQRStrategy) outlierStrategy() {}

// Detect implements Strategy.
func (s IQRStrategy) Detect(ds *dataset.Dataset) (Mask, error) {
	k := s.Multiplier
	if k == 0 {
		k = DefaultIQRMultiplier
	}
	if k < 0 || math.IsNaN(k) {
		return Mask{}, errors.NewConfigError("IQRStrategy.Detect", "multiplier", "must be positive")
	}

	return detect(ds, func(values []float64) func(float64) bool {
		if len(values) == 0 {
			return nil
		}
		lower, upper := IQRBounds(values, k)
		return func(v float64) bool {
			return v < lower || v > upper
		}
	}), nil
}

// IQRBounds returns Q1 − k·IQR and Q3 + k·IQR.
func IQRBounds(values []float64, k float64) (lower, upper float64) {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	q1 := interpolatedQuantile(sorted, 0.25)
	q3 := interpolatedQuantile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr
}

// interpolatedQuantile interpolates linearly between the order statistics
// at (n−1)·p. sorted must be ascending and non-empty.
func interpolatedQuantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// detect builds a Mask by asking rule for a predicate per numeric column.
// A nil predicate flags nothing in that column.
func detect(ds *dataset.Dataset, rule func(values []float64) func(float64) bool) Mask {
	m := newMask(ds.NumRows())
	for _, name := range ds.NumericColumns() {
		c, _ := ds.Column(name)
		flags := make([]bool, ds.NumRows())
		if pred := rule(c.NonNullFloats()); pred != nil {
			for i := range flags {
				if v, ok := c.Float(i); ok {
					flags[i] = pred(v)
				}
			}
		}
		m.set(name, flags)
	}
	return m
}
