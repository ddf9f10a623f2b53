// Package outlier detects extreme values in numeric columns and removes or
// caps them.
package outlier

import (
	"math"
	"slices"

	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
	"github.com/YuminosukeSato/regpipe/strategy"
	"gonum.org/v1/gonum/stat"
)

// Handling methods.
const (
	MethodRemove = "remove"
	MethodCap    = "cap"
)

// Percentiles used by MethodCap.
const (
	CapLower = 0.01
	CapUpper = 0.99
)

// Detector runs the active outlier Strategy.
type Detector struct {
	*strategy.Context[Strategy]
	logger log.Logger
}

// NewDetector creates a Detector with s active.
func NewDetector(s Strategy, logger log.Logger) *Detector {
	if logger == nil {
		logger = log.GetLoggerWithName("outlier")
	}
	return &Detector{Context: strategy.New(s), logger: logger}
}

// Detect delegates to the active strategy.
func (d *Detector) Detect(ds *dataset.Dataset) (Mask, error) {
	s, err := d.Strategy()
	if err != nil {
		return Mask{}, err
	}
	if ds == nil {
		return Mask{}, errors.NewInputTypeError("Detector.Detect", "ds", "a dataset", "nil")
	}
	m, err := s.Detect(ds)
	if err != nil {
		return Mask{}, err
	}
	d.logger.Info("outliers detected",
		log.StrategyKey, d.Name(),
		log.OutliersKey, m.Count(),
		log.RowsKey, len(m.FlaggedRows()),
	)
	return m, nil
}

// Handle applies method to ds:
//
//   - remove: drop every row with a flagged cell
//   - cap: clip every numeric column to its [CapLower, CapUpper] empirical
//     percentiles; applying it twice equals applying it once
//
// Any other method logs a warning and returns ds unchanged.
func (d *Detector) Handle(ds *dataset.Dataset, method string) (*dataset.Dataset, error) {
	switch method {
	case MethodRemove:
		m, err := d.Detect(ds)
		if err != nil {
			return nil, err
		}
		keep := make([]bool, ds.NumRows())
		for i := range keep {
			keep[i] = !m.RowFlagged(i)
		}
		out, err := ds.Filter(keep)
		if err != nil {
			return nil, err
		}
		d.logger.Info("outlier rows removed", log.MethodKey, method, log.RowsKey, ds.NumRows()-out.NumRows())
		return out, nil

	case MethodCap:
		if _, err := d.Strategy(); err != nil {
			return nil, err
		}
		out, err := Cap(ds, CapLower, CapUpper)
		if err != nil {
			return nil, err
		}
		d.logger.Info("outliers capped", log.MethodKey, method, log.ColumnsKey, len(ds.NumericColumns()))
		return out, nil

	default:
		w := errors.NewNoOpWarning("Detector.Handle", method)
		d.logger.Warn(w.Error(), log.MethodKey, method)
		return ds, nil
	}
}

// Cap clips every numeric column to the empirical lower and upper quantiles
// of its non-null values. Nulls stay null.
func Cap(ds *dataset.Dataset, lower, upper float64) (*dataset.Dataset, error) {
	if lower < 0 || upper > 1 || lower >= upper {
		return nil, errors.NewConfigError("outlier.Cap", "percentiles", "need 0 <= lower < upper <= 1")
	}
	out := ds
	for _, name := range ds.NumericColumns() {
		c, _ := ds.Column(name)
		sorted := c.NonNullFloats()
		if len(sorted) == 0 {
			continue
		}
		slices.Sort(sorted)
		lo := stat.Quantile(lower, stat.Empirical, sorted, nil)
		hi := stat.Quantile(upper, stat.Empirical, sorted, nil)

		values := c.Floats()
		for i, v := range values {
			if !math.IsNaN(v) {
				values[i] = math.Min(math.Max(v, lo), hi)
			}
		}
		var err error
		if out, err = out.WithColumn(dataset.NewNumericColumn(name, values, nil)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
