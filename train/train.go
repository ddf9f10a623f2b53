// Package train fits regression models on dataset partitions.
package train

import (
	"fmt"
	"time"

	"github.com/YuminosukeSato/regpipe/core/model"
	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/linear"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
	"github.com/YuminosukeSato/regpipe/strategy"
	"gonum.org/v1/gonum/mat"
)

// Strategy is implemented by LinearRegressionStrategy.
type Strategy interface {
	Train(X, y *dataset.Dataset) (model.Regressor, error)
	trainStrategy()
}

// LinearRegressionStrategy fits ordinary least squares.
type LinearRegressionStrategy struct {
	// WithoutIntercept fits a model through the origin.
	WithoutIntercept bool
}

func (LinearRegressionStrategy) trainStrategy() {}

// Train implements Strategy.
func (s LinearRegressionStrategy) Train(X, y *dataset.Dataset) (model.Regressor, error) {
	Xm, yv, err := Inputs("LinearRegressionStrategy.Train", X, y)
	if err != nil {
		return nil, err
	}
	lr := linear.NewLinearRegression(
		linear.WithFitIntercept(!s.WithoutIntercept),
		linear.WithFeatureNames(X.Names()),
	)
	if err := lr.Fit(Xm, yv); err != nil {
		return nil, err
	}
	return lr, nil
}

// Inputs converts a feature dataset and a single-column target dataset into
// gonum values. X must be all numeric and null-free; y must be one numeric
// null-free column with as many rows as X. Violations are InputTypeErrors.
func Inputs(op string, X, y *dataset.Dataset) (*mat.Dense, *mat.VecDense, error) {
	if X == nil {
		return nil, nil, errors.NewInputTypeError(op, "X", "a dataset", "nil")
	}
	if y == nil {
		return nil, nil, errors.NewInputTypeError(op, "y", "a dataset", "nil")
	}
	if y.NumCols() != 1 {
		return nil, nil, errors.NewInputTypeError(op, "y", "a single column", fmt.Sprintf("%d columns", y.NumCols()))
	}
	if X.NumRows() != y.NumRows() {
		return nil, nil, errors.NewInputTypeError(op, "y",
			fmt.Sprintf("%d rows to match X", X.NumRows()), fmt.Sprintf("%d rows", y.NumRows()))
	}
	Xm, err := X.Matrix()
	if err != nil {
		return nil, nil, err
	}
	yv, err := y.Vector(y.Names()[0])
	if err != nil {
		return nil, nil, err
	}
	return Xm, yv, nil
}

// Trainer runs the active training Strategy.
type Trainer struct {
	*strategy.Context[Strategy]
	logger log.Logger
}

// NewTrainer creates a Trainer with s active.
func NewTrainer(s Strategy, logger log.Logger) *Trainer {
	if logger == nil {
		logger = log.GetLoggerWithName("train")
	}
	return &Trainer{Context: strategy.New(s), logger: logger}
}

// Train delegates to the active strategy.
func (t *Trainer) Train(X, y *dataset.Dataset) (model.Regressor, error) {
	s, err := t.Strategy()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	m, err := s.Train(X, y)
	if err != nil {
		return nil, err
	}
	t.logger.Info("model trained",
		log.StrategyKey, t.Name(),
		log.RowsKey, X.NumRows(),
		log.FeaturesKey, X.NumCols(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return m, nil
}
