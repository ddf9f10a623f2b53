// Package evaluate scores a trained regressor on held-out rows.
package evaluate

import (
	"github.com/YuminosukeSato/regpipe/core/model"
	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/metrics"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
	"github.com/YuminosukeSato/regpipe/strategy"
	"github.com/YuminosukeSato/regpipe/train"
	"gonum.org/v1/gonum/mat"
)

// Default metric names.
const (
	DefaultMSEKey        = "Mean Squared Error"
	DefaultR2Key         = "R-Squared"
	RMSEKey              = "Root Mean Squared Error"
	MAEKey               = "Mean Absolute Error"
	ExplainedVarianceKey = "Explained Variance"
)

// Strategy is implemented by RegressionStrategy.
type Strategy interface {
	Evaluate(m model.Predictor, X, y *dataset.Dataset) (Metrics, error)
	evaluateStrategy()
}

// RegressionStrategy reports MSE and R² under MSEKey and R2Key (empty keys
// fall back to the defaults). Extended adds RMSE, MAE and explained
// variance.
type RegressionStrategy struct {
	MSEKey   string
	R2Key    string
	Extended bool
}

func (RegressionStrategy) evaluateStrategy() {}

// Evaluate implements Strategy.
func (s RegressionStrategy) Evaluate(m model.Predictor, X, y *dataset.Dataset) (Metrics, error) {
	const op = "RegressionStrategy.Evaluate"
	if m == nil {
		return Metrics{}, errors.NewInputTypeError(op, "model", "a trained model", "nil")
	}
	Xm, yTrue, err := train.Inputs(op, X, y)
	if err != nil {
		return Metrics{}, err
	}
	yPred, err := Predict(m, Xm)
	if err != nil {
		return Metrics{}, err
	}

	mse, err := metrics.MSE(yTrue, yPred)
	if err != nil {
		return Metrics{}, err
	}
	r2, err := metrics.R2Score(yTrue, yPred)
	if err != nil {
		return Metrics{}, err
	}
	pairs := []Pair{
		{Name: keyOr(s.MSEKey, DefaultMSEKey), Value: mse},
		{Name: keyOr(s.R2Key, DefaultR2Key), Value: r2},
	}

	if s.Extended {
		rmse, err := metrics.RMSE(yTrue, yPred)
		if err != nil {
			return Metrics{}, err
		}
		mae, err := metrics.MAE(yTrue, yPred)
		if err != nil {
			return Metrics{}, err
		}
		ev, err := metrics.ExplainedVarianceScore(yTrue, yPred)
		if err != nil {
			return Metrics{}, err
		}
		pairs = append(pairs,
			Pair{Name: RMSEKey, Value: rmse},
			Pair{Name: MAEKey, Value: mae},
			Pair{Name: ExplainedVarianceKey, Value: ev},
		)
	}
	return NewMetrics(pairs...), nil
}

// Predict runs m on X and returns the predictions as a vector.
func Predict(m model.Predictor, X mat.Matrix) (*mat.VecDense, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return nil, err
	}
	return metrics.ColumnVector("evaluate.Predict", pred)
}

func keyOr(key, fallback string) string {
	if key == "" {
		return fallback
	}
	return key
}

// Evaluator runs the active evaluation Strategy.
type Evaluator struct {
	*strategy.Context[Strategy]
	logger log.Logger
}

// NewEvaluator creates an Evaluator with s active.
func NewEvaluator(s Strategy, logger log.Logger) *Evaluator {
	if logger == nil {
		logger = log.GetLoggerWithName("evaluate")
	}
	return &Evaluator{Context: strategy.New(s), logger: logger}
}

// Evaluate delegates to the active strategy.
func (e *Evaluator) Evaluate(m model.Predictor, X, y *dataset.Dataset) (Metrics, error) {
	s, err := e.Strategy()
	if err != nil {
		return Metrics{}, err
	}
	res, err := s.Evaluate(m, X, y)
	if err != nil {
		return Metrics{}, err
	}
	e.logger.Info("model evaluated", log.StrategyKey, e.Name(), log.RowsKey, X.NumRows(), "metrics", res)
	return res, nil
}
