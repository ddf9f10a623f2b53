package features

import (
	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
	"github.com/YuminosukeSato/regpipe/strategy"
)

// Engineer runs the active feature Strategy.
type Engineer struct {
	*strategy.Context[Strategy]
	logger log.Logger
}

// NewEngineer creates an Engineer with s active.
func NewEngineer(s Strategy, logger log.Logger) *Engineer {
	if logger == nil {
		logger = log.GetLoggerWithName("features")
	}
	return &Engineer{Context: strategy.New(s), logger: logger}
}

// Fit learns the active strategy's parameters on ds.
func (e *Engineer) Fit(ds *dataset.Dataset) (Fitted, error) {
	s, err := e.Strategy()
	if err != nil {
		return nil, err
	}
	fitted, err := s.Fit(ds)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("feature transform fitted",
		log.StrategyKey, e.Name(),
		log.FeaturesKey, s.Features(),
	)
	return fitted, nil
}

// Apply fits the active strategy on ds and transforms ds with it.
func (e *Engineer) Apply(ds *dataset.Dataset) (*dataset.Dataset, error) {
	fitted, err := e.Fit(ds)
	if err != nil {
		return nil, err
	}
	out, err := fitted.Transform(ds)
	if err != nil {
		return nil, errors.Wrapf(err, "apply %s", e.Name())
	}
	e.logger.Info("features transformed",
		log.StrategyKey, e.Name(),
		log.ColumnsKey, out.NumCols(),
		log.RowsKey, out.NumRows(),
	)
	return out, nil
}
