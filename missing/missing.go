// Package missing handles null cells: dropping sparse rows or columns, or
// filling nulls with a per-column statistic or a constant.
package missing

import (
	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
	"github.com/YuminosukeSato/regpipe/strategy"
)

// Strategy is implemented by DropStrategy and FillStrategy only.
type Strategy interface {
	Handle(ds *dataset.Dataset) (*dataset.Dataset, error)
	missingStrategy()
}

// Handler runs the active missing-value Strategy.
type Handler struct {
	*strategy.Context[Strategy]
	logger log.Logger
}

// NewHandler creates a Handler with s active.
func NewHandler(s Strategy, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.GetLoggerWithName("missing")
	}
	return &Handler{Context: strategy.New(s), logger: logger}
}

// Handle delegates to the active strategy. A NoOpWarning from the strategy
// is logged and the unchanged input is returned with a nil error.
func (h *Handler) Handle(ds *dataset.Dataset) (*dataset.Dataset, error) {
	s, err := h.Strategy()
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, errors.NewInputTypeError("Handler.Handle", "ds", "a dataset", "nil")
	}

	h.logger.Info("handling missing values",
		log.StrategyKey, h.Name(),
		log.RowsKey, ds.NumRows(),
		log.NullsKey, ds.NullCount(),
	)

	out, err := s.Handle(ds)
	if errors.IsNoOp(err) {
		h.logger.Warn(err.Error(), log.StrategyKey, h.Name())
		return ds, nil
	}
	if err != nil {
		return nil, err
	}

	for _, c := range out.Columns() {
		if c.Len() > 0 && c.NullCount() == c.Len() {
			h.logger.Debug("column is entirely null; left unchanged", "column", c.Name())
		}
	}
	h.logger.Info("missing values handled",
		log.StrategyKey, h.Name(),
		log.RowsKey, out.NumRows(),
		log.ColumnsKey, out.NumCols(),
		log.NullsKey, out.NullCount(),
	)
	return out, nil
}
