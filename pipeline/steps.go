// Package pipeline wires the concern contexts into the training flow:
// ingest, clean, transform, split, train, evaluate. Each step function
// runs one context with one concrete strategy, recovers panics, logs a
// warning on failure and returns the error for the caller to handle.
package pipeline

import (
	"context"

	"github.com/YuminosukeSato/regpipe/config"
	"github.com/YuminosukeSato/regpipe/core/model"
	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/evaluate"
	"github.com/YuminosukeSato/regpipe/features"
	"github.com/YuminosukeSato/regpipe/ingest"
	"github.com/YuminosukeSato/regpipe/missing"
	"github.com/YuminosukeSato/regpipe/outlier"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
	"github.com/YuminosukeSato/regpipe/split"
	"github.com/YuminosukeSato/regpipe/train"
)

func stepLogger(logger log.Logger) log.Logger {
	if logger == nil {
		return log.GetLoggerWithName("pipeline")
	}
	return logger
}

// runStep executes fn with panic recovery. A failure is logged at warn level
// and returned wrapped with the step name.
func runStep(logger log.Logger, stage string, fn func() error) error {
	if err := errors.SafeExecute(stage, fn); err != nil {
		logger.Warn("error occurred while running "+stage+" step", err, log.StageKey, stage)
		return errors.Wrapf(err, "%s step", stage)
	}
	return nil
}

// Ingest reads the CSV file at path. A nil opts uses the ingest defaults.
func Ingest(ctx context.Context, path string, opts *dataset.CSVOptions, logger log.Logger) (*dataset.Dataset, error) {
	logger = stepLogger(logger)
	var ds *dataset.Dataset
	err := runStep(logger, log.StageIngest, func() error {
		var err error
		ds, err = ingest.CSV{Path: path, Options: opts}.Ingest(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// Clean fills missing values, then detects outliers and handles them only
// when some are found.
func Clean(ds *dataset.Dataset, cfg config.CleanConfig, logger log.Logger) (*dataset.Dataset, error) {
	logger = stepLogger(logger)
	var out *dataset.Dataset
	err := runStep(logger, log.StageClean, func() error {
		filled, err := missing.NewHandler(cfg.FillStrategy(), logger).Handle(ds)
		if err != nil {
			return err
		}

		detector := outlier.NewDetector(cfg.OutlierStrategy(), logger)
		mask, err := detector.Detect(filled)
		if err != nil {
			return err
		}
		if !mask.Any() {
			logger.Info("no outliers detected", log.StageKey, log.StageClean)
			out = filled
			return nil
		}
		out, err = detector.Handle(filled, cfg.OutlierMethod)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transform fits the named feature strategy on ds and applies it.
func Transform(ds *dataset.Dataset, strategyName string, columns []string, logger log.Logger) (*dataset.Dataset, error) {
	logger = stepLogger(logger)
	var out *dataset.Dataset
	err := runStep(logger, log.StageTransform, func() error {
		s, err := resolve(strategyName, columns)
		if err != nil {
			return err
		}
		out, err = features.NewEngineer(s, logger).Apply(ds)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransformSplit fits the named feature strategy on the training features
// and applies the fitted transform to both partitions.
func TransformSplit(r split.Result, strategyName string, columns []string, logger log.Logger) (split.Result, error) {
	logger = stepLogger(logger)
	out := r
	err := runStep(logger, log.StageTransform, func() error {
		s, err := resolve(strategyName, columns)
		if err != nil {
			return err
		}
		fitted, err := features.NewEngineer(s, logger).Fit(r.XTrain)
		if err != nil {
			return err
		}
		if out.XTrain, err = fitted.Transform(r.XTrain); err != nil {
			return err
		}
		out.XTest, err = fitted.Transform(r.XTest)
		return err
	})
	if err != nil {
		return split.Result{}, err
	}
	return out, nil
}

func resolve(strategyName string, columns []string) (features.Strategy, error) {
	if columns == nil {
		return nil, errors.NewConfigError("pipeline.Transform", "features", "features must be provided")
	}
	return features.ByName(strategyName, columns)
}

// Split partitions ds into training and test rows around target.
func Split(ds *dataset.Dataset, target string, cfg config.SplitConfig, logger log.Logger) (split.Result, error) {
	logger = stepLogger(logger)
	var r split.Result
	err := runStep(logger, log.StageSplit, func() error {
		var err error
		r, err = split.NewSplitter(cfg.SplitStrategy(), logger).Split(ds, target)
		return err
	})
	if err != nil {
		return split.Result{}, err
	}
	return r, nil
}

// Train fits a linear regression on the training partition.
func Train(X, y *dataset.Dataset, cfg config.TrainConfig, logger log.Logger) (model.Regressor, error) {
	logger = stepLogger(logger)
	var m model.Regressor
	err := runStep(logger, log.StageTrain, func() error {
		var err error
		s := train.LinearRegressionStrategy{WithoutIntercept: !cfg.FitIntercept}
		m, err = train.NewTrainer(s, logger).Train(X, y)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Evaluate scores m on the test partition.
func Evaluate(m model.Predictor, X, y *dataset.Dataset, cfg config.EvaluateConfig, logger log.Logger) (evaluate.Metrics, error) {
	logger = stepLogger(logger)
	var res evaluate.Metrics
	err := runStep(logger, log.StageEvaluate, func() error {
		var err error
		res, err = evaluate.NewEvaluator(cfg.EvaluateStrategy(), logger).Evaluate(m, X, y)
		return err
	})
	if err != nil {
		return evaluate.Metrics{}, err
	}
	return res, nil
}
