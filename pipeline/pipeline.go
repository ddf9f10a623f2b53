package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/YuminosukeSato/regpipe/config"
	"github.com/YuminosukeSato/regpipe/core/model"
	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/evaluate"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
	"github.com/YuminosukeSato/regpipe/split"
	"github.com/YuminosukeSato/regpipe/tracking"
)

// Outcome is the result of a successful run.
type Outcome struct {
	Metrics evaluate.Metrics
	Model   model.Regressor
	// RunID is empty when tracking is disabled.
	RunID string
}

// TrainingPipeline runs the full training flow for one configuration.
type TrainingPipeline struct {
	cfg     config.Config
	logger  log.Logger
	store   *tracking.Store
	metrics *StageMetrics
}

// Option configures a TrainingPipeline.
type Option func(*TrainingPipeline)

// WithLogger sets the logger passed to every step.
func WithLogger(logger log.Logger) Option {
	return func(p *TrainingPipeline) { p.logger = logger }
}

// WithTracking records runs in store when the configuration enables
// tracking.
func WithTracking(store *tracking.Store) Option {
	return func(p *TrainingPipeline) { p.store = store }
}

// WithStageMetrics records stage instruments in m.
func WithStageMetrics(m *StageMetrics) Option {
	return func(p *TrainingPipeline) { p.metrics = m }
}

// New validates cfg and creates a TrainingPipeline.
func New(cfg config.Config, opts ...Option) (*TrainingPipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &TrainingPipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("pipeline")
	}
	return p, nil
}

// stage runs fn as one named stage: the context is checked first and the
// stage instruments are updated afterwards.
func (p *TrainingPipeline) stage(ctx context.Context, name string, fn func() (rows int, err error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	rows, err := fn()
	p.metrics.observe(name, time.Since(start), rows, err)
	return err
}

// Run executes ingest → clean → pre-split transforms → split → post-split
// transforms → train → evaluate on the file at path, and records the run
// when tracking is enabled. Any failure aborts the run, marks the tracked
// run FAILED and is returned.
func (p *TrainingPipeline) Run(ctx context.Context, path string) (out *Outcome, err error) {
	logger := p.logger

	var run *tracking.Run
	if p.store != nil && p.cfg.Tracking.Enabled {
		if run, err = p.store.StartRun(p.cfg.Tracking.Experiment); err != nil {
			return nil, err
		}
		logger = logger.With(log.RunIDKey, run.ID())
		defer func() {
			status := tracking.StatusFinished
			if err != nil {
				status = tracking.StatusFailed
			}
			if endErr := run.End(status); endErr != nil && err == nil {
				err = endErr
			}
		}()
	}

	var ds *dataset.Dataset
	if err = p.stage(ctx, log.StageIngest, func() (int, error) {
		var err error
		ds, err = Ingest(ctx, path, p.cfg.Data.CSVOptions(), logger)
		if err != nil {
			return 0, err
		}
		return ds.NumRows(), nil
	}); err != nil {
		return nil, err
	}
	if err = p.logParams(run, ds); err != nil {
		return nil, err
	}

	if err = p.stage(ctx, log.StageClean, func() (int, error) {
		var err error
		ds, err = Clean(ds, p.cfg.Clean, logger)
		if err != nil {
			return 0, err
		}
		return ds.NumRows(), nil
	}); err != nil {
		return nil, err
	}

	for _, t := range p.transforms(config.StagePreSplit) {
		if err = p.stage(ctx, log.StageTransform, func() (int, error) {
			columns := p.columns(ds, t)
			if columns == nil {
				logger.Debug("no columns selected; transform skipped", log.StrategyKey, t.Strategy)
				return ds.NumRows(), nil
			}
			var err error
			ds, err = Transform(ds, t.Strategy, columns, logger)
			if err != nil {
				return 0, err
			}
			return ds.NumRows(), nil
		}); err != nil {
			return nil, err
		}
	}

	var parts split.Result
	if err = p.stage(ctx, log.StageSplit, func() (int, error) {
		var err error
		parts, err = Split(ds, p.cfg.Target, p.cfg.Split, logger)
		if err != nil {
			return 0, err
		}
		return parts.XTest.NumRows(), nil
	}); err != nil {
		return nil, err
	}

	for _, t := range p.transforms(config.StagePostSplit) {
		if err = p.stage(ctx, log.StageTransform, func() (int, error) {
			columns := p.columns(parts.XTrain, t)
			if columns == nil {
				logger.Debug("no columns selected; transform skipped", log.StrategyKey, t.Strategy)
				return parts.XTrain.NumRows(), nil
			}
			var err error
			parts, err = TransformSplit(parts, t.Strategy, columns, logger)
			if err != nil {
				return 0, err
			}
			return parts.XTrain.NumRows(), nil
		}); err != nil {
			return nil, err
		}
	}

	var m model.Regressor
	if err = p.stage(ctx, log.StageTrain, func() (int, error) {
		var err error
		m, err = Train(parts.XTrain, parts.YTrain, p.cfg.Train, logger)
		return parts.XTrain.NumRows(), err
	}); err != nil {
		return nil, err
	}

	var scores evaluate.Metrics
	if err = p.stage(ctx, log.StageEvaluate, func() (int, error) {
		var err error
		scores, err = Evaluate(m, parts.XTest, parts.YTest, p.cfg.Evaluate, logger)
		return parts.XTest.NumRows(), err
	}); err != nil {
		return nil, err
	}

	out = &Outcome{Metrics: scores, Model: m}
	if run != nil {
		out.RunID = run.ID()
		if err = p.track(run, m, scores, parts); err != nil {
			return nil, err
		}
	}
	logger.Info("training pipeline completed",
		log.MSEKey, valueOf(scores, p.cfg.Evaluate.MSEKey),
		log.R2ScoreKey, valueOf(scores, p.cfg.Evaluate.R2Key),
	)
	return out, nil
}

func valueOf(m evaluate.Metrics, key string) float64 {
	v, _ := m.Get(key)
	return v
}

func (p *TrainingPipeline) transforms(stage string) []config.TransformConfig {
	var out []config.TransformConfig
	for _, t := range p.cfg.Transforms {
		s := t.Stage
		if s == "" {
			s = config.StagePreSplit
		}
		if s == stage {
			out = append(out, t)
		}
	}
	return out
}

// columns resolves a transform's feature list against ds. Selectors never
// include the target; nil means the selector matched nothing.
func (p *TrainingPipeline) columns(ds *dataset.Dataset, t config.TransformConfig) []string {
	if len(t.Features) > 0 {
		return t.Features
	}
	var candidates []string
	switch t.Select {
	case config.SelectCategorical:
		candidates = ds.CategoricalColumns()
	case config.SelectNumeric:
		candidates = ds.NumericColumns()
	}
	var out []string
	for _, name := range candidates {
		if name != p.cfg.Target {
			out = append(out, name)
		}
	}
	return out
}

func (p *TrainingPipeline) logParams(run *tracking.Run, ds *dataset.Dataset) error {
	if run == nil {
		return nil
	}
	transforms := make([]string, len(p.cfg.Transforms))
	for i, t := range p.cfg.Transforms {
		transforms[i] = t.Strategy
	}
	params := []struct {
		key   string
		value any
	}{
		{"target", p.cfg.Target},
		{"fill_method", p.cfg.Clean.FillMethod},
		{"outlier_detector", p.cfg.Clean.Detector},
		{"outlier_method", p.cfg.Clean.OutlierMethod},
		{"transforms", strings.Join(transforms, ",")},
		{"test_size", p.cfg.Split.TestSize},
		{"seed", p.cfg.Split.Seed},
		{"fit_intercept", p.cfg.Train.FitIntercept},
		{"data.fingerprint", fmt.Sprintf("%016x", ds.Fingerprint())},
		{"data.rows", ds.NumRows()},
		{"data.columns", ds.NumCols()},
	}
	for _, kv := range params {
		if err := run.LogParam(kv.key, kv.value); err != nil {
			return err
		}
	}
	return nil
}

// track logs the metrics under their short names, the model weights and the
// predicted-vs-actual plot, then registers the model.
func (p *TrainingPipeline) track(run *tracking.Run, m model.Regressor, scores evaluate.Metrics, parts split.Result) error {
	if err := run.LogMetric("MSE", valueOf(scores, p.cfg.Evaluate.MSEKey)); err != nil {
		return err
	}
	if err := run.LogMetric("R2", valueOf(scores, p.cfg.Evaluate.R2Key)); err != nil {
		return err
	}
	for _, name := range scores.Names() {
		if name == p.cfg.Evaluate.MSEKey || name == p.cfg.Evaluate.R2Key {
			continue
		}
		if err := run.LogMetric(name, valueOf(scores, name)); err != nil {
			return err
		}
	}

	w, err := m.ExportWeights()
	if err != nil {
		return err
	}
	if err := run.LogModel(w); err != nil {
		return err
	}

	if p.cfg.Tracking.Plot {
		if err := p.logPlot(run, m, parts); err != nil {
			return err
		}
	}

	if p.cfg.Tracking.ModelName != "" {
		if _, err := p.store.RegisterModel(p.cfg.Tracking.ModelName, run.ID()); err != nil {
			return err
		}
	}
	return nil
}

func (p *TrainingPipeline) logPlot(run *tracking.Run, m model.Predictor, parts split.Result) error {
	X, err := parts.XTest.Matrix()
	if err != nil {
		return err
	}
	pred, err := evaluate.Predict(m, X)
	if err != nil {
		return err
	}
	yTrue, err := parts.YTest.Vector(p.cfg.Target)
	if err != nil {
		return err
	}
	png, err := tracking.ResidualPlot(yTrue.RawVector().Data, pred.RawVector().Data)
	if err != nil {
		return errors.Wrap(err, "render residual plot")
	}
	return run.LogArtifact(tracking.PlotArtifact, png)
}
