package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/regpipe/config"
	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/outlier"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
	"github.com/YuminosukeSato/regpipe/tracking"
)

var cities = []string{"nagoya", "osaka", "tokyo"}

// writeHouses writes n rows of price = 3 + 2·area − age + city effect + noise.
// 5% of age is missing and two area values are extreme.
func writeHouses(t *testing.T, n int) string {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 2))

	var sb strings.Builder
	sb.WriteString("area,age,city,price\n")
	for i := 0; i < n; i++ {
		area := rng.Float64() * 10
		age := rng.Float64() * 5
		city := rng.IntN(len(cities))
		price := 3 + 2*area - age + float64(city) + rng.NormFloat64()*0.1

		switch i {
		case 10:
			area = 500
		case 20:
			area = -500
		}
		ageCell := fmt.Sprintf("%g", age)
		if i%20 == 0 {
			ageCell = "NA"
		}
		fmt.Fprintf(&sb, "%g,%s,%s,%g\n", area, ageCell, cities[city], price)
	}

	path := filepath.Join(t.TempDir(), "houses.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

func houseConfig() config.Config {
	cfg := config.Default()
	cfg.Target = "price"
	return cfg
}

func TestSteps_Properties(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	cfg := houseConfig()

	ds, err := Ingest(context.Background(), writeHouses(t, 1000), nil, logger)
	require.NoError(t, err)
	require.Equal(t, 1000, ds.NumRows())
	require.Equal(t, 50, ds.NullCount())

	before, err := outlier.IQRStrategy{}.Detect(ds)
	require.NoError(t, err)
	require.True(t, before.Column("area")[10], "area outlier present before cleaning")

	cleaned, err := Clean(ds, cfg.Clean, logger)
	require.NoError(t, err)
	assert.Zero(t, cleaned.NullCount())
	assert.Equal(t, 1000, cleaned.NumRows(), "capping keeps every row")

	after, err := outlier.IQRStrategy{}.Detect(cleaned)
	require.NoError(t, err)
	assert.False(t, after.Any(), "no outliers after cleaning")

	encoded, err := Transform(cleaned, "label_encoding", cleaned.CategoricalColumns(), logger)
	require.NoError(t, err)
	assert.Empty(t, encoded.CategoricalColumns())
	city, _ := encoded.Column("city")
	for _, v := range city.Floats() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Equal(t, math.Trunc(v), v)
	}

	parts, err := Split(encoded, "price", cfg.Split, logger)
	require.NoError(t, err)
	assert.Equal(t, 200, parts.XTest.NumRows())
	assert.Equal(t, 800, parts.XTrain.NumRows())

	m, err := Train(parts.XTrain, parts.YTrain, cfg.Train, logger)
	require.NoError(t, err)
	scores, err := Evaluate(m, parts.XTest, parts.YTest, cfg.Evaluate, logger)
	require.NoError(t, err)

	mse, ok := scores.Get("Mean Squared Error")
	require.True(t, ok)
	r2, ok := scores.Get("R-Squared")
	require.True(t, ok)
	assert.False(t, math.IsNaN(mse) || math.IsInf(mse, 0))
	assert.LessOrEqual(t, r2, 1.0)
	assert.Greater(t, r2, 0.5)
}

func TestTrainingPipeline_Run(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	store, err := tracking.Open(tracking.Config{InMemory: true, Logger: logger})
	require.NoError(t, err)
	defer store.Close()
	metrics := NewStageMetrics()

	p, err := New(houseConfig(), WithLogger(logger), WithTracking(store), WithStageMetrics(metrics))
	require.NoError(t, err)

	out, err := p.Run(context.Background(), writeHouses(t, 1000))
	require.NoError(t, err)
	require.NotEmpty(t, out.RunID)
	assert.True(t, out.Model.IsFitted())

	r2, _ := out.Metrics.Get("R-Squared")
	assert.LessOrEqual(t, r2, 1.0)

	rec, err := store.GetRun(out.RunID)
	require.NoError(t, err)
	assert.Equal(t, tracking.StatusFinished, rec.Status)
	assert.Contains(t, rec.Metrics, "MSE")
	assert.Contains(t, rec.Metrics, "R2")
	assert.Equal(t, "0.2", rec.Params["test_size"])
	assert.Equal(t, "1000", rec.Params["data.rows"])
	assert.Len(t, rec.Params["data.fingerprint"], 16)
	assert.ElementsMatch(t, []string{tracking.ModelArtifact, tracking.PlotArtifact}, rec.Artifacts)

	models, err := store.ListModels()
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, config.DefaultModelName, models[0].Name)
	assert.Equal(t, out.RunID, models[0].RunID)

	assert.Equal(t, 1000.0, testutil.ToFloat64(metrics.rows.WithLabelValues(log.StageIngest)))
	assert.Equal(t, 200.0, testutil.ToFloat64(metrics.rows.WithLabelValues(log.StageSplit)))
	assert.Equal(t, 0, testutil.CollectAndCount(metrics.failures))
}

func TestTrainingPipeline_PostSplitTransforms(t *testing.T) {
	cfg := houseConfig()
	cfg.Tracking.Enabled = false
	cfg.Evaluate.Extended = true
	cfg.Transforms = append(cfg.Transforms,
		config.TransformConfig{Strategy: "standard_scaling", Select: config.SelectNumeric, Stage: config.StagePostSplit})

	p, err := New(cfg)
	require.NoError(t, err)
	out, err := p.Run(context.Background(), writeHouses(t, 300))
	require.NoError(t, err)
	assert.Empty(t, out.RunID)
	assert.Equal(t, 5, out.Metrics.Len())

	w, err := out.Model.ExportWeights()
	require.NoError(t, err)
	assert.Equal(t, []string{"area", "age", "city"}, w.Features)
}

func TestTrainingPipeline_OneHot(t *testing.T) {
	cfg := houseConfig()
	cfg.Tracking.Enabled = false
	cfg.Transforms = []config.TransformConfig{{Strategy: "one_hot_encoding", Features: []string{"city"}}}

	p, err := New(cfg)
	require.NoError(t, err)
	out, err := p.Run(context.Background(), writeHouses(t, 300))
	require.NoError(t, err)

	w, err := out.Model.ExportWeights()
	require.NoError(t, err)
	assert.Equal(t, []string{"area", "age", "city_osaka", "city_tokyo"}, w.Features)
}

func TestTrainingPipeline_FailureMarksRun(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	storeLogger, _ := log.NewTestLogger(log.LevelInfo)
	store, err := tracking.Open(tracking.Config{InMemory: true, Logger: storeLogger})
	require.NoError(t, err)
	defer store.Close()
	metrics := NewStageMetrics()

	cfg := houseConfig()
	cfg.Target = "rent"
	p, err := New(cfg, WithLogger(logger), WithTracking(store), WithStageMetrics(metrics))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), writeHouses(t, 100))
	var valErr *errors.ValueError
	require.True(t, errors.As(err, &valErr), "missing target: %v", err)
	assert.Contains(t, err.Error(), "split step")
	assert.Equal(t, 1, logger.CountLevel(log.LevelWarn))

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, tracking.StatusFailed, runs[0].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues(log.StageSplit)))
}

func TestTrainingPipeline_Cancelled(t *testing.T) {
	cfg := houseConfig()
	cfg.Tracking.Enabled = false
	p, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, writeHouses(t, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(config.Default())
	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestTransform_Errors(t *testing.T) {
	ds, err := dataset.New(dataset.NewCategoricalColumn("c", []string{"a", "b"}, nil))
	require.NoError(t, err)

	var cfgErr *errors.ConfigError
	_, err = Transform(ds, "label_encoding", nil, nil)
	assert.True(t, errors.As(err, &cfgErr), "nil feature list")
	_, err = Transform(ds, "target_encoding", []string{"c"}, nil)
	assert.True(t, errors.As(err, &cfgErr), "unknown strategy")
}

func TestClean_UnknownMethodsWarn(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	ds, err := dataset.New(dataset.NewNumericColumn("x", []float64{1, math.NaN(), 2, 3, 2, 1, 100}, nil))
	require.NoError(t, err)

	cfg := config.Default().Clean
	cfg.FillMethod = "interpolate"
	cfg.OutlierMethod = "winsorize"
	out, err := Clean(ds, cfg, logger)
	require.NoError(t, err)
	assert.Same(t, ds, out)
	assert.Equal(t, 2, logger.CountLevel(log.LevelWarn))
}

func TestClean_NoOutliers(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	ds, err := dataset.New(dataset.NewNumericColumn("x", []float64{1, 2, 3, 4}, nil))
	require.NoError(t, err)

	out, err := Clean(ds, config.Default().Clean, logger)
	require.NoError(t, err)
	assert.Equal(t, 4, out.NumRows())
	assert.True(t, logger.ContainsMessage("no outliers detected"))
}

func TestRunStep_RecoversPanic(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	err := runStep(logger, "train", func() error { panic("boom") })

	var panicErr *errors.PanicError
	assert.True(t, errors.As(err, &panicErr))
	assert.True(t, logger.ContainsField(log.StageKey, "train"))
}

func TestStageMetrics_WriteTextfile(t *testing.T) {
	m := NewStageMetrics()
	m.observe(log.StageIngest, 0, 10, nil)

	path := filepath.Join(t.TempDir(), "regpipe.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `regpipe_stage_rows{stage="ingest"} 10`)

	var nilMetrics *StageMetrics
	nilMetrics.observe(log.StageIngest, 0, 1, nil)
}
