package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/regpipe/outlier"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/split"
)

func valid() Config {
	cfg := Default()
	cfg.Target = "price"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mean", cfg.Clean.FillMethod)
	assert.Equal(t, "cap", cfg.Clean.OutlierMethod)
	assert.Equal(t, 0.2, cfg.Split.TestSize)
	assert.Equal(t, uint64(42), cfg.Split.Seed)
	assert.Equal(t, "Mean Squared Error", cfg.Evaluate.MSEKey)
	assert.Equal(t, "R-Squared", cfg.Evaluate.R2Key)
	assert.Equal(t, ',', cfg.Data.DelimiterRune())
	assert.Nil(t, cfg.Data.CSVOptions())

	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(cfg.Validate(), &cfgErr), "target is required")
	require.NoError(t, valid().Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
target: price
data:
  delimiter: ";"
clean:
  fill_method: median
  detector: zscore
  z_threshold: 2.5
  outlier_method: remove
transforms:
  - strategy: one_hot_encoding
    features: [city]
  - strategy: standard_scaling
    select: numeric
    stage: post_split
split:
  test_size: 0.25
  seed: 7
evaluate:
  extended: true
`))
	require.NoError(t, err)

	assert.Equal(t, "price", cfg.Target)
	assert.Equal(t, ';', cfg.Data.DelimiterRune())
	require.NotNil(t, cfg.Data.CSVOptions())
	assert.Equal(t, ';', cfg.Data.CSVOptions().Delimiter)

	naOnly := DataConfig{NATokens: []string{"?"}}.CSVOptions()
	require.NotNil(t, naOnly)
	assert.Equal(t, rune(0), naOnly.Delimiter, "unset delimiter is left to the ingestor")
	assert.Equal(t, []string{"?"}, naOnly.NATokens)
	assert.Equal(t, outlier.ZScoreStrategy{Threshold: 2.5}, cfg.Clean.OutlierStrategy())
	assert.Len(t, cfg.Transforms, 2)
	assert.Equal(t, []string{"city"}, cfg.Transforms[0].Features)
	assert.Equal(t, split.TrainTestStrategy{TestSize: 0.25, Seed: 7}, cfg.Split.SplitStrategy())
	assert.True(t, cfg.Evaluate.Extended)
	assert.Equal(t, "R-Squared", cfg.Evaluate.R2Key, "unset keys keep their defaults")
	assert.True(t, cfg.Train.FitIntercept)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr), "empty input still needs a target")
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse(strings.NewReader("target: y\nlearning_rate: 0.1\n"))
	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr), "got %v", err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{name: "test size out of range", mutate: func(c *Config) { c.Split.TestSize = 1 }, param: "Config.Split.TestSize"},
		{name: "unknown detector", mutate: func(c *Config) { c.Clean.Detector = "lof" }, param: "Config.Clean.Detector"},
		{name: "same metric keys", mutate: func(c *Config) { c.Evaluate.R2Key = c.Evaluate.MSEKey }, param: "Config.Evaluate.R2Key"},
		{name: "long delimiter", mutate: func(c *Config) { c.Data.Delimiter = "||" }, param: "Config.Data.Delimiter"},
		{name: "tracking without model name", mutate: func(c *Config) { c.Tracking.ModelName = "" }, param: "Config.Tracking.ModelName"},
		{
			name:   "unknown transform",
			mutate: func(c *Config) { c.Transforms = []TransformConfig{{Strategy: "pca", Select: SelectNumeric}} },
			param:  "Config.Transforms[0]",
		},
		{
			name:   "transform without columns",
			mutate: func(c *Config) { c.Transforms = []TransformConfig{{Strategy: "log"}} },
			param:  "Config.Transforms[0]",
		},
		{
			name:   "transform on target",
			mutate: func(c *Config) { c.Transforms = []TransformConfig{{Strategy: "log", Features: []string{"price"}}} },
			param:  "Config.Transforms[0]",
		},
		{
			name:   "bad selector",
			mutate: func(c *Config) { c.Transforms = []TransformConfig{{Strategy: "log", Select: "all"}} },
			param:  "Config.Transforms[0].Select",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()

			var cfgErr *errors.ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.param, cfgErr.Param)
		})
	}
}

func TestValidate_TrackingDisabled(t *testing.T) {
	cfg := valid()
	cfg.Tracking = TrackingConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target: y\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "y", cfg.Target)

	require.NoError(t, os.WriteFile(path, []byte("split:\n  seed: 3\n"), 0o600))
	_, err = Load(path)
	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr), "no target")
	cfg, err = Read(path)
	require.NoError(t, err, "Read does not validate")
	assert.Equal(t, uint64(3), cfg.Split.Seed)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
