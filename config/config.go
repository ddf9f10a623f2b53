// Package config loads and validates the training pipeline configuration.
package config

import (
	"bytes"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/evaluate"
	"github.com/YuminosukeSato/regpipe/features"
	"github.com/YuminosukeSato/regpipe/missing"
	"github.com/YuminosukeSato/regpipe/outlier"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/split"
)

// Detector names.
const (
	DetectorZScore = "zscore"
	DetectorIQR    = "iqr"
)

// Column selectors usable instead of an explicit feature list.
const (
	SelectCategorical = "categorical"
	SelectNumeric     = "numeric"
)

// Transform stages.
const (
	// StagePreSplit fits and applies on the whole cleaned dataset.
	StagePreSplit = "pre_split"
	// StagePostSplit fits on the training rows and applies to both partitions.
	StagePostSplit = "post_split"
)

// DefaultModelName is the registry name trained models are registered under.
const DefaultModelName = "LinearRegressionModel"

// Config is the full pipeline configuration.
type Config struct {
	// Target is the column the model predicts.
	Target     string            `yaml:"target" validate:"required"`
	Data       DataConfig        `yaml:"data"`
	Clean      CleanConfig       `yaml:"clean"`
	Transforms []TransformConfig `yaml:"transforms" validate:"dive"`
	Split      SplitConfig       `yaml:"split"`
	Train      TrainConfig       `yaml:"train"`
	Evaluate   EvaluateConfig    `yaml:"evaluate"`
	Tracking   TrackingConfig    `yaml:"tracking"`
}

// DataConfig controls CSV parsing. An empty Delimiter means ',' (tab for
// .tsv files).
type DataConfig struct {
	Delimiter string   `yaml:"delimiter" validate:"omitempty,len=1"`
	NATokens  []string `yaml:"na_tokens"`
}

// CleanConfig selects missing-value and outlier handling. Unknown methods
// are accepted here; the pipeline logs a warning and leaves data unchanged.
type CleanConfig struct {
	FillMethod    string  `yaml:"fill_method" validate:"required"`
	FillValue     string  `yaml:"fill_value"`
	Detector      string  `yaml:"detector" validate:"oneof=zscore iqr"`
	ZThreshold    float64 `yaml:"z_threshold" validate:"gt=0"`
	IQRMultiplier float64 `yaml:"iqr_multiplier" validate:"gt=0"`
	OutlierMethod string  `yaml:"outlier_method" validate:"required"`
}

// TransformConfig is one feature engineering step. Exactly one of Features
// and Select names the columns.
type TransformConfig struct {
	Strategy string   `yaml:"strategy" validate:"required"`
	Features []string `yaml:"features"`
	Select   string   `yaml:"select" validate:"omitempty,oneof=categorical numeric"`
	Stage    string   `yaml:"stage" validate:"omitempty,oneof=pre_split post_split"`
}

// SplitConfig configures the train/test split.
type SplitConfig struct {
	TestSize float64 `yaml:"test_size" validate:"gt=0,lt=1"`
	Seed     uint64  `yaml:"seed"`
}

// TrainConfig configures the regression fit.
type TrainConfig struct {
	FitIntercept bool `yaml:"fit_intercept"`
}

// EvaluateConfig names the reported metrics.
type EvaluateConfig struct {
	MSEKey   string `yaml:"mse_key" validate:"required"`
	R2Key    string `yaml:"r2_key" validate:"required,nefield=MSEKey"`
	Extended bool   `yaml:"extended"`
}

// TrackingConfig controls experiment tracking.
type TrackingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Experiment string `yaml:"experiment" validate:"required_if=Enabled true"`
	ModelName  string `yaml:"model_name" validate:"required_if=Enabled true"`
	Plot       bool   `yaml:"plot"`
}

// Default returns the configuration the pipeline runs with when nothing is
// overridden: mean fill, IQR detection with capping, label encoding of
// every categorical column and a 0.2 / 42 split. Target is left empty.
func Default() Config {
	return Config{
		Clean: CleanConfig{
			FillMethod:    missing.MethodMean,
			Detector:      DetectorIQR,
			ZThreshold:    outlier.DefaultZThreshold,
			IQRMultiplier: outlier.DefaultIQRMultiplier,
			OutlierMethod: outlier.MethodCap,
		},
		Transforms: []TransformConfig{
			{Strategy: features.NameLabelEncoding, Select: SelectCategorical, Stage: StagePreSplit},
		},
		Split: SplitConfig{TestSize: split.DefaultTestSize, Seed: split.DefaultSeed},
		Train: TrainConfig{FitIntercept: true},
		Evaluate: EvaluateConfig{
			MSEKey: evaluate.DefaultMSEKey,
			R2Key:  evaluate.DefaultR2Key,
		},
		Tracking: TrackingConfig{
			Enabled:    true,
			Experiment: "regpipe",
			ModelName:  DefaultModelName,
			Plot:       true,
		},
	}
}

// Load reads a YAML file over Default and validates the result.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Read is Load without validation, for callers that override fields
// before validating.
func Read(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Parse reads YAML from r over Default and validates the result.
func Parse(r io.Reader) (Config, error) {
	cfg, err := Decode(r)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Decode reads YAML from r over Default without validating. Unknown keys
// are rejected.
func Decode(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, errors.NewConfigError("config.Decode", "", err.Error())
		}
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the rules tags cannot express. The first
// violation is returned as a ConfigError.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewConfigError("Config.Validate", fe.Namespace(), "failed '"+fe.Tag()+"' rule")
		}
		return errors.NewConfigError("Config.Validate", "", err.Error())
	}

	for i, t := range c.Transforms {
		if !slices.Contains(features.Names(), t.Strategy) {
			return errors.NewConfigError("Config.Validate", transformParam(i),
				"unknown feature engineering strategy '"+t.Strategy+"'")
		}
		if (len(t.Features) == 0) == (t.Select == "") {
			return errors.NewConfigError("Config.Validate", transformParam(i),
				"exactly one of features and select must be set")
		}
		for _, f := range t.Features {
			if f == c.Target {
				return errors.NewConfigError("Config.Validate", transformParam(i),
					"the target column cannot be transformed")
			}
		}
	}
	return nil
}

func transformParam(i int) string {
	return "Config.Transforms[" + strconv.Itoa(i) + "]"
}

// DelimiterRune returns the configured delimiter as a rune, ',' when unset.
func (d DataConfig) DelimiterRune() rune {
	if d.Delimiter == "" {
		return ','
	}
	return []rune(d.Delimiter)[0]
}

// FillStrategy builds the missing-value strategy.
func (c CleanConfig) FillStrategy() missing.Strategy {
	return missing.FillStrategy{Method: c.FillMethod, Value: c.FillValue}
}

// OutlierStrategy builds the outlier detector strategy.
func (c CleanConfig) OutlierStrategy() outlier.Strategy {
	if c.Detector == DetectorZScore {
		return outlier.ZScoreStrategy{Threshold: c.ZThreshold}
	}
	return outlier.IQRStrategy{Multiplier: c.IQRMultiplier}
}

// SplitStrategy builds the split strategy.
func (c SplitConfig) SplitStrategy() split.Strategy {
	return split.TrainTestStrategy{TestSize: c.TestSize, Seed: c.Seed}
}

// CSVOptions returns nil when nothing overrides the ingest defaults.
func (d DataConfig) CSVOptions() *dataset.CSVOptions {
	if d.Delimiter == "" && len(d.NATokens) == 0 {
		return nil
	}
	opts := dataset.DefaultCSVOptions()
	// zero lets the ingestor choose by file extension
	opts.Delimiter = 0
	if d.Delimiter != "" {
		opts.Delimiter = d.DelimiterRune()
	}
	if len(d.NATokens) > 0 {
		opts.NATokens = d.NATokens
	}
	return &opts
}

// EvaluateStrategy builds the evaluation strategy.
func (c EvaluateConfig) EvaluateStrategy() evaluate.Strategy {
	return evaluate.RegressionStrategy{MSEKey: c.MSEKey, R2Key: c.R2Key, Extended: c.Extended}
}
