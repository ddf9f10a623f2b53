package features

import (
	"math"

	"github.com/YuminosukeSato/regpipe/core/model"
	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/preprocessing"
)

// LogStrategy replaces each feature x with log(1 + x). It learns nothing.
type LogStrategy struct {
	Columns []string
}

func (LogStrategy) featureStrategy() {}

// Features implements Strategy.
func (s LogStrategy) Features() []string { return cloneNames(s.Columns) }

// Fit implements Strategy.
func (s LogStrategy) Fit(ds *dataset.Dataset) (Fitted, error) {
	if _, err := columnsOfKind("LogStrategy.Fit", ds, s.Columns, dataset.Numeric); err != nil {
		return nil, err
	}
	return logTransform{features: cloneNames(s.Columns)}, nil
}

type logTransform struct {
	features []string
}

func (t logTransform) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	const op = "LogStrategy.Transform"
	cols, err := columnsOfKind(op, ds, t.features, dataset.Numeric)
	if err != nil {
		return nil, err
	}

	out := ds
	for _, c := range cols {
		values := c.Floats()
		for i, v := range values {
			if math.IsNaN(v) {
				continue
			}
			if v <= -1 {
				return nil, errors.NewValueErrorf(op, "column %q row %d: log1p is undefined for %g", c.Name(), i, v)
			}
			values[i] = math.Log1p(v)
		}
		if out, err = out.WithColumn(dataset.NewNumericColumn(c.Name(), values, nil)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StandardScalingStrategy rescales each feature to zero mean and unit
// population variance.
type StandardScalingStrategy struct {
	Columns []string
}

func (StandardScalingStrategy) featureStrategy() {}

// Features implements Strategy.
func (s StandardScalingStrategy) Features() []string { return cloneNames(s.Columns) }

// Fit implements Strategy.
func (s StandardScalingStrategy) Fit(ds *dataset.Dataset) (Fitted, error) {
	return fitScaler("StandardScalingStrategy.Fit", ds, s.Columns, preprocessing.NewStandardScalerDefault())
}

// MinMaxScalingStrategy rescales each feature linearly into Range. The zero
// Range means [0, 1].
type MinMaxScalingStrategy struct {
	Columns []string
	Range   [2]float64
}

func (MinMaxScalingStrategy) featureStrategy() {}

// Features implements Strategy.
func (s MinMaxScalingStrategy) Features() []string { return cloneNames(s.Columns) }

// Fit implements Strategy.
func (s MinMaxScalingStrategy) Fit(ds *dataset.Dataset) (Fitted, error) {
	r := s.Range
	if r == [2]float64{} {
		r = [2]float64{0, 1}
	}
	return fitScaler("MinMaxScalingStrategy.Fit", ds, s.Columns, preprocessing.NewMinMaxScaler(r))
}

func fitScaler(op string, ds *dataset.Dataset, features []string, scaler model.Transformer) (Fitted, error) {
	cols, err := columnsOfKind(op, ds, features, dataset.Numeric)
	if err != nil {
		return nil, err
	}
	X, err := toMatrix(op, cols)
	if err != nil {
		return nil, err
	}
	if err := scaler.Fit(X); err != nil {
		return nil, errors.Wrapf(err, "%s: fit scaler", op)
	}
	return scaledTransform{features: cloneNames(features), scaler: scaler}, nil
}

type scaledTransform struct {
	features []string
	scaler   model.Transformer
}

func (t scaledTransform) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	cols, err := columnsOfKind("ScalingStrategy.Transform", ds, t.features, dataset.Numeric)
	if err != nil {
		return nil, err
	}
	X, err := toMatrix("ScalingStrategy.Transform", cols)
	if err != nil {
		return nil, err
	}
	scaled, err := t.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return replaceColumns(ds, t.features, scaled)
}
