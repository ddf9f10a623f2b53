// Package features applies column transforms (log, scaling, encoding) to a
// named subset of dataset columns. Every strategy separates learning its
// parameters (Fit) from applying them (Fitted.Transform) so a transform
// fitted on training rows can be reused on held-out rows.
package features

import (
	"slices"

	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Strategy names.
const (
	NameLog            = "log"
	NameStandardScale  = "standard_scaling"
	NameMinMaxScale    = "min_max_scaling"
	NameLabelEncoding  = "label_encoding"
	NameOneHotEncoding = "one_hot_encoding"
)

// Strategy learns a column transform for its feature subset.
type Strategy interface {
	Fit(ds *dataset.Dataset) (Fitted, error)
	// Features returns the columns the strategy operates on.
	Features() []string
	featureStrategy()
}

// Fitted applies learned parameters to a dataset carrying the same features.
// The input dataset is never modified.
type Fitted interface {
	Transform(ds *dataset.Dataset) (*dataset.Dataset, error)
}

// ByName maps a configuration literal to a Strategy over features.
func ByName(name string, features []string) (Strategy, error) {
	switch name {
	case NameLog:
		return LogStrategy{Columns: features}, nil
	case NameStandardScale:
		return StandardScalingStrategy{Columns: features}, nil
	case NameMinMaxScale:
		return MinMaxScalingStrategy{Columns: features}, nil
	case NameLabelEncoding:
		return LabelEncodingStrategy{Columns: features}, nil
	case NameOneHotEncoding:
		return OneHotEncodingStrategy{Columns: features}, nil
	default:
		return nil, errors.NewConfigError("features.ByName", "strategy", "unknown feature engineering strategy '"+name+"'")
	}
}

// Names returns every name ByName accepts.
func Names() []string {
	return []string{NameLog, NameStandardScale, NameMinMaxScale, NameLabelEncoding, NameOneHotEncoding}
}

// columnsOfKind resolves features in ds and checks that each has kind k.
func columnsOfKind(op string, ds *dataset.Dataset, features []string, k dataset.Kind) ([]*dataset.Column, error) {
	if len(features) == 0 {
		return nil, errors.NewConfigError(op, "features", "a non-empty feature list is required")
	}
	if ds == nil {
		return nil, errors.NewInputTypeError(op, "ds", "a dataset", "nil")
	}
	cols := make([]*dataset.Column, 0, len(features))
	for _, name := range features {
		c, err := ds.Require(op, name)
		if err != nil {
			return nil, err
		}
		if c.Kind() != k {
			return nil, errors.NewInputTypeError(op, name, "a "+k.String()+" column", "a "+c.Kind().String()+" column")
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// nonNullStrings returns the values of a categorical column, or a
// ValueError when any cell is null.
func nonNullStrings(op string, c *dataset.Column) ([]string, error) {
	if n := c.NullCount(); n > 0 {
		return nil, errors.NewValueErrorf(op, "column %q has %d missing values; handle them before encoding", c.Name(), n)
	}
	return c.Strings(), nil
}

// toMatrix stacks numeric columns into a matrix with NaN for nulls.
func toMatrix(op string, cols []*dataset.Column) (*mat.Dense, error) {
	if len(cols) == 0 || cols[0].Len() == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	m := mat.NewDense(cols[0].Len(), len(cols), nil)
	for j, c := range cols {
		m.SetCol(j, c.Floats())
	}
	return m, nil
}

// replaceColumns writes column j of m back into ds under names[j].
func replaceColumns(ds *dataset.Dataset, names []string, m mat.Matrix) (*dataset.Dataset, error) {
	r, _ := m.Dims()
	out := ds
	for j, name := range names {
		values := make([]float64, r)
		mat.Col(values, j, m)
		var err error
		if out, err = out.WithColumn(dataset.NewNumericColumn(name, values, nil)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func cloneNames(features []string) []string { return slices.Clone(features) }
