package features

import (
	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// LabelEncodingStrategy replaces each categorical feature with the integer
// code of its value among the sorted categories.
type LabelEncodingStrategy struct {
	Columns []string
}

func (LabelEncodingStrategy) featureStrategy() {}

// Features implements Strategy.
func (s LabelEncodingStrategy) Features() []string { return cloneNames(s.Columns) }

// Fit implements Strategy.
func (s LabelEncodingStrategy) Fit(ds *dataset.Dataset) (Fitted, error) {
	const op = "LabelEncodingStrategy.Fit"
	cols, err := columnsOfKind(op, ds, s.Columns, dataset.Categorical)
	if err != nil {
		return nil, err
	}

	encoders := make([]*preprocessing.LabelEncoder, len(cols))
	for j, c := range cols {
		values, err := nonNullStrings(op, c)
		if err != nil {
			return nil, err
		}
		encoders[j] = preprocessing.NewLabelEncoder()
		if err := encoders[j].Fit(values); err != nil {
			return nil, errors.Wrapf(err, "%s: column %q", op, c.Name())
		}
	}
	return labelTransform{features: cloneNames(s.Columns), encoders: encoders}, nil
}

type labelTransform struct {
	features []string
	encoders []*preprocessing.LabelEncoder
}

func (t labelTransform) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	const op = "LabelEncodingStrategy.Transform"
	cols, err := columnsOfKind(op, ds, t.features, dataset.Categorical)
	if err != nil {
		return nil, err
	}

	out := ds
	for j, c := range cols {
		values, err := nonNullStrings(op, c)
		if err != nil {
			return nil, err
		}
		codes, err := t.encoders[j].Transform(values)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: column %q", op, c.Name())
		}
		if out, err = out.WithColumn(dataset.NewNumericColumn(c.Name(), codes, nil)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// OneHotEncodingStrategy replaces each categorical feature with indicator
// columns named <feature>_<category>, one per sorted category except the
// first. Indicators are appended after the remaining columns.
type OneHotEncodingStrategy struct {
	Columns []string
}

func (OneHotEncodingStrategy) featureStrategy() {}

// Features implements Strategy.
func (s OneHotEncodingStrategy) Features() []string { return cloneNames(s.Columns) }

// Fit implements Strategy.
func (s OneHotEncodingStrategy) Fit(ds *dataset.Dataset) (Fitted, error) {
	const op = "OneHotEncodingStrategy.Fit"
	cols, err := columnsOfKind(op, ds, s.Columns, dataset.Categorical)
	if err != nil {
		return nil, err
	}

	encoders := make([]*preprocessing.OneHotEncoder, len(cols))
	for j, c := range cols {
		values, err := nonNullStrings(op, c)
		if err != nil {
			return nil, err
		}
		encoders[j] = preprocessing.NewOneHotEncoder(true)
		if err := encoders[j].Fit(values); err != nil {
			return nil, errors.Wrapf(err, "%s: column %q", op, c.Name())
		}
	}
	return oneHotTransform{features: cloneNames(s.Columns), encoders: encoders}, nil
}

type oneHotTransform struct {
	features []string
	encoders []*preprocessing.OneHotEncoder
}

func (t oneHotTransform) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	const op = "OneHotEncodingStrategy.Transform"
	cols, err := columnsOfKind(op, ds, t.features, dataset.Categorical)
	if err != nil {
		return nil, err
	}

	var indicators []*dataset.Column
	for j, c := range cols {
		values, err := nonNullStrings(op, c)
		if err != nil {
			return nil, err
		}
		m, err := t.encoders[j].Transform(values)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: column %q", op, c.Name())
		}
		if m == nil {
			continue
		}
		for k, category := range t.encoders[j].Categories() {
			indicators = append(indicators,
				dataset.NewNumericColumn(c.Name()+"_"+category, mat.Col(nil, k, m), nil))
		}
	}

	out, err := ds.Drop(t.features...)
	if err != nil {
		return nil, err
	}
	for _, col := range indicators {
		if out.Has(col.Name()) {
			return nil, errors.NewValueErrorf(op, "indicator column %q collides with an existing column", col.Name())
		}
		if out, err = out.WithColumn(col); err != nil {
			return nil, err
		}
	}
	return out, nil
}
