package preprocessing

import (
	"slices"

	"github.com/YuminosukeSato/regpipe/core/model"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LabelEncoder maps each category to its index in the sorted list of
// categories seen during Fit.
type LabelEncoder struct {
	state   *model.StateManager
	classes []string
	index   map[string]int
}

// NewLabelEncoder creates an unfitted LabelEncoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{state: model.NewStateManager()}
}

// Fit learns the sorted set of distinct values.
func (e *LabelEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	e.classes = uniqueSorted(values)
	e.index = make(map[string]int, len(e.classes))
	for i, c := range e.classes {
		e.index[c] = i
	}
	e.state.SetDimensions(1, len(values))
	e.state.SetFitted()
	return nil
}

// Transform returns the integer code of each value. A value not seen
// during Fit is a ValueError.
func (e *LabelEncoder) Transform(values []string) ([]float64, error) {
	if err := e.state.RequireFitted("LabelEncoder", "Transform"); err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		code, ok := e.index[v]
		if !ok {
			return nil, errors.NewValueErrorf("LabelEncoder.Transform", "y contains previously unseen label %q", v)
		}
		out[i] = float64(code)
	}
	return out, nil
}

// FitTransform fits and transforms values in one call.
func (e *LabelEncoder) FitTransform(values []string) ([]float64, error) {
	if err := e.Fit(values); err != nil {
		return nil, err
	}
	return e.Transform(values)
}

// Classes returns the sorted categories.
func (e *LabelEncoder) Classes() []string {
	return slices.Clone(e.classes)
}

// OneHotEncoder expands one categorical column into indicator columns, one
// per sorted category. With DropFirst the first category is omitted so the
// indicators are not collinear with an intercept.
type OneHotEncoder struct {
	DropFirst bool

	state      *model.StateManager
	categories []string
	index      map[string]int
}

// NewOneHotEncoder creates an unfitted OneHotEncoder.
func NewOneHotEncoder(dropFirst bool) *OneHotEncoder {
	return &OneHotEncoder{DropFirst: dropFirst, state: model.NewStateManager()}
}

// Fit learns the sorted categories.
func (e *OneHotEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	e.categories = uniqueSorted(values)
	e.index = make(map[string]int, len(e.categories))
	for i, c := range e.categories {
		e.index[c] = i
	}
	e.state.SetDimensions(1, len(values))
	e.state.SetFitted()
	return nil
}

// Categories returns the categories that receive an output column, in
// column order.
func (e *OneHotEncoder) Categories() []string {
	if e.DropFirst && len(e.categories) > 0 {
		return slices.Clone(e.categories[1:])
	}
	return slices.Clone(e.categories)
}

// Transform returns an n × k indicator matrix where k is len(Categories()).
// With DropFirst and a single category k is zero and nil is returned.
func (e *OneHotEncoder) Transform(values []string) (*mat.Dense, error) {
	if err := e.state.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}

	offset := 0
	if e.DropFirst {
		offset = 1
	}
	k := len(e.categories) - offset
	if k == 0 || len(values) == 0 {
		for _, v := range values {
			if _, ok := e.index[v]; !ok {
				return nil, errors.NewValueErrorf("OneHotEncoder.Transform", "found unknown category %q", v)
			}
		}
		return nil, nil
	}

	out := mat.NewDense(len(values), k, nil)
	for i, v := range values {
		idx, ok := e.index[v]
		if !ok {
			return nil, errors.NewValueErrorf("OneHotEncoder.Transform", "found unknown category %q", v)
		}
		if idx-offset >= 0 {
			out.Set(i, idx-offset, 1)
		}
	}
	return out, nil
}

func uniqueSorted(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
