package dataset

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/regpipe/pkg/errors"
)

func sample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := New(
		NewNumericColumn("age", []float64{31, math.NaN(), 45, 22}, nil),
		NewCategoricalColumn("city", []string{"tokyo", "osaka", "", "tokyo"}, []bool{true, true, false, true}),
		NewNumericColumn("price", []float64{100, 200, 300, 400}, nil),
	)
	require.NoError(t, err)
	return ds
}

func TestNew_Validation(t *testing.T) {
	_, err := New(
		NewNumericColumn("a", []float64{1, 2}, nil),
		NewNumericColumn("b", []float64{1}, nil),
	)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr), "length mismatch should be a DimensionError: %v", err)

	_, err = New(
		NewNumericColumn("a", []float64{1}, nil),
		NewNumericColumn("a", []float64{2}, nil),
	)
	assert.Error(t, err)
}

func TestDataset_Kinds(t *testing.T) {
	ds := sample(t)

	assert.Equal(t, 4, ds.NumRows())
	assert.Equal(t, 3, ds.NumCols())
	assert.Equal(t, []string{"age", "price"}, ds.NumericColumns())
	assert.Equal(t, []string{"city"}, ds.CategoricalColumns())
	assert.Equal(t, 2, ds.NullCount())
	assert.Equal(t, map[string]int{"age": 1, "city": 1}, ds.NullCounts())

	age, ok := ds.Column("age")
	require.True(t, ok)
	assert.Equal(t, Numeric, age.Kind())
	assert.Equal(t, []float64{31, 45, 22}, age.NonNullFloats())
	_, ok = age.Float(1)
	assert.False(t, ok)
}

func TestDataset_Immutable(t *testing.T) {
	ds := sample(t)

	dropped, err := ds.Drop("city")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "price"}, dropped.Names())
	assert.Equal(t, 3, ds.NumCols(), "Drop must not change the receiver")

	replaced, err := ds.WithColumn(NewNumericColumn("price", []float64{1, 2, 3, 4}, nil))
	require.NoError(t, err)
	assert.Equal(t, ds.Names(), replaced.Names(), "replacement keeps column position")
	orig, _ := ds.Column("price")
	assert.Equal(t, []float64{100, 200, 300, 400}, orig.Floats())

	_, err = ds.Drop("missing")
	assert.Error(t, err)
}

func TestDataset_TakeAndFilter(t *testing.T) {
	ds := sample(t)

	taken, err := ds.Take([]int{3, 0})
	require.NoError(t, err)
	price, _ := taken.Column("price")
	assert.Equal(t, []float64{400, 100}, price.Floats())
	city, _ := taken.Column("city")
	assert.Equal(t, []string{"tokyo", "tokyo"}, city.Strings())

	filtered, err := ds.Filter([]bool{false, true, true, false})
	require.NoError(t, err)
	assert.Equal(t, 2, filtered.NumRows())
	assert.Equal(t, 2, filtered.NullCount(), "nulls survive Take")

	_, err = ds.Take([]int{10})
	assert.Error(t, err)
}

func TestDataset_Matrix(t *testing.T) {
	ds := sample(t)

	m, err := ds.Matrix("price")
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, 300.0, m.At(2, 0))

	var typeErr *errors.InputTypeError
	_, err = ds.Matrix("city")
	assert.True(t, errors.As(err, &typeErr), "categorical column: %v", err)
	_, err = ds.Matrix("age")
	assert.True(t, errors.As(err, &typeErr), "column with nulls: %v", err)

	v, err := ds.Vector("price")
	require.NoError(t, err)
	assert.Equal(t, 4, v.Len())
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"age,gender,income,score",
		"31,M,1000,NA",
		"N/A,F,2000,nan",
		"45,None,abc,null",
		"22,F,4000,",
	}, "\n")

	ds, err := ReadCSV(strings.NewReader(input), DefaultCSVOptions())
	require.NoError(t, err)

	assert.Equal(t, 4, ds.NumRows())
	assert.Equal(t, []string{"age", "score"}, ds.NumericColumns(), "an all-null column is numeric")
	assert.Equal(t, []string{"gender", "income"}, ds.CategoricalColumns())

	age, _ := ds.Column("age")
	assert.Equal(t, 1, age.NullCount())
	gender, _ := ds.Column("gender")
	assert.True(t, gender.IsNull(2))
	score, _ := ds.Column("score")
	assert.Equal(t, 4, score.NullCount())
}

func TestReadCSV_Options(t *testing.T) {
	input := "a;b\n1;x\n-;y\n"
	ds, err := ReadCSV(strings.NewReader(input), CSVOptions{Delimiter: ';', NATokens: []string{"-"}})
	require.NoError(t, err)

	a, _ := ds.Column("a")
	assert.Equal(t, Numeric, a.Kind())
	assert.True(t, a.IsNull(1))

	_, err = ReadCSV(strings.NewReader(""), DefaultCSVOptions())
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	ds := sample(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))
	assert.True(t, strings.HasPrefix(buf.String(), "age,city,price\n31,tokyo,100\n,osaka,200\n"))

	back, err := ReadCSV(&buf, DefaultCSVOptions())
	require.NoError(t, err)
	assert.Equal(t, ds.Fingerprint(), back.Fingerprint())
}

func TestFingerprint(t *testing.T) {
	a := sample(t)
	b := sample(t)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, err := a.WithColumn(NewNumericColumn("price", []float64{100, 200, 300, 401}, nil))
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	renamed, err := New(NewNumericColumn("x", []float64{1}, nil))
	require.NoError(t, err)
	other, err := New(NewNumericColumn("y", []float64{1}, nil))
	require.NoError(t, err)
	assert.NotEqual(t, renamed.Fingerprint(), other.Fingerprint())
}
