package dataset

import (
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Kind classifies a column by its Arrow type.
type Kind int

const (
	// Numeric columns are float64 arrays.
	Numeric Kind = iota
	// Categorical columns are utf8 arrays.
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Arrays are never released explicitly: columns are shared freely between
// datasets and the Go allocator leaves reclamation to the garbage collector.
var mem memory.Allocator = memory.NewGoAllocator()

// Column is a named, immutable Arrow array. Nulls live in the validity bitmap.
type Column struct {
	name string
	arr  arrow.Array
}

// NewNumericColumn builds a float64 column. When valid is nil a NaN value is
// stored as null; otherwise valid[i] == false marks row i null.
func NewNumericColumn(name string, values []float64, valid []bool) *Column {
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.Reserve(len(values))

	for i, v := range values {
		isNull := math.IsNaN(v)
		if valid != nil {
			isNull = !valid[i]
		}
		if isNull {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	return &Column{name: name, arr: b.NewArray()}
}

// NewCategoricalColumn builds a utf8 column. When valid is nil every value
// is non-null.
func NewCategoricalColumn(name string, values []string, valid []bool) *Column {
	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.Reserve(len(values))

	for i, v := range values {
		if valid != nil && !valid[i] {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	return &Column{name: name, arr: b.NewArray()}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Len returns the number of rows.
func (c *Column) Len() int { return c.arr.Len() }

// Kind derives the column kind from the stored array.
func (c *Column) Kind() Kind {
	if c.arr.DataType().ID() == arrow.FLOAT64 {
		return Numeric
	}
	return Categorical
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int { return c.arr.NullN() }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool { return c.arr.IsNull(i) }

// Float returns the value at row i of a numeric column. ok is false for a
// null cell or a categorical column.
func (c *Column) Float(i int) (v float64, ok bool) {
	f, isFloat := c.arr.(*array.Float64)
	if !isFloat || f.IsNull(i) {
		return 0, false
	}
	return f.Value(i), true
}

// Text returns the value at row i as a string. Numeric values are
// formatted with the shortest representation. ok is false for a null cell.
func (c *Column) Text(i int) (s string, ok bool) {
	if c.arr.IsNull(i) {
		return "", false
	}
	switch a := c.arr.(type) {
	case *array.String:
		return a.Value(i), true
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'g', -1, 64), true
	}
	return "", false
}

// Floats copies a numeric column into a slice with NaN at null cells.
// A categorical column yields nil.
func (c *Column) Floats() []float64 {
	f, ok := c.arr.(*array.Float64)
	if !ok {
		return nil
	}
	out := make([]float64, f.Len())
	for i := range out {
		if f.IsNull(i) {
			out[i] = math.NaN()
			continue
		}
		out[i] = f.Value(i)
	}
	return out
}

// Strings copies the column as strings; null cells are "".
func (c *Column) Strings() []string {
	out := make([]string, c.Len())
	for i := range out {
		out[i], _ = c.Text(i)
	}
	return out
}

// Valid returns the validity of every row.
func (c *Column) Valid() []bool {
	out := make([]bool, c.Len())
	for i := range out {
		out[i] = c.arr.IsValid(i)
	}
	return out
}

// NonNullFloats returns the non-null values of a numeric column in row order.
func (c *Column) NonNullFloats() []float64 {
	f, ok := c.arr.(*array.Float64)
	if !ok {
		return nil
	}
	out := make([]float64, 0, f.Len()-f.NullN())
	for i := 0; i < f.Len(); i++ {
		if f.IsValid(i) {
			out = append(out, f.Value(i))
		}
	}
	return out
}

// NonNullStrings returns the non-null values of the column in row order.
func (c *Column) NonNullStrings() []string {
	out := make([]string, 0, c.Len()-c.NullCount())
	for i := 0; i < c.Len(); i++ {
		if s, ok := c.Text(i); ok {
			out = append(out, s)
		}
	}
	return out
}

// Rename returns the same data under a new name.
func (c *Column) Rename(name string) *Column {
	return &Column{name: name, arr: c.arr}
}

// Array returns the underlying Arrow array. Arrays are allocated from the Go
// allocator and shared between datasets, so callers must not Release it.
func (c *Column) Array() arrow.Array {
	return c.arr
}

// take gathers rows in the given order into a new column.
func (c *Column) take(rows []int) *Column {
	switch a := c.arr.(type) {
	case *array.Float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.Reserve(len(rows))
		for _, r := range rows {
			if a.IsNull(r) {
				b.AppendNull()
				continue
			}
			b.Append(a.Value(r))
		}
		return &Column{name: c.name, arr: b.NewArray()}
	default:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.Reserve(len(rows))
		for _, r := range rows {
			s, ok := c.Text(r)
			if !ok {
				b.AppendNull()
				continue
			}
			b.Append(s)
		}
		return &Column{name: c.name, arr: b.NewArray()}
	}
}
