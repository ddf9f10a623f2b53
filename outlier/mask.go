package outlier

import "slices"

// Mask flags individual cells of the numeric columns of a dataset.
type Mask struct {
	rows    int
	columns []string
	flags   map[string][]bool
}

func newMask(rows int) Mask {
	return Mask{rows: rows, flags: make(map[string][]bool)}
}

func (m *Mask) set(column string, flags []bool) {
	m.columns = append(m.columns, column)
	m.flags[column] = flags
}

// NumRows returns the number of rows the mask covers.
func (m Mask) NumRows() int { return m.rows }

// Columns returns the examined column names.
func (m Mask) Columns() []string { return slices.Clone(m.columns) }

// Column returns a copy of the flags for one column, or nil when the column
// was not examined.
func (m Mask) Column(name string) []bool {
	return slices.Clone(m.flags[name])
}

// Any reports whether at least one cell is flagged.
func (m Mask) Any() bool {
	return m.Count() > 0
}

// Count returns the number of flagged cells.
func (m Mask) Count() int {
	n := 0
	for _, flags := range m.flags {
		for _, f := range flags {
			if f {
				n++
			}
		}
	}
	return n
}

// RowFlagged reports whether any cell of row i is flagged.
func (m Mask) RowFlagged(i int) bool {
	for _, flags := range m.flags {
		if flags[i] {
			return true
		}
	}
	return false
}

// FlaggedRows returns the indices of rows with at least one flagged cell.
func (m Mask) FlaggedRows() []int {
	var out []int
	for i := 0; i < m.rows; i++ {
		if m.RowFlagged(i) {
			out = append(out, i)
		}
	}
	return out
}
