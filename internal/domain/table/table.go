// Package table provides the column-ordered in-memory table exchanged between
// the consolidation and reconciliation stages.
//
// A Table owns its cells: every constructor and transformation returns a new
// Table and never aliases the rows of its receiver or of caller-supplied data.
// Empty cells are nil.
package table

import (
	"fmt"
	"sort"
)

// Index is an optional row-label axis, the equivalent of a named row index.
type Index struct {
	Name   string
	Labels []any
}

// Table is a rectangular, column-ordered set of rows.
type Table struct {
	columns []string
	lookup  map[string]int
	rows    [][]any
	index   *Index
}

// New creates an empty table with the given columns.
func New(columns ...string) (*Table, error) {
	t := &Table{
		columns: make([]string, 0, len(columns)),
		lookup:  make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if _, exists := t.lookup[c]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		t.lookup[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// MustNew is like New but panics on duplicate columns. Intended for fixed schemas.
func MustNew(columns ...string) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds a table from unordered records. Columns are the union of
// all record keys in lexical order; keys missing from a record become nil cells.
func FromRecords(records []map[string]any) *Table {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	t := MustNew(columns...)
	for _, rec := range records {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = rec[c]
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Empty reports whether the table is nil or has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Has reports whether the column exists.
func (t *Table) Has(column string) bool {
	if t == nil {
		return false
	}
	_, ok := t.lookup[column]
	return ok
}

// Append adds a row. The number of values must match the number of columns.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrRowWidth, len(values), len(t.columns))
	}
	row := make([]any, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	if t.index != nil {
		t.index.Labels = append(t.index.Labels, nil)
	}
	return nil
}

// AppendRecord adds a row from a record. Unknown keys are rejected; missing keys are nil.
func (t *Table) AppendRecord(record map[string]any) error {
	row := make([]any, len(t.columns))
	for k, v := range record {
		i, ok := t.lookup[k]
		if !ok {
			return fmt.Errorf("%w: %q", ErrColumnNotFound, k)
		}
		row[i] = v
	}
	t.rows = append(t.rows, row)
	if t.index != nil {
		t.index.Labels = append(t.index.Labels, nil)
	}
	return nil
}

// Value returns the cell at (row, column). ok is false when either is unknown.
func (t *Table) Value(row int, column string) (any, bool) {
	if t == nil || row < 0 || row >= len(t.rows) {
		return nil, false
	}
	i, ok := t.lookup[column]
	if !ok {
		return nil, false
	}
	return t.rows[row][i], true
}

// Set overwrites the cell at (row, column).
func (t *Table) Set(row int, column string, v any) error {
	if row < 0 || row >= t.Len() {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	i, ok := t.lookup[column]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	t.rows[row][i] = v
	return nil
}

// Row returns a copy of the cells of a row in column order.
func (t *Table) Row(row int) []any {
	if t == nil || row < 0 || row >= len(t.rows) {
		return nil
	}
	out := make([]any, len(t.rows[row]))
	copy(out, t.rows[row])
	return out
}

// Record returns a row keyed by column name.
func (t *Table) Record(row int) map[string]any {
	if t == nil || row < 0 || row >= len(t.rows) {
		return nil
	}
	out := make(map[string]any, len(t.columns))
	for i, c := range t.columns {
		out[c] = t.rows[row][i]
	}
	return out
}

// Records returns every row keyed by column name.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		out = append(out, t.Record(i))
	}
	return out
}

// Column returns a copy of one column's cells.
func (t *Table) Column(column string) ([]any, error) {
	if !t.Has(column) {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	i := t.lookup[column]
	out := make([]any, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Clone returns a deep copy of the table structure. Cell values are copied by value.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := MustNew(t.columns...)
	out.rows = make([][]any, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = make([]any, len(row))
		copy(out.rows[i], row)
	}
	if t.index != nil {
		out.index = &Index{Name: t.index.Name, Labels: append([]any(nil), t.index.Labels...)}
	}
	return out
}

// Rename returns a copy with columns renamed according to mapping.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	if t == nil {
		return nil, nil
	}
	columns := t.Columns()
	for i, c := range columns {
		if to, ok := mapping[c]; ok {
			columns[i] = to
		}
	}
	out, err := New(columns...)
	if err != nil {
		return nil, err
	}
	src := t.Clone()
	out.rows = src.rows
	out.index = src.index
	return out, nil
}

// Select returns a copy restricted to the given columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	if t == nil {
		if len(columns) > 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, columns[0])
		}
		return New()
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := t.lookup[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, c)
		}
		idx[i] = j
	}
	out, err := New(columns...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]any, len(t.rows))
	for r, row := range t.rows {
		out.rows[r] = make([]any, len(idx))
		for i, j := range idx {
			out.rows[r][i] = row[j]
		}
	}
	if t.index != nil {
		out.index = &Index{Name: t.index.Name, Labels: append([]any(nil), t.index.Labels...)}
	}
	return out, nil
}

// Index returns a copy of the row-label axis, or nil when the table has none.
func (t *Table) Index() *Index {
	if t == nil || t.index == nil {
		return nil
	}
	return &Index{Name: t.index.Name, Labels: append([]any(nil), t.index.Labels...)}
}

// SetIndex returns a copy with column moved out of the columns and onto the row-label axis.
func (t *Table) SetIndex(column string) (*Table, error) {
	labels, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	rest := make([]string, 0, len(t.columns)-1)
	for _, c := range t.columns {
		if c != column {
			rest = append(rest, c)
		}
	}
	out, err := t.Select(rest...)
	if err != nil {
		return nil, err
	}
	out.index = &Index{Name: column, Labels: labels}
	return out, nil
}

// ResetIndex returns a copy with the row-label axis promoted to the first column.
// A table without an index is returned as a plain copy.
func (t *Table) ResetIndex() (*Table, error) {
	if t == nil {
		return nil, nil
	}
	if t.index == nil {
		return t.Clone(), nil
	}
	out, err := New(append([]string{t.index.Name}, t.columns...)...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]any, len(t.rows))
	for r, row := range t.rows {
		cells := make([]any, 0, len(row)+1)
		cells = append(cells, t.index.Labels[r])
		cells = append(cells, row...)
		out.rows[r] = cells
	}
	return out, nil
}
