package table

import "github.com/okian/consolidator/internal/domain/coerce"

// Mean accumulates an arithmetic mean. The zero value is ready to use.
type Mean struct {
	sum float64
	n   int
}

// Add includes v in the mean.
func (m *Mean) Add(v float64) {
	m.sum += v
	m.n++
}

// Count returns how many values were added.
func (m *Mean) Count() int { return m.n }

// Value returns the mean, or false when nothing was added.
func (m *Mean) Value() (float64, bool) {
	if m.n == 0 {
		return 0, false
	}
	return m.sum / float64(m.n), true
}

// RowMean averages the numeric cells of a row, skipping the excluded columns.
// Cells that do not coerce to a number are ignored. ok is false when no cell counted.
func (t *Table) RowMean(row int, exclude ...string) (float64, bool) {
	if t == nil || row < 0 || row >= len(t.rows) {
		return 0, false
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, c := range exclude {
		skip[c] = struct{}{}
	}
	var m Mean
	for i, c := range t.columns {
		if _, ok := skip[c]; ok {
			continue
		}
		if v, ok := coerce.Float(t.rows[row][i]); ok {
			m.Add(v)
		}
	}
	return m.Value()
}
