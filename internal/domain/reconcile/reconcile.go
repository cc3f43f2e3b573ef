// Package reconcile writes the baseline series into the baseline row of the
// wide forecast table, converting it from percent to fraction and
// re-deriving the row's average.
package reconcile

import (
	"strings"

	"github.com/okian/consolidator/internal/domain/coerce"
	"github.com/okian/consolidator/internal/domain/labels"
	"github.com/okian/consolidator/internal/domain/table"
	"github.com/okian/consolidator/internal/domain/units"
)

const (
	colModel = "Model"
	colAvg   = "Avg"
	colYear  = "Year"
)

// Outcome names the path Fill took. Everything except OutcomeFilled is a no-op.
type Outcome string

const (
	OutcomeFilled         Outcome = "filled"
	OutcomeEmptyInput     Outcome = "empty_input"
	OutcomeNoModelColumn  Outcome = "no_model_column"
	OutcomeNoBaselineRow  Outcome = "no_baseline_row"
	OutcomeNoYear         Outcome = "no_year"
	OutcomeNoMonthColumns Outcome = "no_month_columns"
)

// Report describes one Fill call.
type Report struct {
	Outcome     Outcome
	RowsMatched int
	CellsFilled int
	// CellsDropped counts baseline cells (or whole years) that were not numeric.
	CellsDropped int
}

// Reconciler fills the baseline row. It is safe for concurrent use.
type Reconciler struct {
	matcher *labels.Matcher
}

// New creates a Reconciler recognising the canonical baseline label and its known truncation.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{matcher: labels.NewBaselineMatcher()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fill returns a copy of wide whose baseline row carries the baseline values
// (percent / 100) for every month label both tables share, with Avg
// recomputed. Rows other than the baseline row are untouched. When a
// precondition fails the copy is returned unchanged and the Report says why.
func (r *Reconciler) Fill(wide, baseline *table.Table) (*table.Table, Report) {
	switch {
	case wide.Empty():
		return wide.Clone(), Report{Outcome: OutcomeEmptyInput}
	case !wide.Has(colModel):
		return wide.Clone(), Report{Outcome: OutcomeNoModelColumn}
	case baseline.Empty():
		return wide.Clone(), Report{Outcome: OutcomeEmptyInput}
	}

	rows := r.baselineRows(wide)
	if len(rows) == 0 {
		return wide.Clone(), Report{Outcome: OutcomeNoBaselineRow}
	}

	base, yearCol, ok := withYearColumn(baseline)
	if !ok {
		return wide.Clone(), Report{Outcome: OutcomeNoYear, RowsMatched: len(rows)}
	}

	monthCols := monthColumns(base)
	if len(monthCols) == 0 {
		return wide.Clone(), Report{Outcome: OutcomeNoMonthColumns, RowsMatched: len(rows)}
	}

	lookup, dropped := meltBaseline(base, yearCol, monthCols)

	out := wide.Clone()
	report := Report{Outcome: OutcomeFilled, RowsMatched: len(rows), CellsDropped: dropped}
	for _, col := range out.Columns() {
		if col == colModel {
			continue
		}
		pct, ok := lookup[col]
		if !ok {
			continue
		}
		frac := pct.Fraction().Float64()
		for _, row := range rows {
			_ = out.Set(row, col, frac)
			report.CellsFilled++
		}
	}

	if out.Has(colAvg) {
		for _, row := range rows {
			if avg, ok := out.RowMean(row, colModel, colAvg); ok {
				_ = out.Set(row, colAvg, avg)
			} else {
				_ = out.Set(row, colAvg, nil)
			}
		}
	}
	return out, report
}

// baselineRows returns the indices of the rows whose Model label matches a baseline rule.
func (r *Reconciler) baselineRows(wide *table.Table) []int {
	var rows []int
	for i := 0; i < wide.Len(); i++ {
		v, _ := wide.Value(i, colModel)
		if r.matcher.MatchCell(v) != labels.MatchNone {
			rows = append(rows, i)
		}
	}
	return rows
}

// withYearColumn returns the baseline with Year as an ordinary column,
// promoting it from the row-label axis when needed.
func withYearColumn(base *table.Table) (*table.Table, string, bool) {
	if base.Has(colYear) {
		return base, colYear, true
	}
	for _, c := range base.Columns() {
		if strings.EqualFold(strings.TrimSpace(c), colYear) {
			return base, c, true
		}
	}
	if idx := base.Index(); idx != nil && strings.EqualFold(strings.TrimSpace(idx.Name), colYear) {
		promoted, err := base.ResetIndex()
		if err != nil {
			return nil, "", false
		}
		return promoted, idx.Name, true
	}
	return nil, "", false
}

// monthColumn pairs a baseline column with the abbreviation it normalises to.
type monthColumn struct {
	source string
	abbrev string
}

func monthColumns(base *table.Table) []monthColumn {
	var out []monthColumn
	for _, c := range base.Columns() {
		if abbrev, ok := labels.MonthColumn(c); ok {
			out = append(out, monthColumn{source: c, abbrev: abbrev})
		}
	}
	return out
}

// meltBaseline reshapes the Year x Month table into a month-label lookup,
// averaging labels that occur more than once.
func meltBaseline(base *table.Table, yearCol string, monthCols []monthColumn) (map[string]units.Percent, int) {
	means := make(map[string]*table.Mean)
	dropped := 0
	for i := 0; i < base.Len(); i++ {
		yv, _ := base.Value(i, yearCol)
		year, ok := coerce.Int(yv)
		if !ok {
			dropped += len(monthCols)
			continue
		}
		for _, mc := range monthCols {
			cell, _ := base.Value(i, mc.source)
			v, ok := coerce.Float(cell)
			if !ok {
				dropped++
				continue
			}
			label := labels.LabelFor(year, mc.abbrev)
			m, ok := means[label]
			if !ok {
				m = &table.Mean{}
				means[label] = m
			}
			m.Add(v)
		}
	}

	lookup := make(map[string]units.Percent, len(means))
	for label, m := range means {
		v, _ := m.Value()
		lookup[label] = units.Percent(v)
	}
	return lookup, dropped
}
