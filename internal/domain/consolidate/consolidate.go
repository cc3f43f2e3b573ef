// Package consolidate merges per-model forecast tables into the long and wide
// reporting views and pivots the baseline series into a Year x Month table.
package consolidate

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/consolidator/internal/domain/coerce"
	"github.com/okian/consolidator/internal/domain/labels"
	"github.com/okian/consolidator/internal/domain/table"
)

// SkipReason explains why a model table contributed nothing.
type SkipReason string

const (
	SkipReserved SkipReason = "reserved"
	SkipEmpty    SkipReason = "empty"
	SkipSchema   SkipReason = "schema"
)

// Skipped records one model table that was left out.
type Skipped struct {
	Key    string
	Reason SkipReason
}

// Report describes what Process absorbed. None of it is an error.
type Report struct {
	// Models lists the display labels that reached the combined table.
	Models              []string
	Skipped             []Skipped
	ForecastRowsDropped int
	BaselineRowsDropped int
	DuplicatesMerged    int
}

// Result holds the three reporting tables. Each is a fresh table owned by the caller.
type Result struct {
	Combined *table.Table
	Wide     *table.Table
	Baseline *table.Table
	Report   Report
}

// Consolidator turns raw per-model tables into reporting tables.
// It holds only immutable configuration and is safe for concurrent use.
type Consolidator struct {
	registry        *labels.Registry
	forecastAliases ColumnAliases
	baselineAliases ColumnAliases
}

// New creates a Consolidator with the built-in registry and alias tables.
func New(opts ...Option) *Consolidator {
	c := &Consolidator{
		registry:        labels.DefaultRegistry(),
		forecastAliases: ForecastAliases(),
		baselineAliases: BaselineAliases(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type observation struct {
	model string
	month time.Time
	value float64
}

// Process consolidates raw. A nil map yields three empty tables.
func (c *Consolidator) Process(raw map[string]*table.Table) Result {
	var report Report

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var obs []observation
	models := make(map[string]struct{})
	for _, key := range keys {
		if labels.IsBaseline(key) {
			continue
		}
		if c.registry.Reserved(key) {
			report.Skipped = append(report.Skipped, Skipped{Key: key, Reason: SkipReserved})
			continue
		}
		t := raw[key]
		if t.Empty() {
			report.Skipped = append(report.Skipped, Skipped{Key: key, Reason: SkipEmpty})
			continue
		}
		norm, err := c.forecastAliases.Normalize(t)
		if err != nil || !c.forecastAliases.Satisfied(norm) {
			report.Skipped = append(report.Skipped, Skipped{Key: key, Reason: SkipSchema})
			continue
		}

		label := strings.TrimSpace(c.registry.DisplayName(key))
		months, _ := norm.Column(ColMonth)
		values, _ := norm.Column(ColForecast)
		kept := 0
		for i := range months {
			month, okMonth := coerce.Time(months[i])
			value, okValue := coerce.Float(values[i])
			if !okMonth || !okValue {
				report.ForecastRowsDropped++
				continue
			}
			obs = append(obs, observation{model: label, month: month, value: value})
			kept++
		}
		if kept > 0 {
			models[label] = struct{}{}
		}
	}

	combined, wide, merged := pivotForecasts(obs)
	report.DuplicatesMerged = merged
	for m := range models {
		report.Models = append(report.Models, m)
	}
	sort.Strings(report.Models)

	baseline, dropped := c.pivotBaseline(baselineTable(raw))
	report.BaselineRowsDropped = dropped

	return Result{Combined: combined, Wide: wide, Baseline: baseline, Report: report}
}

type cellKey struct {
	model string
	label string
}

type cell struct {
	month time.Time
	mean  table.Mean
}

// pivotForecasts groups observations by (model, month label), averaging
// duplicates, and lays them out long and wide.
func pivotForecasts(obs []observation) (*table.Table, *table.Table, int) {
	combined := table.MustNew(ColModel, ColMonth, ColMonthLabel, ColForecast)
	if len(obs) == 0 {
		return combined, table.MustNew(ColModel, ColAvg), 0
	}

	cells := make(map[cellKey]*cell)
	firstMonth := make(map[string]time.Time)
	models := make(map[string]struct{})
	for _, o := range obs {
		month := labels.MonthStart(o.month)
		k := cellKey{model: strings.TrimSpace(o.model), label: strings.TrimSpace(labels.MonthLabel(month))}
		c, ok := cells[k]
		if !ok {
			c = &cell{month: month}
			cells[k] = c
		} else if month.Before(c.month) {
			c.month = month
		}
		c.mean.Add(o.value)
		if m, seen := firstMonth[k.label]; !seen || month.Before(m) {
			firstMonth[k.label] = month
		}
		models[k.model] = struct{}{}
	}

	monthLabels := make([]string, 0, len(firstMonth))
	for l := range firstMonth {
		monthLabels = append(monthLabels, l)
	}
	sort.Slice(monthLabels, func(i, j int) bool {
		a, b := firstMonth[monthLabels[i]], firstMonth[monthLabels[j]]
		if !a.Equal(b) {
			return a.Before(b)
		}
		return monthLabels[i] < monthLabels[j]
	})

	modelNames := make([]string, 0, len(models))
	for m := range models {
		modelNames = append(modelNames, m)
	}
	sort.Strings(modelNames)

	wide := table.MustNew(append([]string{ColModel, ColAvg}, monthLabels...)...)
	for _, model := range modelNames {
		row := make([]any, 0, len(monthLabels)+2)
		row = append(row, model, nil)
		for _, l := range monthLabels {
			c, ok := cells[cellKey{model: model, label: l}]
			if !ok {
				row = append(row, nil)
				continue
			}
			v, _ := c.mean.Value()
			row = append(row, v)
			_ = combined.Append(model, c.month, l, v)
		}
		_ = wide.Append(row...)
		r := wide.Len() - 1
		if avg, ok := wide.RowMean(r, ColModel, ColAvg); ok {
			_ = wide.Set(r, ColAvg, avg)
		}
	}
	return combined, wide, len(obs) - len(cells)
}

// baselineTable finds the table supplied under the baseline key. An exact
// spelling wins over case or whitespace variants; ties go to the lexically first key.
func baselineTable(raw map[string]*table.Table) *table.Table {
	if t, ok := raw[labels.BaselineKey]; ok {
		return t
	}
	var keys []string
	for k := range raw {
		if labels.IsBaseline(k) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	return raw[keys[0]]
}

// pivotBaseline builds the Year x Month cross-tab. Months absent from the
// data get no column; there is no Avg column.
func (c *Consolidator) pivotBaseline(base *table.Table) (*table.Table, int) {
	empty := table.MustNew(ColYear)
	if base.Empty() {
		return empty, 0
	}
	norm, err := c.baselineAliases.Normalize(base)
	if err != nil || !norm.Has(ColDate) || !norm.Has(ColSmoothed) {
		return empty, base.Len()
	}

	dates, _ := norm.Column(ColDate)
	values, _ := norm.Column(ColSmoothed)
	byYear := make(map[int]map[time.Month]*table.Mean)
	var present [13]bool
	dropped := 0
	for i := range dates {
		d, okDate := coerce.Time(dates[i])
		v, okValue := coerce.Float(values[i])
		if !okDate || !okValue {
			dropped++
			continue
		}
		months, ok := byYear[d.Year()]
		if !ok {
			months = make(map[time.Month]*table.Mean)
			byYear[d.Year()] = months
		}
		m, ok := months[d.Month()]
		if !ok {
			m = &table.Mean{}
			months[d.Month()] = m
		}
		m.Add(v)
		present[d.Month()] = true
	}
	if len(byYear) == 0 {
		return empty, dropped
	}

	columns := []string{ColYear}
	var order []time.Month
	for m := time.January; m <= time.December; m++ {
		if present[m] {
			columns = append(columns, labels.Abbrev(m))
			order = append(order, m)
		}
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	pivot := table.MustNew(columns...)
	for _, y := range years {
		row := make([]any, 0, len(columns))
		row = append(row, y)
		for _, m := range order {
			if mean, ok := byYear[y][m]; ok {
				v, _ := mean.Value()
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		_ = pivot.Append(row...)
	}
	return pivot, dropped
}
