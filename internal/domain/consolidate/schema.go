package consolidate

import (
	"strings"

	"github.com/okian/consolidator/internal/domain/table"
)

// Canonical column names.
const (
	ColModel      = "Model"
	ColMonth      = "Month"
	ColMonthLabel = "MonthLabel"
	ColForecast   = "Forecast"
	ColAvg        = "Avg"
	ColYear       = "Year"
	ColDate       = "Date"
	ColSmoothed   = "Final_Smoothed_Value"
)

// Alias maps accepted raw column names onto one canonical column.
type Alias struct {
	Canonical string
	Names     []string
}

// ColumnAliases is a declarative rename table applied before schema validation.
// Names are compared case-insensitively with surrounding space ignored; the
// canonical name itself is tried first, then Names in order.
type ColumnAliases []Alias

// ForecastAliases covers the shapes emitted by the forecasting models, e.g.
// Prophet's ds/yhat.
func ForecastAliases() ColumnAliases {
	return ColumnAliases{
		{Canonical: ColMonth, Names: []string{"ds", "date"}},
		{Canonical: ColForecast, Names: []string{"yhat"}},
	}
}

// BaselineAliases covers the smoothing collaborator's table.
func BaselineAliases() ColumnAliases {
	return ColumnAliases{
		{Canonical: ColDate, Names: []string{"ds"}},
		{Canonical: ColSmoothed, Names: []string{"final_smoothed_values", "smoothed"}},
	}
}

// With returns a copy with names appended to canonical's alias list.
func (a ColumnAliases) With(canonical string, names ...string) ColumnAliases {
	out := make(ColumnAliases, 0, len(a)+1)
	found := false
	for _, al := range a {
		al.Names = append([]string(nil), al.Names...)
		if al.Canonical == canonical {
			al.Names = append(al.Names, names...)
			found = true
		}
		out = append(out, al)
	}
	if !found {
		out = append(out, Alias{Canonical: canonical, Names: append([]string(nil), names...)})
	}
	return out
}

// Normalize returns a copy of t with the first matching raw column of each
// alias renamed to its canonical name. A column already spelled exactly as
// the canonical name is left alone.
func (a ColumnAliases) Normalize(t *table.Table) (*table.Table, error) {
	columns := t.Columns()
	taken := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		taken[c] = struct{}{}
	}

	rename := make(map[string]string)
	for _, al := range a {
		if _, ok := taken[al.Canonical]; ok {
			continue
		}
		if src, ok := findColumn(columns, rename, append([]string{al.Canonical}, al.Names...)); ok {
			rename[src] = al.Canonical
			taken[al.Canonical] = struct{}{}
		}
	}
	if len(rename) == 0 {
		return t.Clone(), nil
	}
	return t.Rename(rename)
}

// Satisfied reports whether every canonical column is present in t.
func (a ColumnAliases) Satisfied(t *table.Table) bool {
	for _, al := range a {
		if !t.Has(al.Canonical) {
			return false
		}
	}
	return true
}

func findColumn(columns []string, claimed map[string]string, names []string) (string, bool) {
	for _, name := range names {
		want := strings.ToLower(strings.TrimSpace(name))
		for _, c := range columns {
			if _, used := claimed[c]; used {
				continue
			}
			if strings.ToLower(strings.TrimSpace(c)) == want {
				return c, true
			}
		}
	}
	return "", false
}
