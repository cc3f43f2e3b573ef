// Package coerce converts loosely typed table cells into dates and numbers.
//
// Every function follows the same rule: a cell that cannot be converted is
// reported as missing (ok == false), never as an error. Callers drop the row.
package coerce

import (
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Float converts a cell to a float64. nil, booleans, NaN,
// blank strings and non-numeric strings are missing.
func Float(v any) (float64, bool) {
	v = deref(v)
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), !math.IsNaN(float64(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(s)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}

	if f, err := cast.ToFloat64E(v); err == nil {
		return f, !math.IsNaN(f)
	}

	// Named numeric types (units.Percent and friends) fall through cast's type switch.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

// extraDateLayouts are tried, in order, after cast has rejected a string.
var extraDateLayouts = []string{
	"2006-01",
	"2006/01/02",
	"2006/01",
	"01/02/2006",
	"20060102",
}

// Time converts a cell to a time. Accepts time.Time and date strings in the
// formats cast understands (ISO dates, RFC3339, "2006-01-02 15:04:05", ...)
// plus year-month, slashed and compact dates. Numbers are not treated as epochs.
func Time(v any) (time.Time, bool) {
	v = deref(v)
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		if t, err := cast.StringToDate(s); err == nil {
			return t, true
		}
		for _, layout := range extraDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	return time.Time{}, false
}

// Int converts a cell to an int, truncating fractional numbers.
func Int(v any) (int, bool) {
	f, ok := Float(v)
	if !ok || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}
