package labels

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BaselineKey is the reserved model key under which the smoothed baseline series is supplied.
const BaselineKey = "final_smoothed_values"

var defaultDisplayNames = map[string]string{
	"prophet":       "Prophet",
	"random_forest": "Rf",
	"rf":            "Rf",
	"xgboost":       "Xgb",
	"xgb":           "Xgb",
	"sarimax":       "Sarimax",
	"var":           "Var",
	BaselineKey:     "Final_smoothed_values",
}

var reservedKeys = []string{"train", "test", "debug", BaselineKey}

var defaultRegistry = NewRegistry(nil)

// Registry maps model keys to display labels and knows which keys are reserved.
// It is immutable once built and safe for concurrent use.
type Registry struct {
	names    map[string]string
	reserved map[string]struct{}
}

// NewRegistry builds a registry from the built-in display names, overlaid with
// extra (keys are normalised with NormalizeKey; blank entries are ignored).
func NewRegistry(extra map[string]string) *Registry {
	r := &Registry{
		names:    make(map[string]string, len(defaultDisplayNames)+len(extra)),
		reserved: make(map[string]struct{}, len(reservedKeys)),
	}
	for k, v := range defaultDisplayNames {
		r.names[k] = v
	}
	for k, v := range extra {
		key, name := NormalizeKey(k), strings.TrimSpace(v)
		if key == "" || name == "" {
			continue
		}
		r.names[key] = name
	}
	for _, k := range reservedKeys {
		r.reserved[k] = struct{}{}
	}
	return r
}

// DefaultRegistry returns the registry holding only the built-in display names.
func DefaultRegistry() *Registry { return defaultRegistry }

// NormalizeKey trims and lower-cases a model key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// IsBaseline reports whether key names the baseline series.
func IsBaseline(key string) bool {
	return NormalizeKey(key) == BaselineKey
}

// Reserved reports whether key is excluded from forecast consolidation.
func (r *Registry) Reserved(key string) bool {
	_, ok := r.reserved[NormalizeKey(key)]
	return ok
}

// DisplayName resolves the human-facing label for key. Unknown keys are title-cased.
func (r *Registry) DisplayName(key string) string {
	if name, ok := r.names[NormalizeKey(key)]; ok {
		return name
	}
	return titleWords(strings.TrimSpace(key))
}

// titleWords title-cases every run of letters independently, so "holt_winters"
// becomes "Holt_Winters" and "arima2x" becomes "Arima2X".
func titleWords(s string) string {
	// A cases.Caser must not be shared between goroutines.
	caser := cases.Title(language.English)
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
			if start < 0 {
				start = i
			}
		case start >= 0:
			b.WriteString(caser.String(s[start:i]))
			b.WriteRune(r)
			start = -1
		default:
			b.WriteRune(r)
		}
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}
