// Package labels holds the string conventions shared by the consolidation and
// reconciliation stages: month labels, model display names and the rules used
// to recognise the baseline row.
package labels

import (
	"fmt"
	"strings"
	"time"
)

// monthLabelLayout renders "Jan-24".
const monthLabelLayout = "Jan-06"

var abbreviations = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var fullNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Never treated as month columns, whatever they look like.
var nonMonthColumns = map[string]struct{}{
	"year": {}, "model": {}, "avg": {}, "average": {}, "total": {},
}

// Abbreviations returns the twelve 3-letter month abbreviations in calendar order.
func Abbreviations() []string {
	out := make([]string, len(abbreviations))
	copy(out, abbreviations[:])
	return out
}

// Abbrev returns the 3-letter abbreviation of m.
func Abbrev(m time.Month) string {
	return abbreviations[m-1]
}

// MonthStart truncates t to midnight on the first day of its month, keeping its location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthLabel renders t as "Mon-YY".
func MonthLabel(t time.Time) string {
	return t.Format(monthLabelLayout)
}

// LabelFor renders a year and a month abbreviation (any case) as "Mon-YY".
func LabelFor(year int, month string) string {
	m := strings.ToLower(strings.TrimSpace(month))
	if len(m) > 3 {
		m = m[:3]
	}
	if m != "" {
		m = strings.ToUpper(m[:1]) + m[1:]
	}
	return fmt.Sprintf("%s-%02d", m, ((year%100)+100)%100)
}

// MonthColumn reports whether a column name denotes a calendar month, either
// as an abbreviation or as a full name (case-insensitive, surrounding space
// ignored), and returns its canonical abbreviation.
func MonthColumn(name string) (string, bool) {
	low := strings.ToLower(strings.TrimSpace(name))
	if _, excluded := nonMonthColumns[low]; excluded {
		return "", false
	}
	if m, ok := fullNames[low]; ok {
		return Abbrev(m), true
	}
	for _, a := range abbreviations {
		if strings.ToLower(a) == low {
			return a, true
		}
	}
	return "", false
}

// MonthOf returns the calendar month of a canonical abbreviation.
func MonthOf(abbrev string) (time.Month, bool) {
	for i, a := range abbreviations {
		if a == abbrev {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}
