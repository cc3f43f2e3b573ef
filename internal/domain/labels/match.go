package labels

import (
	"fmt"
	"strings"
)

// TruncatedBaselinePrefix is the shortest truncation of the baseline label
// that upstream renderers are known to produce.
const TruncatedBaselinePrefix = "final_smoot"

// MatchKind tags how a label matched a rule.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchPrefix
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	default:
		return "none"
	}
}

// MatchRule is one tagged rule. Patterns are compared against labels that
// have been trimmed and lower-cased.
type MatchRule struct {
	Kind    MatchKind
	Pattern string
}

func (r MatchRule) matches(label string) bool {
	switch r.Kind {
	case MatchExact:
		return label == r.Pattern
	case MatchPrefix:
		return strings.HasPrefix(label, r.Pattern)
	default:
		return false
	}
}

// Matcher evaluates rules in order; the first success wins.
type Matcher struct {
	rules []MatchRule
}

// NewBaselineMatcher recognises the baseline row label: the exact canonical
// key first, then the known truncated prefix, then any extra prefixes.
func NewBaselineMatcher(extraPrefixes ...string) *Matcher {
	m := &Matcher{rules: []MatchRule{
		{Kind: MatchExact, Pattern: BaselineKey},
		{Kind: MatchPrefix, Pattern: TruncatedBaselinePrefix},
	}}
	for _, p := range extraPrefixes {
		p = NormalizeKey(p)
		if p == "" {
			continue
		}
		m.rules = append(m.rules, MatchRule{Kind: MatchPrefix, Pattern: p})
	}
	return m
}

// Rules returns a copy of the rules in evaluation order.
func (m *Matcher) Rules() []MatchRule {
	return append([]MatchRule(nil), m.rules...)
}

// Match normalises label and returns the kind of the first matching rule.
func (m *Matcher) Match(label string) MatchKind {
	norm := NormalizeKey(label)
	if norm == "" {
		return MatchNone
	}
	for _, r := range m.rules {
		if r.matches(norm) {
			return r.Kind
		}
	}
	return MatchNone
}

// MatchCell is Match for a table cell. nil cells never match.
func (m *Matcher) MatchCell(v any) MatchKind {
	if v == nil {
		return MatchNone
	}
	if s, ok := v.(string); ok {
		return m.Match(s)
	}
	return m.Match(fmt.Sprint(v))
}
