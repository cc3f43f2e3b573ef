package consolidate

import "github.com/okian/consolidator/internal/domain/labels"

// Option applies a configuration option to the Consolidator.
type Option func(*Consolidator)

// WithRegistry sets the model display-name registry.
func WithRegistry(r *labels.Registry) Option {
	return func(c *Consolidator) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithForecastAliases replaces the alias table applied to model tables.
func WithForecastAliases(a ColumnAliases) Option {
	return func(c *Consolidator) {
		if len(a) > 0 {
			c.forecastAliases = a
		}
	}
}

// WithBaselineAliases replaces the alias table applied to the baseline table.
func WithBaselineAliases(a ColumnAliases) Option {
	return func(c *Consolidator) {
		if len(a) > 0 {
			c.baselineAliases = a
		}
	}
}
