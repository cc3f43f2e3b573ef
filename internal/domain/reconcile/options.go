package reconcile

import "github.com/okian/consolidator/internal/domain/labels"

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithPrefixes adds truncated forms of the baseline label to recognise.
func WithPrefixes(prefixes ...string) Option {
	return func(r *Reconciler) {
		if len(prefixes) > 0 {
			r.matcher = labels.NewBaselineMatcher(prefixes...)
		}
	}
}
