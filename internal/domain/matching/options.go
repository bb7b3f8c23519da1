package matching

// DefaultLimit is the shortlist size used when no limit is configured.
const DefaultLimit = 3

// Option applies a configuration option to a ranking run.
type Option func(*options)

type options struct {
	limit int
}

// WithLimit sets the maximum number of candidates returned.
// Values below 1 keep the default.
func WithLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.limit = limit
		}
	}
}
