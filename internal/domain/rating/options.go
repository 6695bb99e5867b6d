package rating

// Option applies a configuration option to a replay.
type Option func(*replayer)

// WithParams sets the model constants used by the replay.
func WithParams(p Params) Option {
	return func(r *replayer) {
		r.params = p
	}
}

// WithObserver registers a callback invoked once per session, in replay
// order, including skipped ones.
func WithObserver(fn func(Step)) Option {
	return func(r *replayer) {
		r.observe = fn
	}
}
