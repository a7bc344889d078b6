package query

// Option tunes a single Fetch call.
type Option func(*options)

type options struct {
	retry   bool
	refetch bool
	enabled bool
	onError func(error)
}

func newOptions(opts []Option) options {
	o := options{enabled: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRetry records the caller's retry preference. The client makes at most
// one attempt per fetch either way; true is logged and ignored.
func WithRetry(retry bool) Option {
	return func(o *options) { o.retry = retry }
}

// WithRefetch bypasses a successful cached entry and fetches again.
func WithRefetch() Option {
	return func(o *options) { o.refetch = true }
}

// WithEnabled(false) short-circuits the call: nothing is fetched, nothing in
// the cache changes, and the result is marked Skipped.
func WithEnabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// WithOnError registers a diagnostic callback. It receives the raw fetch
// error once per failed fetch this caller observes. It cannot change the
// outcome.
func WithOnError(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}
