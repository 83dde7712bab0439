package stack

import "github.com/go-logr/logr"

// DefaultConcurrency bounds concurrent entry existence checks.
const DefaultConcurrency = 8

type options struct {
	log         logr.Logger
	concurrency int
}

// Option configures Load and Link.
type Option func(*options)

// WithLogger sets the logger. Defaults to the App logger.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithConcurrency bounds the number of concurrent existence checks.
// Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func applyOptions(app *App, opts []Option) options {
	o := options{log: app.Log, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
