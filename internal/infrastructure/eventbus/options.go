package eventbus

import "time"

const (
	defaultQueueSize     = 1024
	defaultPruneInterval = time.Second
)

type (
	busOptions struct {
		queueSize     int
		pruneInterval time.Duration
	}

	Option func(opts *busOptions)
)

func buildOptions(opts ...Option) *busOptions {
	options := &busOptions{
		queueSize:     defaultQueueSize,
		pruneInterval: defaultPruneInterval,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithQueueSize sets the buffer of the asynchronous publish queue.
func WithQueueSize(n int) Option {
	return func(opts *busOptions) {
		if n > 0 {
			opts.queueSize = n
		}
	}
}

// WithPruneInterval sets how often expired subscriptions are removed while the bus
// is started. Zero disables the janitor; Prune can still be called directly.
func WithPruneInterval(d time.Duration) Option {
	return func(opts *busOptions) {
		if d >= 0 {
			opts.pruneInterval = d
		}
	}
}
