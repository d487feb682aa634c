package xlcalc

import "log/slog"

// Options holds configuration for a Workbook.
type Options struct {
	logger        *slog.Logger
	listeners     []RecalcListener
	maxRangeCells int
}

func defaultOptions() *Options {
	return &Options{
		logger:        slog.New(slog.DiscardHandler),
		maxRangeCells: DefaultMaxRangeCells,
	}
}

// Option configures a Workbook.
type Option func(*Options)

// WithLogger sets the structured logger used for recalculation events
// (default: discard).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithListener adds a listener that is notified around each recalculation pass.
func WithListener(listener RecalcListener) Option {
	return func(o *Options) { o.listeners = append(o.listeners, listener) }
}

// WithMaxRangeCells bounds how many cells one range reference may cover
// (default: DefaultMaxRangeCells). Larger ranges evaluate to #REF.
func WithMaxRangeCells(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.maxRangeCells = n
		}
	}
}
