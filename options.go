package inblock

import (
	"log/slog"

	"github.com/pkg/errors"
)

// DefaultSmallBinShare is the fraction of a fresh arena tiled into small
// bins. The rest becomes one large-bin chunk.
const DefaultSmallBinShare = 0.25

// DefaultRefillRounds is how many chunks of every size class a refill
// slices off a large chunk.
const DefaultRefillRounds = 1

type options struct {
	classes      SizeClasses
	share        float64
	refillRounds int
	coalescing   CoalescePolicy
	logger       *slog.Logger
}

// Option configures an Arena at Bind time.
type Option func(*options)

func defaultOptions() options {
	return options{
		classes:      DefaultSizeClasses,
		share:        DefaultSmallBinShare,
		refillRounds: DefaultRefillRounds,
		coalescing:   DeferredCoalescing,
		logger:       slog.New(slog.DiscardHandler),
	}
}

// WithSizeClasses sets the small-bin size classes.
func WithSizeClasses(c SizeClasses) Option {
	return func(o *options) { o.classes = c }
}

// WithSmallBinShare sets the fraction (0 to 1) of the arena tiled into
// small bins when it is carved.
func WithSmallBinShare(share float64) Option {
	return func(o *options) { o.share = share }
}

// WithRefillRounds sets how many chunks per size class a small-bin refill
// produces. Zero disables slicing; the refill chunk then only lands in a
// small bin if its size already matches a class.
func WithRefillRounds(n int) Option {
	return func(o *options) { o.refillRounds = n }
}

// WithCoalescing selects when free neighbours are merged.
func WithCoalescing(p CoalescePolicy) Option {
	return func(o *options) { o.coalescing = p }
}

// WithLogger routes allocator diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func (o *options) validate() error {
	if err := o.classes.validate(); err != nil {
		return err
	}
	if o.share < 0 || o.share > 1 {
		return errors.Wrapf(ErrInvalidConfig, "small bin share %v", o.share)
	}
	if o.refillRounds < 0 {
		return errors.Wrapf(ErrInvalidConfig, "refill rounds %d", o.refillRounds)
	}
	if o.coalescing == nil {
		return errors.Wrap(ErrInvalidConfig, "no coalescing policy")
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return nil
}
