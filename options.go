package mlfq

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const (
	// DefaultQuantum is the base time slice used when none is configured.
	DefaultQuantum = 1000 * time.Millisecond

	// DefaultMaxThreads is the identifier pool capacity used when none is
	// configured.
	DefaultMaxThreads = 10000

	// DefaultRetryDelay is how long the dispatch loop backs off after
	// abandoning an iteration on a transient fault.
	DefaultRetryDelay = time.Millisecond
)

// Options holds configuration options for the [Scheduler].
type Options struct {
	Quantum    time.Duration
	MaxThreads int
	Policy     Policy
	RetryDelay time.Duration
	Clock      clock.Clock
	Logger     *zap.Logger
	Metrics    MetricsHook
}

// Option is a function that configures [Options].
type Option func(*Options)

// WithQuantum sets the base time slice for the [Scheduler]. Level quanta are
// derived from half of this value.
func WithQuantum(d time.Duration) Option {
	return func(o *Options) {
		o.Quantum = d
	}
}

// WithMaxThreads sets the capacity of the identifier pool, and so the maximum
// number of live threads.
func WithMaxThreads(n int) Option {
	return func(o *Options) {
		o.MaxThreads = n
	}
}

// WithPolicy sets the dispatch policy for the [Scheduler].
func WithPolicy(p Policy) Option {
	return func(o *Options) {
		o.Policy = p
	}
}

// WithRetryDelay sets the back-off applied after a transient dispatch fault.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) {
		o.RetryDelay = d
	}
}

// WithClock sets the clock used for quanta and sleeps.
func WithClock(c clock.Clock) Option {
	return func(o *Options) {
		o.Clock = c
	}
}

// WithLogger sets the logger for the [Scheduler].
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetricsHook sets the metrics hook for the [Scheduler].
func WithMetricsHook(hook MetricsHook) Option {
	return func(o *Options) {
		o.Metrics = hook
	}
}

func defaultOptions() *Options {
	return &Options{
		Quantum:    DefaultQuantum,
		MaxThreads: DefaultMaxThreads,
		Policy:     Policies.MLFQ,
		RetryDelay: DefaultRetryDelay,
		Clock:      clock.New(),
		Logger:     zap.NewNop(),
	}
}
