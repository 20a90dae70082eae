package mlfq

import (
	"context"
	"errors"
)

var (
	// ErrNoHandle is returned when a thread has no runnable handle.
	ErrNoHandle = errors.New("mlfq: no runnable handle")

	// ErrInvalidHandle is returned when a handle cannot be compared with ==
	// and so cannot identify its thread.
	ErrInvalidHandle = errors.New("mlfq: runnable handle is not comparable")

	// ErrNotAlive is returned by a [Runnable] that is unexpectedly not alive,
	// for example because it lost a race with its own start-up.
	ErrNotAlive = errors.New("mlfq: runnable not alive")

	// ErrAlreadyStarted is returned when a [Runnable] is started twice.
	ErrAlreadyStarted = errors.New("mlfq: runnable already started")

	// ErrExhausted is returned when every thread identifier is in use.
	ErrExhausted = errors.New("mlfq: thread identifiers exhausted")

	ErrInvalidQuantum    = errors.New("mlfq: quantum must be positive")
	ErrInvalidMaxThreads = errors.New("mlfq: max threads must be positive")
	ErrInvalidPolicy     = errors.New("mlfq: unknown policy")
)

// IsTransient reports whether err is one of the races the dispatch loop
// tolerates by abandoning the current iteration and trying again.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNoHandle) || errors.Is(err, ErrNotAlive)
}

// Runnable is a unit of execution driven by the [Scheduler].
//
// Pause is a best-effort request. The unit is expected to honour it promptly,
// but it may race with the unit returning on its own, so the scheduler never
// assumes a paused unit is still alive. Handles identify their thread by ==,
// so implementations must be comparable. Pointer types always are.
type Runnable interface {
	// Start begins execution. It is called at most once by the scheduler.
	Start() error
	Pause()
	Resume()
	// Alive reports whether the unit has started and not yet returned.
	Alive() bool
}

type runnableKey struct{}

// WithRunnable returns a copy of ctx identifying r as the executing unit.
// Scheduler calls made with the returned context act on r's thread.
func WithRunnable(ctx context.Context, r Runnable) context.Context {
	return context.WithValue(ctx, runnableKey{}, r)
}

// RunnableFrom returns the executing unit carried by ctx, if any.
func RunnableFrom(ctx context.Context) (Runnable, bool) {
	r, ok := ctx.Value(runnableKey{}).(Runnable)
	return r, ok && r != nil
}

// Yield is the cooperative preemption point of a [Thread]. It blocks whilst
// the calling thread is paused and returns ctx.Err() if ctx is done first.
// Callers that are not threads return immediately.
func Yield(ctx context.Context) error {
	r, ok := RunnableFrom(ctx)
	if !ok {
		return ctx.Err()
	}
	if t, ok := r.(*Thread); ok {
		return t.checkpoint(ctx)
	}
	return ctx.Err()
}
