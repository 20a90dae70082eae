package mlfq

import (
	"context"
	"fmt"
	"sync"
)

type threadState int

const (
	threadNew threadState = iota
	threadRunning
	threadPaused
	threadDone
)

// Ensure Thread implements [Runnable].
var _ Runnable = (*Thread)(nil)

// Thread is a goroutine backed [Runnable]. Its body runs concurrently with the
// dispatch loop and honours pause requests whenever it calls [Yield].
type Thread struct {
	ctx  context.Context
	body func(ctx context.Context)

	mu    sync.Mutex
	state threadState
	gate  chan struct{} // non-nil whilst paused, closed on resume.
	err   error

	doneCh chan struct{} // closed when the body returns.
}

// NewThread creates a thread that will run body once started. The context
// passed to body derives from ctx and identifies the thread, so scheduler
// calls made with it act on this thread. Cancelling ctx releases a paused
// body blocked in [Yield].
func NewThread(ctx context.Context, body func(ctx context.Context)) *Thread {
	return &Thread{
		ctx:    ctx,
		body:   body,
		doneCh: make(chan struct{}),
	}
}

// Start runs the body on a new goroutine.
func (t *Thread) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != threadNew {
		return ErrAlreadyStarted
	}
	t.state = threadRunning

	go t.run(WithRunnable(t.ctx, t))
	return nil
}

func (t *Thread) run(ctx context.Context) {
	defer func() {
		r := recover()

		t.mu.Lock()
		if r != nil {
			t.err = fmt.Errorf("mlfq: thread panicked: %v", r)
		}
		t.state = threadDone
		if t.gate != nil {
			close(t.gate)
			t.gate = nil
		}
		t.mu.Unlock()

		close(t.doneCh)
	}()

	t.body(ctx)
}

// Pause asks the thread to stop at its next checkpoint. It has no effect
// unless the thread is running.
func (t *Thread) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != threadRunning {
		return
	}
	t.state = threadPaused
	t.gate = make(chan struct{})
}

// Resume releases a paused thread. It has no effect unless the thread is
// paused.
func (t *Thread) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != threadPaused {
		return
	}
	t.state = threadRunning
	close(t.gate)
	t.gate = nil
}

// Alive reports whether the body has started and not yet returned.
func (t *Thread) Alive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == threadRunning || t.state == threadPaused
}

// Paused reports whether a pause has been requested and not yet undone.
func (t *Thread) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == threadPaused
}

// Done returns a channel closed when the body returns.
func (t *Thread) Done() <-chan struct{} {
	return t.doneCh
}

// Err returns the error recovered from a panicking body, if any.
func (t *Thread) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Thread) checkpoint(ctx context.Context) error {
	t.mu.Lock()
	gate := t.gate
	t.mu.Unlock()

	if gate == nil {
		return ctx.Err()
	}

	select {
	case <-gate:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
