package mlfq

import "sync/atomic"

// TCB is the thread control block of a managed thread. It records the handle
// the scheduler drives, the thread identifiers, and whether the thread has
// asked to terminate.
type TCB struct {
	handle Runnable
	tid    int
	pid    int

	// Set by the owning thread through DeleteThread, read by the dispatch loop.
	// Never reset once true.
	terminated atomic.Bool

	// Only touched by the dispatch loop.
	started bool
}

func newTCB(handle Runnable, tid, pid int) *TCB {
	return &TCB{
		handle: handle,
		tid:    tid,
		pid:    pid,
	}
}

// Handle returns the runnable unit driven by the scheduler.
func (t *TCB) Handle() Runnable {
	return t.handle
}

// TID returns the identifier of the thread.
func (t *TCB) TID() int {
	return t.tid
}

// PID returns the identifier of the thread that registered this one, or
// [NoTID] if it was registered by an untracked caller.
func (t *TCB) PID() int {
	return t.pid
}

// Terminated reports whether the thread has been flagged for reaping.
func (t *TCB) Terminated() bool {
	return t.terminated.Load()
}

func (t *TCB) setTerminated() bool {
	t.terminated.Store(true)
	return true
}
