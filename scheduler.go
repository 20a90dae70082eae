package mlfq

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MetricsHook defines hooks for monitoring the life of threads in a
// [Scheduler]. OnAdmit is called from the registering goroutine, every other
// hook from the dispatch loop.
type MetricsHook interface {
	OnAdmit(tcb *TCB)
	OnDispatch(tcb *TCB, level Level)
	OnPreempt(tcb *TCB, level Level)
	OnRequeue(tcb *TCB, from, to Level)
	OnReap(tcb *TCB)
	OnFault(tcb *TCB, err error)
}

// Scheduler is a multilevel feedback queue scheduler. It supports the
// following operations:
//
//   - Register a thread, which joins the tail of the highest level
//   - Flag the calling thread for termination
//   - Look up the calling thread's control block
//   - Dispatch threads until the context is cancelled
//
// Within a level threads are serviced in FIFO order. Across levels service
// is strictly by priority, and a lower level yields as soon as work appears
// above it.
type Scheduler struct {
	id      string
	log     *zap.Logger
	clock   clock.Clock
	metrics MetricsHook

	quantum    time.Duration
	policy     Policy
	retryDelay time.Duration

	tids   *tidAllocator
	levels [NumLevels]runQueue

	notifyCh chan struct{}
}

// New creates a new [Scheduler] with the given options.
func New(opts ...Option) (*Scheduler, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.Quantum <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuantum, o.Quantum)
	}
	if o.MaxThreads <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxThreads, o.MaxThreads)
	}
	if !o.Policy.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, o.Policy)
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	id := uuid.NewString()
	s := &Scheduler{
		id:         id,
		log:        o.Logger.With(zap.String("scheduler", id)),
		clock:      o.Clock,
		metrics:    o.Metrics,
		quantum:    o.Quantum,
		policy:     o.Policy,
		retryDelay: o.RetryDelay,
		tids:       newTIDAllocator(o.MaxThreads),
		notifyCh:   make(chan struct{}, 1),
	}
	return s, nil
}

// ID returns the unique identifier of this scheduler instance.
func (s *Scheduler) ID() string {
	return s.id
}

// MaxThreads returns the capacity of the identifier pool.
func (s *Scheduler) MaxThreads() int {
	return s.tids.capacity()
}

// Quantum returns the base time slice.
func (s *Scheduler) Quantum() time.Duration {
	return s.quantum
}

// AddThread registers r as a new thread at the tail of the highest level. The
// parent of the new thread is the thread identified by ctx, if any. When no
// identifier is free AddThread returns [ErrExhausted] and changes nothing.
// A handle that cannot be compared with == is rejected with
// [ErrInvalidHandle].
func (s *Scheduler) AddThread(ctx context.Context, r Runnable) (*TCB, error) {
	if r == nil {
		return nil, ErrNoHandle
	}
	if !reflect.ValueOf(r).Comparable() {
		return nil, fmt.Errorf("%w: %T", ErrInvalidHandle, r)
	}

	pid := NoTID
	if parent := s.MyTCB(ctx); parent != nil {
		pid = parent.tid
	}

	tid := s.tids.allocate()
	if tid == NoTID {
		return nil, ErrExhausted
	}

	tcb := newTCB(r, tid, pid)
	s.levels[levelHigh].append(tcb)

	s.log.Debug("thread admitted", zap.Int("tid", tid), zap.Int("pid", pid))
	if s.metrics != nil {
		s.metrics.OnAdmit(tcb)
	}

	s.notify()
	return tcb, nil
}

// DeleteThread flags the calling thread for termination. The thread is reaped
// by the dispatch loop the next time it reaches the head of its level. It
// returns false if ctx does not identify a tracked thread.
func (s *Scheduler) DeleteThread(ctx context.Context) bool {
	tcb := s.MyTCB(ctx)
	if tcb == nil {
		return false
	}
	return tcb.setTerminated()
}

// SleepThread blocks the caller for d, independently of any quantum it has
// been granted. It returns early with ctx.Err() if ctx is done.
func (s *Scheduler) SleepThread(ctx context.Context, d time.Duration) error {
	return s.wait(ctx, d)
}

// MyTCB returns the control block of the thread identified by ctx, or nil if
// the caller is not a tracked thread.
func (s *Scheduler) MyTCB(ctx context.Context) *TCB {
	r, ok := RunnableFrom(ctx)
	if !ok {
		return nil
	}
	return s.find(r)
}

// find searches every level in service order, holding one level's lock at a
// time. A handle that cannot be compared is never tracked.
func (s *Scheduler) find(r Runnable) *TCB {
	if !reflect.ValueOf(r).Comparable() {
		return nil
	}
	for i := range s.levels {
		if tcb := s.levels[i].find(r); tcb != nil {
			return tcb
		}
	}
	return nil
}

// Len returns the number of threads currently tracked across all levels.
func (s *Scheduler) Len() int {
	n := 0
	for i := range s.levels {
		n += s.levels[i].len()
	}
	return n
}

// Snapshot is a point in time view of the thread identifiers at each level,
// in service order.
type Snapshot struct {
	High   []int `json:"high"`
	Normal []int `json:"normal"`
	Low    []int `json:"low"`
}

// Level returns the identifiers queued at l.
func (s Snapshot) Level(l Level) []int {
	switch l {
	case Levels.High:
		return s.High
	case Levels.Normal:
		return s.Normal
	case Levels.Low:
		return s.Low
	default:
		return nil
	}
}

// Snapshot returns the identifiers queued at each level. Levels are read one
// at a time, so a thread being demoted concurrently may be observed in both
// its old and new level.
func (s *Scheduler) Snapshot() Snapshot {
	return Snapshot{
		High:   s.levels[levelHigh].tids(),
		Normal: s.levels[levelNormal].tids(),
		Low:    s.levels[levelLow].tids(),
	}
}

func (s *Scheduler) notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// wait blocks for d on the scheduler clock.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) error {
	timer := s.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
