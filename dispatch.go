package mlfq

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Run is the dispatch loop. It repeatedly services the head of the first
// non-empty level until ctx is done, and then returns ctx.Err(). Only one Run
// may be active per [Scheduler].
//
// Faults raised while servicing a thread never stop the loop. Transient races
// abandon the iteration, anything else is reported through the logger and
// [MetricsHook.OnFault] and the thread is flagged for reaping.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("dispatch loop started",
		zap.Stringer("policy", s.policy),
		zap.Duration("quantum", s.quantum),
		zap.Int("max_threads", s.MaxThreads()),
	)
	defer s.log.Info("dispatch loop stopped")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l, tcb := s.next()
		if tcb == nil {
			select {
			case <-s.notifyCh:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		err := s.service(ctx, l, tcb)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case IsTransient(err):
			s.log.Debug("dispatch abandoned", zap.Int("tid", tcb.tid), zap.Stringer("level", l), zap.Error(err))
			if err := s.wait(ctx, s.retryDelay); err != nil {
				return err
			}
		default:
			s.fault(l, tcb, err)
		}
	}
}

// next returns the head of the first non-empty level.
func (s *Scheduler) next() (Level, *TCB) {
	levels := Levels.All()
	if s.policy == Policies.RoundRobin {
		levels = levels[:1]
	}

	for _, l := range levels {
		if tcb := s.levels[l.level].head(); tcb != nil {
			return l, tcb
		}
	}
	return Level{levelUnknown}, nil
}

// service grants tcb, the head of level l, one turn.
func (s *Scheduler) service(ctx context.Context, l Level, tcb *TCB) error {
	if tcb.Terminated() {
		s.reap(l, tcb)
		return nil
	}

	ok, err := s.dispatch(tcb)
	if err != nil || !ok {
		return err
	}

	s.log.Debug("thread dispatched", zap.Int("tid", tcb.tid), zap.Stringer("level", l))
	if s.metrics != nil {
		s.metrics.OnDispatch(tcb, l)
	}

	turn, slice := l.subintervals(), s.quantum/2
	if s.policy == Policies.RoundRobin {
		turn, slice = 1, s.quantum
	}

	for range turn {
		if err := s.wait(ctx, slice); err != nil {
			return err
		}
		if s.policy == Policies.MLFQ && l.preemptible() && s.pendingAbove(l) {
			s.preempt(l, tcb)
			return nil
		}
	}

	s.expire(l, tcb)
	return nil
}

// dispatch moves the thread of tcb into the running state, starting it on
// its first turn. It reports false when the thread turned out to have exited
// by itself, in which case tcb is flagged for reaping.
func (s *Scheduler) dispatch(tcb *TCB) (bool, error) {
	h := tcb.handle
	if h == nil {
		return false, ErrNoHandle
	}

	if !tcb.started {
		if err := h.Start(); err != nil {
			return false, fmt.Errorf("start thread %d: %w", tcb.tid, err)
		}
		tcb.started = true
		return true, nil
	}

	if !h.Alive() {
		s.log.Debug("thread exited without terminating", zap.Int("tid", tcb.tid))
		tcb.setTerminated()
		return false, nil
	}

	h.Resume()
	return true, nil
}

// pendingAbove reports whether any level with a higher priority than l holds
// a thread.
func (s *Scheduler) pendingAbove(l Level) bool {
	for i := range l.Index() {
		if s.levels[i].len() > 0 {
			return true
		}
	}
	return false
}

// preempt suspends the running thread of level l without changing its place
// in the level.
func (s *Scheduler) preempt(l Level, tcb *TCB) {
	q := &s.levels[l.level]

	q.mu.Lock()
	if h := tcb.handle; h.Alive() {
		h.Pause()
	}
	q.mu.Unlock()

	s.log.Debug("thread preempted", zap.Int("tid", tcb.tid), zap.Stringer("level", l))
	if s.metrics != nil {
		s.metrics.OnPreempt(tcb, l)
	}
}

// expire ends a full turn at level l. The thread is suspended and moved to
// the tail of its next level, unless it has been flagged for termination in
// which case it is left at the head to be reaped on the next iteration.
//
// The target level is never above l, so holding the source lock whilst
// appending to the target takes locks in level order.
func (s *Scheduler) expire(l Level, tcb *TCB) {
	target := l.demoted()
	if s.policy == Policies.RoundRobin {
		target = l
	}

	q := &s.levels[l.level]
	q.mu.Lock()

	h := tcb.handle
	if h.Alive() {
		h.Pause()
	} else {
		tcb.setTerminated()
	}

	if tcb.Terminated() {
		q.mu.Unlock()
		return
	}

	q.removeLocked(tcb)
	if target == l {
		q.appendLocked(tcb)
	} else {
		s.levels[target.level].append(tcb)
	}
	q.mu.Unlock()

	s.log.Debug("thread requeued", zap.Int("tid", tcb.tid), zap.Stringer("from", l), zap.Stringer("to", target))
	if s.metrics != nil {
		s.metrics.OnRequeue(tcb, l, target)
	}
}

// reap removes a terminated thread from level l and releases its identifier.
// A handle that is still alive is resumed so its body can run to completion
// unmanaged.
func (s *Scheduler) reap(l Level, tcb *TCB) {
	s.levels[l.level].remove(tcb)

	h := tcb.handle
	if h != nil && h.Alive() {
		h.Resume()
	}
	s.tids.release(tcb.tid)

	fields := []zap.Field{zap.Int("tid", tcb.tid), zap.Stringer("level", l)}
	if e, ok := h.(interface{ Err() error }); ok && e.Err() != nil {
		s.log.Warn("thread reaped after failure", append(fields, zap.Error(e.Err()))...)
	} else {
		s.log.Debug("thread reaped", fields...)
	}

	if s.metrics != nil {
		s.metrics.OnReap(tcb)
	}
}

// fault reports a non-transient failure servicing tcb and flags it so that it
// is reaped rather than retried forever.
func (s *Scheduler) fault(l Level, tcb *TCB, err error) {
	s.log.Error("thread fault", zap.Int("tid", tcb.tid), zap.Stringer("level", l), zap.Error(err))
	tcb.setTerminated()

	if s.metrics != nil {
		s.metrics.OnFault(tcb, err)
	}
}
