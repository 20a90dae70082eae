package mlfq

import "sync"

// runQueue is the FIFO sequence of one level. Every read of its shape and
// every mutation happens under mu.
type runQueue struct {
	mu   sync.Mutex
	tcbs []*TCB
}

func (q *runQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tcbs)
}

func (q *runQueue) head() *TCB {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tcbs) == 0 {
		return nil
	}
	return q.tcbs[0]
}

func (q *runQueue) append(t *TCB) {
	q.mu.Lock()
	q.appendLocked(t)
	q.mu.Unlock()
}

func (q *runQueue) appendLocked(t *TCB) {
	q.tcbs = append(q.tcbs, t)
}

// find returns the TCB whose handle is r, or nil.
func (q *runQueue) find(r Runnable) *TCB {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range q.tcbs {
		if t.handle == r {
			return t
		}
	}
	return nil
}

func (q *runQueue) remove(t *TCB) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(t)
}

func (q *runQueue) removeLocked(t *TCB) bool {
	for i, c := range q.tcbs {
		if c != t {
			continue
		}
		n := len(q.tcbs)
		copy(q.tcbs[i:], q.tcbs[i+1:])
		q.tcbs[n-1] = nil // avoid memory leak
		q.tcbs = q.tcbs[:n-1]
		return true
	}
	return false
}

func (q *runQueue) tids() []int {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]int, 0, len(q.tcbs))
	for _, t := range q.tcbs {
		out = append(out, t.tid)
	}
	return out
}
