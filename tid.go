package mlfq

import "sync"

// NoTID is the sentinel identifier. It is the parent of threads registered by
// untracked callers and is never allocated.
const NoTID = -1

// tidAllocator hands out identifiers from a fixed-capacity pool, scanning
// circularly from a rotating cursor so recently released identifiers are not
// immediately reused.
type tidAllocator struct {
	mu   sync.Mutex
	used []bool
	next int
}

func newTIDAllocator(capacity int) *tidAllocator {
	return &tidAllocator{used: make([]bool, capacity)}
}

// allocate returns a free identifier, or NoTID when every slot is in use.
func (a *tidAllocator) allocate() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.used)
	for i := range n {
		tentative := (a.next + i) % n
		if !a.used[tentative] {
			a.used[tentative] = true
			a.next = (tentative + 1) % n
			return tentative
		}
	}
	return NoTID
}

// release frees tid. It reports false, changing nothing, when tid is out of
// range or not currently allocated.
func (a *tidAllocator) release(tid int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if tid < 0 || tid >= len(a.used) || !a.used[tid] {
		return false
	}
	a.used[tid] = false
	return true
}

func (a *tidAllocator) capacity() int {
	return len(a.used)
}

// inUse reports whether tid is currently allocated.
func (a *tidAllocator) inUse(tid int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return tid >= 0 && tid < len(a.used) && a.used[tid]
}
