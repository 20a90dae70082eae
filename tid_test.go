package mlfq

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTIDAllocator_Allocate(t *testing.T) {
	t.Parallel()

	t.Run("allocates every slot then reports exhaustion", func(t *testing.T) {
		t.Parallel()

		a := newTIDAllocator(3)
		assert.Equal(t, 0, a.allocate())
		assert.Equal(t, 1, a.allocate())
		assert.Equal(t, 2, a.allocate())
		assert.Equal(t, NoTID, a.allocate())
	})

	t.Run("cursor rotates past released slots", func(t *testing.T) {
		t.Parallel()

		a := newTIDAllocator(3)
		first := a.allocate()
		require.True(t, a.release(first))

		// The cursor has moved on, so the next scan starts after the freed slot.
		assert.Equal(t, 1, a.allocate())
		assert.Equal(t, 2, a.allocate())
		assert.Equal(t, first, a.allocate(), "wraps around to reuse the released identifier")
	})

	t.Run("released identifier is eligible for reuse", func(t *testing.T) {
		t.Parallel()

		a := newTIDAllocator(2)
		a.allocate()
		second := a.allocate()
		require.Equal(t, NoTID, a.allocate())

		require.True(t, a.release(second))
		assert.Equal(t, second, a.allocate())
	})
}

func TestTIDAllocator_Release(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		tid  int
		want bool
	}{
		"allocated identifier": {tid: 0, want: true},
		"free identifier":      {tid: 1, want: false},
		"negative identifier":  {tid: -1, want: false},
		"out of range":         {tid: 4, want: false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := newTIDAllocator(4)
			a.allocate()

			assert.Equal(t, tt.want, a.release(tt.tid))
			assert.False(t, a.inUse(tt.tid))
		})
	}

	t.Run("double release is a no-op", func(t *testing.T) {
		t.Parallel()

		a := newTIDAllocator(2)
		tid := a.allocate()
		require.True(t, a.release(tid))

		before := append([]bool(nil), a.used...)
		next := a.next

		assert.False(t, a.release(tid))
		assert.False(t, a.inUse(tid))
		assert.Equal(t, before, a.used)
		assert.Equal(t, next, a.next)

		assert.Equal(t, tid+1, a.allocate())
		assert.True(t, a.inUse(tid+1))
	})
}

func TestTIDAllocator_Concurrent(t *testing.T) {
	t.Parallel()

	const capacity = 256

	a := newTIDAllocator(capacity)

	var (
		mu   sync.Mutex
		seen = make(map[int]bool)
		wg   sync.WaitGroup
	)
	for range capacity {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tid := a.allocate()

			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[tid], "identifier %d allocated twice", tid)
			seen[tid] = true
		}()
	}
	wg.Wait()

	assert.Len(t, seen, capacity)
	assert.NotContains(t, seen, NoTID)
	assert.Equal(t, NoTID, a.allocate())
}
