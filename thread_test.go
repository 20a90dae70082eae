package mlfq_test

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasbasham/mlfq"
)

func TestThread_Lifecycle(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		var steps atomic.Int64
		th := mlfq.NewThread(ctx, func(ctx context.Context) {
			for range 100 {
				if err := mlfq.Yield(ctx); err != nil {
					return
				}
				steps.Add(1)
				time.Sleep(time.Millisecond)
			}
		})
		assert.False(t, th.Alive(), "not alive before start")

		require.NoError(t, th.Start())
		require.ErrorIs(t, th.Start(), mlfq.ErrAlreadyStarted)
		assert.True(t, th.Alive())

		time.Sleep(10 * time.Millisecond)
		th.Pause()
		synctest.Wait()

		paused := steps.Load()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, paused, steps.Load(), "no progress whilst paused")
		assert.True(t, th.Paused())
		assert.True(t, th.Alive())

		th.Resume()
		<-th.Done()

		assert.Equal(t, int64(100), steps.Load())
		assert.False(t, th.Alive())
		assert.NoError(t, th.Err())
	})
}

func TestThread_CancelReleasesPausedBody(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())

		var yieldErr error
		th := mlfq.NewThread(ctx, func(ctx context.Context) {
			for {
				if yieldErr = mlfq.Yield(ctx); yieldErr != nil {
					return
				}
				time.Sleep(time.Millisecond)
			}
		})
		require.NoError(t, th.Start())
		th.Pause()
		synctest.Wait()

		cancel()
		<-th.Done()
		assert.ErrorIs(t, yieldErr, context.Canceled)
	})
}

func TestThread_Panic(t *testing.T) {
	t.Parallel()

	th := mlfq.NewThread(context.Background(), func(context.Context) {
		panic("boom")
	})
	require.NoError(t, th.Start())
	<-th.Done()

	assert.False(t, th.Alive())
	assert.ErrorContains(t, th.Err(), "boom")
}

func TestThread_PauseResumeOutsideRunning(t *testing.T) {
	t.Parallel()

	th := mlfq.NewThread(context.Background(), func(context.Context) {})

	// Neither has any effect before the thread starts.
	th.Pause()
	th.Resume()
	assert.False(t, th.Paused())

	require.NoError(t, th.Start())
	<-th.Done()

	th.Pause()
	assert.False(t, th.Paused())
	assert.False(t, th.Alive())
}

func TestYield_Untracked(t *testing.T) {
	t.Parallel()

	assert.NoError(t, mlfq.Yield(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, mlfq.Yield(ctx), context.Canceled)
}
