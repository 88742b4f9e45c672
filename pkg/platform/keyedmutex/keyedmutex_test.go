package keyedmutex

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockSerializesSameKey(t *testing.T) {
	m := New()
	ctx := context.Background()

	var inCritical, maxConcurrent int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Lock(ctx, "board-1")
			require.NoError(t, err)
			defer release()

			mu.Lock()
			inCritical++
			if inCritical > maxConcurrent {
				maxConcurrent = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxConcurrent, "only one writer may hold a key at a time")
}

func TestLockIndependentKeysDoNotBlock(t *testing.T) {
	m := New()
	ctx := context.Background()

	releaseA, err := m.Lock(ctx, "board-a")
	require.NoError(t, err)
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := m.Lock(ctx, "board-b")
		assert.NoError(t, err)
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on an independent key blocked")
	}
}

func TestLockHonorsContextCancellation(t *testing.T) {
	m := New()

	release, err := m.Lock(context.Background(), "board-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = m.Lock(ctx, "board-1")
	require.Error(t, err)
}

func TestIdleKeysAreDiscarded(t *testing.T) {
	m := New()
	ctx := context.Background()

	release, err := m.Lock(ctx, "board-1")
	require.NoError(t, err)
	release()

	assert.Equal(t, 0, m.Len(), "released keys must not accumulate")
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := New()
	ctx := context.Background()

	release, err := m.Lock(ctx, "board-1")
	require.NoError(t, err)
	release()
	release() // second call must be a no-op

	releaseAgain, err := m.Lock(ctx, "board-1")
	require.NoError(t, err)
	releaseAgain()
}
