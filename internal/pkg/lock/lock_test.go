package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquireRejectsWhileHeld(t *testing.T) {
	l := NewKeyed[int64]()

	require.True(t, l.TryAcquire(1))
	assert.False(t, l.TryAcquire(1), "second acquire for the same key must be rejected")
	assert.True(t, l.TryAcquire(2), "a different key must not be affected")

	l.Release(2)
	l.Release(1)

	assert.True(t, l.TryAcquire(1), "released key must be acquirable again")
	l.Release(1)
}

func TestEntriesEvictedAfterRelease(t *testing.T) {
	l := NewKeyed[ChatUser]()

	for i := int64(0); i < 100; i++ {
		key := ChatUser{ChatID: i, UserID: i * 7}
		require.True(t, l.TryAcquire(key))
		l.Release(key)
	}

	assert.Equal(t, 0, l.Len(), "released keys must not be retained")
}

func TestReleaseOnPanicViaDefer(t *testing.T) {
	l := NewKeyed[int64]()

	func() {
		defer func() { _ = recover() }()
		require.True(t, l.TryAcquire(5))
		defer l.Release(5)
		panic("downstream failure")
	}()

	assert.True(t, l.TryAcquire(5), "lock must be released after a panic")
	l.Release(5)
	assert.Equal(t, 0, l.Len())
}

func TestWaitersKeepEntryAlive(t *testing.T) {
	l := NewKeyed[int64]()
	l.Acquire(9)

	const waiters = 8
	var wg sync.WaitGroup
	started := make(chan struct{}, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			l.Acquire(9)
			l.Release(9)
		}()
	}
	for i := 0; i < waiters; i++ {
		<-started
	}

	l.Release(9)
	wg.Wait()

	assert.Equal(t, 0, l.Len())
}
