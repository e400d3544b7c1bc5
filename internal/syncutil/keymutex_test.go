package syncutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyMutex_LockUnlock(t *testing.T) {
	m := NewKeyMutex()
	ctx := context.Background()

	unlock, err := m.Lock(ctx, "acc_1")
	require.NoError(t, err)
	unlock()

	// Re-acquire after unlock.
	unlock, err = m.Lock(ctx, "acc_1")
	require.NoError(t, err)
	unlock()
}

func TestKeyMutex_ContextCancelled(t *testing.T) {
	m := NewKeyMutex()

	unlock, err := m.Lock(context.Background(), "acc_1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = m.Lock(ctx, "acc_1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKeyMutex_TryLock(t *testing.T) {
	m := NewKeyMutex()

	unlock, ok := m.TryLock("acc_1")
	require.True(t, ok)

	_, ok = m.TryLock("acc_1")
	assert.False(t, ok)

	unlock()

	unlock2, ok := m.TryLock("acc_1")
	assert.True(t, ok)
	unlock2()
}

func TestKeyMutex_IndependentKeys(t *testing.T) {
	m := NewKeyMutex()
	ctx := context.Background()

	// Pick a second key that lands on a different shard.
	other := "acc_2"
	for i := 0; m.shardIdx(other) == m.shardIdx("acc_1"); i++ {
		other = "acc_" + string(rune('a'+i))
	}

	u1, err := m.Lock(ctx, "acc_1")
	require.NoError(t, err)
	defer u1()

	done := make(chan struct{})
	go func() {
		u2, err := m.Lock(ctx, other)
		if err == nil {
			u2()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on independent key blocked")
	}
}
