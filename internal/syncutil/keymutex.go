// Package syncutil provides keyed mutual exclusion primitives.
package syncutil

import (
	"context"
	"hash/fnv"
	"sync"
)

const shardCount = 128

// KeyMutex provides a fixed-size pool of channel-based mutexes keyed by
// string, with context cancellation while waiting to acquire. Memory is
// bounded regardless of how many keys are seen, at the cost of occasional
// false sharing between keys that hash to the same shard.
type KeyMutex struct {
	shards [shardCount]chan struct{}
	once   sync.Once
}

// NewKeyMutex creates a new keyed mutex pool.
func NewKeyMutex() *KeyMutex {
	m := &KeyMutex{}
	m.init()
	return m
}

func (m *KeyMutex) init() {
	m.once.Do(func() {
		for i := range m.shards {
			m.shards[i] = make(chan struct{}, 1)
			m.shards[i] <- struct{}{} // Start unlocked.
		}
	})
}

// Lock acquires the mutex for the given key, respecting context cancellation.
// On success it returns an unlock function the caller MUST invoke when done.
// On cancellation it returns nil and the context error.
func (m *KeyMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.init()
	shard := m.shards[m.shardIdx(key)]

	select {
	case <-shard:
		return func() { shard <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryLock acquires the mutex for the given key without blocking. It returns
// an unlock function and true on success, or nil and false if the key is
// already held.
func (m *KeyMutex) TryLock(key string) (func(), bool) {
	m.init()
	shard := m.shards[m.shardIdx(key)]

	select {
	case <-shard:
		return func() { shard <- struct{}{} }, true
	default:
		return nil, false
	}
}

func (m *KeyMutex) shardIdx(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
