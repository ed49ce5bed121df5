package keylock_test

import (
	"sync"
	"testing"

	"coordinator/internal/pkg/keylock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := keylock.New()

	const workers = 50
	counter := 0
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = kl.Do("order-1", func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyLock_DistinctKeysDoNotBlock(t *testing.T) {
	kl := keylock.New()
	kl.Lock("order-1")
	defer kl.Unlock("order-1")

	done := make(chan struct{})
	go func() {
		kl.Lock("order-2")
		kl.Unlock("order-2")
		close(done)
	}()

	select {
	case <-done:
	case <-t.Context().Done():
		t.Fatal("lock on a distinct key blocked")
	}
}

func TestKeyLock_DoPropagatesError(t *testing.T) {
	kl := keylock.New()
	err := kl.Do("order-1", func() error {
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	// Lock must be released after Do, even on error.
	kl.Lock("order-1")
	kl.Unlock("order-1")
}

func TestKeyLock_UnlockWithoutLockPanics(t *testing.T) {
	kl := keylock.New()
	assert.Panics(t, func() {
		kl.Unlock("never-locked")
	})
}
