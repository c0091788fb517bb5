package keymutex_test

import (
	"sync"
	"testing"

	"hrms/internal/shared/keymutex"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutex_SerializesSameKey(t *testing.T) {
	km := keymutex.New()

	const workers = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("emp-1:annual")
			defer km.Unlock("emp-1:annual")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := keymutex.New()

	km.Lock("emp-1:annual")

	done := make(chan struct{})
	go func() {
		km.Lock("emp-2:annual")
		km.Unlock("emp-2:annual")
		close(done)
	}()

	<-done
	km.Unlock("emp-1:annual")
}

func TestKeyMutex_UnlockUnheldPanics(t *testing.T) {
	km := keymutex.New()
	assert.Panics(t, func() {
		km.Unlock("never-locked")
	})
}
