package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func runBridge[T any](ctx context.Context, source <-chan T, sink func(T), lifecycle <-chan LifecycleEvent) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		Bridge(ctx, testLogger(), source, sink, lifecycle)
	}()
	return done
}

func TestLifecycleEvent(t *testing.T) {
	assert.False(t, LifecycleResumed.Terminal())
	assert.False(t, LifecyclePaused.Terminal())
	assert.True(t, LifecycleStopped.Terminal())
	assert.True(t, LifecycleDestroyed.Terminal())

	assert.Equal(t, "resumed", LifecycleResumed.String())
	assert.Equal(t, "paused", LifecyclePaused.String())
	assert.Equal(t, "stopped", LifecycleStopped.String())
	assert.Equal(t, "destroyed", LifecycleDestroyed.String())
	assert.Equal(t, "unknown", LifecycleEvent(99).String())
}

func TestBridgeForwardsValues(t *testing.T) {
	source := make(chan int)
	lifecycle := make(chan LifecycleEvent)
	got := make(chan int, 8)

	done := runBridge(t.Context(), source, func(v int) { got <- v }, lifecycle)

	source <- 1
	source <- 2
	assert.Equal(t, 1, receiveOne(t, got))
	assert.Equal(t, 2, receiveOne(t, got))

	lifecycle <- LifecycleStopped
	waitDone(t, done)
}

func TestBridgePauseDropsValues(t *testing.T) {
	source := make(chan string)
	lifecycle := make(chan LifecycleEvent)
	got := make(chan string, 8)

	done := runBridge(t.Context(), source, func(v string) { got <- v }, lifecycle)

	lifecycle <- LifecyclePaused
	source <- "dropped"

	lifecycle <- LifecycleResumed
	source <- "delivered"

	assert.Equal(t, "delivered", receiveOne(t, got))
	assert.Empty(t, got)

	lifecycle <- LifecycleDestroyed
	waitDone(t, done)
}

func TestBridgeStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	source := make(chan int)
	lifecycle := make(chan LifecycleEvent)

	done := runBridge(ctx, source, func(int) {}, lifecycle)

	cancel()
	waitDone(t, done)
}

func TestBridgeStopsOnClosedChannels(t *testing.T) {
	t.Run("closed source", func(t *testing.T) {
		source := make(chan int)
		lifecycle := make(chan LifecycleEvent)

		done := runBridge(t.Context(), source, func(int) {}, lifecycle)

		close(source)
		waitDone(t, done)
	})

	t.Run("closed lifecycle", func(t *testing.T) {
		source := make(chan int)
		lifecycle := make(chan LifecycleEvent)

		done := runBridge(t.Context(), source, func(int) {}, lifecycle)

		close(lifecycle)
		waitDone(t, done)
	})
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge never stopped")
	}
}
