package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/flowtape/internal/runtime/errors"
)

func TestPlaybackErrors(t *testing.T) {
	t.Run("rejects unknown record keys", func(t *testing.T) {
		store := newTestStore(t, StoreDependencies{})

		err := store.Playback(t.Context(), RecordKey{ID: "missing", Name: "ghost"})

		assert.ErrorIs(t, err, errspkg.ErrNotFound)
	})

	t.Run("rejects playback while recording", func(t *testing.T) {
		clock := newFakeClock()
		store := newTestStore(t, StoreDependencies{Now: clock.Now})
		mw := &recordingMiddleware{}
		key := store.Register(mw, &namedConnection{name: "altitude"})

		store.StartRecording()
		defer store.StopRecording()

		err := store.Playback(t.Context(), key)

		assert.ErrorIs(t, err, errspkg.ErrInvalidState)
	})
}

func TestPlaybackDeliversRecordedValues(t *testing.T) {
	clock := newFakeClock()
	done := make(chan ReplayContext, 1)
	store := newTestStore(t, StoreDependencies{
		Now: clock.Now,
		Hooks: SessionHooks{
			OnPlaybackDone: func(ctx ReplayContext) { done <- ctx },
		},
	})
	mw := &recordingMiddleware{}
	conn := &namedConnection{name: "altitude"}
	key := store.Register(mw, conn)

	store.StartRecording()
	store.Record(mw, conn, "a")
	store.Record(mw, conn, "b")
	store.Record(mw, conn, "c")
	store.StopRecording()

	require.NoError(t, store.Playback(t.Context(), key))

	select {
	case ctx := <-done:
		assert.False(t, ctx.Cancelled)
		assert.Equal(t, key, ctx.Key)
		assert.Equal(t, 4, ctx.Events)
	case <-time.After(2 * time.Second):
		t.Fatal("replay never finished")
	}

	// Three recorded values, plus the end event resolved to the last one.
	assert.Equal(t, []any{"a", "b", "c", "c"}, mw.values())

	started, stopped := mw.counts()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, stopped)
}

func TestPlaybackEndEventResolvesToLiveValue(t *testing.T) {
	clock := newFakeClock()
	done := make(chan ReplayContext, 1)
	store := newTestStore(t, StoreDependencies{
		Now: clock.Now,
		Hooks: SessionHooks{
			OnPlaybackDone: func(ctx ReplayContext) { done <- ctx },
		},
	})
	mw := &recordingMiddleware{}
	conn := &namedConnection{name: "altitude"}
	key := store.Register(mw, conn)

	store.StartRecording()
	store.Record(mw, conn, "recorded")
	store.StopRecording()

	// The channel keeps flowing after the session; the end event must pick
	// up the newest value, not the one from recording time.
	store.Record(mw, conn, "live")

	require.NoError(t, store.Playback(t.Context(), key))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replay never finished")
	}

	assert.Equal(t, []any{"recorded", "live"}, mw.values())
}

func TestPlaybackEndEventWithoutCachedValueIsDropped(t *testing.T) {
	clock := newFakeClock()
	done := make(chan ReplayContext, 1)
	store := newTestStore(t, StoreDependencies{
		Now: clock.Now,
		Hooks: SessionHooks{
			OnPlaybackDone: func(ctx ReplayContext) { done <- ctx },
		},
	})
	mw := &recordingMiddleware{}
	conn := &namedConnection{name: "altitude"}
	key := store.Register(mw, conn)

	store.StartRecording()
	store.StopRecording()

	require.NoError(t, store.Playback(t.Context(), key))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replay never finished")
	}

	assert.Empty(t, mw.values())

	started, stopped := mw.counts()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, stopped)
}

func TestPlaybackPreservesDelays(t *testing.T) {
	clock := newFakeClock()
	done := make(chan ReplayContext, 1)
	store := newTestStore(t, StoreDependencies{
		Now: clock.Now,
		Hooks: SessionHooks{
			OnPlaybackDone: func(ctx ReplayContext) { done <- ctx },
		},
	})
	mw := &recordingMiddleware{}
	conn := &namedConnection{name: "altitude"}
	key := store.Register(mw, conn)

	store.StartRecording()
	store.Record(mw, conn, 1)
	clock.Advance(60 * time.Millisecond)
	store.Record(mw, conn, 2)
	store.StopRecording()

	// The injected clock stands still during replay, so each recorded delay
	// is waited out in real time.
	begin := time.Now()
	require.NoError(t, store.Playback(t.Context(), key))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replay never finished")
	}

	elapsed := time.Since(begin)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Equal(t, []any{1, 2, 2}, mw.values())
}

func TestPlaybackCancellation(t *testing.T) {
	clock := newFakeClock()
	done := make(chan ReplayContext, 1)
	delivered := make(chan Event, 8)
	store := newTestStore(t, StoreDependencies{
		Now: clock.Now,
		Hooks: SessionHooks{
			OnEventDelivered: func(ctx ReplayContext, ev Event) { delivered <- ev },
			OnPlaybackDone:   func(ctx ReplayContext) { done <- ctx },
		},
	})
	mw := &recordingMiddleware{}
	conn := &namedConnection{name: "altitude"}
	key := store.Register(mw, conn)

	store.StartRecording()
	store.Record(mw, conn, "first")
	clock.Advance(10 * time.Second)
	store.Record(mw, conn, "second")
	store.StopRecording()

	ctx, cancel := context.WithCancel(t.Context())
	require.NoError(t, store.Playback(ctx, key))

	// Wait for the first value, then abort before the ten second gap ends.
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("first event never delivered")
	}
	cancel()

	select {
	case replayCtx := <-done:
		assert.True(t, replayCtx.Cancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("replay never finished after cancellation")
	}

	assert.Equal(t, []any{"first"}, mw.values())

	_, stopped := mw.counts()
	assert.Equal(t, 1, stopped, "middleware must be released after cancellation")
	assert.Equal(t, StateIdle, store.CurrentState())
}

func TestPlaybackStateTransitions(t *testing.T) {
	clock := newFakeClock()
	done := make(chan ReplayContext, 1)
	store := newTestStore(t, StoreDependencies{
		Now: clock.Now,
		Hooks: SessionHooks{
			OnPlaybackDone: func(ctx ReplayContext) { done <- ctx },
		},
	})
	mw := &recordingMiddleware{}
	conn := &namedConnection{name: "altitude"}
	key := store.Register(mw, conn)

	store.StartRecording()
	store.Record(mw, conn, 1)
	clock.Advance(100 * time.Millisecond)
	store.StopRecording()

	require.NoError(t, store.Playback(t.Context(), key))
	assert.Equal(t, StatePlayback, store.CurrentState())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replay never finished")
	}

	waitForState(t, store, StateIdle)
}

func TestPlaybackHookOrder(t *testing.T) {
	clock := newFakeClock()
	var order []string
	done := make(chan struct{})
	store := newTestStore(t, StoreDependencies{
		Now: clock.Now,
		Hooks: SessionHooks{
			OnPlaybackStart: func(ctx ReplayContext) { order = append(order, "start") },
			OnEventDelivered: func(ctx ReplayContext, ev Event) {
				order = append(order, "delivered")
			},
			OnPlaybackDone: func(ctx ReplayContext) {
				order = append(order, "done")
				close(done)
			},
		},
	})
	mw := &recordingMiddleware{}
	conn := &namedConnection{name: "altitude"}
	key := store.Register(mw, conn)

	store.StartRecording()
	store.Record(mw, conn, 1)
	store.StopRecording()

	require.NoError(t, store.Playback(t.Context(), key))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replay never finished")
	}

	// Hooks all fire from the replay goroutine, so reading order here is safe.
	assert.Equal(t, []string{"start", "delivered", "delivered", "done"}, order)
}
