package runtime

import (
	"context"

	loggingpkg "github.com/drblury/flowtape/internal/runtime/logging"
)

// LifecycleEvent signals the state of the surrounding component a bridge is
// scoped to.
type LifecycleEvent int

const (
	// LifecycleResumed re-enables propagation after a pause.
	LifecycleResumed LifecycleEvent = iota
	// LifecyclePaused suspends propagation; values arriving while paused
	// are dropped.
	LifecyclePaused
	// LifecycleStopped shuts the bridge down.
	LifecycleStopped
	// LifecycleDestroyed shuts the bridge down.
	LifecycleDestroyed
)

// Terminal reports whether the event ends the bridge's lifetime.
func (e LifecycleEvent) Terminal() bool {
	return e == LifecycleStopped || e == LifecycleDestroyed
}

func (e LifecycleEvent) String() string {
	switch e {
	case LifecycleResumed:
		return "resumed"
	case LifecyclePaused:
		return "paused"
	case LifecycleStopped:
		return "stopped"
	case LifecycleDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Bridge forwards values from source into sink until a terminal lifecycle
// event arrives, the lifecycle or source channel is closed, or ctx is
// cancelled. While paused, values are consumed but not forwarded. It blocks;
// run it in its own goroutine.
func Bridge[T any](ctx context.Context, logger loggingpkg.ServiceLogger, source <-chan T, sink func(T), lifecycle <-chan LifecycleEvent) {
	paused := false
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-lifecycle:
			if !ok || ev.Terminal() {
				logger.Debug("Bridge stopped", loggingpkg.LogFields{
					"event": ev.String(),
				})
				return
			}
			paused = ev == LifecyclePaused
		case v, ok := <-source:
			if !ok {
				return
			}
			if paused {
				continue
			}
			sink(v)
		}
	}
}
