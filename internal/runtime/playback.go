package runtime

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	errspkg "github.com/drblury/flowtape/internal/runtime/errors"
	loggingpkg "github.com/drblury/flowtape/internal/runtime/logging"
)

// Playback replays the event log of the channel identified by key through its
// middleware, preserving the recorded delays. It returns once the replay
// goroutine has been started; cancel ctx to abort the replay early.
//
// Playback fails with ErrInvalidState while a recording session is active and
// with ErrNotFound when no registered channel matches the key. Overlapping
// replays are not rejected, but they share the single store state and should
// be avoided.
func (s *Store) Playback(ctx context.Context, key RecordKey) error {
	s.mu.Lock()
	if s.recording {
		s.mu.Unlock()
		return fmt.Errorf("cannot replay %q while recording: %w", key.Name, errspkg.ErrInvalidState)
	}

	var ch *channelLog
	for _, candidate := range s.channels {
		if candidate.record.ID == key.ID {
			ch = candidate
			break
		}
	}
	if ch == nil {
		s.mu.Unlock()
		return fmt.Errorf("record %q: %w", key.ID, errspkg.ErrNotFound)
	}

	events := make([]Event, len(ch.log))
	copy(events, ch.log)
	channelKey := ch.key
	record := ch.record
	s.setStateLocked(StatePlayback)
	s.metrics.replayStarted()
	s.mu.Unlock()

	s.publishState(StatePlayback)
	s.logger.Info("Replay started", loggingpkg.LogFields{
		"channel_id":   record.ID,
		"channel_name": record.Name,
		"events":       len(events),
	})

	go s.replay(ctx, channelKey, record, events)

	return nil
}

// replay delivers events to the channel's middleware with their recorded
// timing, then walks the store back to idle.
func (s *Store) replay(ctx context.Context, channelKey Key, record RecordKey, events []Event) {
	tracer := otel.Tracer("flowtape")
	ctx, span := tracer.Start(ctx, "Replay", trace.WithAttributes(
		attribute.String("channel.id", record.ID),
		attribute.String("channel.name", record.Name),
		attribute.Int("channel.events", len(events)),
	))
	defer span.End()

	start := s.now()
	replayCtx := ReplayContext{
		Key:       record,
		Events:    len(events),
		StartedAt: start,
	}

	channelKey.Middleware.StartPlayback()
	s.hooks.playbackStart(replayCtx)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var cancelled bool

deliver:
	for _, ev := range events {
		// Each wait is measured against the replay start, not the previous
		// event, so scheduling jitter never accumulates.
		wait := ev.Delay - s.now().Sub(start)
		if wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				cancelled = true
				break deliver
			case <-timer.C:
			}
		} else {
			select {
			case <-ctx.Done():
				cancelled = true
				break deliver
			default:
			}
		}

		value, ok := ev.Payload.Value()
		if !ok {
			// An end-of-session event resolves to whatever the channel last
			// carried at delivery time, which may differ from the value at
			// recording time.
			last, found := s.lastValue(channelKey)
			if !found {
				s.logger.Debug("Dropping end-of-session event, channel has no cached value", loggingpkg.LogFields{
					"channel_id": record.ID,
				})
				continue
			}
			value = last
		}

		channelKey.Middleware.Replay(value)
		s.metrics.delivered(record.Name)
		s.hooks.eventDelivered(replayCtx, ev)
	}

	s.mu.Lock()
	s.setStateLocked(StateFinishedPlayback)
	s.setStateLocked(StateIdle)
	s.mu.Unlock()
	s.publishState(StateFinishedPlayback)
	s.publishState(StateIdle)

	channelKey.Middleware.StopPlayback()

	replayCtx.Duration = s.now().Sub(start)
	replayCtx.Cancelled = cancelled
	s.metrics.replayFinished(cancelled)
	s.hooks.playbackDone(replayCtx)

	if cancelled {
		span.SetAttributes(attribute.Bool("replay.cancelled", true))
	}
	s.logger.Info("Replay finished", loggingpkg.LogFields{
		"channel_id": record.ID,
		"cancelled":  cancelled,
		"duration":   replayCtx.Duration.String(),
	})
}
