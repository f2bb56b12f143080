package runtime

import (
	"time"
)

// SessionContext provides information about a recording session to hooks.
type SessionContext struct {
	// StartedAt is when the session began.
	StartedAt time.Time
	// Channels is the number of channels registered when the hook fired.
	Channels int
	// Duration is how long the session lasted (only set in OnRecordingStop).
	Duration time.Duration
}

// ReplayContext provides information about a replay run to hooks.
type ReplayContext struct {
	// Key identifies the channel being replayed.
	Key RecordKey
	// Events is the number of events in the replayed log.
	Events int
	// StartedAt is when the replay began.
	StartedAt time.Time
	// Duration is how long the replay took (only set in OnPlaybackDone).
	Duration time.Duration
	// Cancelled reports whether the replay was cut short (only set in
	// OnPlaybackDone).
	Cancelled bool
}

// SessionHooks defines callbacks for recorder lifecycle events.
// All hooks are optional - nil hooks are simply not called.
type SessionHooks struct {
	// OnRecordingStart is called after a recording session has started and
	// every log has been cleared and seeded.
	OnRecordingStart func(ctx SessionContext)

	// OnRecordingStop is called after a session has been closed and every
	// log carries its end-of-session event.
	OnRecordingStop func(ctx SessionContext)

	// OnPlaybackStart is called when a replay run begins, after the owning
	// middleware has been notified.
	OnPlaybackStart func(ctx ReplayContext)

	// OnEventDelivered is called after each replayed value has been handed
	// to the owning middleware.
	OnEventDelivered func(ctx ReplayContext, ev Event)

	// OnPlaybackDone is called when a replay run finishes or is cancelled.
	OnPlaybackDone func(ctx ReplayContext)
}

// Merge combines two SessionHooks, creating a new SessionHooks that calls
// both. The hooks from 'other' are called after the hooks from 'h'.
func (h SessionHooks) Merge(other SessionHooks) SessionHooks {
	return SessionHooks{
		OnRecordingStart: chainSessionHooks(h.OnRecordingStart, other.OnRecordingStart),
		OnRecordingStop:  chainSessionHooks(h.OnRecordingStop, other.OnRecordingStop),
		OnPlaybackStart:  chainReplayHooks(h.OnPlaybackStart, other.OnPlaybackStart),
		OnEventDelivered: chainDeliveryHooks(h.OnEventDelivered, other.OnEventDelivered),
		OnPlaybackDone:   chainReplayHooks(h.OnPlaybackDone, other.OnPlaybackDone),
	}
}

func chainSessionHooks(a, b func(SessionContext)) func(SessionContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx SessionContext) {
		a(ctx)
		b(ctx)
	}
}

func chainReplayHooks(a, b func(ReplayContext)) func(ReplayContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx ReplayContext) {
		a(ctx)
		b(ctx)
	}
}

func chainDeliveryHooks(a, b func(ReplayContext, Event)) func(ReplayContext, Event) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx ReplayContext, ev Event) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

func (h SessionHooks) recordingStart(ctx SessionContext) {
	if h.OnRecordingStart != nil {
		h.OnRecordingStart(ctx)
	}
}

func (h SessionHooks) recordingStop(ctx SessionContext) {
	if h.OnRecordingStop != nil {
		h.OnRecordingStop(ctx)
	}
}

func (h SessionHooks) playbackStart(ctx ReplayContext) {
	if h.OnPlaybackStart != nil {
		h.OnPlaybackStart(ctx)
	}
}

func (h SessionHooks) eventDelivered(ctx ReplayContext, ev Event) {
	if h.OnEventDelivered != nil {
		h.OnEventDelivered(ctx, ev)
	}
}

func (h SessionHooks) playbackDone(ctx ReplayContext) {
	if h.OnPlaybackDone != nil {
		h.OnPlaybackDone(ctx)
	}
}
