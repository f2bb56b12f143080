package runtime

// StoreState is the store-global lifecycle state. It is the single source of
// truth for whether a new recording or playback may start.
type StoreState int

const (
	// StateIdle means no session or replay is active.
	StateIdle StoreState = iota

	// StateRecording means a recording session is in progress.
	StateRecording

	// StatePlayback means a replay is delivering events.
	StatePlayback

	// StateFinishedPlayback is the transient step a completed replay passes
	// through before decaying to StateIdle.
	StateFinishedPlayback
)

func (s StoreState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePlayback:
		return "playback"
	case StateFinishedPlayback:
		return "finished_playback"
	default:
		return "unknown"
	}
}
