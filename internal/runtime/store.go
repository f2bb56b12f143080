package runtime

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	configpkg "github.com/drblury/flowtape/internal/runtime/config"
	errspkg "github.com/drblury/flowtape/internal/runtime/errors"
	idspkg "github.com/drblury/flowtape/internal/runtime/ids"
	loggingpkg "github.com/drblury/flowtape/internal/runtime/logging"
)

// channelLog is the per-channel bookkeeping: its identity, the event log of
// the current recording session, and the last value ever seen on the channel.
type channelLog struct {
	key     Key
	record  RecordKey
	log     []Event
	last    any
	hasLast bool
}

// StoreDependencies carries the optional collaborators of a Store. The zero
// value is valid: no hooks, no tap, default Prometheus registerer, wall clock.
type StoreDependencies struct {
	// Hooks receives lifecycle callbacks. All fields are optional.
	Hooks SessionHooks

	// Tap mirrors store activity to an external pub/sub sink.
	Tap *Tap

	// Registerer receives the store metrics when metrics are enabled.
	// Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// Now overrides the clock. Tests use this to make delays deterministic.
	Now func() time.Time
}

// Store records values flowing through registered channels and replays them
// with their original timing. Create one per process and share it; all
// methods are safe for concurrent use.
type Store struct {
	conf   *configpkg.Config
	logger loggingpkg.ServiceLogger

	mu        sync.Mutex
	channels  map[Key]*channelLog
	recording bool
	base      time.Time

	state   *Observable[StoreState]
	records *Observable[[]RecordKey]

	hooks   SessionHooks
	metrics *storeMetrics
	tap     *Tap

	now func() time.Time
}

// NewStore creates a Store and panics when the configuration is invalid or a
// required dependency is missing.
func NewStore(conf *configpkg.Config, logger loggingpkg.ServiceLogger, deps StoreDependencies) *Store {
	s, err := TryNewStore(conf, logger, deps)
	if err != nil {
		panic(err)
	}
	return s
}

// TryNewStore is NewStore with an error return instead of a panic.
func TryNewStore(conf *configpkg.Config, logger loggingpkg.ServiceLogger, deps StoreDependencies) (*Store, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	s := &Store{
		conf:     conf,
		logger:   logger,
		channels: make(map[Key]*channelLog),
		state:    NewObservable[StoreState](),
		records:  NewObservable[[]RecordKey](),
		hooks:    deps.Hooks,
		tap:      deps.Tap,
		now:      now,
	}
	s.state.Set(StateIdle)
	s.records.Set([]RecordKey{})

	if conf.MetricsEnabled {
		s.metrics = newStoreMetrics(deps.Registerer)
		s.metrics.state(StateIdle)
		if conf.MetricsPort > 0 {
			startMetricsServer(conf.MetricsPort, logger)
		}
	}

	return s, nil
}

// State exposes the store state as an observable. New subscribers immediately
// receive the current state.
func (s *Store) State() *Observable[StoreState] {
	return s.state
}

// Records exposes the list of recordable channels as an observable, sorted by
// name and excluding anonymous connections.
func (s *Store) Records() *Observable[[]RecordKey] {
	return s.records
}

// CurrentState returns the store state at this instant.
func (s *Store) CurrentState() StoreState {
	st, _ := s.state.Get()
	return st
}

// RecordKeys returns the recordable channels at this instant.
func (s *Store) RecordKeys() []RecordKey {
	records, _ := s.records.Get()
	return records
}

// Register adds a channel for the middleware/connection pair and returns its
// record key. Registering an already known pair keeps the existing key and
// resets the channel's event log.
func (s *Store) Register(middleware Middleware, connection Connection) RecordKey {
	if middleware == nil {
		panic(errspkg.ErrMiddlewareNeeded)
	}
	if connection == nil {
		panic(errspkg.ErrConnectionNeeded)
	}

	key := Key{Middleware: middleware, Connection: connection}

	s.mu.Lock()
	ch, ok := s.channels[key]
	if ok {
		ch.log = nil
	} else {
		ch = &channelLog{
			key: key,
			record: RecordKey{
				ID:   idspkg.CreateULID(),
				Name: displayName(connection),
			},
		}
		s.channels[key] = ch
	}
	record := ch.record
	records := s.recordKeysLocked()
	s.metrics.channels(len(s.channels))
	s.mu.Unlock()

	s.records.Set(records)
	s.publishRecords(records)
	s.logger.Debug("Registered channel", loggingpkg.LogFields{
		"channel_id":   record.ID,
		"channel_name": record.Name,
	})

	return record
}

// Unregister removes the channel for the middleware/connection pair along
// with its event log and cached last value. Unknown pairs are ignored.
func (s *Store) Unregister(middleware Middleware, connection Connection) {
	key := Key{Middleware: middleware, Connection: connection}

	s.mu.Lock()
	ch, ok := s.channels[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.channels, key)
	record := ch.record
	records := s.recordKeysLocked()
	s.metrics.channels(len(s.channels))
	s.mu.Unlock()

	s.records.Set(records)
	s.publishRecords(records)
	s.logger.Debug("Unregistered channel", loggingpkg.LogFields{
		"channel_id":   record.ID,
		"channel_name": record.Name,
	})
}

// Record notes a value observed on a channel. The value always refreshes the
// channel's last-value cache; while a recording session is active it is also
// appended to the channel's event log with its delay since the session began.
// Values for unknown channels are dropped.
func (s *Store) Record(middleware Middleware, connection Connection, value any) {
	s.mu.Lock()
	ch, ok := s.channels[Key{Middleware: middleware, Connection: connection}]
	if !ok {
		s.mu.Unlock()
		return
	}

	ch.last = value
	ch.hasLast = true

	var (
		ev       Event
		record   RecordKey
		recorded bool
	)
	if s.recording {
		ev = s.newEventLocked(Value(value))
		ch.log = append(ch.log, ev)
		record = ch.record
		recorded = true
		s.metrics.recorded(record.Name)
	}
	s.mu.Unlock()

	if recorded {
		s.publishEvent(record, ev)
	}
}

// StartRecording begins a recording session. Every channel's log is reset and
// seeded with its cached last value at delay zero, so a replay reproduces the
// state the system was in when the session began.
func (s *Store) StartRecording() {
	s.mu.Lock()
	s.base = s.now()
	s.recording = true
	for _, ch := range s.channels {
		ch.log = nil
		if ch.hasLast {
			ch.log = append(ch.log, Event{Payload: Value(ch.last)})
		}
	}
	channels := len(s.channels)
	started := s.base
	s.setStateLocked(StateRecording)
	s.metrics.sessionStarted()
	s.mu.Unlock()

	s.publishState(StateRecording)
	s.hooks.recordingStart(SessionContext{StartedAt: started, Channels: channels})
	s.logger.Info("Recording started", loggingpkg.LogFields{
		"channels": channels,
	})
}

// StopRecording ends the recording session, appending an end-of-session event
// to every channel's log. Calling it while no session is active is a no-op.
func (s *Store) StopRecording() {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return
	}

	end := s.newEventLocked(EndOfSession())
	records := make([]RecordKey, 0, len(s.channels))
	for _, ch := range s.channels {
		ch.log = append(ch.log, end)
		records = append(records, ch.record)
	}

	started := s.base
	channels := len(s.channels)
	s.recording = false
	s.base = time.Time{}
	s.setStateLocked(StateIdle)
	s.metrics.sessionStopped()
	s.mu.Unlock()

	for _, record := range records {
		s.publishEvent(record, end)
	}
	s.publishState(StateIdle)
	s.hooks.recordingStop(SessionContext{
		StartedAt: started,
		Channels:  channels,
		Duration:  end.Delay,
	})
	s.logger.Info("Recording stopped", loggingpkg.LogFields{
		"channels": channels,
		"duration": end.Delay.String(),
	})
}

// lastValue returns the cached last value of a channel, if any.
func (s *Store) lastValue(key Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[key]
	if !ok || !ch.hasLast {
		return nil, false
	}
	return ch.last, true
}

// newEventLocked stamps a payload with its delay since the session began.
// The caller must hold s.mu and a session must be active.
func (s *Store) newEventLocked(payload Payload) Event {
	if s.base.IsZero() {
		panic("flowtape: event created outside a recording session")
	}
	return Event{
		Delay:   s.now().Sub(s.base),
		Payload: payload,
	}
}

// setStateLocked updates the state observable and gauge. The caller must hold
// s.mu and is responsible for mirroring the change to the tap after unlocking.
func (s *Store) setStateLocked(st StoreState) {
	s.state.Set(st)
	s.metrics.state(st)
}

// recordKeysLocked snapshots the recordable channels, sorted by name. The
// caller must hold s.mu. Anonymous connections are not recordable.
func (s *Store) recordKeysLocked() []RecordKey {
	records := make([]RecordKey, 0, len(s.channels))
	for _, ch := range s.channels {
		if ch.key.Connection.Anonymous() {
			continue
		}
		records = append(records, ch.record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].ID < records[j].ID
	})
	return records
}

func (s *Store) publishEvent(key RecordKey, ev Event) {
	if s.tap == nil {
		return
	}
	if err := s.tap.PublishEvent(key, ev); err != nil {
		s.metrics.tapError()
		s.logger.Error("Failed to publish event to tap", err, loggingpkg.LogFields{
			"channel_id": key.ID,
		})
	}
}

func (s *Store) publishState(st StoreState) {
	if s.tap == nil {
		return
	}
	if err := s.tap.PublishState(st); err != nil {
		s.metrics.tapError()
		s.logger.Error("Failed to publish state to tap", err, loggingpkg.LogFields{
			"state": st.String(),
		})
	}
}

func (s *Store) publishRecords(records []RecordKey) {
	if s.tap == nil {
		return
	}
	if err := s.tap.PublishRecords(records); err != nil {
		s.metrics.tapError()
		s.logger.Error("Failed to publish records to tap", err, nil)
	}
}

func displayName(connection Connection) string {
	if connection.Anonymous() {
		return AnonymousName
	}
	if name := connection.Name(); name != "" {
		return name
	}
	return AnonymousName
}
