// Package flowtape records values flowing through named data channels and
// replays them later with their original timing. Channel owners register a
// Middleware/Connection pair with the Store, feed it every value they see via
// Record, and get the session played back into them through the Middleware
// interface when a consumer calls Playback.
//
// The Store is a state machine: idle, recording, playback, finished_playback.
// StartRecording clears every channel's log and seeds it with the channel's
// cached last value, so a replay reproduces the state the system was in when
// the session began. StopRecording closes every log with an end-of-session
// event; at replay time that event resolves to whatever the channel last
// carried, which keeps the system's final state live rather than frozen.
//
// The store state and the list of recordable channels are published as
// Observables: last-value broadcast cells whose subscribers immediately
// receive the current value and then every change.
//
// # Tap
//
// A Store can optionally mirror its activity to an external pub/sub sink so a
// remote inspector can follow a session live. Sinks are modular transport
// packages selected via Config, registered by import:
//
//	_ "github.com/drblury/flowtape/transport/nats"
//
// Supported sinks: channel (in-memory, for tests), nats, jetstream, kafka,
// rabbitmq, http, and aws (SNS or SQS). Tap publish failures are logged,
// counted, and dropped; they never block or fail the recording path.
//
// # Quick start
//
//	logger := flowtape.NewSlogServiceLogger(slog.Default())
//	store := flowtape.NewStore(&flowtape.Config{}, logger, flowtape.StoreDependencies{})
//
//	key := store.Register(owner, conn)
//	store.StartRecording()
//	store.Record(owner, conn, value) // for every value the channel carries
//	store.StopRecording()
//
//	err := store.Playback(ctx, key) // replays the session into owner
//
// See examples/ for runnable programs.
package flowtape
