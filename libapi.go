package flowtape

import (
	"context"

	runtimepkg "github.com/drblury/flowtape/internal/runtime"
	configpkg "github.com/drblury/flowtape/internal/runtime/config"
	errspkg "github.com/drblury/flowtape/internal/runtime/errors"
	idspkg "github.com/drblury/flowtape/internal/runtime/ids"
	jsoncodec "github.com/drblury/flowtape/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/flowtape/internal/runtime/logging"
	transportpkg "github.com/drblury/flowtape/transport"
)

type (
	Config            = configpkg.Config
	Store             = runtimepkg.Store
	StoreDependencies = runtimepkg.StoreDependencies
	StoreState        = runtimepkg.StoreState

	Middleware = runtimepkg.Middleware
	Connection = runtimepkg.Connection
	Key        = runtimepkg.Key
	RecordKey  = runtimepkg.RecordKey
	Payload    = runtimepkg.Payload
	Event      = runtimepkg.Event

	Observable[T any] = runtimepkg.Observable[T]

	SessionContext = runtimepkg.SessionContext
	ReplayContext  = runtimepkg.ReplayContext
	SessionHooks   = runtimepkg.SessionHooks

	Tap             = runtimepkg.Tap
	EventEnvelope   = runtimepkg.EventEnvelope
	StateEnvelope   = runtimepkg.StateEnvelope
	RecordsEnvelope = runtimepkg.RecordsEnvelope

	LifecycleEvent = runtimepkg.LifecycleEvent

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	ConfigValidationError = errspkg.ConfigValidationError

	// Sink types (modular transport packages)
	Sink             = transportpkg.Sink
	SinkBuilder      = transportpkg.Builder
	SinkConfig       = transportpkg.Config
	SinkRegistry     = transportpkg.Registry
	SinkCapabilities = transportpkg.Capabilities
)

// Store states.
const (
	StateIdle             = runtimepkg.StateIdle
	StateRecording        = runtimepkg.StateRecording
	StatePlayback         = runtimepkg.StatePlayback
	StateFinishedPlayback = runtimepkg.StateFinishedPlayback
)

// Bridge lifecycle events.
const (
	LifecycleResumed   = runtimepkg.LifecycleResumed
	LifecyclePaused    = runtimepkg.LifecyclePaused
	LifecycleStopped   = runtimepkg.LifecycleStopped
	LifecycleDestroyed = runtimepkg.LifecycleDestroyed
)

// AnonymousName is the display name for connections hidden from the
// recordable list.
const AnonymousName = runtimepkg.AnonymousName

var (
	NewStore       = runtimepkg.NewStore
	TryNewStore    = runtimepkg.TryNewStore
	ValidateConfig = configpkg.ValidateConfig

	Value        = runtimepkg.Value
	EndOfSession = runtimepkg.EndOfSession

	NewTap = runtimepkg.NewTap

	// Sink registry (modular transport packages)
	// Import individual sinks via: _ "github.com/drblury/flowtape/transport/nats"
	DefaultSinkRegistry = transportpkg.DefaultRegistry
	RegisterSink        = transportpkg.Register
	BuildSink           = transportpkg.Build
	GetSinkCapabilities = transportpkg.GetCapabilities

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrInvalidState       = errspkg.ErrInvalidState
	ErrNotFound           = errspkg.ErrNotFound
	ErrConfigRequired     = errspkg.ErrConfigRequired
	ErrLoggerRequired     = errspkg.ErrLoggerRequired
	ErrMiddlewareNeeded   = errspkg.ErrMiddlewareNeeded
	ErrConnectionNeeded   = errspkg.ErrConnectionNeeded
	ErrPublisherRequired  = errspkg.ErrPublisherRequired
	ErrTopicRequired      = errspkg.ErrTopicRequired

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NewWatermillAdapter       = loggingpkg.NewWatermillAdapter

	CreateULID = idspkg.CreateULID
)

// NewObservable creates an empty last-value broadcast cell. Generic functions
// cannot be aliased through a var, so this wraps the runtime constructor.
func NewObservable[T any]() *Observable[T] {
	return runtimepkg.NewObservable[T]()
}

// Bridge forwards values from source into sink until a terminal lifecycle
// event arrives, either channel is closed, or ctx is cancelled.
func Bridge[T any](ctx context.Context, logger ServiceLogger, source <-chan T, sink func(T), lifecycle <-chan LifecycleEvent) {
	runtimepkg.Bridge(ctx, logger, source, sink, lifecycle)
}
