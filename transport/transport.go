// Package transport defines the core interfaces and types for flowtape tap
// sinks. Each backend (nats, kafka, rabbitmq, etc.) lives in its own
// sub-package and registers itself with the sink registry. Sinks only
// publish: the tap mirrors recorder activity outward and never consumes.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Sink wraps the publisher produced by a builder.
type Sink struct {
	Publisher message.Publisher
}

// Close closes the underlying publisher.
func (s Sink) Close() error {
	if s.Publisher == nil {
		return nil
	}
	return s.Publisher.Close()
}

// Builder is the function signature for creating a sink from config.
// Each backend package should provide a Builder function that can be
// registered.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error)

// Config provides the configuration values needed by sink backends. This
// interface allows backends to access only the config they need without
// depending on the full config package.
type Config interface {
	// GetPubSubSystem returns the sink backend name.
	GetPubSubSystem() string

	// NATS
	GetNATSURL() string
	GetJetStreamStream() string

	// Kafka
	GetKafkaBrokers() []string

	// RabbitMQ
	GetRabbitMQURL() string

	// HTTP
	GetHTTPPublisherURL() string

	// AWS
	GetAWSService() string
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

// CapabilitiesProvider is implemented by sinks that can report their
// capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
