package transport

// Capabilities describes the delivery properties of a sink backend. The tap
// consults these to decide whether downstream consumers can rely on event
// ordering.
type Capabilities struct {
	// SupportsOrdering indicates the backend preserves publish order.
	// When false, consumers must reorder tap envelopes by delay.
	SupportsOrdering bool

	// SupportsBatching indicates the backend can batch multiple messages
	// per publish call.
	SupportsBatching bool

	// Name is the human-readable name of the backend.
	Name string

	// Version is the backend/driver version.
	Version string
}

// Default capability sets for the built-in sink backends.
var (
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsOrdering: true,
	}

	NATSCapabilities = Capabilities{
		Name:             "nats",
		SupportsOrdering: true,
	}

	NATSJetStreamCapabilities = Capabilities{
		Name:             "nats-jetstream",
		SupportsOrdering: true,
		SupportsBatching: true,
	}

	KafkaCapabilities = Capabilities{
		Name:             "kafka",
		SupportsOrdering: true,
		SupportsBatching: true,
	}

	RabbitMQCapabilities = Capabilities{
		Name:             "rabbitmq",
		SupportsOrdering: true,
	}

	HTTPCapabilities = Capabilities{
		Name: "http",
	}

	AWSCapabilities = Capabilities{
		Name:             "aws",
		SupportsBatching: true,
	}
)
