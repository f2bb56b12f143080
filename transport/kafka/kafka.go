// Package kafka provides a Kafka sink for flowtape.
package kafka

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/flowtape/transport"
)

// SinkName is the name used to register this sink.
const SinkName = "kafka"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return kafka.NewPublisher(cfg, logger)
}

func init() {
	transport.RegisterWithCapabilities(SinkName, Build, transport.KafkaCapabilities)
}

// Build creates a new Kafka sink.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Sink, error) {
	publisher, err := PublisherFactory(
		kafka.PublisherConfig{
			Brokers:   cfg.GetKafkaBrokers(),
			Marshaler: kafka.DefaultMarshaler{},
		},
		logger,
	)
	if err != nil {
		return transport.Sink{}, err
	}

	return transport.Sink{Publisher: publisher}, nil
}

// Capabilities returns the capabilities of this sink.
func Capabilities() transport.Capabilities {
	return transport.KafkaCapabilities
}
