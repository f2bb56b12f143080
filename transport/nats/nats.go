// Package nats provides a NATS Core sink for flowtape.
package nats

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/flowtape/transport"
)

// SinkName is the name used to register this sink.
const SinkName = "nats"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return nats.NewPublisher(cfg, logger)
}

func init() {
	transport.RegisterWithCapabilities(SinkName, Build, transport.NATSCapabilities)
}

// Build creates a new NATS Core sink.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Sink, error) {
	publisher, err := PublisherFactory(
		nats.PublisherConfig{
			URL:       cfg.GetNATSURL(),
			Marshaler: &nats.NATSMarshaler{},
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
	return transport.NATSCapabilities
}
