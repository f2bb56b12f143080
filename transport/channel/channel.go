// Package channel provides an in-memory Go channel sink for flowtape.
// This sink is useful for testing and local development: subscribe to the
// returned pub/sub to observe tap envelopes in-process.
package channel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/drblury/flowtape/transport"
)

// SinkName is the name used to register this sink.
const SinkName = "channel"

// Factory allows overriding the pub/sub creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(cfg, logger)
}

func init() {
	transport.RegisterWithCapabilities(SinkName, Build, transport.ChannelCapabilities)
}

// Build creates a new in-memory channel sink.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Sink, error) {
	pubSub := Factory(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return transport.Sink{Publisher: pubSub}, nil
}

// BuildWithSubscriber creates the sink and also returns the subscriber half
// of the in-memory pub/sub so tests can observe published envelopes.
func BuildWithSubscriber(logger watermill.LoggerAdapter) (transport.Sink, message.Subscriber) {
	pubSub := Factory(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return transport.Sink{Publisher: pubSub}, pubSub
}

// Capabilities returns the capabilities of this sink.
func Capabilities() transport.Capabilities {
	return transport.ChannelCapabilities
}
