// Package http provides an HTTP sink for flowtape. Tap envelopes are POSTed
// to the configured publisher URL with the topic appended.
package http

import (
	"context"
	nethttp "net/http"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/flowtape/transport"
)

// SinkName is the name used to register this sink.
const SinkName = "http"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(config http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return http.NewPublisher(config, logger)
}

func init() {
	transport.RegisterWithCapabilities(SinkName, Build, transport.HTTPCapabilities)
}

// Build creates a new HTTP sink.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Sink, error) {
	publisherURL := cfg.GetHTTPPublisherURL()

	publisher, err := PublisherFactory(
		http.PublisherConfig{
			MarshalMessageFunc: func(topic string, msg *message.Message) (*nethttp.Request, error) {
				url := publisherURL + topic
				return http.DefaultMarshalMessageFunc(url, msg)
			},
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
	return transport.HTTPCapabilities
}
