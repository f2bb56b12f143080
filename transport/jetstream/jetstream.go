// Package jetstream provides a NATS JetStream sink for flowtape. Unlike the
// core NATS sink, published tap envelopes are retained by the stream so a
// consumer attaching later still sees the full session.
package jetstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	"github.com/drblury/flowtape/transport"
)

// SinkName is the name used to register this sink.
const SinkName = "nats-jetstream"

// DefaultStreamName is used when the config does not name a stream.
const DefaultStreamName = "FLOWTAPE"

// DefaultMaxAge bounds how long recorded sessions stay in the stream.
const DefaultMaxAge = 24 * time.Hour * 7

func init() {
	transport.RegisterWithCapabilities(SinkName, Build, transport.NATSJetStreamCapabilities)
}

// Build creates a new NATS JetStream sink.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Sink, error) {
	config := Config{
		URL:        cfg.GetNATSURL(),
		StreamName: cfg.GetJetStreamStream(),
	}

	p, err := New(config, logger)
	if err != nil {
		return transport.Sink{}, err
	}

	return transport.Sink{Publisher: p}, nil
}

// Capabilities returns the capabilities of this sink.
func Capabilities() transport.Capabilities {
	return transport.NATSJetStreamCapabilities
}

// Config holds NATS JetStream-specific configuration.
type Config struct {
	// URL is the NATS server URL.
	URL string

	// StreamName is the name of the JetStream stream to use.
	// If empty, defaults to "FLOWTAPE".
	StreamName string

	// MaxAge is how long messages are retained. Defaults to one week.
	MaxAge time.Duration

	// Replicas is the number of stream replicas (for clustering).
	Replicas int
}

func (c Config) withDefaults() Config {
	if c.StreamName == "" {
		c.StreamName = DefaultStreamName
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.Replicas <= 0 {
		c.Replicas = 1
	}
	return c
}

// Publisher publishes tap envelopes to a JetStream stream.
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	config Config
	logger watermill.LoggerAdapter

	closed   bool
	closedMu sync.RWMutex
}

// New creates a new JetStream publisher, connecting to the server and
// ensuring the stream exists.
func New(cfg Config, logger watermill.LoggerAdapter) (*Publisher, error) {
	cfg = cfg.withDefaults()

	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{
		nc:     nc,
		js:     js,
		config: cfg,
		logger: logger,
	}

	if err := p.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	return p, nil
}

func (p *Publisher) ensureStream() error {
	streamCfg := &nats.StreamConfig{
		Name:      p.config.StreamName,
		Subjects:  []string{p.config.StreamName + ".>"},
		MaxAge:    p.config.MaxAge,
		Replicas:  p.config.Replicas,
		Retention: nats.LimitsPolicy,
	}

	_, err := p.js.AddStream(streamCfg)
	if err != nil {
		_, err = p.js.UpdateStream(streamCfg)
		if err != nil && p.logger != nil {
			p.logger.Info("JetStream stream exists", watermill.LogFields{
				"stream": p.config.StreamName,
			})
		}
	}

	return nil
}

// Publish publishes messages to the JetStream stream. Topics are mapped to
// subjects under the stream name.
func (p *Publisher) Publish(topic string, messages ...*message.Message) error {
	p.closedMu.RLock()
	if p.closed {
		p.closedMu.RUnlock()
		return fmt.Errorf("jetstream sink is closed")
	}
	p.closedMu.RUnlock()

	subject := p.config.StreamName + "." + topic

	for _, msg := range messages {
		headers := nats.Header{}
		for k, v := range msg.Metadata {
			headers.Set(k, v)
		}
		headers.Set("fw_uuid", msg.UUID)

		natsMsg := &nats.Msg{
			Subject: subject,
			Data:    msg.Payload,
			Header:  headers,
		}

		if _, err := p.js.PublishMsg(natsMsg); err != nil {
			return fmt.Errorf("failed to publish to JetStream: %w", err)
		}
	}

	return nil
}

// Close closes the JetStream publisher.
func (p *Publisher) Close() error {
	p.closedMu.Lock()
	if p.closed {
		p.closedMu.Unlock()
		return nil
	}
	p.closed = true
	p.closedMu.Unlock()

	p.nc.Close()

	return nil
}

// GetCapabilities returns the JetStream sink capabilities.
func (p *Publisher) GetCapabilities() transport.Capabilities {
	return transport.NATSJetStreamCapabilities
}
