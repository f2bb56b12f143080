package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	r.Register("test", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return Sink{}, nil
	})

	assert.True(t, r.Has("test"))
	assert.Contains(t, r.Names(), "test")
}

func TestRegistryRegisterWithCapabilities(t *testing.T) {
	r := NewRegistry()

	r.RegisterWithCapabilities("test", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return Sink{}, nil
	}, Capabilities{Name: "test", SupportsOrdering: true})

	caps := r.GetCapabilities("test")
	assert.Equal(t, "test", caps.Name)
	assert.True(t, caps.SupportsOrdering)
}

func TestRegistryGetCapabilitiesUnknown(t *testing.T) {
	r := NewRegistry()

	caps := r.GetCapabilities("missing")

	assert.Equal(t, "missing", caps.Name)
	assert.False(t, caps.SupportsOrdering)
	assert.False(t, caps.SupportsBatching)
}

func TestRegistryBuild(t *testing.T) {
	t.Run("builds registered sink", func(t *testing.T) {
		r := NewRegistry()
		pub := &closeTrackingPublisher{}
		r.Register("test", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
			return Sink{Publisher: pub}, nil
		})

		sink, err := r.Build(context.Background(), &stubConfig{system: "test"}, watermill.NopLogger{})

		require.NoError(t, err)
		assert.Equal(t, pub, sink.Publisher)
	})

	t.Run("fails on nil config", func(t *testing.T) {
		r := NewRegistry()

		_, err := r.Build(context.Background(), nil, watermill.NopLogger{})

		assert.ErrorContains(t, err, "config is required")
	})

	t.Run("fails on unknown sink", func(t *testing.T) {
		r := NewRegistry()

		_, err := r.Build(context.Background(), &stubConfig{system: "nope"}, watermill.NopLogger{})

		assert.ErrorContains(t, err, "unknown sink")
	})

	t.Run("propagates builder error", func(t *testing.T) {
		r := NewRegistry()
		r.Register("test", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
			return Sink{}, errors.New("builder failed")
		})

		_, err := r.Build(context.Background(), &stubConfig{system: "test"}, watermill.NopLogger{})

		assert.ErrorContains(t, err, "builder failed")
	})
}

func TestDefaultRegistryHelpers(t *testing.T) {
	original := DefaultRegistry
	defer func() { DefaultRegistry = original }()
	DefaultRegistry = NewRegistry()

	RegisterWithCapabilities("test", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return Sink{}, nil
	}, Capabilities{Name: "test"})

	assert.True(t, DefaultRegistry.Has("test"))
	assert.Equal(t, "test", GetCapabilities("test").Name)

	_, err := Build(context.Background(), &stubConfig{system: "test"}, watermill.NopLogger{})
	assert.NoError(t, err)
}

type stubConfig struct {
	system string
}

func (c *stubConfig) GetPubSubSystem() string       { return c.system }
func (c *stubConfig) GetNATSURL() string            { return "" }
func (c *stubConfig) GetJetStreamStream() string    { return "" }
func (c *stubConfig) GetKafkaBrokers() []string     { return nil }
func (c *stubConfig) GetRabbitMQURL() string        { return "" }
func (c *stubConfig) GetHTTPPublisherURL() string   { return "" }
func (c *stubConfig) GetAWSService() string         { return "" }
func (c *stubConfig) GetAWSRegion() string          { return "" }
func (c *stubConfig) GetAWSAccountID() string       { return "" }
func (c *stubConfig) GetAWSAccessKeyID() string     { return "" }
func (c *stubConfig) GetAWSSecretAccessKey() string { return "" }
func (c *stubConfig) GetAWSEndpoint() string        { return "" }
