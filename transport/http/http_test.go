package http

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/flowtape/transport"
)

func TestSinkName(t *testing.T) {
	assert.Equal(t, "http", SinkName)
}

func TestRegistered(t *testing.T) {
	assert.True(t, transport.DefaultRegistry.Has(SinkName))

	caps := transport.GetCapabilities(SinkName)
	assert.Equal(t, "http", caps.Name)
	assert.False(t, caps.SupportsOrdering)
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, transport.HTTPCapabilities, Capabilities())
}

func TestBuild(t *testing.T) {
	t.Run("marshals messages against the publisher URL", func(t *testing.T) {
		original := PublisherFactory
		defer func() { PublisherFactory = original }()

		var gotConfig http.PublisherConfig
		mockPub := &mockPublisher{}
		PublisherFactory = func(cfg http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			gotConfig = cfg
			return mockPub, nil
		}

		cfg := &mockConfig{publisherURL: "http://inspector:8080/"}
		sink, err := Build(context.Background(), cfg, watermill.NopLogger{})

		require.NoError(t, err)
		assert.Equal(t, mockPub, sink.Publisher)

		req, err := gotConfig.MarshalMessageFunc("flowtape.state", message.NewMessage("1", []byte(`{}`)))
		require.NoError(t, err)
		assert.Equal(t, "http://inspector:8080/flowtape.state", req.URL.String())
	})

	t.Run("returns error when factory fails", func(t *testing.T) {
		original := PublisherFactory
		defer func() { PublisherFactory = original }()

		PublisherFactory = func(cfg http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		}

		cfg := &mockConfig{publisherURL: "http://localhost/"}
		_, err := Build(context.Background(), cfg, watermill.NopLogger{})

		assert.ErrorContains(t, err, "publisher error")
	})
}

type mockConfig struct {
	publisherURL string
}

func (m *mockConfig) GetPubSubSystem() string       { return "http" }
func (m *mockConfig) GetNATSURL() string            { return "" }
func (m *mockConfig) GetJetStreamStream() string    { return "" }
func (m *mockConfig) GetKafkaBrokers() []string     { return nil }
func (m *mockConfig) GetRabbitMQURL() string        { return "" }
func (m *mockConfig) GetHTTPPublisherURL() string   { return m.publisherURL }
func (m *mockConfig) GetAWSService() string         { return "" }
func (m *mockConfig) GetAWSRegion() string          { return "" }
func (m *mockConfig) GetAWSAccountID() string       { return "" }
func (m *mockConfig) GetAWSAccessKeyID() string     { return "" }
func (m *mockConfig) GetAWSSecretAccessKey() string { return "" }
func (m *mockConfig) GetAWSEndpoint() string        { return "" }

type mockPublisher struct{}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error { return nil }
func (m *mockPublisher) Close() error                                             { return nil }
