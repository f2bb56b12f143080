package transport

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
)

func TestSinkClose(t *testing.T) {
	t.Run("closes the publisher", func(t *testing.T) {
		pub := &closeTrackingPublisher{}
		sink := Sink{Publisher: pub}

		err := sink.Close()

		assert.NoError(t, err)
		assert.True(t, pub.closed)
	})

	t.Run("propagates publisher close error", func(t *testing.T) {
		pub := &closeTrackingPublisher{closeErr: errors.New("close failed")}
		sink := Sink{Publisher: pub}

		err := sink.Close()

		assert.ErrorContains(t, err, "close failed")
	})

	t.Run("zero sink closes without error", func(t *testing.T) {
		assert.NoError(t, Sink{}.Close())
	})
}

type closeTrackingPublisher struct {
	closed   bool
	closeErr error
}

func (p *closeTrackingPublisher) Publish(topic string, messages ...*message.Message) error {
	return nil
}

func (p *closeTrackingPublisher) Close() error {
	p.closed = true
	return p.closeErr
}
