package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	errspkg "github.com/drblury/flowtape/internal/runtime/errors"
	idspkg "github.com/drblury/flowtape/internal/runtime/ids"
	"github.com/drblury/flowtape/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/flowtape/internal/runtime/logging"
	"github.com/drblury/flowtape/transport"
)

var protoJSONMarshalOptions = protojson.MarshalOptions{
	EmitUnpopulated: true,
}

// Tap mirrors recorder activity to an external pub/sub sink so a remote
// inspector can follow a session live. Publish failures are reported to the
// caller, which logs and drops them: the tap must never block or fail the
// recording path.
type Tap struct {
	publisher message.Publisher
	logger    loggingpkg.ServiceLogger
	prefix    string
}

// EventEnvelope is the wire form of one recorded event.
type EventEnvelope struct {
	UUID         string          `json:"uuid"`
	ChannelID    string          `json:"channel_id"`
	ChannelName  string          `json:"channel_name"`
	DelayMs      int64           `json:"delay_ms"`
	EndOfSession bool            `json:"end_of_session"`
	Value        json.RawMessage `json:"value,omitempty"`
}

// StateEnvelope is the wire form of a store state change.
type StateEnvelope struct {
	UUID  string `json:"uuid"`
	State string `json:"state"`
}

// RecordsEnvelope is the wire form of a recordable-list update.
type RecordsEnvelope struct {
	UUID    string      `json:"uuid"`
	Records []RecordKey `json:"records"`
}

// NewTap wraps a sink so the store can mirror its activity. The prefix
// namespaces all tap topics; pass "" for the default.
func NewTap(sink transport.Sink, logger loggingpkg.ServiceLogger, prefix string) (*Tap, error) {
	if sink.Publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if prefix == "" {
		prefix = "flowtape"
	}
	return &Tap{
		publisher: sink.Publisher,
		logger:    logger,
		prefix:    prefix,
	}, nil
}

// EventsTopic returns the topic carrying events for one channel.
func (t *Tap) EventsTopic(channelID string) string {
	return t.prefix + ".events." + channelID
}

// StateTopic returns the topic carrying store state changes.
func (t *Tap) StateTopic() string {
	return t.prefix + ".state"
}

// RecordsTopic returns the topic carrying recordable-list updates.
func (t *Tap) RecordsTopic() string {
	return t.prefix + ".records"
}

// PublishEvent mirrors one recorded event.
func (t *Tap) PublishEvent(key RecordKey, ev Event) error {
	envelope := EventEnvelope{
		UUID:         idspkg.CreateULID(),
		ChannelID:    key.ID,
		ChannelName:  key.Name,
		DelayMs:      ev.Delay.Milliseconds(),
		EndOfSession: ev.Payload.IsEnd(),
	}

	if value, ok := ev.Payload.Value(); ok {
		data, err := marshalValue(value)
		if err != nil {
			return fmt.Errorf("failed to marshal recorded value: %w", err)
		}
		envelope.Value = data
	}

	return t.publish(t.EventsTopic(key.ID), envelope, message.Metadata{
		"channel_id":   key.ID,
		"channel_name": key.Name,
	})
}

// PublishState mirrors a store state change.
func (t *Tap) PublishState(st StoreState) error {
	return t.publish(t.StateTopic(), StateEnvelope{
		UUID:  idspkg.CreateULID(),
		State: st.String(),
	}, nil)
}

// PublishRecords mirrors a recordable-list update.
func (t *Tap) PublishRecords(records []RecordKey) error {
	return t.publish(t.RecordsTopic(), RecordsEnvelope{
		UUID:    idspkg.CreateULID(),
		Records: records,
	}, nil)
}

// Close closes the underlying publisher.
func (t *Tap) Close() error {
	return t.publisher.Close()
}

func (t *Tap) publish(topic string, envelope any, metadata message.Metadata) error {
	payload, err := jsoncodec.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal tap envelope: %w", err)
	}

	msg := message.NewMessage(idspkg.CreateULID(), payload)
	for k, v := range metadata {
		msg.Metadata.Set(k, v)
	}

	return t.publisher.Publish(topic, msg)
}

// marshalValue encodes a recorded value for the wire. Protobuf messages use
// protojson so their canonical JSON mapping is preserved; everything else
// goes through the sonic codec.
func marshalValue(v any) ([]byte, error) {
	if pm, ok := v.(proto.Message); ok {
		return protoJSONMarshalOptions.Marshal(pm)
	}
	return jsoncodec.Marshal(v)
}
