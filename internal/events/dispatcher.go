package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
)

// MetadataEventType carries the event type on every message.
const MetadataEventType = "event_type"

// Dispatcher publishes domain events.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
}

type watermillDispatcher struct {
	publisher message.Publisher
	topic     string
}

// NewDispatcher publishes JSON-encoded events to topic.
func NewDispatcher(publisher message.Publisher, topic string) Dispatcher {
	return &watermillDispatcher{publisher: publisher, topic: topic}
}

func (d *watermillDispatcher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := message.NewMessage(event.ID, data)
	msg.Metadata.Set(MetadataEventType, string(event.Type))
	msg.SetContext(ctx)
	return d.publisher.Publish(d.topic, msg)
}

// Decode reads an Event from a message produced by a Dispatcher.
func Decode(msg *message.Message) (Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	return event, nil
}
