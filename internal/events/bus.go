package events

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/spec-kit/learning-platform/internal/config"
)

// Bus pairs a publisher with the subscriber that consumes the same topic.
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Kind       string
}

// NewBus uses Kafka when brokers are configured and an in-process channel
// otherwise.
func NewBus(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if len(cfg.KafkaBrokers) == 0 {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
		return &Bus{Publisher: ch, Subscriber: ch, Kind: "gochannel"}, nil
	}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, logger)
	if err != nil {
		return nil, err
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.KafkaBrokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		ConsumerGroup:         cfg.ConsumerGroup,
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
	}, logger)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}
	return &Bus{Publisher: publisher, Subscriber: subscriber, Kind: "kafka"}, nil
}

// Close shuts down both sides.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	errPub := b.Publisher.Close()
	if any(b.Publisher) == any(b.Subscriber) {
		return errPub
	}
	return errors.Join(errPub, b.Subscriber.Close())
}
