package worker

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/events"
)

const notificationHandlerName = "notifications"

// EventHandler consumes one decoded domain event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event events.Event) error
}

// NotificationWorker feeds events from the bus into an EventHandler.
type NotificationWorker struct {
	router *message.Router
	logger *zap.Logger
}

// NewNotificationWorker builds a router consuming topic from subscriber.
// Failed deliveries are retried a few times and then dropped so one bad
// event cannot stall the topic.
func NewNotificationWorker(subscriber message.Subscriber, topic string, handler EventHandler, logger *zap.Logger, wmLogger watermill.LoggerAdapter) (*NotificationWorker, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, err
	}

	w := &NotificationWorker{router: router, logger: logger}
	router.AddMiddleware(
		w.dropFailed,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      2,
			InitialInterval: 200 * time.Millisecond,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
	)
	router.AddNoPublisherHandler(notificationHandlerName, topic, subscriber, func(msg *message.Message) error {
		event, err := events.Decode(msg)
		if err != nil {
			w.logger.Warn("discarding undecodable event", zap.String("message_id", msg.UUID), zap.Error(err))
			return nil
		}
		return handler.HandleEvent(msg.Context(), event)
	})
	return w, nil
}

func (w *NotificationWorker) dropFailed(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil {
			w.logger.Error("notification dropped",
				zap.String("message_id", msg.UUID),
				zap.String("event_type", msg.Metadata.Get(events.MetadataEventType)),
				zap.Error(err))
			return nil, nil
		}
		return out, nil
	}
}

// Run blocks until ctx is cancelled or the router is closed.
func (w *NotificationWorker) Run(ctx context.Context) error {
	return w.router.Run(ctx)
}

// Running is closed once the router has subscribed.
func (w *NotificationWorker) Running() chan struct{} {
	return w.router.Running()
}

// Close stops the router and waits for in-flight handlers.
func (w *NotificationWorker) Close() error {
	return w.router.Close()
}
