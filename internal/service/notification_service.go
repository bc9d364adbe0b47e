package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/events"
	"github.com/spec-kit/learning-platform/internal/notify"
)

// WebhookPoster delivers an event document to an external endpoint.
type WebhookPoster interface {
	Post(ctx context.Context, eventType string, body any) error
}

// NotificationService turns domain events into outbound notifications.
type NotificationService struct {
	mailer   notify.Mailer
	webhook  WebhookPoster
	logger   *zap.Logger
	handlers map[events.EventType]func(context.Context, events.Event) error
}

// NotificationDependencies bundles the optional delivery channels. A nil
// channel is skipped.
type NotificationDependencies struct {
	Mailer  notify.Mailer
	Webhook WebhookPoster
	Logger  *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	n := &NotificationService{
		mailer:  deps.Mailer,
		webhook: deps.Webhook,
		logger:  loggerOrNop(deps.Logger),
	}
	n.handlers = map[events.EventType]func(context.Context, events.Event) error{
		events.EventCourseEnrolled:  n.handleCourseEnrolled,
		events.EventCourseCompleted: n.handleCourseCompleted,
		events.EventCourseRated:     n.handleCourseRated,
	}
	return n
}

// HandleEvent routes one event. Unknown types are logged and dropped.
func (n *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	handler, ok := n.handlers[event.Type]
	if !ok {
		n.logger.Debug("ignoring event", zap.String("event_type", string(event.Type)), zap.String("event_id", event.ID))
		return nil
	}
	return handler(ctx, event)
}

func (n *NotificationService) handleCourseEnrolled(ctx context.Context, event events.Event) error {
	n.logger.Info("CourseEnrolled", zap.String("course_id", event.CourseID), zap.String("user_id", event.UserID))
	return n.sendWebhook(ctx, event)
}

func (n *NotificationService) handleCourseCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("CourseCompleted", zap.String("course_id", event.CourseID), zap.String("user_id", event.UserID))
	if err := n.sendWebhook(ctx, event); err != nil {
		return err
	}

	var payload events.CourseCompletedPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}
	return n.sendCompletionEmail(ctx, payload)
}

func (n *NotificationService) handleCourseRated(ctx context.Context, event events.Event) error {
	n.logger.Info("CourseRated", zap.String("course_id", event.CourseID), zap.String("user_id", event.UserID))
	return n.sendWebhook(ctx, event)
}

func (n *NotificationService) sendWebhook(ctx context.Context, event events.Event) error {
	if n.webhook == nil {
		return nil
	}
	if err := n.webhook.Post(ctx, string(event.Type), event); err != nil {
		return fmt.Errorf("webhook %s: %w", event.Type, err)
	}
	n.logger.Debug("webhook delivered", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
	return nil
}

func (n *NotificationService) sendCompletionEmail(ctx context.Context, p events.CourseCompletedPayload) error {
	if n.mailer == nil || p.UserEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("You completed %s", p.CourseTitle)
	text := fmt.Sprintf("Congratulations %s, you finished %s.", p.UserName, p.CourseTitle)
	html := fmt.Sprintf("<p>Congratulations %s, you finished <strong>%s</strong>.</p>", p.UserName, p.CourseTitle)
	if err := n.mailer.Send(ctx, notify.Email{
		ToName:    p.UserName,
		ToAddress: p.UserEmail,
		Subject:   subject,
		Text:      text,
		HTML:      html,
	}); err != nil {
		return fmt.Errorf("completion email: %w", err)
	}
	return nil
}
