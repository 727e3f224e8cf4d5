package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/engagement-marketplace/internal/config"
	"github.com/spec-kit/engagement-marketplace/internal/events"
)

// notificationRoute says where an event is announced. Email goes to the user
// whose state changed; the webhook feeds the admin review queue.
type notificationRoute struct {
	subject string
	email   bool
	webhook bool
}

var notificationRoutes = map[events.EventType]notificationRoute{
	events.EventSubmissionCreated:   {subject: "New submission awaiting review", webhook: true},
	events.EventSubmissionApproved:  {subject: "Your submission was approved", email: true},
	events.EventSubmissionRejected:  {subject: "Your submission was rejected", email: true},
	events.EventWithdrawalRequested: {subject: "New withdrawal awaiting review", webhook: true},
	events.EventWithdrawalApproved:  {subject: "Your withdrawal was paid", email: true, webhook: true},
	events.EventWithdrawalRejected:  {subject: "Your withdrawal was rejected", email: true},
	events.EventUserSubscribed:      {subject: "Your account is unlocked", email: true},
	events.EventUserVerified:        {subject: "Your account is verified", email: true},
	events.EventCampaignCreated:     {subject: "Campaign published", email: true, webhook: true},
	events.EventCampaignPaused:      {subject: "Campaign paused", email: true},
	events.EventCampaignResumed:     {subject: "Campaign resumed", email: true},
}

// NotificationService handles emitting notifications for marketplace events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every routed event type.
func (n *NotificationService) RegisterHandlers() {
	if n == nil || n.dispatcher == nil {
		return
	}
	for eventType, route := range notificationRoutes {
		n.dispatcher.Subscribe(eventType, n.handler(route))
	}
}

func (n *NotificationService) handler(route notificationRoute) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.logger.Info("marketplace event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.String("user_id", event.UserID),
			zap.String("resource_id", event.ResourceID),
			zap.Any("payload", event.Payload))
		if route.email {
			n.sendEmailNotificationStub(ctx, route.subject, event)
		}
		if route.webhook {
			n.sendWebhookNotificationStub(ctx, event)
		}
		return nil
	}
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, subject string, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to_user_id", event.UserID),
		zap.String("subject", subject),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("resource_id", event.ResourceID),
		zap.String("event_type", string(event.Type)))
}
