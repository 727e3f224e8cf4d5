package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/engagement-marketplace/internal/config"
	"github.com/spec-kit/engagement-marketplace/internal/events"
)

func TestNotificationServiceRoutesEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher(logger)
	svc := NewNotificationService(dispatcher, logger, config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "https://hooks.example.com/marketplace",
	})
	svc.RegisterHandlers()

	ctx := context.Background()
	_ = dispatcher.Publish(ctx, events.Event{ID: "e1", Type: events.EventSubmissionCreated, UserID: "u1", ResourceID: "s1"})
	_ = dispatcher.Publish(ctx, events.Event{ID: "e2", Type: events.EventSubmissionApproved, UserID: "u1", ResourceID: "s1"})

	if got := logs.FilterMessage("marketplace event").Len(); got != 2 {
		t.Fatalf("expected 2 event logs, got %d", got)
	}
	if got := logs.FilterMessage("sendWebhookNotificationStub").Len(); got != 1 {
		t.Errorf("expected 1 webhook stub, got %d", got)
	}
	emails := logs.FilterMessage("sendEmailNotificationStub").All()
	if len(emails) != 1 {
		t.Fatalf("expected 1 email stub, got %d", len(emails))
	}
	if emails[0].ContextMap()["to_user_id"] != "u1" {
		t.Errorf("email addressed to %v", emails[0].ContextMap()["to_user_id"])
	}
}

func TestNotificationServiceSkipsUnconfiguredChannels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher(logger)
	NewNotificationService(dispatcher, logger, config.NotificationConfig{}).RegisterHandlers()

	_ = dispatcher.Publish(context.Background(), events.Event{ID: "e1", Type: events.EventWithdrawalApproved, UserID: "u1"})

	if logs.FilterMessage("sendEmailNotificationStub").Len() != 0 || logs.FilterMessage("sendWebhookNotificationStub").Len() != 0 {
		t.Errorf("stubs fired without configured channels")
	}
	if logs.FilterMessage("marketplace event").Len() != 1 {
		t.Errorf("event was not logged")
	}
}

func TestEveryEventTypeIsRouted(t *testing.T) {
	all := []events.EventType{
		events.EventSubmissionCreated, events.EventSubmissionApproved, events.EventSubmissionRejected,
		events.EventWithdrawalRequested, events.EventWithdrawalApproved, events.EventWithdrawalRejected,
		events.EventUserSubscribed, events.EventUserVerified,
		events.EventCampaignCreated, events.EventCampaignPaused, events.EventCampaignResumed,
	}
	for _, eventType := range all {
		route, ok := notificationRoutes[eventType]
		if !ok {
			t.Errorf("%s has no route", eventType)
			continue
		}
		if !route.email && !route.webhook {
			t.Errorf("%s is routed nowhere", eventType)
		}
	}
}

func TestRegisterHandlersToleratesMissingDispatcher(t *testing.T) {
	var svc *NotificationService
	svc.RegisterHandlers()
	NewNotificationService(nil, nil, config.NotificationConfig{}).RegisterHandlers()
}
