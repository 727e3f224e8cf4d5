package events

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dispatcher := NewInMemoryDispatcher(zap.New(core))

	var calls []string
	dispatcher.Subscribe(EventSubmissionApproved, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	dispatcher.Subscribe(EventSubmissionApproved, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	dispatcher.Subscribe(EventWithdrawalApproved, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	if err := dispatcher.Publish(context.Background(), Event{ID: "e1", Type: EventSubmissionApproved}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected calls %v", calls)
	}
	if logs.FilterMessage("event handler failed").Len() != 1 {
		t.Errorf("handler failure was not logged")
	}
}
