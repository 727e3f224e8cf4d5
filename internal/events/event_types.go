package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSubmissionCreated   EventType = "submission_created"
	EventSubmissionApproved  EventType = "submission_approved"
	EventSubmissionRejected  EventType = "submission_rejected"
	EventWithdrawalRequested EventType = "withdrawal_requested"
	EventWithdrawalApproved  EventType = "withdrawal_approved"
	EventWithdrawalRejected  EventType = "withdrawal_rejected"
	EventUserSubscribed      EventType = "user_subscribed"
	EventUserVerified        EventType = "user_verified"
	EventCampaignCreated     EventType = "campaign_created"
	EventCampaignPaused      EventType = "campaign_paused"
	EventCampaignResumed     EventType = "campaign_resumed"
)

// Actor is the user whose command produced the event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event is emitted after the unit of work that produced it has committed.
// UserID names the user whose state changed; ResourceID the submission,
// withdrawal or campaign involved.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	UserID     string      `json:"user_id"`
	ResourceID string      `json:"resource_id,omitempty"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload,omitempty"`
}

// SubmissionPayload accompanies submission events.
type SubmissionPayload struct {
	TaskID   string              `json:"task_id"`
	Status   domain.ReviewStatus `json:"status"`
	Credited *decimal.Decimal    `json:"credited,omitempty"`
}

// WithdrawalPayload accompanies withdrawal events.
type WithdrawalPayload struct {
	Amount decimal.Decimal     `json:"amount"`
	Status domain.ReviewStatus `json:"status"`
}

// CampaignPayload accompanies campaign events.
type CampaignPayload struct {
	Name       string          `json:"name"`
	TaskID     string          `json:"task_id"`
	TotalTasks int             `json:"total_tasks"`
	Budget     decimal.Decimal `json:"budget"`
}
