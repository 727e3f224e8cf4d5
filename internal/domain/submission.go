package domain

import "time"

// Submission is an engager's claim to have completed a task.
type Submission struct {
	ID          string
	TaskID      string
	UserID      string
	ProofRef    string
	Status      ReviewStatus
	SubmittedAt time.Time
	ReviewedAt  *time.Time
	ReviewedBy  *string
}
