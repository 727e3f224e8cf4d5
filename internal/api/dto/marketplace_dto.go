package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskResponse is a catalog entry.
type TaskResponse struct {
	ID             string  `json:"id"`
	CampaignID     *string `json:"campaign_id,omitempty"`
	Platform       string  `json:"platform"`
	EngagementType string  `json:"engagement_type"`
	Description    string  `json:"description"`
	Payout         string  `json:"payout"`
	Link           string  `json:"link"`
}

// SubmitTaskRequest payload for POST /submissions.
type SubmitTaskRequest struct {
	TaskID   string `json:"task_id"`
	ProofRef string `json:"proof_ref"`
}

// SubmissionResponse describes a submission and its review state.
type SubmissionResponse struct {
	ID          string     `json:"id"`
	TaskID      string     `json:"task_id"`
	UserID      string     `json:"user_id"`
	ProofRef    string     `json:"proof_ref"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
}

// ReviewRequest carries an admin decision: APPROVE or REJECT.
type ReviewRequest struct {
	Decision string `json:"decision"`
}

// SubmissionReviewResponse is returned after reviewing a submission.
type SubmissionReviewResponse struct {
	Submission SubmissionResponse `json:"submission"`
	Credited   string             `json:"credited"`
	Balance    string             `json:"balance"`
	Campaign   *CampaignResponse  `json:"campaign,omitempty"`
}

// BankDetails is the payout destination.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// WithdrawalCreateRequest payload for POST /withdrawals. Amount accepts a JSON
// number or a decimal string.
type WithdrawalCreateRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Bank   BankDetails     `json:"bank"`
}

// WithdrawalResponse describes a withdrawal request.
type WithdrawalResponse struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Amount      string      `json:"amount"`
	Bank        BankDetails `json:"bank"`
	Status      string      `json:"status"`
	RequestedAt time.Time   `json:"requested_at"`
	ReviewedAt  *time.Time  `json:"reviewed_at,omitempty"`
	ReviewedBy  *string     `json:"reviewed_by,omitempty"`
}

// WithdrawalReviewResponse is returned after reviewing a withdrawal.
type WithdrawalReviewResponse struct {
	Withdrawal WithdrawalResponse `json:"withdrawal"`
	Balance    string             `json:"balance"`
}

// LedgerEntryResponse is one journal row.
type LedgerEntryResponse struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Amount       string    `json:"amount"`
	Reference    string    `json:"reference"`
	BalanceAfter string    `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// CampaignCreateRequest payload for POST /campaigns.
type CampaignCreateRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Platform       string          `json:"platform"`
	EngagementType string          `json:"engagement_type"`
	PayoutPerTask  decimal.Decimal `json:"payout_per_task"`
	TotalTasks     int             `json:"total_tasks"`
	Link           string          `json:"link"`
}

// CampaignResponse describes a campaign and its progress.
type CampaignResponse struct {
	ID             string    `json:"id"`
	CreatorID      string    `json:"creator_id"`
	Name           string    `json:"name"`
	Platform       string    `json:"platform"`
	EngagementType string    `json:"engagement_type"`
	Budget         string    `json:"budget"`
	PayoutPerTask  string    `json:"payout_per_task"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	Status         string    `json:"status"`
	Link           string    `json:"link"`
	TaskID         string    `json:"task_id"`
	CreatedAt      time.Time `json:"created_at"`
}
