package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankDetails is the payout destination of a withdrawal.
type BankDetails struct {
	BankName      string
	AccountNumber string
	AccountName   string
}

// WithdrawalRequest is a claim against a user's ledger balance.
type WithdrawalRequest struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Bank        BankDetails
	Status      ReviewStatus
	RequestedAt time.Time
	ReviewedAt  *time.Time
	ReviewedBy  *string
}
