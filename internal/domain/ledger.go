package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits every amount is held to.
const MoneyScale int32 = 2

// EntryKind is the direction of a ledger movement.
type EntryKind string

const (
	EntryCredit EntryKind = "CREDIT"
	EntryDebit  EntryKind = "DEBIT"
)

// LedgerEntry is one journal row; BalanceAfter is the owner's balance once applied.
type LedgerEntry struct {
	ID           string
	UserID       string
	Kind         EntryKind
	Amount       decimal.Decimal
	Reference    string
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}

// EarnerRank is a leaderboard row.
type EarnerRank struct {
	Rank     int
	UserID   string
	Name     string
	Verified bool
	Earnings decimal.Decimal
}
