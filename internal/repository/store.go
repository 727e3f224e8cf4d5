package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = pgx.ErrNoRows

// ErrDuplicate is returned when a uniqueness constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// Repositories exposes every repository bound to one unit of work.
type Repositories interface {
	Users() UserRepository
	Tasks() TaskRepository
	Submissions() SubmissionRepository
	Withdrawals() WithdrawalRepository
	Ledger() LedgerRepository
	Campaigns() CampaignRepository
}

// Store runs units of work. Either every write inside fn is applied or none is.
type Store interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
