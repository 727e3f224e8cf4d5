package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/domain"
)

// EarnerTotal is the lifetime credited amount of one user.
type EarnerTotal struct {
	UserID   string
	Credited decimal.Decimal
}

// LedgerRepository persists balances and the journal behind them.
type LedgerRepository interface {
	// Balance returns zero for users without ledger activity.
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	// LockBalance is Balance holding the balance row until the unit ends.
	LockBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	// Append records entry and sets the owner's balance to entry.BalanceAfter.
	Append(ctx context.Context, entry *domain.LedgerEntry) error
	Entries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error)
	TopEarners(ctx context.Context, limit int) ([]EarnerTotal, error)
}

type ledgerRepository struct {
	db Querier
}

// NewLedgerRepository instantiates repository.
func NewLedgerRepository(db Querier) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return r.balance(ctx, `SELECT balance FROM ledger_balances WHERE user_id=$1`, userID)
}

func (r *ledgerRepository) LockBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return r.balance(ctx, `SELECT balance FROM ledger_balances WHERE user_id=$1 FOR UPDATE`, userID)
}

func (r *ledgerRepository) balance(ctx context.Context, query, userID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, query, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	return balance, err
}

func (r *ledgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	const insertEntry = `
        INSERT INTO ledger_entries (id, user_id, kind, amount, reference, balance_after, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := r.db.Exec(ctx, insertEntry,
		entry.ID,
		entry.UserID,
		entry.Kind,
		entry.Amount,
		entry.Reference,
		entry.BalanceAfter,
		entry.CreatedAt,
	); err != nil {
		return err
	}

	credited := decimal.Zero
	if entry.Kind == domain.EntryCredit {
		credited = entry.Amount
	}
	const upsertBalance = `
        INSERT INTO ledger_balances (user_id, balance, total_credited, updated_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id) DO UPDATE SET balance=EXCLUDED.balance,
            total_credited=ledger_balances.total_credited + EXCLUDED.total_credited,
            updated_at=EXCLUDED.updated_at`
	_, err := r.db.Exec(ctx, upsertBalance, entry.UserID, entry.BalanceAfter, credited, entry.CreatedAt)
	return err
}

func (r *ledgerRepository) Entries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, user_id, kind, amount, reference, balance_after, created_at
        FROM ledger_entries WHERE user_id=$1
        ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.LedgerEntry{}
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Kind,
			&entry.Amount,
			&entry.Reference,
			&entry.BalanceAfter,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *ledgerRepository) TopEarners(ctx context.Context, limit int) ([]EarnerTotal, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
        SELECT user_id, total_credited FROM ledger_balances
        WHERE total_credited > 0
        ORDER BY total_credited DESC, user_id ASC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []EarnerTotal{}
	for rows.Next() {
		var total EarnerTotal
		if err := rows.Scan(&total.UserID, &total.Credited); err != nil {
			return nil, err
		}
		result = append(result, total)
	}
	return result, rows.Err()
}
