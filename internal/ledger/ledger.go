package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// Ledger owns per-user earning balances. Balances never go negative.
type Ledger struct {
	repo  repository.LedgerRepository
	ids   idgen.Generator
	clock clock.Clock
}

// New builds a ledger over a repository bound to the current unit of work.
func New(repo repository.LedgerRepository, ids idgen.Generator, clk clock.Clock) *Ledger {
	return &Ledger{repo: repo, ids: ids, clock: clk}
}

// ValidateAmount requires a positive amount with at most two fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.NewInvalidAmount("amount must be greater than zero", map[string]any{"amount": amount.String()})
	}
	if !amount.Equal(amount.Truncate(domain.MoneyScale)) {
		return apperrors.NewInvalidAmount("amount has too many decimal places", map[string]any{"amount": amount.String()})
	}
	return nil
}

// Balance returns the current balance; unknown users hold zero.
func (l *Ledger) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	balance, err := l.repo.Balance(ctx, userID)
	if err != nil {
		return decimal.Zero, apperrors.MapError(err)
	}
	return balance, nil
}

func (l *Ledger) lockedBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	balance, err := l.repo.LockBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, apperrors.MapError(err)
	}
	return balance, nil
}

// Credit increases the balance. Callers must not credit the same approval twice.
func (l *Ledger) Credit(ctx context.Context, userID string, amount decimal.Decimal, reference string) (*domain.LedgerEntry, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	balance, err := l.lockedBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.append(ctx, userID, domain.EntryCredit, amount, reference, balance.Add(amount))
}

// Debit decreases the balance and fails with INSUFFICIENT_FUNDS rather than going negative.
func (l *Ledger) Debit(ctx context.Context, userID string, amount decimal.Decimal, reference string) (*domain.LedgerEntry, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	balance, err := l.lockedBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(balance) {
		return nil, apperrors.NewInsufficientFunds(map[string]any{
			"balance":   balance.StringFixed(domain.MoneyScale),
			"requested": amount.StringFixed(domain.MoneyScale),
		})
	}
	return l.append(ctx, userID, domain.EntryDebit, amount, reference, balance.Sub(amount))
}

// Entries returns the user's journal, newest first.
func (l *Ledger) Entries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	entries, err := l.repo.Entries(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// TopEarners ranks users by lifetime credited amount.
func (l *Ledger) TopEarners(ctx context.Context, limit int) ([]repository.EarnerTotal, error) {
	totals, err := l.repo.TopEarners(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return totals, nil
}

func (l *Ledger) append(ctx context.Context, userID string, kind domain.EntryKind, amount decimal.Decimal, reference string, after decimal.Decimal) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{
		ID:           l.ids.NewID(),
		UserID:       userID,
		Kind:         kind,
		Amount:       amount,
		Reference:    reference,
		BalanceAfter: after,
		CreatedAt:    l.clock.Now(),
	}
	if err := l.repo.Append(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	return entry, nil
}
