package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// withLedger runs fn inside one committed unit of work.
func withLedger(t *testing.T, store *repository.MemoryStore, fn func(ctx context.Context, l *Ledger) error) error {
	t.Helper()
	ids := idgen.NewSequence("entry")
	clk := clock.NewStepping(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	return store.Atomic(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		return fn(ctx, New(repos.Ledger(), ids, clk))
	})
}

func TestBalanceDefaultsToZero(t *testing.T) {
	store := repository.NewMemoryStore()
	_ = withLedger(t, store, func(ctx context.Context, l *Ledger) error {
		balance, err := l.Balance(ctx, "nobody")
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if !balance.IsZero() {
			t.Errorf("got %s, want 0", balance)
		}
		return nil
	})
}

func TestCreditAndDebit(t *testing.T) {
	store := repository.NewMemoryStore()
	_ = withLedger(t, store, func(ctx context.Context, l *Ledger) error {
		entry, err := l.Credit(ctx, "u1", d("0.05"), "sub-1")
		if err != nil {
			t.Fatalf("credit: %v", err)
		}
		if !entry.BalanceAfter.Equal(d("0.05")) {
			t.Errorf("balance after credit: got %s", entry.BalanceAfter)
		}
		if _, err := l.Debit(ctx, "u1", d("0.05"), "wd-1"); err != nil {
			t.Fatalf("debit: %v", err)
		}
		balance, _ := l.Balance(ctx, "u1")
		if !balance.IsZero() {
			t.Errorf("balance after debit: got %s", balance)
		}
		entries, _ := l.Entries(ctx, "u1", 10)
		if len(entries) != 2 || entries[0].Reference != "wd-1" {
			t.Errorf("entries newest first: %+v", entries)
		}
		return nil
	})
}

func TestAmountValidation(t *testing.T) {
	cases := []struct {
		name   string
		amount string
	}{
		{"zero", "0"},
		{"negative", "-1.00"},
		{"sub cent", "0.001"},
	}
	store := repository.NewMemoryStore()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_ = withLedger(t, store, func(ctx context.Context, l *Ledger) error {
				if _, err := l.Credit(ctx, "u1", d(tc.amount), "x"); !errors.Is(err, apperrors.ErrInvalidAmount) {
					t.Errorf("credit %s: expected INVALID_AMOUNT, got %v", tc.amount, err)
				}
				if _, err := l.Debit(ctx, "u1", d(tc.amount), "x"); !errors.Is(err, apperrors.ErrInvalidAmount) {
					t.Errorf("debit %s: expected INVALID_AMOUNT, got %v", tc.amount, err)
				}
				return nil
			})
		})
	}
}

func TestDebitNeverGoesNegative(t *testing.T) {
	store := repository.NewMemoryStore()
	_ = withLedger(t, store, func(ctx context.Context, l *Ledger) error {
		if _, err := l.Credit(ctx, "u1", d("0.10"), "a"); err != nil {
			t.Fatalf("credit: %v", err)
		}
		steps := []string{"0.04", "0.04", "0.04", "0.02", "0.01"}
		for _, step := range steps {
			_, err := l.Debit(ctx, "u1", d(step), "w")
			balance, _ := l.Balance(ctx, "u1")
			if balance.IsNegative() {
				t.Fatalf("balance went negative: %s", balance)
			}
			if err != nil && !errors.Is(err, apperrors.ErrInsufficientFunds) {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		balance, _ := l.Balance(ctx, "u1")
		if !balance.Equal(d("0.00")) {
			t.Errorf("final balance: got %s, want 0.00", balance)
		}
		return nil
	})
}

func TestTopEarnersRanksByCredited(t *testing.T) {
	store := repository.NewMemoryStore()
	_ = withLedger(t, store, func(ctx context.Context, l *Ledger) error {
		_, _ = l.Credit(ctx, "low", d("0.05"), "a")
		_, _ = l.Credit(ctx, "high", d("1.25"), "b")
		top, err := l.TopEarners(ctx, 5)
		if err != nil {
			t.Fatalf("top earners: %v", err)
		}
		if len(top) != 2 || top[0].UserID != "high" {
			t.Errorf("unexpected ranking: %+v", top)
		}
		return nil
	})
}

type lockCountingRepo struct {
	repository.LedgerRepository
	reads, locks int
}

func (r *lockCountingRepo) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	r.reads++
	return r.LedgerRepository.Balance(ctx, userID)
}

func (r *lockCountingRepo) LockBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	r.locks++
	return r.LedgerRepository.LockBalance(ctx, userID)
}

func TestOnlyMutationsLockTheBalance(t *testing.T) {
	store := repository.NewMemoryStore()
	clk := clock.NewStepping(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	err := store.Atomic(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		repo := &lockCountingRepo{LedgerRepository: repos.Ledger()}
		l := New(repo, idgen.NewSequence("entry"), clk)

		if _, err := l.Balance(ctx, "u1"); err != nil {
			t.Fatalf("balance: %v", err)
		}
		if repo.locks != 0 || repo.reads != 1 {
			t.Errorf("balance read took a lock: reads=%d locks=%d", repo.reads, repo.locks)
		}
		if _, err := l.Credit(ctx, "u1", d("0.10"), "sub-1"); err != nil {
			t.Fatalf("credit: %v", err)
		}
		if _, err := l.Debit(ctx, "u1", d("0.05"), "wd-1"); err != nil {
			t.Fatalf("debit: %v", err)
		}
		if repo.locks != 2 || repo.reads != 1 {
			t.Errorf("mutations should lock: reads=%d locks=%d", repo.reads, repo.locks)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unit: %v", err)
	}
}
