//go:build integration

package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/engagement-marketplace/internal/config"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/ledger"
	"github.com/spec-kit/engagement-marketplace/internal/persistence"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// Run with MARKETPLACE_TEST_POSTGRES_DSN pointing at a disposable database.
const dsnEnv = "MARKETPLACE_TEST_POSTGRES_DSN"

var ids = idgen.NewSequence("it")

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// openStore connects a fresh pool, as a restarted process would.
func openStore(t *testing.T) (*repository.PostgresStore, func()) {
	t.Helper()
	pg := connect(t)
	return repository.NewPostgresStore(pg.Pool), pg.Close
}

func connect(t *testing.T) *persistence.Postgres {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}
	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 4}, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := persistence.RunMigrations(ctx, pg.Pool, "../../migrations", zap.NewNop()); err != nil {
		pg.Close()
		t.Fatalf("migrate: %v", err)
	}
	return pg
}

func resetDatabase(t *testing.T) {
	t.Helper()
	pg := connect(t)
	defer pg.Close()
	_, err := pg.Pool.Exec(context.Background(),
		`TRUNCATE ledger_balances, ledger_entries, withdrawals, submissions, tasks, campaigns, users CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func seedUserAndTask(t *testing.T, store repository.Store) {
	t.Helper()
	now := utcClock{}.Now()
	err := store.Atomic(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users().Create(ctx, &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleEngager, CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return repos.Tasks().Create(ctx, &domain.Task{
			ID: "t1", Platform: domain.PlatformInstagram, EngagementType: domain.EngagementLike,
			Payout: d("0.15"), Link: "https://instagram.com/p/1", Active: true, CreatedAt: now,
		})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestPostgresStateSurvivesRestart(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()

	store, closeStore := openStore(t)
	seedUserAndTask(t, store)
	err := store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		l := ledger.New(repos.Ledger(), ids, utcClock{})
		if _, err := l.Credit(ctx, "u1", d("0.15"), "submission:s0"); err != nil {
			return err
		}
		if _, err := l.Debit(ctx, "u1", d("0.05"), "withdrawal:w0"); err != nil {
			return err
		}
		return repos.Submissions().Create(ctx, &domain.Submission{
			ID: "s1", TaskID: "t1", UserID: "u1", ProofRef: "proof", Status: domain.StatusPending, SubmittedAt: utcClock{}.Now(),
		})
	})
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	closeStore()

	store, closeStore = openStore(t)
	defer closeStore()
	err = store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		balance, err := repos.Ledger().Balance(ctx, "u1")
		if err != nil {
			return err
		}
		if !balance.Equal(d("0.10")) {
			t.Errorf("balance after restart = %s", balance)
		}
		entries, err := repos.Ledger().Entries(ctx, "u1", 10)
		if err != nil {
			return err
		}
		if len(entries) != 2 || !entries[0].BalanceAfter.Equal(balance) {
			t.Errorf("journal does not explain balance: %+v", entries)
		}
		top, err := repos.Ledger().TopEarners(ctx, 5)
		if err != nil {
			return err
		}
		if len(top) != 1 || !top[0].Credited.Equal(d("0.15")) {
			t.Errorf("top earners = %+v", top)
		}
		pending, err := repos.Submissions().GetByID(ctx, "s1")
		if err != nil {
			return err
		}
		if pending.Status != domain.StatusPending {
			t.Errorf("submission status = %s", pending.Status)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second process: %v", err)
	}

	err = store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Submissions().Create(ctx, &domain.Submission{
			ID: "s2", TaskID: "t1", UserID: "u1", ProofRef: "again", Status: domain.StatusPending, SubmittedAt: utcClock{}.Now(),
		})
	})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("second pending claim after restart: %v", err)
	}
}

func TestPostgresFailedUnitLeavesNoTrace(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	store, closeStore := openStore(t)
	defer closeStore()
	seedUserAndTask(t, store)

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := ledger.New(repos.Ledger(), ids, utcClock{}).Credit(ctx, "u1", d("0.15"), "submission:s1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	_ = store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		balance, _ := repos.Ledger().Balance(ctx, "u1")
		entries, _ := repos.Ledger().Entries(ctx, "u1", 10)
		if !balance.IsZero() || len(entries) != 0 {
			t.Errorf("rolled back credit persisted: balance=%s entries=%d", balance, len(entries))
		}
		return nil
	})
}

func TestPostgresConcurrentDebitsNeverOverdraw(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	store, closeStore := openStore(t)
	defer closeStore()
	seedUserAndTask(t, store)
	_ = store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := ledger.New(repos.Ledger(), ids, utcClock{}).Credit(ctx, "u1", d("0.15"), "seed")
		return err
	})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
				_, err := ledger.New(repos.Ledger(), ids, utcClock{}).Debit(ctx, "u1", d("0.10"), "withdrawal")
				return err
			})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, apperrors.ErrInsufficientFunds):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one debit, got %d", succeeded)
	}
	_ = store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		balance, _ := repos.Ledger().Balance(ctx, "u1")
		if !balance.Equal(d("0.05")) {
			t.Errorf("balance = %s", balance)
		}
		return nil
	})
}
