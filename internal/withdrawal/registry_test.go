package withdrawal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/ledger"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

var bank = domain.BankDetails{BankName: "First Bank", AccountNumber: "0123456789", AccountName: "Ada Obi"}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type harness struct {
	store *repository.MemoryStore
	ids   *idgen.Sequence
	clock *clock.Stepping
}

func newHarness() *harness {
	return &harness{
		store: repository.NewMemoryStore(),
		ids:   idgen.NewSequence("wd"),
		clock: clock.NewStepping(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Second),
	}
}

func (h *harness) run(t *testing.T, fn func(ctx context.Context, r *Registry, l *ledger.Ledger) error) error {
	t.Helper()
	return h.store.Atomic(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		l := ledger.New(repos.Ledger(), h.ids, h.clock)
		return fn(ctx, New(repos.Withdrawals(), l, h.ids, h.clock), l)
	})
}

func (h *harness) fund(t *testing.T, userID, amount string) {
	t.Helper()
	err := h.run(t, func(ctx context.Context, _ *Registry, l *ledger.Ledger) error {
		_, err := l.Credit(ctx, userID, d(amount), "seed")
		return err
	})
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func TestCreateChecksAmountAndBalance(t *testing.T) {
	h := newHarness()
	h.fund(t, "u1", "1.00")
	_ = h.run(t, func(ctx context.Context, r *Registry, _ *ledger.Ledger) error {
		cases := []struct {
			name   string
			amount string
			bank   domain.BankDetails
			want   error
		}{
			{"zero", "0", bank, apperrors.ErrInvalidAmount},
			{"negative", "-1", bank, apperrors.ErrInvalidAmount},
			{"over balance", "1.01", bank, apperrors.ErrInsufficientFunds},
			{"missing bank", "0.50", domain.BankDetails{BankName: "x"}, apperrors.ErrValidation},
			{"full balance", "1.00", bank, nil},
		}
		for _, tc := range cases {
			request, err := r.Create(ctx, "u1", d(tc.amount), tc.bank)
			if tc.want == nil {
				if err != nil {
					t.Errorf("%s: unexpected error %v", tc.name, err)
					continue
				}
				if request.Status != domain.StatusPending {
					t.Errorf("%s: status %s", tc.name, request.Status)
				}
				continue
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
			}
		}
		return nil
	})
}

func TestApproveDebitsLedger(t *testing.T) {
	h := newHarness()
	h.fund(t, "u1", "0.05")
	_ = h.run(t, func(ctx context.Context, r *Registry, l *ledger.Ledger) error {
		request, err := r.Create(ctx, "u1", d("0.05"), bank)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		approved, err := r.Approve(ctx, request.ID, "admin")
		if err != nil {
			t.Fatalf("approve: %v", err)
		}
		if approved.Status != domain.StatusApproved {
			t.Errorf("status = %s", approved.Status)
		}
		balance, _ := l.Balance(ctx, "u1")
		if !balance.IsZero() {
			t.Errorf("balance = %s, want 0", balance)
		}
		if _, err := r.Create(ctx, "u1", d("0.01"), bank); !errors.Is(err, apperrors.ErrInsufficientFunds) {
			t.Errorf("expected INSUFFICIENT_FUNDS, got %v", err)
		}
		if _, err := r.Approve(ctx, request.ID, "admin"); !errors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected INVALID_TRANSITION, got %v", err)
		}
		return nil
	})
}

func TestApproveRechecksStaleBalance(t *testing.T) {
	h := newHarness()
	h.fund(t, "u1", "1.00")
	_ = h.run(t, func(ctx context.Context, r *Registry, l *ledger.Ledger) error {
		first, _ := r.Create(ctx, "u1", d("0.80"), bank)
		second, _ := r.Create(ctx, "u1", d("0.50"), bank)
		if _, err := r.Approve(ctx, first.ID, "admin"); err != nil {
			t.Fatalf("approve first: %v", err)
		}
		if _, err := r.Approve(ctx, second.ID, "admin"); !errors.Is(err, apperrors.ErrInsufficientFunds) {
			t.Fatalf("expected INSUFFICIENT_FUNDS on stale approval, got %v", err)
		}
		still, _ := r.Get(ctx, second.ID)
		if still.Status != domain.StatusPending {
			t.Errorf("failed approval changed status to %s", still.Status)
		}
		balance, _ := l.Balance(ctx, "u1")
		if !balance.Equal(d("0.20")) {
			t.Errorf("balance = %s, want 0.20", balance)
		}
		return nil
	})
}

func TestRejectLeavesBalance(t *testing.T) {
	h := newHarness()
	h.fund(t, "u1", "0.30")
	_ = h.run(t, func(ctx context.Context, r *Registry, l *ledger.Ledger) error {
		request, _ := r.Create(ctx, "u1", d("0.30"), bank)
		rejected, err := r.Reject(ctx, request.ID, "admin")
		if err != nil {
			t.Fatalf("reject: %v", err)
		}
		if rejected.Status != domain.StatusRejected || rejected.ReviewedBy == nil {
			t.Errorf("unexpected request: %+v", rejected)
		}
		balance, _ := l.Balance(ctx, "u1")
		if !balance.Equal(d("0.30")) {
			t.Errorf("balance = %s, want 0.30", balance)
		}
		if _, err := r.Reject(ctx, request.ID, "admin"); !errors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected INVALID_TRANSITION, got %v", err)
		}
		if _, err := r.Reject(ctx, "missing", "admin"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected NOT_FOUND, got %v", err)
		}
		return nil
	})
}

type lockCountingRequests struct {
	repository.WithdrawalRepository
	reads, locks int
}

func (r *lockCountingRequests) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	r.reads++
	return r.WithdrawalRepository.GetByID(ctx, id)
}

func (r *lockCountingRequests) GetForUpdate(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	r.locks++
	return r.WithdrawalRepository.GetForUpdate(ctx, id)
}

func TestOnlyReviewsLockTheRequest(t *testing.T) {
	h := newHarness()
	h.fund(t, "u1", "1.00")
	err := h.store.Atomic(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		requests := &lockCountingRequests{WithdrawalRepository: repos.Withdrawals()}
		r := New(requests, ledger.New(repos.Ledger(), h.ids, h.clock), h.ids, h.clock)

		created, err := r.Create(ctx, "u1", d("0.40"), bank)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := r.Get(ctx, created.ID); err != nil {
			t.Fatalf("get: %v", err)
		}
		if requests.locks != 0 {
			t.Errorf("lookup took a lock: locks=%d", requests.locks)
		}
		if _, err := r.Approve(ctx, created.ID, "admin"); err != nil {
			t.Fatalf("approve: %v", err)
		}
		if requests.locks != 1 || requests.reads != 1 {
			t.Errorf("approval should lock once: reads=%d locks=%d", requests.reads, requests.locks)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unit: %v", err)
	}
}
