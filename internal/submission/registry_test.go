package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

type fixture struct {
	store *repository.MemoryStore
	ids   *idgen.Sequence
	clock *clock.Stepping
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: repository.NewMemoryStore(),
		ids:   idgen.NewSequence("sub"),
		clock: clock.NewStepping(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Minute),
	}
	err := f.store.Atomic(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		for _, task := range []domain.Task{
			{ID: "t1", Platform: domain.PlatformInstagram, EngagementType: domain.EngagementLike, Payout: decimal.RequireFromString("0.05"), Link: "l1", Active: true},
			{ID: "t2", Platform: domain.PlatformYouTube, EngagementType: domain.EngagementFollow, Payout: decimal.RequireFromString("0.15"), Link: "l2", Active: true},
			{ID: "old", Platform: domain.PlatformTikTok, EngagementType: domain.EngagementView, Payout: decimal.RequireFromString("0.02"), Link: "l3", Active: false},
		} {
			task := task
			if err := repos.Tasks().Create(ctx, &task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed tasks: %v", err)
	}
	return f
}

func (f *fixture) run(t *testing.T, fn func(ctx context.Context, r *Registry) error) error {
	t.Helper()
	return f.store.Atomic(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		return fn(ctx, New(repos.Submissions(), repos.Tasks(), f.ids, f.clock))
	})
}

func TestCreatePending(t *testing.T) {
	f := newFixture(t)
	_ = f.run(t, func(ctx context.Context, r *Registry) error {
		sub, err := r.Create(ctx, "u1", "t1", "screenshot.png")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if sub.ID != "sub-1" || sub.Status != domain.StatusPending {
			t.Errorf("unexpected submission: %+v", sub)
		}
		if sub.ReviewedAt != nil || sub.ReviewedBy != nil {
			t.Errorf("pending submission carries review data")
		}
		return nil
	})
}

func TestCreateRejectsUnknownTaskAndMissingProof(t *testing.T) {
	f := newFixture(t)
	_ = f.run(t, func(ctx context.Context, r *Registry) error {
		if _, err := r.Create(ctx, "u1", "missing", "p"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected NOT_FOUND for unknown task, got %v", err)
		}
		if _, err := r.Create(ctx, "u1", "old", "p"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected NOT_FOUND for inactive task, got %v", err)
		}
		if _, err := r.Create(ctx, "u1", "t1", "  "); !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("expected VALIDATION_FAILED, got %v", err)
		}
		return nil
	})
}

func TestDuplicatePendingPerUserAndTask(t *testing.T) {
	f := newFixture(t)
	_ = f.run(t, func(ctx context.Context, r *Registry) error {
		first, err := r.Create(ctx, "u1", "t1", "a")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := r.Create(ctx, "u1", "t1", "b"); !errors.Is(err, apperrors.ErrDuplicatePending) {
			t.Fatalf("expected DUPLICATE_PENDING, got %v", err)
		}
		if _, err := r.Create(ctx, "u1", "t2", "c"); err != nil {
			t.Errorf("other task should be allowed: %v", err)
		}
		if _, err := r.Create(ctx, "u2", "t1", "d"); err != nil {
			t.Errorf("other user should be allowed: %v", err)
		}

		if _, err := r.Reject(ctx, first.ID, "admin"); err != nil {
			t.Fatalf("reject: %v", err)
		}
		if _, err := r.Create(ctx, "u1", "t1", "retry"); err != nil {
			t.Errorf("resubmission after rejection should be allowed: %v", err)
		}
		return nil
	})
}

func TestTransitionsAreOneWay(t *testing.T) {
	f := newFixture(t)
	_ = f.run(t, func(ctx context.Context, r *Registry) error {
		sub, _ := r.Create(ctx, "u1", "t1", "p")
		approved, err := r.Approve(ctx, sub.ID, "admin-1")
		if err != nil {
			t.Fatalf("approve: %v", err)
		}
		if approved.Status != domain.StatusApproved || approved.ReviewedAt == nil || *approved.ReviewedBy != "admin-1" {
			t.Errorf("unexpected approved submission: %+v", approved)
		}
		if _, err := r.Approve(ctx, sub.ID, "admin-1"); !errors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected INVALID_TRANSITION on second approve, got %v", err)
		}
		if _, err := r.Reject(ctx, sub.ID, "admin-1"); !errors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected INVALID_TRANSITION on reject after approve, got %v", err)
		}
		if _, err := r.Approve(ctx, "nope", "admin-1"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected NOT_FOUND, got %v", err)
		}
		return nil
	})
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	_ = f.run(t, func(ctx context.Context, r *Registry) error {
		a, _ := r.Create(ctx, "u1", "t1", "a")
		b, _ := r.Create(ctx, "u1", "t2", "b")
		_, _ = r.Create(ctx, "u2", "t1", "c")
		if _, err := r.Approve(ctx, b.ID, "admin"); err != nil {
			t.Fatalf("approve: %v", err)
		}

		pending, err := r.ListByStatus(ctx, domain.StatusPending)
		if err != nil {
			t.Fatalf("list pending: %v", err)
		}
		if len(pending) != 2 || pending[0].ID != a.ID {
			t.Errorf("pending listing wrong: %+v", pending)
		}
		mine, _ := r.ListByUser(ctx, "u1")
		if len(mine) != 2 || mine[0].ID != b.ID {
			t.Errorf("user listing should be newest first: %+v", mine)
		}
		if _, err := r.ListByStatus(ctx, "LOST"); !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("expected VALIDATION_FAILED, got %v", err)
		}
		return nil
	})
}
