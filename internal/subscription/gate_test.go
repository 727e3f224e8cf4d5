package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

func TestSubscribeIsIdempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	clk := clock.NewStepping(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Hour)

	err := store.Atomic(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users().Create(ctx, &domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleEngager}); err != nil {
			return err
		}
		gate := New(repos.Users(), clk)

		unlocked, err := gate.IsUnlocked(ctx, "u1")
		if err != nil || unlocked {
			t.Fatalf("fresh user unlocked=%v err=%v", unlocked, err)
		}

		user, changed, err := gate.Subscribe(ctx, "u1")
		if err != nil || !changed {
			t.Fatalf("first subscribe changed=%v err=%v", changed, err)
		}
		firstAt := *user.SubscribedAt

		user, changed, err = gate.Subscribe(ctx, "u1")
		if err != nil || changed {
			t.Fatalf("second subscribe changed=%v err=%v", changed, err)
		}
		if !user.SubscribedAt.Equal(firstAt) {
			t.Errorf("second subscribe moved timestamp")
		}

		unlocked, _ = gate.IsUnlocked(ctx, "u1")
		if !unlocked {
			t.Errorf("user should be unlocked")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("atomic: %v", err)
	}
}

func TestUnknownUsers(t *testing.T) {
	store := repository.NewMemoryStore()
	_ = store.Atomic(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		gate := New(repos.Users(), clock.System())
		if unlocked, err := gate.IsUnlocked(ctx, "ghost"); err != nil || unlocked {
			t.Errorf("unknown user unlocked=%v err=%v", unlocked, err)
		}
		if _, _, err := gate.Subscribe(ctx, "ghost"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected NOT_FOUND, got %v", err)
		}
		return nil
	})
}

func TestRequire(t *testing.T) {
	gate := New(nil, clock.System())
	cases := []struct {
		user domain.User
		want error
	}{
		{domain.User{Role: domain.RoleEngager}, apperrors.ErrSubscriptionRequired},
		{domain.User{Role: domain.RoleEngager, Subscribed: true}, nil},
		{domain.User{Role: domain.RoleCreator}, nil},
		{domain.User{Role: domain.RoleAdmin}, nil},
	}
	for _, tc := range cases {
		err := gate.Require(&tc.user)
		if tc.want == nil && err != nil {
			t.Errorf("%s: unexpected %v", tc.user.Role, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.user.Role, tc.want, err)
		}
	}
}
