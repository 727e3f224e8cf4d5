package subscription

import (
	"context"
	"errors"

	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// Gate records the one-time unlock engagers need before submitting work.
type Gate struct {
	users repository.UserRepository
	clock clock.Clock
}

// New builds a gate over a repository bound to the current unit of work.
func New(users repository.UserRepository, clk clock.Clock) *Gate {
	return &Gate{users: users, clock: clk}
}

// IsUnlocked reports false for unknown users.
func (g *Gate) IsUnlocked(ctx context.Context, userID string) (bool, error) {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.MapError(err)
	}
	return user.Subscribed, nil
}

// Subscribe unlocks the user permanently. Subscribing again is a no-op and
// changed reports false.
func (g *Gate) Subscribe(ctx context.Context, userID string) (user *domain.User, changed bool, err error) {
	user, err = g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, false, apperrors.MapError(err)
	}
	if user.Subscribed {
		return user, false, nil
	}
	now := g.clock.Now()
	user.Subscribed = true
	user.SubscribedAt = &now
	user.UpdatedAt = now
	if err := g.users.Update(ctx, user); err != nil {
		return nil, false, apperrors.MapError(err)
	}
	return user, true, nil
}

// Require fails with SUBSCRIPTION_REQUIRED when an engager has not unlocked.
// Other roles pass.
func (g *Gate) Require(user *domain.User) error {
	if user.Role == domain.RoleEngager && !user.Subscribed {
		return apperrors.NewSubscriptionRequired()
	}
	return nil
}
