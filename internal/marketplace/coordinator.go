package marketplace

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/engagement-marketplace/internal/campaign"
	"github.com/spec-kit/engagement-marketplace/internal/catalog"
	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/events"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/ledger"
	"github.com/spec-kit/engagement-marketplace/internal/lock"
	"github.com/spec-kit/engagement-marketplace/internal/observability"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	"github.com/spec-kit/engagement-marketplace/internal/submission"
	"github.com/spec-kit/engagement-marketplace/internal/subscription"
	"github.com/spec-kit/engagement-marketplace/internal/withdrawal"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

const defaultLockTimeout = 5 * time.Second

// Dependencies bundles collaborators for the coordinator.
type Dependencies struct {
	Store       repository.Store
	Locker      lock.Locker
	IDs         idgen.Generator
	Clock       clock.Clock
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	LockTimeout time.Duration
}

// Coordinator is the single entry point for marketplace commands. Every
// command that changes a user's money or review state holds that user's lock
// and runs as one unit of work.
type Coordinator struct {
	store       repository.Store
	locker      lock.Locker
	ids         idgen.Generator
	clock       clock.Clock
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
	lockTimeout time.Duration
}

// New constructs the coordinator. Store is required; the remaining
// dependencies fall back to in-process defaults.
func New(deps Dependencies) *Coordinator {
	c := &Coordinator{
		store:       deps.Store,
		locker:      deps.Locker,
		ids:         deps.IDs,
		clock:       deps.Clock,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		lockTimeout: deps.LockTimeout,
	}
	if c.locker == nil {
		c.locker = lock.NewKeyedMutex()
	}
	if c.ids == nil {
		c.ids = idgen.NewUUID()
	}
	if c.clock == nil {
		c.clock = clock.System()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.lockTimeout <= 0 {
		c.lockTimeout = defaultLockTimeout
	}
	return c
}

// unit holds the components bound to one unit of work.
type unit struct {
	repos       repository.Repositories
	ledger      *ledger.Ledger
	catalog     *catalog.Catalog
	submissions *submission.Registry
	withdrawals *withdrawal.Registry
	gate        *subscription.Gate
	campaigns   *campaign.Registry
}

func (c *Coordinator) atomic(ctx context.Context, fn func(ctx context.Context, u *unit) error) error {
	return c.store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		l := ledger.New(repos.Ledger(), c.ids, c.clock)
		cat := catalog.New(repos.Tasks(), c.ids, c.clock)
		return fn(ctx, &unit{
			repos:       repos,
			ledger:      l,
			catalog:     cat,
			submissions: submission.New(repos.Submissions(), repos.Tasks(), c.ids, c.clock),
			withdrawals: withdrawal.New(repos.Withdrawals(), l, c.ids, c.clock),
			gate:        subscription.New(repos.Users(), c.clock),
			campaigns:   campaign.New(repos.Campaigns(), repos.Tasks(), cat, c.ids, c.clock),
		})
	})
}

// serialized runs fn while holding the locks of every listed user.
func (c *Coordinator) serialized(ctx context.Context, userIDs []string, fn func() error) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, lock.UserKey(id))
	}
	lockCtx, cancel := context.WithTimeout(ctx, c.lockTimeout)
	defer cancel()
	release, err := lock.LockMany(lockCtx, c.locker, keys...)
	if err != nil {
		return apperrors.NewUnavailable("user is busy, retry shortly", err)
	}
	defer release()
	return fn()
}

// authorize is the only place role checks happen.
func authorize(user *domain.User, allowed ...domain.Role) error {
	for _, role := range allowed {
		if user.Role == role {
			return nil
		}
	}
	return apperrors.NewForbidden("role " + string(user.Role) + " may not perform this action")
}

// actor loads the calling user. Unknown callers are unauthorized.
func (u *unit) actor(ctx context.Context, userID string, allowed ...domain.Role) (*domain.User, error) {
	user, err := u.repos.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("unknown user")
		}
		return nil, apperrors.MapError(err)
	}
	if len(allowed) > 0 {
		if err := authorize(user, allowed...); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (u *unit) user(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.repos.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (c *Coordinator) observe(operation string, started time.Time, err error, fields ...zap.Field) {
	code := apperrors.CodeOf(err)
	c.metrics.RecordOperation(operation, code)
	fields = append(fields,
		zap.String("operation", operation),
		zap.Duration("latency", time.Since(started)))
	switch {
	case err == nil:
		c.logger.Info("marketplace command completed", fields...)
	case code == apperrors.CodeInternal:
		c.logger.Error("marketplace command failed", append(fields, zap.Error(err))...)
	default:
		c.logger.Warn("marketplace command rejected", append(fields, zap.String("code", code), zap.Error(err))...)
	}
}

func (c *Coordinator) publish(ctx context.Context, event events.Event) {
	if c.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = c.ids.NewID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.clock.Now()
	}
	_ = c.dispatcher.Publish(ctx, event)
}

func actorOf(user *domain.User) events.Actor {
	return events.Actor{UserID: user.ID, Role: user.Role}
}
