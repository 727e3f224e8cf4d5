package marketplace

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/engagement-marketplace/internal/campaign"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/events"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
)

// Account is a user's profile together with the current balance.
type Account struct {
	User    domain.User
	Balance decimal.Decimal
}

// Account returns the caller's profile and balance.
func (c *Coordinator) Account(ctx context.Context, userID string) (*Account, error) {
	var account *Account
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		user, err := u.actor(ctx, userID)
		if err != nil {
			return err
		}
		balance, err := u.ledger.Balance(ctx, userID)
		if err != nil {
			return err
		}
		account = &Account{User: *user, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Balance returns the user's balance; unknown users hold zero.
func (c *Coordinator) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		var err error
		balance, err = u.ledger.Balance(ctx, userID)
		return err
	})
	return balance, err
}

// LedgerEntries returns the user's journal, newest first.
func (c *Coordinator) LedgerEntries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		var err error
		entries, err = u.ledger.Entries(ctx, userID, limit)
		return err
	})
	return entries, err
}

// IsUnlocked reports whether the user has subscribed.
func (c *Coordinator) IsUnlocked(ctx context.Context, userID string) (bool, error) {
	var unlocked bool
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		var err error
		unlocked, err = u.gate.IsUnlocked(ctx, userID)
		return err
	})
	return unlocked, err
}

// ListAvailableTasks returns the active catalog in publication order. Engagers
// must have subscribed to browse it.
func (c *Coordinator) ListAvailableTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		user, err := u.actor(ctx, userID)
		if err != nil {
			return err
		}
		if err := u.gate.Require(user); err != nil {
			return err
		}
		tasks, err = u.catalog.ListAvailable(ctx)
		return err
	})
	return tasks, err
}

// GetTask fails with NOT_FOUND for unknown ids.
func (c *Coordinator) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	var task *domain.Task
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		var err error
		task, err = u.catalog.GetTask(ctx, taskID)
		return err
	})
	return task, err
}

// SeedCatalog publishes the starter tasks into an empty catalog.
func (c *Coordinator) SeedCatalog(ctx context.Context) (int, error) {
	var seeded int
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		var err error
		seeded, err = u.catalog.SeedDefaults(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	if seeded > 0 {
		c.logger.Info("task catalog seeded", zap.Int("tasks", seeded))
	}
	return seeded, nil
}

// ListSubmissions returns submissions in the given state, oldest first. Admin only.
func (c *Coordinator) ListSubmissions(ctx context.Context, adminID string, status domain.ReviewStatus) ([]domain.Submission, error) {
	var items []domain.Submission
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		if _, err := u.actor(ctx, adminID, domain.RoleAdmin); err != nil {
			return err
		}
		var err error
		items, err = u.submissions.ListByStatus(ctx, status)
		return err
	})
	return items, err
}

// ListWithdrawals returns withdrawal requests in the given state, oldest first. Admin only.
func (c *Coordinator) ListWithdrawals(ctx context.Context, adminID string, status domain.ReviewStatus) ([]domain.WithdrawalRequest, error) {
	var items []domain.WithdrawalRequest
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		if _, err := u.actor(ctx, adminID, domain.RoleAdmin); err != nil {
			return err
		}
		var err error
		items, err = u.withdrawals.ListByStatus(ctx, status)
		return err
	})
	return items, err
}

// MySubmissions returns the caller's submissions, newest first.
func (c *Coordinator) MySubmissions(ctx context.Context, userID string) ([]domain.Submission, error) {
	var items []domain.Submission
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		var err error
		items, err = u.submissions.ListByUser(ctx, userID)
		return err
	})
	return items, err
}

// MyWithdrawals returns the caller's withdrawal requests, newest first.
func (c *Coordinator) MyWithdrawals(ctx context.Context, userID string) ([]domain.WithdrawalRequest, error) {
	var items []domain.WithdrawalRequest
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		var err error
		items, err = u.withdrawals.ListByUser(ctx, userID)
		return err
	})
	return items, err
}

// Leaderboard ranks users by lifetime earnings.
func (c *Coordinator) Leaderboard(ctx context.Context, limit int) ([]domain.EarnerRank, error) {
	var ranks []domain.EarnerRank
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		totals, err := u.ledger.TopEarners(ctx, limit)
		if err != nil {
			return err
		}
		ranks = make([]domain.EarnerRank, 0, len(totals))
		for i, total := range totals {
			rank := domain.EarnerRank{Rank: i + 1, UserID: total.UserID, Earnings: total.Credited}
			if user, err := u.user(ctx, total.UserID); err == nil {
				rank.Name = user.Name
				rank.Verified = user.Verified
			}
			ranks = append(ranks, rank)
		}
		return nil
	})
	return ranks, err
}

// CreateCampaign starts a campaign and publishes its task. Creator only.
func (c *Coordinator) CreateCampaign(ctx context.Context, creatorID string, input campaign.Input) (result *domain.Campaign, err error) {
	started := time.Now()
	defer func() {
		c.observe("create_campaign", started, err, zap.String("creator_id", creatorID))
	}()

	var creator *domain.User
	err = c.serialized(ctx, []string{creatorID}, func() error {
		return c.atomic(ctx, func(ctx context.Context, u *unit) error {
			var err error
			creator, err = u.actor(ctx, creatorID, domain.RoleCreator)
			if err != nil {
				return err
			}
			result, _, err = u.campaigns.Create(ctx, creatorID, input)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	c.publish(ctx, events.Event{
		Type:       events.EventCampaignCreated,
		UserID:     creatorID,
		ResourceID: result.ID,
		Actor:      actorOf(creator),
		Payload: events.CampaignPayload{
			Name:       result.Name,
			TaskID:     result.TaskID,
			TotalTasks: result.TotalTasks,
			Budget:     result.Budget,
		},
	})
	return result, nil
}

// PauseCampaign withdraws the campaign's task from the catalog. Owner only.
func (c *Coordinator) PauseCampaign(ctx context.Context, creatorID, campaignID string) (*domain.Campaign, error) {
	return c.toggleCampaign(ctx, "pause_campaign", creatorID, campaignID, true)
}

// ResumeCampaign puts a paused campaign's task back in the catalog. Owner only.
func (c *Coordinator) ResumeCampaign(ctx context.Context, creatorID, campaignID string) (*domain.Campaign, error) {
	return c.toggleCampaign(ctx, "resume_campaign", creatorID, campaignID, false)
}

func (c *Coordinator) toggleCampaign(ctx context.Context, op, creatorID, campaignID string, pause bool) (result *domain.Campaign, err error) {
	started := time.Now()
	defer func() {
		c.observe(op, started, err,
			zap.String("creator_id", creatorID),
			zap.String("campaign_id", campaignID))
	}()

	var creator *domain.User
	err = c.serialized(ctx, []string{creatorID}, func() error {
		return c.atomic(ctx, func(ctx context.Context, u *unit) error {
			var err error
			creator, err = u.actor(ctx, creatorID, domain.RoleCreator)
			if err != nil {
				return err
			}
			if pause {
				result, err = u.campaigns.Pause(ctx, creatorID, campaignID)
			} else {
				result, err = u.campaigns.Resume(ctx, creatorID, campaignID)
			}
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	eventType := events.EventCampaignResumed
	if pause {
		eventType = events.EventCampaignPaused
	}
	c.publish(ctx, events.Event{
		Type:       eventType,
		UserID:     creatorID,
		ResourceID: result.ID,
		Actor:      actorOf(creator),
		Payload: events.CampaignPayload{
			Name:       result.Name,
			TaskID:     result.TaskID,
			TotalTasks: result.TotalTasks,
			Budget:     result.Budget,
		},
	})
	return result, nil
}

// ListCampaigns returns the caller's campaigns, or every campaign for admins.
func (c *Coordinator) ListCampaigns(ctx context.Context, userID string, status *domain.CampaignStatus) ([]domain.Campaign, error) {
	var items []domain.Campaign
	err := c.atomic(ctx, func(ctx context.Context, u *unit) error {
		user, err := u.actor(ctx, userID, domain.RoleCreator, domain.RoleAdmin)
		if err != nil {
			return err
		}
		filter := repository.CampaignFilter{Status: status}
		if user.Role == domain.RoleCreator {
			filter.CreatorID = &user.ID
		}
		items, err = u.campaigns.List(ctx, filter)
		return err
	})
	return items, err
}
