package campaign

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/catalog"
	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/ledger"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// Input describes a campaign a creator wants to run.
type Input struct {
	Name           string
	Description    string
	Platform       domain.Platform
	EngagementType domain.EngagementType
	PayoutPerTask  decimal.Decimal
	TotalTasks     int
	Link           string
}

// Registry manages creator campaigns. Each campaign publishes one catalog
// task and closes it once enough submissions were approved.
type Registry struct {
	campaigns repository.CampaignRepository
	tasks     repository.TaskRepository
	catalog   *catalog.Catalog
	ids       idgen.Generator
	clock     clock.Clock
}

// New builds a registry over repositories bound to the current unit of work.
func New(campaigns repository.CampaignRepository, tasks repository.TaskRepository, cat *catalog.Catalog, ids idgen.Generator, clk clock.Clock) *Registry {
	return &Registry{campaigns: campaigns, tasks: tasks, catalog: cat, ids: ids, clock: clk}
}

// Create stores an ACTIVE campaign and publishes its task. The budget is
// payout per task times total tasks.
func (r *Registry) Create(ctx context.Context, creatorID string, input Input) (*domain.Campaign, *domain.Task, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, nil, apperrors.NewValidationError("campaign name is required", map[string]any{"name": "required"})
	}
	if input.TotalTasks <= 0 {
		return nil, nil, apperrors.NewValidationError("total tasks must be positive", map[string]any{"total_tasks": input.TotalTasks})
	}
	if err := ledger.ValidateAmount(input.PayoutPerTask); err != nil {
		return nil, nil, err
	}

	campaignID := r.ids.NewID()
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = input.Name
	}
	task, err := r.catalog.Publish(ctx, catalog.TaskInput{
		CampaignID:     &campaignID,
		Platform:       input.Platform,
		EngagementType: input.EngagementType,
		Description:    description,
		Payout:         input.PayoutPerTask,
		Link:           input.Link,
	})
	if err != nil {
		return nil, nil, err
	}

	now := r.clock.Now()
	campaign := &domain.Campaign{
		ID:             campaignID,
		CreatorID:      creatorID,
		Name:           input.Name,
		Platform:       task.Platform,
		EngagementType: task.EngagementType,
		Budget:         input.PayoutPerTask.Mul(decimal.NewFromInt(int64(input.TotalTasks))),
		PayoutPerTask:  input.PayoutPerTask,
		TotalTasks:     input.TotalTasks,
		Status:         domain.CampaignActive,
		Link:           task.Link,
		TaskID:         task.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.campaigns.Create(ctx, campaign); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return campaign, task, nil
}

// RecordCompletion counts one approved submission against the campaign owning
// taskID. It returns nil when the task belongs to no campaign.
func (r *Registry) RecordCompletion(ctx context.Context, taskID string) (*domain.Campaign, error) {
	campaign, err := r.campaigns.GetByTaskID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	if campaign.Status == domain.CampaignCompleted {
		return campaign, nil
	}
	campaign.CompletedTasks++
	campaign.UpdatedAt = r.clock.Now()
	if campaign.CompletedTasks >= campaign.TotalTasks {
		campaign.Status = domain.CampaignCompleted
		if err := r.tasks.SetActive(ctx, campaign.TaskID, false); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.MapError(err)
		}
	}
	if err := r.campaigns.Update(ctx, campaign); err != nil {
		return nil, apperrors.MapError(err)
	}
	return campaign, nil
}

// Pause takes an ACTIVE campaign's task off the available list. Approvals of
// submissions made before the pause still count towards the total.
func (r *Registry) Pause(ctx context.Context, creatorID, campaignID string) (*domain.Campaign, error) {
	return r.setStatus(ctx, creatorID, campaignID, domain.CampaignActive, domain.CampaignPaused)
}

// Resume republishes the task of a PAUSED campaign.
func (r *Registry) Resume(ctx context.Context, creatorID, campaignID string) (*domain.Campaign, error) {
	return r.setStatus(ctx, creatorID, campaignID, domain.CampaignPaused, domain.CampaignActive)
}

func (r *Registry) setStatus(ctx context.Context, creatorID, campaignID string, from, to domain.CampaignStatus) (*domain.Campaign, error) {
	campaign, err := r.campaigns.GetForUpdate(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("campaign", map[string]any{"campaign_id": campaignID})
		}
		return nil, apperrors.MapError(err)
	}
	if campaign.CreatorID != creatorID {
		return nil, apperrors.NewForbidden("campaign belongs to another creator")
	}
	if campaign.Status != from {
		return nil, apperrors.NewInvalidTransition("campaign", campaign.Status, to)
	}

	if to == domain.CampaignPaused {
		err = r.catalog.Retire(ctx, campaign.TaskID)
	} else {
		err = r.catalog.Reactivate(ctx, campaign.TaskID)
	}
	if err != nil {
		return nil, err
	}
	campaign.Status = to
	campaign.UpdatedAt = r.clock.Now()
	if err := r.campaigns.Update(ctx, campaign); err != nil {
		return nil, apperrors.MapError(err)
	}
	return campaign, nil
}

// List returns campaigns matching filter.
func (r *Registry) List(ctx context.Context, filter repository.CampaignFilter) ([]domain.Campaign, error) {
	items, err := r.campaigns.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}
