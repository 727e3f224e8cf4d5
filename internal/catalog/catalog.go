package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// Catalog is the set of tasks engagers can pick from.
type Catalog struct {
	tasks repository.TaskRepository
	ids   idgen.Generator
	clock clock.Clock
}

// TaskInput describes a task to publish.
type TaskInput struct {
	ID             string
	CampaignID     *string
	Platform       domain.Platform
	EngagementType domain.EngagementType
	Description    string
	Payout         decimal.Decimal
	Link           string
}

// New builds a catalog over a repository bound to the current unit of work.
func New(tasks repository.TaskRepository, ids idgen.Generator, clk clock.Clock) *Catalog {
	return &Catalog{tasks: tasks, ids: ids, clock: clk}
}

// ListAvailable returns active tasks in publication order.
func (c *Catalog) ListAvailable(ctx context.Context) ([]domain.Task, error) {
	tasks, err := c.tasks.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tasks, nil
}

// GetTask fails with NOT_FOUND for unknown ids.
func (c *Catalog) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := c.tasks.GetByID(ctx, strings.TrimSpace(taskID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, apperrors.MapError(err)
	}
	return task, nil
}

// Publish validates and stores a new active task.
func (c *Catalog) Publish(ctx context.Context, input TaskInput) (*domain.Task, error) {
	if err := validateTask(input); err != nil {
		return nil, err
	}
	task := &domain.Task{
		ID:             strings.TrimSpace(input.ID),
		CampaignID:     input.CampaignID,
		Platform:       input.Platform,
		EngagementType: input.EngagementType,
		Description:    strings.TrimSpace(input.Description),
		Payout:         input.Payout,
		Link:           strings.TrimSpace(input.Link),
		Active:         true,
		CreatedAt:      c.clock.Now(),
	}
	if task.ID == "" {
		task.ID = c.ids.NewID()
	}
	if err := c.tasks.Create(ctx, task); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("task already exists", map[string]any{"task_id": task.ID})
		}
		return nil, apperrors.MapError(err)
	}
	return task, nil
}

// Retire removes a task from the available list.
func (c *Catalog) Retire(ctx context.Context, taskID string) error {
	if err := c.tasks.SetActive(ctx, taskID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// Reactivate puts a retired task back on the available list.
func (c *Catalog) Reactivate(ctx context.Context, taskID string) error {
	if err := c.tasks.SetActive(ctx, taskID, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// SeedDefaults publishes DefaultTasks when the catalog is empty and reports how many were added.
func (c *Catalog) SeedDefaults(ctx context.Context) (int, error) {
	count, err := c.tasks.Count(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if count > 0 {
		return 0, nil
	}
	defaults := DefaultTasks()
	for _, input := range defaults {
		if _, err := c.Publish(ctx, input); err != nil {
			return 0, err
		}
	}
	return len(defaults), nil
}

func validateTask(input TaskInput) error {
	details := map[string]any{}
	if !input.Platform.Valid() {
		details["platform"] = "unsupported platform"
	}
	if !input.EngagementType.Valid() {
		details["engagement_type"] = "unsupported engagement type"
	}
	if strings.TrimSpace(input.Link) == "" {
		details["link"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid task", details)
	}
	if input.Payout.IsNegative() || !input.Payout.Equal(input.Payout.Truncate(domain.MoneyScale)) {
		return apperrors.NewInvalidAmount("payout must be non-negative with at most two decimals",
			map[string]any{"payout": input.Payout.String()})
	}
	return nil
}

// DefaultTasks is the starter catalog.
func DefaultTasks() []TaskInput {
	return []TaskInput{
		{ID: "t1", Platform: domain.PlatformInstagram, EngagementType: domain.EngagementLike, Payout: decimal.RequireFromString("0.05"),
			Description: "Like @StyleMaven's latest post about their summer collection.", Link: "https://instagram.com/p/12345"},
		{ID: "t2", Platform: domain.PlatformYouTube, EngagementType: domain.EngagementFollow, Payout: decimal.RequireFromString("0.15"),
			Description: "Subscribe to 'PixelPlayhouse' gaming channel.", Link: "https://youtube.com/c/PixelPlayhouse"},
		{ID: "t3", Platform: domain.PlatformTikTok, EngagementType: domain.EngagementView, Payout: decimal.RequireFromString("0.02"),
			Description: "Watch the full #GrooveMaster challenge video.", Link: "https://tiktok.com/v/67890"},
		{ID: "t4", Platform: domain.PlatformTwitter, EngagementType: domain.EngagementComment, Payout: decimal.RequireFromString("0.10"),
			Description: "Reply to @TechGuru's latest tweet with a thoughtful question.", Link: "https://twitter.com/TechGuru/status/54321"},
		{ID: "t5", Platform: domain.PlatformInstagram, EngagementType: domain.EngagementFollow, Payout: decimal.RequireFromString("0.12"),
			Description: "Follow @TravelScapes for amazing travel photos.", Link: "https://instagram.com/TravelScapes"},
		{ID: "t6", Platform: domain.PlatformYouTube, EngagementType: domain.EngagementShare, Payout: decimal.RequireFromString("0.20"),
			Description: "Share the latest 'LearnCode' tutorial on your story.", Link: "https://youtube.com/watch?v=abcdef"},
	}
}

