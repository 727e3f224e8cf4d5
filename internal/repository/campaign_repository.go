package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/engagement-marketplace/internal/domain"
)

// CampaignFilter narrows campaign listings.
type CampaignFilter struct {
	CreatorID *string
	Status    *domain.CampaignStatus
}

// CampaignRepository persists creator campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	Update(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	// GetForUpdate is GetByID holding the row until the unit ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Campaign, error)
	GetByTaskID(ctx context.Context, taskID string) (*domain.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]domain.Campaign, error)
}

type campaignRepository struct {
	db Querier
}

// NewCampaignRepository instantiates repository.
func NewCampaignRepository(db Querier) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, creator_id, name, platform, engagement_type, budget, payout_per_task,
               total_tasks, completed_tasks, status, link, task_id, created_at, updated_at`

func (r *campaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	const query = `
        INSERT INTO campaigns (` + campaignColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.db.Exec(ctx, query,
		campaign.ID,
		campaign.CreatorID,
		campaign.Name,
		campaign.Platform,
		campaign.EngagementType,
		campaign.Budget,
		campaign.PayoutPerTask,
		campaign.TotalTasks,
		campaign.CompletedTasks,
		campaign.Status,
		campaign.Link,
		campaign.TaskID,
		campaign.CreatedAt,
		campaign.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *campaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	const query = `
        UPDATE campaigns SET completed_tasks=$1, status=$2, updated_at=$3
        WHERE id=$4`
	return expectOneRow(r.db.Exec(ctx, query,
		campaign.CompletedTasks,
		campaign.Status,
		campaign.UpdatedAt,
		campaign.ID,
	))
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	return r.fetchSingle(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id)
}

func (r *campaignRepository) GetForUpdate(ctx context.Context, id string) (*domain.Campaign, error) {
	return r.fetchSingle(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1 FOR UPDATE`, id)
}

func (r *campaignRepository) GetByTaskID(ctx context.Context, taskID string) (*domain.Campaign, error) {
	return r.fetchSingle(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE task_id=$1 FOR UPDATE`, taskID)
}

func (r *campaignRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Campaign, error) {
	campaign, err := scanCampaign(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *campaignRepository) List(ctx context.Context, filter CampaignFilter) ([]domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []any{}
	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		query += fmt.Sprintf(" AND creator_id=$%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, campaign)
	}
	return result, rows.Err()
}

func scanCampaign(row pgx.Row) (domain.Campaign, error) {
	var campaign domain.Campaign
	err := row.Scan(
		&campaign.ID,
		&campaign.CreatorID,
		&campaign.Name,
		&campaign.Platform,
		&campaign.EngagementType,
		&campaign.Budget,
		&campaign.PayoutPerTask,
		&campaign.TotalTasks,
		&campaign.CompletedTasks,
		&campaign.Status,
		&campaign.Link,
		&campaign.TaskID,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	return campaign, err
}
