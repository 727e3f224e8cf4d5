package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/engagement-marketplace/internal/domain"
)

// TaskRepository encapsulates catalog persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	SetActive(ctx context.Context, id string, active bool) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListActive(ctx context.Context) ([]domain.Task, error)
	Count(ctx context.Context) (int, error)
}

type taskRepository struct {
	db Querier
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(db Querier) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, campaign_id, platform, engagement_type, description, payout, link, active, created_at`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (` + taskColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.db.Exec(ctx, query,
		task.ID,
		task.CampaignID,
		task.Platform,
		task.EngagementType,
		task.Description,
		task.Payout,
		task.Link,
		task.Active,
		task.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *taskRepository) SetActive(ctx context.Context, id string, active bool) error {
	return expectOneRow(r.db.Exec(ctx, `UPDATE tasks SET active=$1 WHERE id=$2`, active, id))
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id)
	task, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListActive(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE active ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

func (r *taskRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&count)
	return count, err
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.CampaignID,
		&task.Platform,
		&task.EngagementType,
		&task.Description,
		&task.Payout,
		&task.Link,
		&task.Active,
		&task.CreatedAt,
	)
	return task, err
}
