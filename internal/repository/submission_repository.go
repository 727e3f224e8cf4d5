package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/engagement-marketplace/internal/domain"
)

// SubmissionRepository persists engager task claims.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *domain.Submission) error
	Update(ctx context.Context, submission *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	// GetForUpdate is GetByID holding the row until the unit ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Submission, error)
	// FindPending returns ErrNotFound when the user has no pending claim on the task.
	FindPending(ctx context.Context, userID, taskID string) (*domain.Submission, error)
	ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]domain.Submission, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Submission, error)
}

type submissionRepository struct {
	db Querier
}

// NewSubmissionRepository instantiates repository.
func NewSubmissionRepository(db Querier) SubmissionRepository {
	return &submissionRepository{db: db}
}

const submissionColumns = `id, task_id, user_id, proof_ref, status, submitted_at, reviewed_at, reviewed_by`

func (r *submissionRepository) Create(ctx context.Context, submission *domain.Submission) error {
	const query = `
        INSERT INTO submissions (` + submissionColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		submission.ID,
		submission.TaskID,
		submission.UserID,
		submission.ProofRef,
		submission.Status,
		submission.SubmittedAt,
		submission.ReviewedAt,
		submission.ReviewedBy,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *submissionRepository) Update(ctx context.Context, submission *domain.Submission) error {
	const query = `
        UPDATE submissions SET status=$1, reviewed_at=$2, reviewed_by=$3
        WHERE id=$4`
	return expectOneRow(r.db.Exec(ctx, query,
		submission.Status,
		submission.ReviewedAt,
		submission.ReviewedBy,
		submission.ID,
	))
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	return r.get(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id=$1`, id)
}

func (r *submissionRepository) GetForUpdate(ctx context.Context, id string) (*domain.Submission, error) {
	return r.get(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id=$1 FOR UPDATE`, id)
}

func (r *submissionRepository) get(ctx context.Context, query, id string) (*domain.Submission, error) {
	row := r.db.QueryRow(ctx, query, id)
	submission, err := scanSubmission(row)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindPending(ctx context.Context, userID, taskID string) (*domain.Submission, error) {
	const query = `SELECT ` + submissionColumns + ` FROM submissions
        WHERE user_id=$1 AND task_id=$2 AND status=$3 LIMIT 1`
	row := r.db.QueryRow(ctx, query, userID, taskID, domain.StatusPending)
	submission, err := scanSubmission(row)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]domain.Submission, error) {
	const query = `SELECT ` + submissionColumns + ` FROM submissions
        WHERE status=$1 ORDER BY submitted_at ASC, id ASC`
	return r.list(ctx, query, status)
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	const query = `SELECT ` + submissionColumns + ` FROM submissions
        WHERE user_id=$1 ORDER BY submitted_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

func (r *submissionRepository) list(ctx context.Context, query string, arg any) ([]domain.Submission, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Submission{}
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, submission)
	}
	return result, rows.Err()
}

func scanSubmission(row pgx.Row) (domain.Submission, error) {
	var submission domain.Submission
	err := row.Scan(
		&submission.ID,
		&submission.TaskID,
		&submission.UserID,
		&submission.ProofRef,
		&submission.Status,
		&submission.SubmittedAt,
		&submission.ReviewedAt,
		&submission.ReviewedBy,
	)
	return submission, err
}
