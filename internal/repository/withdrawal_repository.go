package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/engagement-marketplace/internal/domain"
)

// WithdrawalRepository persists payout requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, request *domain.WithdrawalRequest) error
	Update(ctx context.Context, request *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	// GetForUpdate is GetByID holding the row until the unit ends.
	GetForUpdate(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]domain.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID string) ([]domain.WithdrawalRequest, error)
}

type withdrawalRepository struct {
	db Querier
}

// NewWithdrawalRepository instantiates repository.
func NewWithdrawalRepository(db Querier) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

const withdrawalColumns = `id, user_id, amount, bank_name, account_number, account_name, status,
               requested_at, reviewed_at, reviewed_by`

func (r *withdrawalRepository) Create(ctx context.Context, request *domain.WithdrawalRequest) error {
	const query = `
        INSERT INTO withdrawals (` + withdrawalColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.Exec(ctx, query,
		request.ID,
		request.UserID,
		request.Amount,
		request.Bank.BankName,
		request.Bank.AccountNumber,
		request.Bank.AccountName,
		request.Status,
		request.RequestedAt,
		request.ReviewedAt,
		request.ReviewedBy,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *withdrawalRepository) Update(ctx context.Context, request *domain.WithdrawalRequest) error {
	const query = `
        UPDATE withdrawals SET status=$1, reviewed_at=$2, reviewed_by=$3
        WHERE id=$4`
	return expectOneRow(r.db.Exec(ctx, query,
		request.Status,
		request.ReviewedAt,
		request.ReviewedBy,
		request.ID,
	))
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return r.get(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id=$1`, id)
}

func (r *withdrawalRepository) GetForUpdate(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return r.get(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id=$1 FOR UPDATE`, id)
}

func (r *withdrawalRepository) get(ctx context.Context, query, id string) (*domain.WithdrawalRequest, error) {
	row := r.db.QueryRow(ctx, query, id)
	request, err := scanWithdrawal(row)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *withdrawalRepository) ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]domain.WithdrawalRequest, error) {
	const query = `SELECT ` + withdrawalColumns + ` FROM withdrawals
        WHERE status=$1 ORDER BY requested_at ASC, id ASC`
	return r.list(ctx, query, status)
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID string) ([]domain.WithdrawalRequest, error) {
	const query = `SELECT ` + withdrawalColumns + ` FROM withdrawals
        WHERE user_id=$1 ORDER BY requested_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

func (r *withdrawalRepository) list(ctx context.Context, query string, arg any) ([]domain.WithdrawalRequest, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.WithdrawalRequest{}
	for rows.Next() {
		request, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}

func scanWithdrawal(row pgx.Row) (domain.WithdrawalRequest, error) {
	var request domain.WithdrawalRequest
	err := row.Scan(
		&request.ID,
		&request.UserID,
		&request.Amount,
		&request.Bank.BankName,
		&request.Bank.AccountNumber,
		&request.Bank.AccountName,
		&request.Status,
		&request.RequestedAt,
		&request.ReviewedAt,
		&request.ReviewedBy,
	)
	return request, err
}
