package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore runs each unit of work in its own transaction.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Atomic begins a transaction, runs fn and commits when fn succeeds.
func (s *PostgresStore) Atomic(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, postgresRepositories{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type postgresRepositories struct {
	db Querier
}

func (r postgresRepositories) Users() UserRepository             { return NewUserRepository(r.db) }
func (r postgresRepositories) Tasks() TaskRepository             { return NewTaskRepository(r.db) }
func (r postgresRepositories) Submissions() SubmissionRepository { return NewSubmissionRepository(r.db) }
func (r postgresRepositories) Withdrawals() WithdrawalRepository { return NewWithdrawalRepository(r.db) }
func (r postgresRepositories) Ledger() LedgerRepository          { return NewLedgerRepository(r.db) }
func (r postgresRepositories) Campaigns() CampaignRepository     { return NewCampaignRepository(r.db) }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func expectOneRow(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
