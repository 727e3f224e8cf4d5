package withdrawal

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/ledger"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// Registry tracks payout requests against the ledger.
type Registry struct {
	requests repository.WithdrawalRepository
	ledger   *ledger.Ledger
	ids      idgen.Generator
	clock    clock.Clock
}

// New builds a registry over repositories bound to the current unit of work.
func New(requests repository.WithdrawalRepository, l *ledger.Ledger, ids idgen.Generator, clk clock.Clock) *Registry {
	return &Registry{requests: requests, ledger: l, ids: ids, clock: clk}
}

// Create records a PENDING request. The amount may not exceed the balance at
// request time; approval checks the balance again.
func (r *Registry) Create(ctx context.Context, userID string, amount decimal.Decimal, bank domain.BankDetails) (*domain.WithdrawalRequest, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return nil, err
	}
	bank = normalizeBank(bank)
	if err := validateBank(bank); err != nil {
		return nil, err
	}
	balance, err := r.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(balance) {
		return nil, apperrors.NewInsufficientFunds(map[string]any{
			"balance":   balance.StringFixed(domain.MoneyScale),
			"requested": amount.StringFixed(domain.MoneyScale),
		})
	}

	request := &domain.WithdrawalRequest{
		ID:          r.ids.NewID(),
		UserID:      userID,
		Amount:      amount,
		Bank:        bank,
		Status:      domain.StatusPending,
		RequestedAt: r.clock.Now(),
	}
	if err := r.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

// Get fails with NOT_FOUND for unknown ids.
func (r *Registry) Get(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return r.load(ctx, id, r.requests.GetByID)
}

func (r *Registry) load(ctx context.Context, id string, get func(context.Context, string) (*domain.WithdrawalRequest, error)) (*domain.WithdrawalRequest, error) {
	request, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("withdrawal request", map[string]any{"withdrawal_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

// Approve debits the ledger and moves the request to APPROVED. It fails with
// INSUFFICIENT_FUNDS when the balance dropped below the amount since the
// request was made.
func (r *Registry) Approve(ctx context.Context, id, reviewerID string) (*domain.WithdrawalRequest, error) {
	request, err := r.pending(ctx, id, domain.StatusApproved)
	if err != nil {
		return nil, err
	}
	if _, err := r.ledger.Debit(ctx, request.UserID, request.Amount, "withdrawal:"+request.ID); err != nil {
		return nil, err
	}
	return r.finish(ctx, request, reviewerID, domain.StatusApproved)
}

// Reject moves the request to REJECTED without touching the ledger.
func (r *Registry) Reject(ctx context.Context, id, reviewerID string) (*domain.WithdrawalRequest, error) {
	request, err := r.pending(ctx, id, domain.StatusRejected)
	if err != nil {
		return nil, err
	}
	return r.finish(ctx, request, reviewerID, domain.StatusRejected)
}

// ListByStatus returns requests in the given state, oldest first.
func (r *Registry) ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]domain.WithdrawalRequest, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(status)})
	}
	items, err := r.requests.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// ListByUser returns the user's requests, newest first.
func (r *Registry) ListByUser(ctx context.Context, userID string) ([]domain.WithdrawalRequest, error) {
	items, err := r.requests.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

func (r *Registry) pending(ctx context.Context, id string, next domain.ReviewStatus) (*domain.WithdrawalRequest, error) {
	request, err := r.load(ctx, id, r.requests.GetForUpdate)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransition(next) {
		return nil, apperrors.NewInvalidTransition("withdrawal request", request.Status, next)
	}
	return request, nil
}

func (r *Registry) finish(ctx context.Context, request *domain.WithdrawalRequest, reviewerID string, next domain.ReviewStatus) (*domain.WithdrawalRequest, error) {
	now := r.clock.Now()
	request.Status = next
	request.ReviewedAt = &now
	request.ReviewedBy = &reviewerID
	if err := r.requests.Update(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

func normalizeBank(bank domain.BankDetails) domain.BankDetails {
	return domain.BankDetails{
		BankName:      strings.TrimSpace(bank.BankName),
		AccountNumber: strings.TrimSpace(bank.AccountNumber),
		AccountName:   strings.TrimSpace(bank.AccountName),
	}
}

func validateBank(bank domain.BankDetails) error {
	details := map[string]any{}
	if bank.BankName == "" {
		details["bank_name"] = "required"
	}
	if bank.AccountNumber == "" {
		details["account_number"] = "required"
	}
	if bank.AccountName == "" {
		details["account_name"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("bank details are incomplete", details)
	}
	return nil
}
