package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/api/dto"
	"github.com/spec-kit/engagement-marketplace/internal/auth"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

func callerID(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return "", apperrors.NewUnauthorized("authentication required")
	}
	return principal.ID(), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyScale)
}

func queryLimit(c *fiber.Ctx, fallback, max int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > max {
		return 0, apperrors.NewValidationError("limit must be between 1 and "+strconv.Itoa(max), map[string]any{"limit": raw})
	}
	return limit, nil
}

func reviewStatus(c *fiber.Ctx) (domain.ReviewStatus, error) {
	status := domain.ReviewStatus(c.Query("status", string(domain.StatusPending)))
	if !status.Valid() {
		return "", apperrors.NewValidationError("status must be PENDING, APPROVED or REJECTED", map[string]any{"status": string(status)})
	}
	return status, nil
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          string(u.Role),
		Verified:      u.Verified,
		Subscribed:    u.Subscribed,
		SubscribedAt:  u.SubscribedAt,
		AccountNumber: u.AccountNumber,
		PhoneNumber:   u.PhoneNumber,
		CreatedAt:     u.CreatedAt,
	}
}

func taskResponse(t *domain.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:             t.ID,
		CampaignID:     t.CampaignID,
		Platform:       string(t.Platform),
		EngagementType: string(t.EngagementType),
		Description:    t.Description,
		Payout:         money(t.Payout),
		Link:           t.Link,
	}
}

func submissionResponse(s *domain.Submission) dto.SubmissionResponse {
	return dto.SubmissionResponse{
		ID:          s.ID,
		TaskID:      s.TaskID,
		UserID:      s.UserID,
		ProofRef:    s.ProofRef,
		Status:      string(s.Status),
		SubmittedAt: s.SubmittedAt,
		ReviewedAt:  s.ReviewedAt,
		ReviewedBy:  s.ReviewedBy,
	}
}

func submissionList(items []domain.Submission) []dto.SubmissionResponse {
	out := make([]dto.SubmissionResponse, 0, len(items))
	for i := range items {
		out = append(out, submissionResponse(&items[i]))
	}
	return out
}

func withdrawalResponse(w *domain.WithdrawalRequest) dto.WithdrawalResponse {
	return dto.WithdrawalResponse{
		ID:     w.ID,
		UserID: w.UserID,
		Amount: money(w.Amount),
		Bank: dto.BankDetails{
			BankName:      w.Bank.BankName,
			AccountNumber: w.Bank.AccountNumber,
			AccountName:   w.Bank.AccountName,
		},
		Status:      string(w.Status),
		RequestedAt: w.RequestedAt,
		ReviewedAt:  w.ReviewedAt,
		ReviewedBy:  w.ReviewedBy,
	}
}

func withdrawalList(items []domain.WithdrawalRequest) []dto.WithdrawalResponse {
	out := make([]dto.WithdrawalResponse, 0, len(items))
	for i := range items {
		out = append(out, withdrawalResponse(&items[i]))
	}
	return out
}

func campaignResponse(c *domain.Campaign) dto.CampaignResponse {
	return dto.CampaignResponse{
		ID:             c.ID,
		CreatorID:      c.CreatorID,
		Name:           c.Name,
		Platform:       string(c.Platform),
		EngagementType: string(c.EngagementType),
		Budget:         money(c.Budget),
		PayoutPerTask:  money(c.PayoutPerTask),
		TotalTasks:     c.TotalTasks,
		CompletedTasks: c.CompletedTasks,
		Status:         string(c.Status),
		Link:           c.Link,
		TaskID:         c.TaskID,
		CreatedAt:      c.CreatedAt,
	}
}
