package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/engagement-marketplace/internal/api/dto"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/marketplace"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// AdminHandler exposes the review queues. Role checks happen in the coordinator.
type AdminHandler struct {
	market *marketplace.Coordinator
}

// NewAdminHandler constructs handler.
func NewAdminHandler(market *marketplace.Coordinator) *AdminHandler {
	return &AdminHandler{market: market}
}

// ListSubmissions GET /admin/submissions?status=.
func (h *AdminHandler) ListSubmissions(c *fiber.Ctx) error {
	adminID, err := callerID(c)
	if err != nil {
		return err
	}
	status, err := reviewStatus(c)
	if err != nil {
		return err
	}
	items, err := h.market.ListSubmissions(c.UserContext(), adminID, status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": submissionList(items)})
}

// ReviewSubmission POST /admin/submissions/:id/review.
func (h *AdminHandler) ReviewSubmission(c *fiber.Ctx) error {
	adminID, err := callerID(c)
	if err != nil {
		return err
	}
	decision, err := parseDecision(c)
	if err != nil {
		return err
	}
	review, err := h.market.ReviewSubmission(c.UserContext(), adminID, c.Params("id"), decision)
	if err != nil {
		return err
	}
	resp := dto.SubmissionReviewResponse{
		Submission: submissionResponse(&review.Submission),
		Credited:   money(review.Credited),
		Balance:    money(review.Balance),
	}
	if review.Campaign != nil {
		campaign := campaignResponse(review.Campaign)
		resp.Campaign = &campaign
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ListWithdrawals GET /admin/withdrawals?status=.
func (h *AdminHandler) ListWithdrawals(c *fiber.Ctx) error {
	adminID, err := callerID(c)
	if err != nil {
		return err
	}
	status, err := reviewStatus(c)
	if err != nil {
		return err
	}
	items, err := h.market.ListWithdrawals(c.UserContext(), adminID, status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": withdrawalList(items)})
}

// ReviewWithdrawal POST /admin/withdrawals/:id/review.
func (h *AdminHandler) ReviewWithdrawal(c *fiber.Ctx) error {
	adminID, err := callerID(c)
	if err != nil {
		return err
	}
	decision, err := parseDecision(c)
	if err != nil {
		return err
	}
	review, err := h.market.ReviewWithdrawal(c.UserContext(), adminID, c.Params("id"), decision)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.WithdrawalReviewResponse{
		Withdrawal: withdrawalResponse(&review.Request),
		Balance:    money(review.Balance),
	}})
}

// VerifyUser POST /admin/users/:id/verify.
func (h *AdminHandler) VerifyUser(c *fiber.Ctx) error {
	adminID, err := callerID(c)
	if err != nil {
		return err
	}
	user, err := h.market.VerifyUser(c.UserContext(), adminID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func parseDecision(c *fiber.Ctx) (domain.Decision, error) {
	var req dto.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return "", apperrors.NewValidationError("invalid payload", nil)
	}
	return domain.Decision(strings.ToUpper(strings.TrimSpace(req.Decision))), nil
}
