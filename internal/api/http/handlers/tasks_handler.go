package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/engagement-marketplace/internal/api/dto"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/marketplace"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// TasksHandler manages the task catalog, submissions and withdrawals of engagers.
type TasksHandler struct {
	market          *marketplace.Coordinator
	leaderboardSize int
}

// NewTasksHandler constructs handler.
func NewTasksHandler(market *marketplace.Coordinator, leaderboardSize int) *TasksHandler {
	if leaderboardSize <= 0 {
		leaderboardSize = 10
	}
	return &TasksHandler{market: market, leaderboardSize: leaderboardSize}
}

// ListTasks GET /tasks.
func (h *TasksHandler) ListTasks(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	tasks, err := h.market.ListAvailableTasks(c.UserContext(), userID)
	if err != nil {
		return err
	}
	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, taskResponse(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SubmitTask POST /submissions.
func (h *TasksHandler) SubmitTask(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.SubmitTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TaskID == "" {
		return apperrors.NewValidationError("task_id required", nil)
	}
	submission, err := h.market.SubmitTask(c.UserContext(), userID, req.TaskID, req.ProofRef)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": submissionResponse(submission)})
}

// RequestWithdrawal POST /withdrawals.
func (h *TasksHandler) RequestWithdrawal(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.WithdrawalCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"amount": "must be a decimal number"})
	}
	request, err := h.market.RequestWithdrawal(c.UserContext(), userID, req.Amount, domain.BankDetails{
		BankName:      req.Bank.BankName,
		AccountNumber: req.Bank.AccountNumber,
		AccountName:   req.Bank.AccountName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": withdrawalResponse(request)})
}

// Leaderboard GET /leaderboard?limit=.
func (h *TasksHandler) Leaderboard(c *fiber.Ctx) error {
	limit, err := queryLimit(c, h.leaderboardSize, 100)
	if err != nil {
		return err
	}
	ranks, err := h.market.Leaderboard(c.UserContext(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.LeaderboardEntry, 0, len(ranks))
	for _, r := range ranks {
		items = append(items, dto.LeaderboardEntry{
			Rank:     r.Rank,
			UserID:   r.UserID,
			Name:     r.Name,
			Verified: r.Verified,
			Earnings: money(r.Earnings),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
