package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/engagement-marketplace/internal/api/dto"
	"github.com/spec-kit/engagement-marketplace/internal/marketplace"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

const (
	defaultLedgerPage = 50
	maxLedgerPage     = 200
)

// AccountHandler serves the caller's own profile, balance and history.
type AccountHandler struct {
	market *marketplace.Coordinator
}

// NewAccountHandler constructs handler.
func NewAccountHandler(market *marketplace.Coordinator) *AccountHandler {
	return &AccountHandler{market: market}
}

// Me GET /me.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	account, err := h.market.Account(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AccountResponse{
		User:    userResponse(&account.User),
		Balance: money(account.Balance),
	}})
}

// UpdateContact PUT /me/contact.
func (h *AccountHandler) UpdateContact(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.ContactDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.market.UpdateContactDetails(c.UserContext(), userID, marketplace.ContactDetails{
		AccountNumber: req.AccountNumber,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Balance GET /me/balance.
func (h *AccountHandler) Balance(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	balance, err := h.market.Balance(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"balance": money(balance)}})
}

// Ledger GET /me/ledger?limit=.
func (h *AccountHandler) Ledger(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	limit, err := queryLimit(c, defaultLedgerPage, maxLedgerPage)
	if err != nil {
		return err
	}
	entries, err := h.market.LedgerEntries(c.UserContext(), userID, limit)
	if err != nil {
		return err
	}
	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.LedgerEntryResponse{
			ID:           e.ID,
			Kind:         string(e.Kind),
			Amount:       money(e.Amount),
			Reference:    e.Reference,
			BalanceAfter: money(e.BalanceAfter),
			CreatedAt:    e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Subscribe POST /subscription.
func (h *AccountHandler) Subscribe(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	user, err := h.market.Subscribe(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// MySubmissions GET /me/submissions.
func (h *AccountHandler) MySubmissions(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	items, err := h.market.MySubmissions(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": submissionList(items)})
}

// MyWithdrawals GET /me/withdrawals.
func (h *AccountHandler) MyWithdrawals(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	items, err := h.market.MyWithdrawals(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": withdrawalList(items)})
}
