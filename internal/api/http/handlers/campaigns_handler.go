package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/engagement-marketplace/internal/api/dto"
	"github.com/spec-kit/engagement-marketplace/internal/campaign"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/marketplace"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// CampaignsHandler lets creators fund engagement campaigns.
type CampaignsHandler struct {
	market *marketplace.Coordinator
}

// NewCampaignsHandler constructs handler.
func NewCampaignsHandler(market *marketplace.Coordinator) *CampaignsHandler {
	return &CampaignsHandler{market: market}
}

// CreateCampaign POST /campaigns.
func (h *CampaignsHandler) CreateCampaign(c *fiber.Ctx) error {
	creatorID, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.CampaignCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.market.CreateCampaign(c.UserContext(), creatorID, campaign.Input{
		Name:           req.Name,
		Description:    req.Description,
		Platform:       domain.Platform(strings.ToUpper(req.Platform)),
		EngagementType: domain.EngagementType(strings.ToUpper(req.EngagementType)),
		PayoutPerTask:  req.PayoutPerTask,
		TotalTasks:     req.TotalTasks,
		Link:           req.Link,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": campaignResponse(created)})
}

// PauseCampaign POST /campaigns/:id/pause.
func (h *CampaignsHandler) PauseCampaign(c *fiber.Ctx) error {
	return h.toggle(c, h.market.PauseCampaign)
}

// ResumeCampaign POST /campaigns/:id/resume.
func (h *CampaignsHandler) ResumeCampaign(c *fiber.Ctx) error {
	return h.toggle(c, h.market.ResumeCampaign)
}

func (h *CampaignsHandler) toggle(c *fiber.Ctx, apply func(ctx context.Context, creatorID, campaignID string) (*domain.Campaign, error)) error {
	creatorID, err := callerID(c)
	if err != nil {
		return err
	}
	updated, err := apply(c.UserContext(), creatorID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": campaignResponse(updated)})
}

// ListCampaigns GET /campaigns?status=.
func (h *CampaignsHandler) ListCampaigns(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var status *domain.CampaignStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.CampaignStatus(strings.ToUpper(raw))
		switch s {
		case domain.CampaignActive, domain.CampaignPaused, domain.CampaignCompleted:
		default:
			return apperrors.NewValidationError("status must be ACTIVE, PAUSED or COMPLETED", map[string]any{"status": raw})
		}
		status = &s
	}
	items, err := h.market.ListCampaigns(c.UserContext(), userID, status)
	if err != nil {
		return err
	}
	out := make([]dto.CampaignResponse, 0, len(items))
	for i := range items {
		out = append(out, campaignResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}
