package handlers

import (
	"errors"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BillingHandler handles subscription and plan usage endpoints
type BillingHandler struct {
	billingService *services.BillingService
	authService    *services.AuthService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *services.BillingService, authService *services.AuthService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		authService:    authService,
	}
}

// GetSubscription returns the gym's current subscription
// @Summary Get current subscription
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /billing/subscription [get]
func (h *BillingHandler) GetSubscription(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	sub, err := h.billingService.GetSubscription(c.Context(), gymID)
	if err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			return response.NotFound(c, "No subscription on record")
		}
		return response.InternalServerError(c, "Failed to get subscription")
	}

	return response.Success(c, "Subscription retrieved", sub)
}

// ListSubscriptions returns the gym's subscription history
// @Summary Subscription history
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /billing/subscriptions [get]
func (h *BillingHandler) ListSubscriptions(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	subs, err := h.billingService.ListSubscriptions(c.Context(), gymID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list subscriptions")
	}

	return response.Success(c, "Subscriptions retrieved", subs)
}

// GetUsage reports quota consumption per resource
// @Summary Plan usage report
// @Description Current usage of members, coaches, classes, and notices against the plan's limits, with upgrade hints.
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /billing/usage [get]
func (h *BillingHandler) GetUsage(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	report, err := h.billingService.Usage(c.Context(), gymID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute usage")
	}

	return response.Success(c, "Usage retrieved", report)
}

// changePlanRequest selects the target plan
type changePlanRequest struct {
	PlanCode string `json:"plan_code"`
}

// ChangePlan switches the gym to another plan
// @Summary Change plan
// @Description Upgrade or downgrade the gym's plan. Downgrades are rejected while current usage exceeds the target plan's limits.
// @Tags billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body changePlanRequest true "Target plan code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 402 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /billing/change-plan [post]
func (h *BillingHandler) ChangePlan(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	var req changePlanRequest
	if err := c.BodyParser(&req); err != nil || req.PlanCode == "" {
		return response.BadRequest(c, "plan_code is required")
	}

	sub, err := h.billingService.ChangePlan(c.Context(), gymID, req.PlanCode)
	if err != nil {
		var quotaErr *services.QuotaError
		switch {
		case errors.As(err, &quotaErr):
			return response.PaymentRequired(c, quotaErr.Error())
		case errors.Is(err, services.ErrPlanUnknown):
			return response.BadRequest(c, "Unknown plan code")
		case errors.Is(err, services.ErrSamePlan):
			return response.Conflict(c, "Gym is already on this plan")
		default:
			return response.InternalServerError(c, "Failed to change plan")
		}
	}

	return response.Success(c, "Plan changed", sub)
}
