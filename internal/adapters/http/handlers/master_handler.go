package handlers

import (
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MasterHandler handles master data endpoints
type MasterHandler struct {
	beltRepo      *repositories.BeltRepository
	planRepo      *repositories.PlanRepository
	gymRepo       *repositories.GymRepository
	gymConfigRepo *repositories.GymConfigRepository
	authService   *services.AuthService
}

// NewMasterHandler creates a new master handler
func NewMasterHandler(
	beltRepo *repositories.BeltRepository,
	planRepo *repositories.PlanRepository,
	gymRepo *repositories.GymRepository,
	gymConfigRepo *repositories.GymConfigRepository,
	authService *services.AuthService,
) *MasterHandler {
	return &MasterHandler{
		beltRepo:      beltRepo,
		planRepo:      planRepo,
		gymRepo:       gymRepo,
		gymConfigRepo: gymConfigRepo,
		authService:   authService,
	}
}

// ============================================================
// Belts (read-only, seeded from the in-code rank table)
// ============================================================

// ListBelts lists the belt ladder
// @Summary List belts
// @Description Get the belt progression ladder in order
// @Tags Master
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /master/belts [get]
func (h *MasterHandler) ListBelts(c *fiber.Ctx) error {
	belts, err := h.beltRepo.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list belts")
	}

	return response.Success(c, "Belts retrieved successfully", fiber.Map{
		"belts": belts,
	})
}

// GetBelt gets a belt by code
// @Summary Get belt
// @Description Get a belt by its code
// @Tags Master
// @Accept json
// @Produce json
// @Param code path string true "Belt code"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /master/belts/{code} [get]
func (h *MasterHandler) GetBelt(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return response.BadRequest(c, "Belt code is required")
	}

	belt, err := h.beltRepo.GetByCode(c.Context(), code)
	if err != nil {
		return response.NotFound(c, "Belt not found")
	}

	return response.Success(c, "Belt retrieved successfully", fiber.Map{
		"belt": belt,
	})
}

// ============================================================
// Plans (read-only, seeded from the plan quota table)
// ============================================================

// ListPlans lists the available plans
// @Summary List plans
// @Description Get all plans with pricing and quota limits
// @Tags Master
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /master/plans [get]
func (h *MasterHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.planRepo.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list plans")
	}

	return response.Success(c, "Plans retrieved successfully", fiber.Map{
		"plans": plans,
	})
}

// GetPlan gets a plan by code
// @Summary Get plan
// @Description Get a plan by its code
// @Tags Master
// @Accept json
// @Produce json
// @Param code path string true "Plan code"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /master/plans/{code} [get]
func (h *MasterHandler) GetPlan(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return response.BadRequest(c, "Plan code is required")
	}

	plan, err := h.planRepo.GetByCode(c.Context(), code)
	if err != nil {
		return response.NotFound(c, "Plan not found")
	}

	return response.Success(c, "Plan retrieved successfully", fiber.Map{
		"plan": plan,
	})
}

// ============================================================
// Gym Profile (Admin)
// ============================================================

// GetGym returns the caller's gym profile
// @Summary Get gym profile
// @Description Get the caller's own gym (Admin only)
// @Tags Master
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /master/gym [get]
func (h *MasterHandler) GetGym(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	gym, err := h.gymRepo.GetByID(c.Context(), gymID)
	if err != nil {
		return response.NotFound(c, "Gym not found")
	}

	return response.Success(c, "Gym retrieved successfully", fiber.Map{
		"gym": gym,
	})
}

// UpdateGymRequest represents update gym request
type UpdateGymRequest struct {
	Name      string  `json:"name"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
	OpenTime  *string `json:"open_time"`
	CloseTime *string `json:"close_time"`
	Timezone  string  `json:"timezone"`
}

// UpdateGym updates the caller's gym profile
// @Summary Update gym profile
// @Description Update the caller's own gym details (Admin only)
// @Tags Master
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateGymRequest true "Gym data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /master/gym [put]
func (h *MasterHandler) UpdateGym(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	gym, err := h.gymRepo.GetByID(c.Context(), gymID)
	if err != nil {
		return response.NotFound(c, "Gym not found")
	}

	var req UpdateGymRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Name != "" {
		gym.Name = req.Name
	}
	if req.Address != nil {
		gym.Address = req.Address
	}
	if req.Phone != nil {
		gym.Phone = req.Phone
	}
	if req.OpenTime != nil {
		gym.OpenTime = req.OpenTime
	}
	if req.CloseTime != nil {
		gym.CloseTime = req.CloseTime
	}
	if req.Timezone != "" {
		gym.Timezone = req.Timezone
	}

	if err := h.gymRepo.Update(c.Context(), gym); err != nil {
		return response.InternalServerError(c, "Failed to update gym")
	}

	return response.Success(c, "Gym updated successfully", fiber.Map{
		"gym": gym,
	})
}

// ============================================================
// Gym Config (Admin)
// ============================================================

// ListGymConfig lists the gym's settings
// @Summary List gym settings
// @Description Get the gym's key/value settings (Admin only)
// @Tags Master
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /master/gym/config [get]
func (h *MasterHandler) ListGymConfig(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	configs, err := h.gymConfigRepo.ListByGym(c.Context(), gymID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list settings")
	}

	return response.Success(c, "Settings retrieved successfully", fiber.Map{
		"configs": configs,
	})
}

// SetGymConfigRequest represents a setting write
type SetGymConfigRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SetGymConfig writes one gym setting
// @Summary Set gym setting
// @Description Upsert one key/value setting for the gym (Admin only)
// @Tags Master
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SetGymConfigRequest true "Setting data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /master/gym/config [put]
func (h *MasterHandler) SetGymConfig(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	var req SetGymConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Key == "" || req.Value == "" {
		return response.BadRequest(c, "key and value are required")
	}

	if err := h.gymConfigRepo.SetValue(c.Context(), gymID, req.Key, req.Value); err != nil {
		return response.InternalServerError(c, "Failed to save setting")
	}

	return response.Success(c, "Setting saved successfully", nil)
}
