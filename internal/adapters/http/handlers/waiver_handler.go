package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/pagination"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// WaiverHandler handles visitor waiver endpoints
type WaiverHandler struct {
	waiverService *services.WaiverService
	authService   *services.AuthService
}

// NewWaiverHandler creates a new waiver handler
func NewWaiverHandler(waiverService *services.WaiverService, authService *services.AuthService) *WaiverHandler {
	return &WaiverHandler{
		waiverService: waiverService,
		authService:   authService,
	}
}

// ============================================================
// Public Signing
// ============================================================

// Sign records a visitor waiver (Public, rate limited)
// @Summary Sign visitor waiver
// @Description Visitor signs the liability waiver for a gym identified by its public code. Returns a reference code for the front desk.
// @Tags waivers
// @Accept json
// @Produce json
// @Param gym_code path string true "Gym code"
// @Param body body services.SignWaiverInput true "Waiver data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /waivers/sign/{gym_code} [post]
func (h *WaiverHandler) Sign(c *fiber.Ctx) error {
	gymCode := c.Params("gym_code")
	if gymCode == "" {
		return response.BadRequest(c, "Gym code is required")
	}

	var input services.SignWaiverInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	waiver, err := h.waiverService.Sign(c.Context(), gymCode, &input, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGymNotFound):
			return response.NotFound(c, "Gym not found")
		case errors.Is(err, services.ErrWaiverInvalid):
			return response.BadRequest(c, "Name, email, and signature are required")
		default:
			return response.InternalServerError(c, "Failed to record waiver")
		}
	}

	return response.Created(c, "Waiver signed", waiver.ToResponse(time.Now()))
}

// ============================================================
// Staff Endpoints (Coach/Admin)
// ============================================================

// List returns the gym's signed waivers
// @Summary List waivers
// @Tags waivers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Visitor name or email search"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /waivers [get]
func (h *WaiverHandler) List(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	search := c.Query("search")
	params := pagination.GetParams(c)

	waivers, total, err := h.waiverService.List(c.Context(), gymID, search, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list waivers")
	}

	now := time.Now()
	out := make([]interface{}, 0, len(waivers))
	for _, w := range waivers {
		out = append(out, w.ToResponse(now))
	}

	return response.Success(c, "Waivers retrieved", pagination.NewResponse(out, params, total))
}

// Get returns a single waiver
// @Summary Get waiver
// @Tags waivers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Waiver ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /waivers/{id} [get]
func (h *WaiverHandler) Get(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	waiverID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid waiver ID")
	}

	waiver, err := h.waiverService.Get(c.Context(), gymID, uint(waiverID))
	if err != nil {
		if errors.Is(err, services.ErrWaiverNotFound) {
			return response.NotFound(c, "Waiver not found")
		}
		return response.InternalServerError(c, "Failed to get waiver")
	}

	return response.Success(c, "Waiver retrieved", waiver.ToResponse(time.Now()))
}

// Verify looks up a waiver by its reference code
// @Summary Verify waiver by reference
// @Description Front-desk lookup of a visitor's waiver reference. Expired waivers are returned with a valid=false flag.
// @Tags waivers
// @Produce json
// @Security BearerAuth
// @Param reference path string true "Waiver reference"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /waivers/verify/{reference} [get]
func (h *WaiverHandler) Verify(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	reference := c.Params("reference")
	if reference == "" {
		return response.BadRequest(c, "Reference is required")
	}

	waiver, err := h.waiverService.VerifyByReference(c.Context(), gymID, reference)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWaiverExpired):
			return response.Success(c, "Waiver expired", waiver.ToResponse(time.Now()))
		case errors.Is(err, services.ErrWaiverNotFound):
			return response.NotFound(c, "Waiver not found")
		default:
			return response.InternalServerError(c, "Failed to verify waiver")
		}
	}

	return response.Success(c, "Waiver verified", waiver.ToResponse(time.Now()))
}

// Void invalidates a waiver
// @Summary Void waiver
// @Tags waivers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Waiver ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /waivers/{id} [delete]
func (h *WaiverHandler) Void(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	waiverID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid waiver ID")
	}

	if err := h.waiverService.Void(c.Context(), gymID, uint(waiverID)); err != nil {
		if errors.Is(err, services.ErrWaiverNotFound) {
			return response.NotFound(c, "Waiver not found")
		}
		return response.InternalServerError(c, "Failed to void waiver")
	}

	return response.Success(c, "Waiver voided", nil)
}
