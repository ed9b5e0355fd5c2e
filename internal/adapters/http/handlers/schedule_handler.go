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

// ScheduleHandler handles class templates and session endpoints
type ScheduleHandler struct {
	scheduleService *services.ScheduleService
	authService     *services.AuthService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleService *services.ScheduleService, authService *services.AuthService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		authService:     authService,
	}
}

// ============================================================
// Class Templates (Coach/Admin)
// ============================================================

// CreateTemplate handles weekly template creation
// @Summary Create class template
// @Description Add a recurring weekly class, guarded by the plan's class quota
// @Tags schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ClassTemplateInput true "Template data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 402 {object} response.Response
// @Router /schedule/templates [post]
func (h *ScheduleHandler) CreateTemplate(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	var input services.ClassTemplateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	template, err := h.scheduleService.CreateTemplate(c.Context(), gymID, &input)
	if err != nil {
		var quotaErr *services.QuotaError
		switch {
		case errors.As(err, &quotaErr):
			return response.PaymentRequired(c, quotaErr.Error())
		case errors.Is(err, services.ErrInvalidWeekday):
			return response.BadRequest(c, "Weekday must be between 0 (Sunday) and 6 (Saturday)")
		case errors.Is(err, services.ErrInvalidStartTime):
			return response.BadRequest(c, "Start time must be HH:MM")
		case errors.Is(err, services.ErrCoachNotFound):
			return response.BadRequest(c, "Coach not found in this gym")
		default:
			return response.InternalServerError(c, "Failed to create template")
		}
	}

	return response.Created(c, "Template created", template)
}

// ListTemplates returns all templates for the caller's gym
// @Summary List class templates
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /schedule/templates [get]
func (h *ScheduleHandler) ListTemplates(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	templates, err := h.scheduleService.ListTemplates(c.Context(), gymID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list templates")
	}

	return response.Success(c, "Templates retrieved", templates)
}

// GetTemplate returns a single template
// @Summary Get class template
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /schedule/templates/{id} [get]
func (h *ScheduleHandler) GetTemplate(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	templateID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid template ID")
	}

	template, err := h.scheduleService.GetTemplate(c.Context(), gymID, uint(templateID))
	if err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			return response.NotFound(c, "Template not found")
		}
		return response.InternalServerError(c, "Failed to get template")
	}

	return response.Success(c, "Template retrieved", template)
}

// UpdateTemplate handles template edits
// @Summary Update class template
// @Tags schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Param body body services.ClassTemplateInput true "Template data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /schedule/templates/{id} [put]
func (h *ScheduleHandler) UpdateTemplate(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	templateID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid template ID")
	}

	var input services.ClassTemplateInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	template, err := h.scheduleService.UpdateTemplate(c.Context(), gymID, uint(templateID), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTemplateNotFound):
			return response.NotFound(c, "Template not found")
		case errors.Is(err, services.ErrInvalidWeekday):
			return response.BadRequest(c, "Weekday must be between 0 (Sunday) and 6 (Saturday)")
		case errors.Is(err, services.ErrInvalidStartTime):
			return response.BadRequest(c, "Start time must be HH:MM")
		case errors.Is(err, services.ErrCoachNotFound):
			return response.BadRequest(c, "Coach not found in this gym")
		default:
			return response.InternalServerError(c, "Failed to update template")
		}
	}

	return response.Success(c, "Template updated", template)
}

// templateActiveRequest toggles a template on or off
type templateActiveRequest struct {
	Active bool `json:"active"`
}

// SetTemplateActive activates or deactivates a template
// @Summary Toggle template active state
// @Tags schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Param body body templateActiveRequest true "Active flag"
// @Success 200 {object} response.Response
// @Failure 402 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /schedule/templates/{id}/active [patch]
func (h *ScheduleHandler) SetTemplateActive(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	templateID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid template ID")
	}

	var req templateActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	template, err := h.scheduleService.SetTemplateActive(c.Context(), gymID, uint(templateID), req.Active)
	if err != nil {
		var quotaErr *services.QuotaError
		switch {
		case errors.As(err, &quotaErr):
			return response.PaymentRequired(c, quotaErr.Error())
		case errors.Is(err, services.ErrTemplateNotFound):
			return response.NotFound(c, "Template not found")
		default:
			return response.InternalServerError(c, "Failed to update template")
		}
	}

	return response.Success(c, "Template updated", template)
}

// DeleteTemplate removes a template
// @Summary Delete class template
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /schedule/templates/{id} [delete]
func (h *ScheduleHandler) DeleteTemplate(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	templateID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid template ID")
	}

	if err := h.scheduleService.DeleteTemplate(c.Context(), gymID, uint(templateID)); err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			return response.NotFound(c, "Template not found")
		}
		return response.InternalServerError(c, "Failed to delete template")
	}

	return response.Success(c, "Template deleted", nil)
}

// ============================================================
// Week Generation & Sessions
// ============================================================

// generateWeekRequest selects the week to materialize
type generateWeekRequest struct {
	WeekStart string `json:"week_start"` // YYYY-MM-DD
}

// GenerateWeek materializes sessions from active templates
// @Summary Generate a week of sessions
// @Description Create concrete sessions for one week from the active templates. Already-generated slots are skipped.
// @Tags schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body generateWeekRequest true "Week start date"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /schedule/generate [post]
func (h *ScheduleHandler) GenerateWeek(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	var req generateWeekRequest
	if err := c.BodyParser(&req); err != nil || req.WeekStart == "" {
		return response.BadRequest(c, "week_start is required (YYYY-MM-DD)")
	}

	weekStart, err := time.ParseInLocation("2006-01-02", req.WeekStart, time.Local)
	if err != nil {
		return response.BadRequest(c, "week_start must be YYYY-MM-DD")
	}

	created, err := h.scheduleService.GenerateWeek(c.Context(), gymID, weekStart)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate sessions")
	}

	return response.Success(c, "Week generated", fiber.Map{
		"sessions_created": created,
	})
}

// CreateSession adds a one-off session outside the weekly templates
// @Summary Create one-off session
// @Tags schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.OneOffSessionInput true "Session data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /schedule/sessions [post]
func (h *ScheduleHandler) CreateSession(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	var input services.OneOffSessionInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	session, err := h.scheduleService.CreateSession(c.Context(), gymID, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStartTime):
			return response.BadRequest(c, "Invalid session time")
		case errors.Is(err, services.ErrCoachNotFound):
			return response.BadRequest(c, "Coach not found in this gym")
		default:
			return response.InternalServerError(c, "Failed to create session")
		}
	}

	return response.Created(c, "Session created", session)
}

// ListSessions returns sessions in a date range, headcounts included
// @Summary List sessions
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Router /schedule/sessions [get]
func (h *ScheduleHandler) ListSessions(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	from, to := pagination.GetDateRange(c)

	sessions, err := h.scheduleService.ListSessions(c.Context(), gymID, from, to)
	if err != nil {
		return response.InternalServerError(c, "Failed to list sessions")
	}

	return response.Success(c, "Sessions retrieved", sessions)
}

// GetSession returns a single session
// @Summary Get session
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /schedule/sessions/{id} [get]
func (h *ScheduleHandler) GetSession(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	session, err := h.scheduleService.GetSession(c.Context(), gymID, uint(sessionID))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to get session")
	}

	return response.Success(c, "Session retrieved", session)
}

// MySessions returns the authenticated coach's sessions in a range
// @Summary List my coaching sessions
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Router /schedule/my-sessions [get]
func (h *ScheduleHandler) MySessions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	from, to := pagination.GetDateRange(c)

	sessions, err := h.scheduleService.ListCoachSessions(c.Context(), userID, from, to)
	if err != nil {
		return response.InternalServerError(c, "Failed to list sessions")
	}

	return response.Success(c, "Sessions retrieved", sessions)
}

// cancelSessionRequest carries the cancellation reason
type cancelSessionRequest struct {
	Reason string `json:"reason"`
}

// CancelSession cancels a scheduled session
// @Summary Cancel session
// @Tags schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param body body cancelSessionRequest true "Cancellation reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /schedule/sessions/{id}/cancel [post]
func (h *ScheduleHandler) CancelSession(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	var req cancelSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	session, err := h.scheduleService.CancelSession(c.Context(), gymID, uint(sessionID), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			return response.NotFound(c, "Session not found")
		case errors.Is(err, services.ErrSessionCancelled):
			return response.Conflict(c, "Session is already cancelled")
		case errors.Is(err, services.ErrSessionCompleted):
			return response.Conflict(c, "Session is already completed")
		default:
			return response.InternalServerError(c, "Failed to cancel session")
		}
	}

	return response.Success(c, "Session cancelled", session)
}
