package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/pagination"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NoticeHandler handles announcement endpoints
type NoticeHandler struct {
	noticeService *services.NoticeService
	authService   *services.AuthService
}

// NewNoticeHandler creates a new notice handler
func NewNoticeHandler(noticeService *services.NoticeService, authService *services.AuthService) *NoticeHandler {
	return &NoticeHandler{
		noticeService: noticeService,
		authService:   authService,
	}
}

// toResponses converts notices for the wire, resolving status against now
func toNoticeResponses(notices []*models.Notice) []*models.NoticeResponse {
	now := time.Now()
	out := make([]*models.NoticeResponse, 0, len(notices))
	for _, n := range notices {
		out = append(out, n.ToResponse(now))
	}
	return out
}

// Create handles notice creation
// @Summary Create notice
// @Description Post an announcement. Immediately-published notices count against the plan's active notice quota.
// @Tags notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.NoticeInput true "Notice data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 402 {object} response.Response
// @Router /notices [post]
func (h *NoticeHandler) Create(c *fiber.Ctx) error {
	user, err := authedUser(c, h.authService)
	if err != nil {
		return err
	}

	var input services.NoticeInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	notice, err := h.noticeService.Create(c.Context(), user.GymID, user.ID, &input)
	if err != nil {
		var quotaErr *services.QuotaError
		switch {
		case errors.As(err, &quotaErr):
			return response.PaymentRequired(c, quotaErr.Error())
		case errors.Is(err, services.ErrInvalidNoticeType):
			return response.BadRequest(c, "Type must be INFO, EVENT, or URGENT")
		case errors.Is(err, services.ErrInvalidAudience):
			return response.BadRequest(c, "Audience must be ALL, MEMBERS, or COACHES")
		case errors.Is(err, services.ErrInvalidNoticeWindow):
			return response.BadRequest(c, "expire_at must be after publish_at")
		default:
			return response.InternalServerError(c, "Failed to create notice")
		}
	}

	return response.Created(c, "Notice created", notice.ToResponse(time.Now()))
}

// List returns the gym's notices filtered by status tab
// @Summary List notices by status
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param status query string false "active, scheduled, or expired" default(active)
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /notices [get]
func (h *NoticeHandler) List(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	status := c.Query("status", "active")
	params := pagination.GetParams(c)

	notices, total, err := h.noticeService.ListByStatus(c.Context(), gymID, status, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list notices")
	}

	return response.Success(c, "Notices retrieved", pagination.NewResponse(toNoticeResponses(notices), params, total))
}

// Feed returns the notices visible to the caller's role
// @Summary Notice feed
// @Description Active notices visible to the caller, pinned first. COACHES-only notices are hidden from plain members.
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param type query string false "Filter by notice type"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /notices/feed [get]
func (h *NoticeHandler) Feed(c *fiber.Ctx) error {
	user, err := authedUser(c, h.authService)
	if err != nil {
		return err
	}

	noticeType := c.Query("type")
	params := pagination.GetParams(c)

	notices, total, err := h.noticeService.Feed(c.Context(), user.GymID, user.Role, noticeType, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to load feed")
	}

	return response.Success(c, "Feed retrieved", pagination.NewResponse(toNoticeResponses(notices), params, total))
}

// Get returns a single notice
// @Summary Get notice
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notice ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notices/{id} [get]
func (h *NoticeHandler) Get(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	noticeID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid notice ID")
	}

	notice, err := h.noticeService.Get(c.Context(), gymID, uint(noticeID))
	if err != nil {
		if errors.Is(err, services.ErrNoticeNotFound) {
			return response.NotFound(c, "Notice not found")
		}
		return response.InternalServerError(c, "Failed to get notice")
	}

	return response.Success(c, "Notice retrieved", notice.ToResponse(time.Now()))
}

// Update handles notice edits
// @Summary Update notice
// @Tags notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notice ID"
// @Param body body services.NoticeInput true "Notice data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notices/{id} [put]
func (h *NoticeHandler) Update(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	noticeID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid notice ID")
	}

	var input services.NoticeInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	notice, err := h.noticeService.Update(c.Context(), gymID, uint(noticeID), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoticeNotFound):
			return response.NotFound(c, "Notice not found")
		case errors.Is(err, services.ErrInvalidNoticeType):
			return response.BadRequest(c, "Type must be INFO, EVENT, or URGENT")
		case errors.Is(err, services.ErrInvalidAudience):
			return response.BadRequest(c, "Audience must be ALL, MEMBERS, or COACHES")
		case errors.Is(err, services.ErrInvalidNoticeWindow):
			return response.BadRequest(c, "expire_at must be after publish_at")
		default:
			return response.InternalServerError(c, "Failed to update notice")
		}
	}

	return response.Success(c, "Notice updated", notice.ToResponse(time.Now()))
}

// Delete removes a notice
// @Summary Delete notice
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notice ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notices/{id} [delete]
func (h *NoticeHandler) Delete(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	noticeID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid notice ID")
	}

	if err := h.noticeService.Delete(c.Context(), gymID, uint(noticeID)); err != nil {
		if errors.Is(err, services.ErrNoticeNotFound) {
			return response.NotFound(c, "Notice not found")
		}
		return response.InternalServerError(c, "Failed to delete notice")
	}

	return response.Success(c, "Notice deleted", nil)
}

// Broadcast pushes a notice to LINE and member email
// @Summary Broadcast notice
// @Description Send an active notice over LINE Notify and, for member-facing audiences, by email to the active roster.
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notice ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /notices/{id}/broadcast [post]
func (h *NoticeHandler) Broadcast(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	noticeID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid notice ID")
	}

	sent, err := h.noticeService.Broadcast(c.Context(), gymID, uint(noticeID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoticeNotFound):
			return response.NotFound(c, "Notice not found")
		case errors.Is(err, services.ErrNoticeNotActive):
			return response.Conflict(c, "Only active notices can be broadcast")
		default:
			return response.InternalServerError(c, "Failed to broadcast notice")
		}
	}

	return response.Success(c, "Notice broadcast", fiber.Map{
		"emails_sent": sent,
	})
}
