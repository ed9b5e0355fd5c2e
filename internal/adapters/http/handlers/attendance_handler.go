package handlers

import (
	"errors"
	"strconv"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/pagination"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AttendanceHandler handles check-in and kiosk code endpoints
type AttendanceHandler struct {
	attendanceService *services.AttendanceService
	codeService       *services.CheckinCodeService
	authService       *services.AuthService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(
	attendanceService *services.AttendanceService,
	codeService *services.CheckinCodeService,
	authService *services.AuthService,
) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
		codeService:       codeService,
		authService:       authService,
	}
}

// ============================================================
// Front Desk Check-in (Coach/Admin)
// ============================================================

// checkinRequest is used for front-desk check-in
type checkinRequest struct {
	SessionID uint `json:"session_id"`
	MemberID  uint `json:"member_id"`
}

// CheckIn records a front-desk check-in for a member
// @Summary Front-desk check-in
// @Description Staff checks a member into a session. The belt level gate does not apply here.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body checkinRequest true "Session and member"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /attendance/checkin [post]
func (h *AttendanceHandler) CheckIn(c *fiber.Ctx) error {
	user, err := authedUser(c, h.authService)
	if err != nil {
		return err
	}

	var req checkinRequest
	if err := c.BodyParser(&req); err != nil || req.SessionID == 0 || req.MemberID == 0 {
		return response.BadRequest(c, "session_id and member_id are required")
	}

	attendance, err := h.attendanceService.CheckIn(c.Context(), user.GymID, req.SessionID, req.MemberID, user.ID)
	if err != nil {
		return h.mapCheckinError(c, err)
	}

	return response.Created(c, "Checked in", attendance.ToResponse())
}

// ============================================================
// Kiosk Self Check-in (Member)
// ============================================================

// selfCheckinRequest is used for kiosk self check-in
type selfCheckinRequest struct {
	SessionID uint   `json:"session_id"`
	Code      string `json:"code"`
}

// SelfCheckIn lets a member check in with the kiosk code
// @Summary Kiosk self check-in
// @Description Member checks into a session using the rotating kiosk code. The session's level gate applies.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body selfCheckinRequest true "Session and kiosk code"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /attendance/self-checkin [post]
func (h *AttendanceHandler) SelfCheckIn(c *fiber.Ctx) error {
	user, err := authedUser(c, h.authService)
	if err != nil {
		return err
	}

	var req selfCheckinRequest
	if err := c.BodyParser(&req); err != nil || req.SessionID == 0 || req.Code == "" {
		return response.BadRequest(c, "session_id and code are required")
	}

	attendance, err := h.attendanceService.SelfCheckIn(c.Context(), user.GymID, user.ID, req.SessionID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCodeNotIssued), errors.Is(err, services.ErrCodeExpired):
			return response.BadRequest(c, "Kiosk code is not active, ask the front desk")
		case errors.Is(err, services.ErrCodeInvalid):
			return response.BadRequest(c, "Kiosk code is incorrect")
		case errors.Is(err, services.ErrTooManyAttempts):
			return response.Error(c, fiber.StatusTooManyRequests, "Too many attempts, wait for the next code")
		case errors.Is(err, services.ErrNoRosterLink):
			return response.Forbidden(c, "Your account is not linked to the roster")
		case errors.Is(err, services.ErrLevelRestricted):
			return response.Forbidden(c, "This class is restricted to a higher belt level")
		default:
			return h.mapCheckinError(c, err)
		}
	}

	return response.Created(c, "Checked in", attendance.ToResponse())
}

// mapCheckinError maps shared check-in failures to HTTP responses
func (h *AttendanceHandler) mapCheckinError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return response.NotFound(c, "Session not found")
	case errors.Is(err, services.ErrMemberNotFound):
		return response.NotFound(c, "Member not found")
	case errors.Is(err, services.ErrMemberInactive):
		return response.Conflict(c, "Member is inactive")
	case errors.Is(err, services.ErrSessionCancelled):
		return response.Conflict(c, "Session is cancelled")
	case errors.Is(err, services.ErrCheckinClosed):
		return response.Conflict(c, "Check-in window is closed")
	case errors.Is(err, services.ErrAlreadyCheckedIn):
		return response.Conflict(c, "Already checked in to this session")
	case errors.Is(err, services.ErrSessionFull):
		return response.Conflict(c, "Session is full")
	default:
		return response.InternalServerError(c, "Failed to check in")
	}
}

// ============================================================
// Attendance Queries
// ============================================================

// RemoveCheckIn deletes a mistaken check-in
// @Summary Remove check-in
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attendance ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /attendance/{id} [delete]
func (h *AttendanceHandler) RemoveCheckIn(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	attendanceID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid attendance ID")
	}

	if err := h.attendanceService.RemoveCheckIn(c.Context(), gymID, uint(attendanceID)); err != nil {
		if errors.Is(err, services.ErrAttendanceNotFound) {
			return response.NotFound(c, "Check-in not found")
		}
		return response.InternalServerError(c, "Failed to remove check-in")
	}

	return response.Success(c, "Check-in removed", nil)
}

// ListSessionAttendance returns the roster for one session
// @Summary List session attendance
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /sessions/{id}/attendance [get]
func (h *AttendanceHandler) ListSessionAttendance(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	attendances, err := h.attendanceService.ListSessionAttendance(c.Context(), gymID, uint(sessionID))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to list attendance")
	}

	return response.Success(c, "Attendance retrieved", attendances)
}

// MyAttendance returns the caller's own check-in history
// @Summary My attendance history
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /attendance/me [get]
func (h *AttendanceHandler) MyAttendance(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	attendances, total, err := h.attendanceService.MyAttendance(c.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, services.ErrNoRosterLink) {
			return response.Forbidden(c, "Your account is not linked to the roster")
		}
		return response.InternalServerError(c, "Failed to list attendance")
	}

	return response.Success(c, "Attendance retrieved", pagination.NewResponse(attendances, params, total))
}

// ============================================================
// Kiosk Code (Coach/Admin)
// ============================================================

// IssueKioskCode rotates the gym's kiosk check-in code
// @Summary Issue kiosk code
// @Description Generate a fresh self check-in code. The old code stops working immediately and kiosk displays are notified.
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /attendance/kiosk-code [post]
func (h *AttendanceHandler) IssueKioskCode(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	code, expiresAt, err := h.attendanceService.IssueKioskCode(gymID)
	if err != nil {
		return response.InternalServerError(c, "Failed to issue kiosk code")
	}

	return response.Success(c, "Kiosk code issued", fiber.Map{
		"code":       code,
		"expires_at": expiresAt,
	})
}

// GetKioskCode returns the currently active kiosk code, if any
// @Summary Get current kiosk code
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /attendance/kiosk-code [get]
func (h *AttendanceHandler) GetKioskCode(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	code, expiresAt, ok := h.codeService.Current(gymID)
	if !ok {
		return response.NotFound(c, "No active kiosk code")
	}

	return response.Success(c, "Kiosk code retrieved", fiber.Map{
		"code":       code,
		"expires_at": expiresAt,
	})
}
