package handlers

import (
	"errors"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/domain"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
	authService      *services.AuthService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, authService *services.AuthService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		authService:      authService,
	}
}

// GetAdminDashboard returns admin dashboard data
// @Summary Admin Dashboard
// @Description Gym overview: roster size, belt breakdown, today's activity, and plan status (Admin only)
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/admin [get]
func (h *DashboardHandler) GetAdminDashboard(c *fiber.Ctx) error {
	gymID, err := authedGymID(c, h.authService)
	if err != nil {
		return err
	}

	data, err := h.dashboardService.GetAdminDashboard(c.Context(), gymID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get admin dashboard")
	}

	return response.Success(c, "Admin dashboard retrieved successfully", data)
}

// GetCoachDashboard returns coach dashboard data
// @Summary Coach Dashboard
// @Description Today's classes, upcoming sessions, recent promotions, and stripe-ready members (Coach only)
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/coach [get]
func (h *DashboardHandler) GetCoachDashboard(c *fiber.Ctx) error {
	user, err := authedUser(c, h.authService)
	if err != nil {
		return err
	}

	data, err := h.dashboardService.GetCoachDashboard(c.Context(), user.GymID, user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get coach dashboard")
	}

	return response.Success(c, "Coach dashboard retrieved successfully", data)
}

// GetMemberDashboard returns member dashboard data
// @Summary Member Dashboard
// @Description Current grade, next eligible promotion, and recent mat time
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard/member [get]
func (h *DashboardHandler) GetMemberDashboard(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetMemberDashboard(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNoRosterLink) {
			return response.Forbidden(c, "Your account is not linked to the roster")
		}
		return response.InternalServerError(c, "Failed to get member dashboard")
	}

	return response.Success(c, "Member dashboard retrieved successfully", data)
}

// GetMyDashboard returns dashboard based on user role
// @Summary My Dashboard
// @Description Get dashboard based on current user's role (auto-detect)
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetMyDashboard(c *fiber.Ctx) error {
	user, err := authedUser(c, h.authService)
	if err != nil {
		return err
	}

	var data interface{}

	switch domain.Role(user.Role) {
	case domain.RoleAdmin:
		data, err = h.dashboardService.GetAdminDashboard(c.Context(), user.GymID)
	case domain.RoleCoach:
		data, err = h.dashboardService.GetCoachDashboard(c.Context(), user.GymID, user.ID)
	default:
		data, err = h.dashboardService.GetMemberDashboard(c.Context(), user.ID)
	}

	if err != nil {
		if errors.Is(err, services.ErrNoRosterLink) {
			return response.Forbidden(c, "Your account is not linked to the roster")
		}
		return response.InternalServerError(c, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", fiber.Map{
		"role": user.Role,
		"data": data,
	})
}
