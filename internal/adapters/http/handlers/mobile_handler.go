package handlers

import (
	"errors"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/pagination"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MobileHandler struct {
	db               *gorm.DB
	beltRepo         *repositories.BeltRepository
	planRepo         *repositories.PlanRepository
	dashboardService *services.DashboardService
	authService      *services.AuthService
}

func NewMobileHandler(
	db *gorm.DB,
	beltRepo *repositories.BeltRepository,
	planRepo *repositories.PlanRepository,
	dashboardService *services.DashboardService,
	authService *services.AuthService,
) *MobileHandler {
	return &MobileHandler{
		db:               db,
		beltRepo:         beltRepo,
		planRepo:         planRepo,
		dashboardService: dashboardService,
		authService:      authService,
	}
}

type MasterDataResponse struct {
	Belts []models.Belt `json:"belts"`
	Plans []models.Plan `json:"plans"`
}

func (h *MobileHandler) masterData(c *fiber.Ctx) MasterDataResponse {
	beltRows, _ := h.beltRepo.List(c.Context())
	planRows, _ := h.planRepo.List(c.Context())

	belts := make([]models.Belt, len(beltRows))
	for i, b := range beltRows {
		belts[i] = *b
	}
	plans := make([]models.Plan, len(planRows))
	for i, p := range planRows {
		plans[i] = *p
	}
	return MasterDataResponse{Belts: belts, Plans: plans}
}

func (h *MobileHandler) GetMasterData(c *fiber.Ctx) error {
	c.Set("Cache-Control", "public, max-age=3600")
	return response.Success(c, "Master data retrieved successfully", fiber.Map{
		"master": h.masterData(c),
	})
}

type MyTrainingLiteResponse struct {
	ID           uint   `json:"id"`
	SessionTitle string `json:"session_title"`
	Discipline   string `json:"discipline"`
	Method       string `json:"method"`
	CheckedInAt  string `json:"checked_in_at"`
}

func (h *MobileHandler) GetMyTraining(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "User not found in context")
	}

	var member models.Member
	if err := h.db.Where("user_id = ?", userID).First(&member).Error; err != nil {
		return response.Forbidden(c, "Your account is not linked to the roster")
	}

	params := pagination.GetParams(c)
	var total int64
	h.db.Model(&models.Attendance{}).Where("member_id = ?", member.ID).Count(&total)

	var attendances []models.Attendance
	h.db.Preload("Session").Where("member_id = ?", member.ID).Order("checked_in_at DESC").Offset(params.Offset).Limit(params.Limit).Find(&attendances)

	lite := make([]MyTrainingLiteResponse, len(attendances))
	for i, a := range attendances {
		lite[i] = MyTrainingLiteResponse{ID: a.ID, Method: a.Method, CheckedInAt: a.CheckedInAt.Format("2006-01-02 15:04")}
		if a.Session != nil {
			lite[i].SessionTitle = a.Session.Title
			lite[i].Discipline = a.Session.Discipline
		}
	}

	c.Set("Cache-Control", "private, max-age=60")
	return response.Success(c, "Training history retrieved successfully", fiber.Map{"attendance": lite, "meta": pagination.GetMeta(params, total)})
}

type MobileDashboardResponse struct {
	User     UserInfo                      `json:"user"`
	Training *services.MemberDashboardData `json:"training,omitempty"`
	Rank     *models.RankView              `json:"rank,omitempty"`
	Master   MasterDataResponse            `json:"master"`
}

type UserInfo struct {
	ID       uint   `json:"id"`
	MemberNo string `json:"member_no"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (h *MobileHandler) GetDashboard(c *fiber.Ctx) error {
	user, err := authedUser(c, h.authService)
	if err != nil {
		return err
	}

	dashboard := MobileDashboardResponse{}
	dashboard.User = UserInfo{ID: user.ID, MemberNo: user.MemberNo, Username: user.Username, Role: user.Role}

	var member models.Member
	if err := h.db.Where("user_id = ?", user.ID).First(&member).Error; err == nil {
		dashboard.User.FullName = member.FullName()
		view := models.NewRankView(member.BeltCode, member.Stripes)
		dashboard.Rank = &view
	}

	training, err := h.dashboardService.GetMemberDashboard(c.Context(), user.ID)
	if err != nil && !errors.Is(err, services.ErrNoRosterLink) {
		return response.InternalServerError(c, "Failed to get dashboard")
	}
	dashboard.Training = training

	dashboard.Master = h.masterData(c)

	c.Set("Cache-Control", "private, max-age=60")
	return response.Success(c, "Dashboard retrieved successfully", dashboard)
}
