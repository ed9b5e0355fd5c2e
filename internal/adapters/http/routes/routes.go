package routes

import (
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/http/handlers"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/http/middleware"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/repositories"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/config"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Deps carries the wired service graph so main can start the cron
// scheduler against the same instances the routes use.
type Deps struct {
	RefreshTokenRepo repositories.RefreshTokenRepository
	SessionRepo      *repositories.ClassSessionRepository
	GymRepo          *repositories.GymRepository
	ScheduleService  *services.ScheduleService
	BillingService   *services.BillingService
	NotifyService    *services.NotificationService
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *Deps {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	promotionRepo := repositories.NewPromotionRepository(db)

	// Master repositories
	gymRepo := repositories.NewGymRepository(db)
	gymConfigRepo := repositories.NewGymConfigRepository(db)
	beltRepo := repositories.NewBeltRepository(db)
	planRepo := repositories.NewPlanRepository(db)

	// Schedule repositories
	templateRepo := repositories.NewClassTemplateRepository(db)
	sessionRepo := repositories.NewClassSessionRepository(db)
	attendanceRepo := repositories.NewAttendanceRepository(db)

	// Notice, waiver, billing repositories
	noticeRepo := repositories.NewNoticeRepository(db)
	waiverRepo := repositories.NewWaiverRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService()
	mailService := services.NewMailService(cfg.Mail)
	boardService := services.NewBoardService()
	codeService := services.NewCheckinCodeService(0)

	authService := services.NewAuthService(userRepo, refreshTokenRepo, memberRepo, gymRepo, cfg)
	userService := services.NewUserService(userRepo, memberRepo, gymRepo)
	memberService := services.NewMemberService(memberRepo, gymRepo)
	promotionService := services.NewPromotionService(promotionRepo, memberRepo, notifyService)
	scheduleService := services.NewScheduleService(templateRepo, sessionRepo, attendanceRepo, userRepo, gymRepo, boardService)
	attendanceService := services.NewAttendanceService(attendanceRepo, sessionRepo, memberRepo, codeService, boardService)
	noticeService := services.NewNoticeService(noticeRepo, memberRepo, gymRepo, notifyService, mailService)
	waiverService := services.NewWaiverService(waiverRepo, gymRepo, gymConfigRepo, mailService, notifyService)
	billingService := services.NewBillingService(subscriptionRepo, gymRepo, memberRepo, userRepo, templateRepo, noticeRepo, notifyService)
	dashboardService := services.NewDashboardService(db)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService, authService)
	memberHandler := handlers.NewMemberHandler(memberService, promotionService, authService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, authService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService, codeService, authService)
	boardHandler := handlers.NewBoardHandler(scheduleService, boardService, gymRepo)
	noticeHandler := handlers.NewNoticeHandler(noticeService, authService)
	waiverHandler := handlers.NewWaiverHandler(waiverService, authService)
	billingHandler := handlers.NewBillingHandler(billingService, authService)
	masterHandler := handlers.NewMasterHandler(beltRepo, planRepo, gymRepo, gymConfigRepo, authService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, authService)
	mobileHandler := handlers.NewMobileHandler(db, beltRepo, planRepo, dashboardService, authService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, userHandler, memberHandler,
		scheduleHandler, attendanceHandler, boardHandler, noticeHandler,
		waiverHandler, billingHandler, masterHandler, dashboardHandler, cfg)

	// API v2 group (Mobile-optimized)
	apiV2 := app.Group("/api/v2")
	setupAPIV2Routes(apiV2, mobileHandler, cfg)

	return &Deps{
		RefreshTokenRepo: refreshTokenRepo,
		SessionRepo:      sessionRepo,
		GymRepo:          gymRepo,
		ScheduleService:  scheduleService,
		BillingService:   billingService,
		NotifyService:    notifyService,
	}
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	memberHandler *handlers.MemberHandler,
	scheduleHandler *handlers.ScheduleHandler,
	attendanceHandler *handlers.AttendanceHandler,
	boardHandler *handlers.BoardHandler,
	noticeHandler *handlers.NoticeHandler,
	waiverHandler *handlers.WaiverHandler,
	billingHandler *handlers.BillingHandler,
	masterHandler *handlers.MasterHandler,
	dashboardHandler *handlers.DashboardHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Public board & kiosk display (no auth, used by mat-side TVs)
	boardRoutes := router.Group("/board")
	setupBoardRoutes(boardRoutes, boardHandler)

	// Public waiver signing (strict rate limit, visitors are anonymous)
	router.Post("/waivers/sign/:gym_code", middleware.StrictRateLimiter(), waiverHandler.Sign)

	// User management routes (Admin only)
	userRoutes := router.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (Authenticated users)
	profileRoutes := router.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	// Roster & grading routes (Coach/Admin, some member-visible)
	memberRoutes := router.Group("/members")
	memberRoutes.Use(middleware.AuthMiddleware(cfg))
	setupMemberRoutes(memberRoutes, memberHandler)

	// Promotion log (Coach/Admin)
	router.Get("/promotions", middleware.AuthMiddleware(cfg), middleware.CoachOrAdmin(), memberHandler.RecentPromotions)

	// Schedule routes (Coach/Admin manage, members read)
	scheduleRoutes := router.Group("/schedule")
	scheduleRoutes.Use(middleware.AuthMiddleware(cfg))
	setupScheduleRoutes(scheduleRoutes, scheduleHandler)

	// Attendance routes
	attendanceRoutes := router.Group("/attendance")
	attendanceRoutes.Use(middleware.AuthMiddleware(cfg))
	setupAttendanceRoutes(attendanceRoutes, attendanceHandler)

	// Session roster (Coach/Admin)
	router.Get("/sessions/:id/attendance", middleware.AuthMiddleware(cfg), middleware.CoachOrAdmin(), attendanceHandler.ListSessionAttendance)

	// Notice routes
	noticeRoutes := router.Group("/notices")
	noticeRoutes.Use(middleware.AuthMiddleware(cfg))
	setupNoticeRoutes(noticeRoutes, noticeHandler)

	// Waiver staff routes (Coach/Admin)
	waiverRoutes := router.Group("/waivers")
	waiverRoutes.Use(middleware.AuthMiddleware(cfg))
	waiverRoutes.Use(middleware.CoachOrAdmin())
	setupWaiverRoutes(waiverRoutes, waiverHandler)

	// Billing routes (Admin only)
	billingRoutes := router.Group("/billing")
	billingRoutes.Use(middleware.AuthMiddleware(cfg))
	billingRoutes.Use(middleware.AdminOnly())
	setupBillingRoutes(billingRoutes, billingHandler)

	// Master routes
	masterRoutes := router.Group("/master")
	setupMasterRoutes(masterRoutes, masterHandler, cfg)

	// Dashboard routes
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	setupDashboardRoutes(dashboardRoutes, dashboardHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (brute-force limited)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupBoardRoutes configures the public live board (mat-side TVs)
func setupBoardRoutes(router fiber.Router, handler *handlers.BoardHandler) {
	router.Get("/:gym_id", handler.GetBoard)
	router.Get("/:gym_id/events", handler.BoardSSE)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
	router.Delete("/:id", handler.DeleteUser)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", handler.ChangePassword)
}

// setupMemberRoutes configures roster and grading routes
func setupMemberRoutes(router fiber.Router, handler *handlers.MemberHandler) {
	// Coach/Admin routes
	staffRoutes := router.Group("")
	staffRoutes.Use(middleware.CoachOrAdmin())

	staffRoutes.Post("/", handler.Create)
	staffRoutes.Get("/", handler.List)
	staffRoutes.Get("/:id", handler.Get)
	staffRoutes.Put("/:id", handler.Update)
	staffRoutes.Delete("/:id", handler.Delete)
	staffRoutes.Get("/:id/rank", handler.GetRank)
	staffRoutes.Get("/:id/promotions", handler.ListPromotions)
	staffRoutes.Post("/:id/promote", handler.Promote)
}

// setupScheduleRoutes configures class template and session routes
func setupScheduleRoutes(router fiber.Router, handler *handlers.ScheduleHandler) {
	// Members can read the timetable
	router.Get("/sessions", handler.ListSessions)
	router.Get("/sessions/:id", handler.GetSession)

	// Coaches see their own teaching slots
	coachRoutes := router.Group("")
	coachRoutes.Use(middleware.CoachOrAdmin())

	coachRoutes.Get("/my-sessions", handler.MySessions)
	coachRoutes.Post("/templates", handler.CreateTemplate)
	coachRoutes.Get("/templates", handler.ListTemplates)
	coachRoutes.Get("/templates/:id", handler.GetTemplate)
	coachRoutes.Put("/templates/:id", handler.UpdateTemplate)
	coachRoutes.Patch("/templates/:id/active", handler.SetTemplateActive)
	coachRoutes.Delete("/templates/:id", handler.DeleteTemplate)
	coachRoutes.Post("/generate", handler.GenerateWeek)
	coachRoutes.Post("/sessions", handler.CreateSession)
	coachRoutes.Post("/sessions/:id/cancel", handler.CancelSession)
}

// setupAttendanceRoutes configures check-in routes
func setupAttendanceRoutes(router fiber.Router, handler *handlers.AttendanceHandler) {
	// Member self-service
	router.Post("/self-checkin", handler.SelfCheckIn)
	router.Get("/me", handler.MyAttendance)

	// Front desk (Coach/Admin)
	staffRoutes := router.Group("")
	staffRoutes.Use(middleware.CoachOrAdmin())

	staffRoutes.Post("/checkin", handler.CheckIn)
	staffRoutes.Delete("/:id", handler.RemoveCheckIn)
	staffRoutes.Post("/kiosk-code", handler.IssueKioskCode)
	staffRoutes.Get("/kiosk-code", handler.GetKioskCode)
}

// setupNoticeRoutes configures announcement routes
func setupNoticeRoutes(router fiber.Router, handler *handlers.NoticeHandler) {
	// Member feed
	router.Get("/feed", handler.Feed)

	// Coach/Admin management
	staffRoutes := router.Group("")
	staffRoutes.Use(middleware.CoachOrAdmin())

	staffRoutes.Post("/", handler.Create)
	staffRoutes.Get("/", handler.List)
	staffRoutes.Get("/:id", handler.Get)
	staffRoutes.Put("/:id", handler.Update)
	staffRoutes.Delete("/:id", handler.Delete)
	staffRoutes.Post("/:id/broadcast", handler.Broadcast)
}

// setupWaiverRoutes configures staff waiver routes (Coach/Admin)
func setupWaiverRoutes(router fiber.Router, handler *handlers.WaiverHandler) {
	router.Get("/", handler.List)
	router.Get("/verify/:reference", handler.Verify)
	router.Get("/:id", handler.Get)
	router.Delete("/:id", handler.Void)
}

// setupBillingRoutes configures subscription routes (Admin only)
func setupBillingRoutes(router fiber.Router, handler *handlers.BillingHandler) {
	router.Get("/subscription", handler.GetSubscription)
	router.Get("/subscriptions", handler.ListSubscriptions)
	router.Get("/usage", handler.GetUsage)
	router.Post("/change-plan", handler.ChangePlan)
}

// setupMasterRoutes configures master data routes
func setupMasterRoutes(router fiber.Router, handler *handlers.MasterHandler, cfg *config.Config) {
	// Public, cacheable reference data
	router.Get("/belts", middleware.MasterDataCache(), handler.ListBelts)
	router.Get("/belts/:code", middleware.MasterDataCache(), handler.GetBelt)
	router.Get("/plans", middleware.MasterDataCache(), handler.ListPlans)
	router.Get("/plans/:code", middleware.MasterDataCache(), handler.GetPlan)

	// Gym profile & settings (Admin only)
	gymRoutes := router.Group("/gym")
	gymRoutes.Use(middleware.AuthMiddleware(cfg))
	gymRoutes.Use(middleware.AdminOnly())

	gymRoutes.Get("/", handler.GetGym)
	gymRoutes.Put("/", handler.UpdateGym)
	gymRoutes.Get("/config", handler.ListGymConfig)
	gymRoutes.Put("/config", handler.SetGymConfig)
}

// setupDashboardRoutes configures dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	// Auto-detect role dashboard (All authenticated users)
	router.Get("/", handler.GetMyDashboard)

	// Member dashboard (All authenticated users)
	router.Get("/member", handler.GetMemberDashboard)

	// Coach dashboard (Coach/Admin only)
	router.Get("/coach", middleware.CoachOrAdmin(), handler.GetCoachDashboard)

	// Admin dashboard (Admin only)
	router.Get("/admin", middleware.AdminOnly(), handler.GetAdminDashboard)
}

// setupAPIV2Routes configures API v2 routes (Mobile-optimized)
func setupAPIV2Routes(router fiber.Router, mobileHandler *handlers.MobileHandler, cfg *config.Config) {
	// Mobile routes group (requires authentication)
	mobileRoutes := router.Group("/mobile")
	mobileRoutes.Use(middleware.AuthMiddleware(cfg))

	// GET /api/v2/mobile/dashboard
	mobileRoutes.Get("/dashboard", mobileHandler.GetDashboard)

	// GET /api/v2/mobile/my-training
	mobileRoutes.Get("/my-training", mobileHandler.GetMyTraining)

	// GET /api/v2/mobile/master
	mobileRoutes.Get("/master", mobileHandler.GetMasterData)
}
