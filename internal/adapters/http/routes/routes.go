package routes

import (
	"time"

	"devroots-sacco/internal/adapters/http/handlers"
	"devroots-sacco/internal/adapters/http/middleware"
	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/config"
	"devroots-sacco/internal/core/policy"
	"devroots-sacco/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, store repositories.Store, cache services.Cache, cfg *config.Config) {
	// Initialize services
	ledgerService := services.NewLedgerService(store, cache)
	loanService := services.NewLoanService(store, cache, cfg.Ledger.DefaultInterestRate)
	memberService := services.NewMemberService(store, cache, cfg.Ledger.MembershipFee)
	credentialService := services.NewCredentialService(store)
	authService := services.NewAuthService(store, cfg)
	userService := services.NewUserService(store)
	notificationService := services.NewNotificationService(store)
	dashboardService := services.NewDashboardService(store, cache, time.Duration(cfg.Redis.DashboardTTL)*time.Second)
	activityService := services.NewActivityService(store)
	settingsService := services.NewSettingsService(store, models.SystemSetting{
		DefaultInterestRate: cfg.Ledger.DefaultInterestRate,
		MembershipFee:       cfg.Ledger.MembershipFee,
	})
	roleService := services.NewRoleService(store)

	// Initialize handlers
	h := &routeHandlers{
		health:       handlers.NewHealthHandler(),
		auth:         handlers.NewAuthHandler(authService, cfg),
		user:         handlers.NewUserHandler(userService),
		member:       handlers.NewMemberHandler(memberService, credentialService),
		savings:      handlers.NewSavingsHandler(ledgerService),
		loan:         handlers.NewLoanHandler(loanService),
		notification: handlers.NewNotificationHandler(notificationService),
		portal:       handlers.NewMemberPortalHandler(dashboardService, ledgerService, loanService, notificationService),
		dashboard:    handlers.NewDashboardHandler(dashboardService),
		admin:        handlers.NewAdminHandler(activityService, settingsService, roleService),
	}

	// Health check & root routes
	app.Get("/", h.health.Root)
	app.Get("/health", h.health.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, h, cfg)
}

type routeHandlers struct {
	health       *handlers.HealthHandler
	auth         *handlers.AuthHandler
	user         *handlers.UserHandler
	member       *handlers.MemberHandler
	savings      *handlers.SavingsHandler
	loan         *handlers.LoanHandler
	notification *handlers.NotificationHandler
	portal       *handlers.MemberPortalHandler
	dashboard    *handlers.DashboardHandler
	admin        *handlers.AdminHandler
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(router fiber.Router, h *routeHandlers, cfg *config.Config) {
	// API Info
	router.Get("/", h.health.APIInfo)

	// Auth routes (login/refresh public, the rest protected)
	authRoutes := router.Group("/auth")
	authRoutes.Use(middleware.NoCacheHeaders())
	setupAuthRoutes(authRoutes, h.auth, cfg)

	// Everything below requires a token and a changed temporary password
	auth := middleware.AuthMiddleware(cfg)
	force := middleware.ForcePasswordChange()

	setupMemberRoutes(router.Group("/members", auth, force), h.member)
	setupSavingsRoutes(router.Group("/savings", auth, force, middleware.NoCacheHeaders()), h.savings)
	setupLoanRoutes(router.Group("/loans", auth, force), h.loan)
	setupNotificationRoutes(router.Group("/notifications", auth, force, middleware.RequirePermission(policy.NotificationsView)), h.notification)
	setupPortalRoutes(router.Group("/me", auth, force, middleware.MemberOnly()), h.portal)
	setupReportRoutes(router, h.dashboard, auth, force)
	setupAdminRoutes(router, h.admin, auth, force)
	setupUserRoutes(router.Group("/users", auth, force, middleware.AdminOnly()), h.user)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes; reachable with a temporary password
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Put("/password", middleware.AuthMiddleware(cfg), handler.ChangePassword)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupMemberRoutes configures the member registry
func setupMemberRoutes(router fiber.Router, handler *handlers.MemberHandler) {
	view := middleware.RequirePermission(policy.MembersView)
	manage := middleware.RequirePermission(policy.MembersManage)

	router.Get("/", view, handler.ListMembers)
	router.Get("/:id", view, handler.GetMember)

	router.Post("/", manage, handler.CreateMember)
	router.Put("/:id", manage, handler.UpdateMember)
	router.Put("/:id/status", manage, handler.ChangeStatus)
	router.Delete("/:id", manage, handler.DeleteMember)
	router.Post("/:id/credentials", manage, handler.ProvisionCredential)
}

// setupSavingsRoutes configures savings accounts
func setupSavingsRoutes(router fiber.Router, handler *handlers.SavingsHandler) {
	view := middleware.RequirePermission(policy.SavingsView)
	transact := middleware.RequirePermission(policy.SavingsTransact)

	router.Get("/accounts", view, handler.ListAccounts)
	router.Get("/accounts/:id", view, handler.GetAccount)
	router.Get("/accounts/:id/transactions", view, handler.ListTransactions)

	router.Post("/accounts/:id/deposit", transact, handler.Deposit)
	router.Post("/accounts/:id/withdraw", transact, handler.Withdraw)
}

// setupLoanRoutes configures loans, guarantors and repayments
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	view := middleware.RequirePermission(policy.LoansView)
	manage := middleware.RequirePermission(policy.LoansManage)
	approve := middleware.RequirePermission(policy.LoansApprove)

	router.Get("/", view, handler.ListLoans)
	router.Get("/:id", view, handler.GetLoan)
	router.Get("/:id/remaining", view, handler.Remaining)
	router.Get("/:id/guarantors", view, handler.ListGuarantors)
	router.Get("/:id/repayments", view, handler.ListRepayments)

	router.Post("/", manage, handler.CreateLoan)
	router.Post("/:id/guarantors", manage, handler.AttachGuarantors)
	router.Post("/:id/repayments", manage, handler.RecordRepayment)
	router.Delete("/:id/repayments/:repayment_id", manage, handler.DeleteRepayment)

	router.Put("/:id/approve", approve, handler.ApproveLoan)
	router.Put("/:id/reject", approve, handler.RejectLoan)
}

// setupNotificationRoutes configures the admin inbox
func setupNotificationRoutes(router fiber.Router, handler *handlers.NotificationHandler) {
	router.Get("/", handler.List)
	router.Get("/summary", handler.Summary)
	router.Get("/support", handler.ListSupport)
	router.Put("/read-all", handler.MarkAllRead)
	router.Put("/:id/read", handler.MarkRead)
}

// setupPortalRoutes configures the signed-in member's own views
func setupPortalRoutes(router fiber.Router, handler *handlers.MemberPortalHandler) {
	router.Get("/dashboard", middleware.NoCacheHeaders(), handler.Dashboard)
	router.Get("/savings", middleware.NoCacheHeaders(), handler.Savings)
	router.Get("/transactions", handler.Transactions)
	router.Get("/loans", handler.Loans)
	router.Post("/loans", handler.ApplyForLoan)
	router.Get("/notifications", handler.Notifications)
	router.Put("/notifications/:id/read", handler.MarkNotificationRead)
	router.Post("/support", middleware.StrictRateLimiter(), handler.OpenSupportTicket)
}

// setupReportRoutes configures dashboards and reports
func setupReportRoutes(router fiber.Router, handler *handlers.DashboardHandler, guards ...fiber.Handler) {
	reports := append(guards, middleware.RequirePermission(policy.ReportsView))

	router.Get("/dashboard/admin", append(reports, handler.GetAdminDashboard)...)

	reportRoutes := router.Group("/reports", reports...)
	reportRoutes.Use(middleware.PrivateCacheHeaders(time.Minute))
	reportRoutes.Get("/loans", handler.GetLoanReport)
	reportRoutes.Get("/savings", handler.GetSavingsReport)
}

// setupAdminRoutes configures activity logs, settings and roles
func setupAdminRoutes(router fiber.Router, handler *handlers.AdminHandler, guards ...fiber.Handler) {
	logs := router.Group("/activity-logs", guards...)
	logs.Get("/", middleware.RequirePermission(policy.LogsView), handler.ListActivity)

	settings := router.Group("/settings", guards...)
	settings.Use(middleware.RequirePermission(policy.SettingsManage))
	settings.Get("/", handler.GetSettings)
	settings.Put("/", handler.UpdateSettings)

	roles := router.Group("/roles", guards...)
	roles.Use(middleware.RequirePermission(policy.RolesManage))
	roles.Get("/", handler.ListRoles)
	roles.Post("/", handler.CreateRole)
	roles.Put("/assign", handler.AssignRole)
	roles.Put("/:id", handler.UpdateRole)
	roles.Delete("/:id", handler.DeleteRole)
}

// setupUserRoutes configures login account management
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
}
