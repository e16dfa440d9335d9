package handlers

import (
	"strconv"
	"strings"

	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/services"
	"devroots-sacco/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard and report endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetAdminDashboard returns admin dashboard data
// @Summary Admin Dashboard
// @Description Member counts, loan counts and total savings
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/admin [get]
func (h *DashboardHandler) GetAdminDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetAdminDashboard(c.Context())
	if err != nil {
		return response.FromError(c, err, "Failed to get admin dashboard")
	}

	return response.Success(c, "Admin dashboard retrieved successfully", data)
}

// GetLoanReport returns the loan portfolio report
// @Summary Loan report
// @Description Loans with monthly interest, total payable and balance, plus page totals
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved, rejected or paid"
// @Param member_id query int false "Member ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /reports/loans [get]
func (h *DashboardHandler) GetLoanReport(c *fiber.Ctx) error {
	pg := pageFrom(c)
	filter := repositories.LoanFilter{Status: strings.ToLower(strings.TrimSpace(c.Query("status")))}
	if raw := c.Query("member_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid member_id")
		}
		filter.MemberID = uint(id)
	}

	report, err := h.dashboardService.GetLoanReport(c.Context(), filter, pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to build loan report")
	}

	return response.Success(c, "Loan report retrieved successfully", fiber.Map{
		"report":     report,
		"pagination": pg.Meta(report.Total),
	})
}

// GetSavingsReport returns the savings report
// @Summary Savings report
// @Description Savings accounts and the total balance held
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /reports/savings [get]
func (h *DashboardHandler) GetSavingsReport(c *fiber.Ctx) error {
	pg := pageFrom(c)

	report, err := h.dashboardService.GetSavingsReport(c.Context(), pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to build savings report")
	}

	return response.Success(c, "Savings report retrieved successfully", fiber.Map{
		"report":     report,
		"pagination": pg.Meta(report.Total),
	})
}
