package handlers

import (
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/services"
	"devroots-sacco/internal/pkg/pagination"
	"devroots-sacco/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// MemberPortalHandler serves the signed-in member's own data under /me
type MemberPortalHandler struct {
	dashboardService    *services.DashboardService
	ledgerService       *services.LedgerService
	loanService         *services.LoanService
	notificationService *services.NotificationService
}

// NewMemberPortalHandler creates a new member portal handler
func NewMemberPortalHandler(
	dashboardService *services.DashboardService,
	ledgerService *services.LedgerService,
	loanService *services.LoanService,
	notificationService *services.NotificationService,
) *MemberPortalHandler {
	return &MemberPortalHandler{
		dashboardService:    dashboardService,
		ledgerService:       ledgerService,
		loanService:         loanService,
		notificationService: notificationService,
	}
}

// LoanApplicationRequest is a member's own loan application
type LoanApplicationRequest struct {
	PrincipalAmount decimal.Decimal `json:"principal_amount" swaggertype:"string" example:"100000.00"`
	TermMonths      int             `json:"term_months" example:"12"`
	Remark          string          `json:"remark"`
}

// Dashboard returns the member dashboard
// @Summary Member dashboard
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /me/dashboard [get]
func (h *MemberPortalHandler) Dashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetMemberDashboard(c.Context(), memberIDFrom(c))
	if err != nil {
		return response.FromError(c, err, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}

// Savings returns the member's savings account
// @Summary My savings account
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /me/savings [get]
func (h *MemberPortalHandler) Savings(c *fiber.Ctx) error {
	account, err := h.ledgerService.GetAccountByMember(c.Context(), memberIDFrom(c))
	if err != nil {
		return response.FromError(c, err, "Failed to get savings account")
	}

	return response.Success(c, "Savings account retrieved successfully", account)
}

// Transactions lists the member's savings transactions
// @Summary My transactions
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /me/transactions [get]
func (h *MemberPortalHandler) Transactions(c *fiber.Ctx) error {
	pg := pageFrom(c)

	account, err := h.ledgerService.GetAccountByMember(c.Context(), memberIDFrom(c))
	if err != nil {
		return response.FromError(c, err, "Failed to get savings account")
	}
	txns, total, err := h.ledgerService.ListTransactions(c.Context(), account.ID, pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to list transactions")
	}

	return response.Success(c, "Transactions retrieved successfully", pagination.NewResponse(txns, pg, total))
}

// Loans lists the member's loans
// @Summary My loans
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /me/loans [get]
func (h *MemberPortalHandler) Loans(c *fiber.Ctx) error {
	pg := pageFrom(c)

	loans, total, err := h.loanService.ListLoans(c.Context(), repositories.LoanFilter{MemberID: memberIDFrom(c)}, pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, pg, total))
}

// ApplyForLoan lets a member apply for a loan at the default rate
// @Summary Apply for a loan
// @Tags Me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body LoanApplicationRequest true "Application"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /me/loans [post]
func (h *MemberPortalHandler) ApplyForLoan(c *fiber.Ctx) error {
	var req LoanApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Members cannot pick their own rate, dates or borrower
	input := services.OriginateLoanInput{
		MemberID:        memberIDFrom(c),
		PrincipalAmount: req.PrincipalAmount,
		TermMonths:      req.TermMonths,
		Remark:          req.Remark,
	}

	loan, err := h.loanService.OriginateLoan(c.Context(), actorFrom(c), input)
	if err != nil {
		return response.FromError(c, err, "Failed to submit loan application")
	}

	return response.Created(c, "Loan application submitted successfully", loan)
}

// Notifications lists the member's notifications
// @Summary My notifications
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /me/notifications [get]
func (h *MemberPortalHandler) Notifications(c *fiber.Ctx) error {
	pg := pageFrom(c)

	items, total, err := h.notificationService.ListForMember(c.Context(), memberIDFrom(c), pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to list notifications")
	}

	return response.Success(c, "Notifications retrieved successfully", pagination.NewResponse(items, pg, total))
}

// MarkNotificationRead marks one of the member's notifications read
// @Summary Mark my notification read
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /me/notifications/{id}/read [put]
func (h *MemberPortalHandler) MarkNotificationRead(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.notificationService.MarkMemberRead(c.Context(), memberIDFrom(c), id); err != nil {
		return response.FromError(c, err, "Failed to mark notification read")
	}

	return response.Success(c, "Notification marked as read", nil)
}

// OpenSupportTicket opens a support request
// @Summary Contact support
// @Tags Me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SupportTicketInput true "Support request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /me/support [post]
func (h *MemberPortalHandler) OpenSupportTicket(c *fiber.Ctx) error {
	var req services.SupportTicketInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	ticket, err := h.notificationService.OpenSupportTicket(c.Context(), actorFrom(c), memberIDFrom(c), req)
	if err != nil {
		return response.FromError(c, err, "Failed to open support request")
	}

	return response.Created(c, "Support request sent successfully", ticket)
}
