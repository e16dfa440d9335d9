package handlers

import (
	"strconv"
	"strings"

	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/services"
	"devroots-sacco/internal/pkg/pagination"
	"devroots-sacco/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// DecisionRequest carries an optional remark for approve/reject
type DecisionRequest struct {
	Remark string `json:"remark"`
}

// GuarantorsRequest lists the three guarantor member IDs
type GuarantorsRequest struct {
	MemberIDs []uint `json:"member_ids"`
}

// CreateLoan originates a loan
// @Summary Create loan
// @Description Originate a pending loan for an active member
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.OriginateLoanInput true "Loan details"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) CreateLoan(c *fiber.Ctx) error {
	var req services.OriginateLoanInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.OriginateLoan(c.Context(), actorFrom(c), req)
	if err != nil {
		return response.FromError(c, err, "Failed to create loan")
	}

	return response.Created(c, "Loan created successfully", loan)
}

// ListLoans lists loans
// @Summary List loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved, rejected or paid"
// @Param member_id query int false "Member ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) ListLoans(c *fiber.Ctx) error {
	pg := pageFrom(c)
	filter := repositories.LoanFilter{Status: strings.ToLower(strings.TrimSpace(c.Query("status")))}
	if raw := c.Query("member_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid member_id")
		}
		filter.MemberID = uint(id)
	}

	loans, total, err := h.loanService.ListLoans(c.Context(), filter, pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, pg, total))
}

// GetLoan returns a loan
// @Summary Get loan
// @Description Get a loan with guarantors, repayments, monthly interest and total payable
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetLoan(c.Context(), id)
	if err != nil {
		return response.FromError(c, err, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", loan)
}

// Remaining projects the straight-line balance
// @Summary Remaining balance
// @Description Straight-line amount owed after months_paid instalments
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param months_paid query int true "Instalments paid"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/remaining [get]
func (h *LoanHandler) Remaining(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}
	monthsPaid, err := strconv.Atoi(c.Query("months_paid", "0"))
	if err != nil {
		return response.BadRequest(c, "Invalid months_paid")
	}

	view, err := h.loanService.Remaining(c.Context(), id, monthsPaid)
	if err != nil {
		return response.FromError(c, err, "Failed to compute remaining balance")
	}

	return response.Success(c, "Remaining balance computed successfully", view)
}

// ApproveLoan approves a pending loan
// @Summary Approve loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body DecisionRequest false "Remark"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/approve [put]
func (h *LoanHandler) ApproveLoan(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}
	req := decisionFrom(c)

	loan, err := h.loanService.ApproveLoan(c.Context(), actorFrom(c), id, req.Remark)
	if err != nil {
		return response.FromError(c, err, "Failed to approve loan")
	}

	return response.Success(c, "Loan approved successfully", loan)
}

// RejectLoan rejects a pending loan
// @Summary Reject loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body DecisionRequest false "Remark"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/reject [put]
func (h *LoanHandler) RejectLoan(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}
	req := decisionFrom(c)

	loan, err := h.loanService.RejectLoan(c.Context(), actorFrom(c), id, req.Remark)
	if err != nil {
		return response.FromError(c, err, "Failed to reject loan")
	}

	return response.Success(c, "Loan rejected successfully", loan)
}

// AttachGuarantors records a loan's three guarantors
// @Summary Attach guarantors
// @Description Exactly three distinct members, none of them the borrower
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body GuarantorsRequest true "Guarantor member IDs"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/guarantors [post]
func (h *LoanHandler) AttachGuarantors(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req GuarantorsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	guarantors, err := h.loanService.AttachGuarantors(c.Context(), actorFrom(c), id, req.MemberIDs)
	if err != nil {
		return response.FromError(c, err, "Failed to attach guarantors")
	}

	return response.Created(c, "Guarantors attached successfully", guarantors)
}

// ListGuarantors lists a loan's guarantors
// @Summary List guarantors
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/guarantors [get]
func (h *LoanHandler) ListGuarantors(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	guarantors, err := h.loanService.ListGuarantors(c.Context(), id)
	if err != nil {
		return response.FromError(c, err, "Failed to list guarantors")
	}

	return response.Success(c, "Guarantors retrieved successfully", guarantors)
}

// RecordRepayment records a repayment
// @Summary Record repayment
// @Description Apply a repayment to an approved loan; the loan is paid when the balance reaches zero
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body services.RepaymentInput true "Repayment"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/repayments [post]
func (h *LoanHandler) RecordRepayment(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req services.RepaymentInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	repayment, err := h.loanService.RecordRepayment(c.Context(), actorFrom(c), id, req)
	if err != nil {
		return response.FromError(c, err, "Failed to record repayment")
	}

	return response.Created(c, "Repayment recorded successfully", repayment)
}

// ListRepayments lists a loan's repayments
// @Summary List repayments
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/repayments [get]
func (h *LoanHandler) ListRepayments(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	repayments, err := h.loanService.ListRepayments(c.Context(), id)
	if err != nil {
		return response.FromError(c, err, "Failed to list repayments")
	}

	return response.Success(c, "Repayments retrieved successfully", repayments)
}

// DeleteRepayment removes a repayment and recomputes the balance
// @Summary Delete repayment
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param repayment_id path int true "Repayment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/repayments/{repayment_id} [delete]
func (h *LoanHandler) DeleteRepayment(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}
	repaymentID, ok := paramID(c, "repayment_id")
	if !ok {
		return response.BadRequest(c, "Invalid repayment ID")
	}

	loan, err := h.loanService.DeleteRepayment(c.Context(), actorFrom(c), id, repaymentID)
	if err != nil {
		return response.FromError(c, err, "Failed to delete repayment")
	}

	return response.Success(c, "Repayment deleted successfully", loan)
}

// decisionFrom reads an optional decision body
func decisionFrom(c *fiber.Ctx) DecisionRequest {
	var req DecisionRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}
	req.Remark = strings.TrimSpace(req.Remark)
	return req
}
