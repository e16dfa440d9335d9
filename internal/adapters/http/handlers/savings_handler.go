package handlers

import (
	"context"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/core/services"
	"devroots-sacco/internal/pkg/pagination"
	"devroots-sacco/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// SavingsHandler handles savings account endpoints
type SavingsHandler struct {
	ledgerService *services.LedgerService
}

// NewSavingsHandler creates a new savings handler
func NewSavingsHandler(ledgerService *services.LedgerService) *SavingsHandler {
	return &SavingsHandler{ledgerService: ledgerService}
}

// SavingTransactionRequest represents a deposit or withdrawal
type SavingTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"50000.00"`
	Description string          `json:"description"`
}

// ListAccounts lists savings accounts
// @Summary List savings accounts
// @Tags Savings
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /savings/accounts [get]
func (h *SavingsHandler) ListAccounts(c *fiber.Ctx) error {
	pg := pageFrom(c)

	accounts, total, err := h.ledgerService.ListAccounts(c.Context(), pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to list accounts")
	}

	return response.Success(c, "Accounts retrieved successfully", pagination.NewResponse(accounts, pg, total))
}

// GetAccount returns a savings account
// @Summary Get savings account
// @Tags Savings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /savings/accounts/{id} [get]
func (h *SavingsHandler) GetAccount(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid account ID")
	}

	account, err := h.ledgerService.GetAccount(c.Context(), id)
	if err != nil {
		return response.FromError(c, err, "Failed to get account")
	}

	return response.Success(c, "Account retrieved successfully", account)
}

// ListTransactions lists an account's transactions
// @Summary List account transactions
// @Tags Savings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /savings/accounts/{id}/transactions [get]
func (h *SavingsHandler) ListTransactions(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid account ID")
	}
	pg := pageFrom(c)

	txns, total, err := h.ledgerService.ListTransactions(c.Context(), id, pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to list transactions")
	}

	return response.Success(c, "Transactions retrieved successfully", pagination.NewResponse(txns, pg, total))
}

// Deposit credits a savings account
// @Summary Deposit
// @Tags Savings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param body body SavingTransactionRequest true "Amount"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /savings/accounts/{id}/deposit [post]
func (h *SavingsHandler) Deposit(c *fiber.Ctx) error {
	return h.record(c, h.ledgerService.Deposit, "Deposit recorded successfully", "Failed to record deposit")
}

// Withdraw debits a savings account
// @Summary Withdraw
// @Description Rejected with 400 when the amount exceeds the balance
// @Tags Savings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param body body SavingTransactionRequest true "Amount"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /savings/accounts/{id}/withdraw [post]
func (h *SavingsHandler) Withdraw(c *fiber.Ctx) error {
	return h.record(c, h.ledgerService.Withdraw, "Withdrawal recorded successfully", "Failed to record withdrawal")
}

type ledgerFunc func(ctx context.Context, actor services.Actor, accountID uint, amount decimal.Decimal, description string) (*models.SavingTransaction, error)

// record parses the account ID and body and applies fn
func (h *SavingsHandler) record(c *fiber.Ctx, fn ledgerFunc, okMessage, failMessage string) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid account ID")
	}
	var req SavingTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	txn, err := fn(c.Context(), actorFrom(c), id, req.Amount, req.Description)
	if err != nil {
		return response.FromError(c, err, failMessage)
	}

	return response.Created(c, okMessage, txn)
}
