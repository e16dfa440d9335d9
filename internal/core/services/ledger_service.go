package services

import (
	"context"
	"fmt"
	"strings"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LedgerService applies savings transactions to member accounts
type LedgerService struct {
	store repositories.Store
	cache Cache
}

// NewLedgerService creates a new ledger service
func NewLedgerService(store repositories.Store, cache Cache) *LedgerService {
	return &LedgerService{store: store, cache: cache}
}

// SavingTransactionInput describes one deposit or withdrawal
type SavingTransactionInput struct {
	AccountID   uint
	Type        domain.TransactionType
	Amount      decimal.Decimal
	Description string
}

// ApplySavingTransaction moves money in or out of a savings account.
// The account row is locked, the balance updated and the transaction,
// admin notification and activity entry recorded in one unit; a
// rejected request leaves nothing behind.
func (s *LedgerService) ApplySavingTransaction(ctx context.Context, actor Actor, in SavingTransactionInput) (*models.SavingTransaction, error) {
	if err := checkSavingInput(in); err != nil {
		return nil, err
	}

	var txn *models.SavingTransaction
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		var err error
		txn, err = applySavingTransaction(ctx, tx, actor, in)
		return err
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": in.AccountID,
			"type":       in.Type,
			"amount":     in.Amount.StringFixed(2),
			"actor":      actor.Label(),
			"error":      err.Error(),
		}).Error("Saving transaction failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"account_id":     in.AccountID,
		"transaction_id": txn.ID,
		"type":           in.Type,
		"amount":         in.Amount.StringFixed(2),
		"balance_after":  txn.BalanceAfterTransaction.StringFixed(2),
		"actor":          actor.Label(),
	}).Info("Saving transaction")

	invalidateDashboard(ctx, s.cache)
	return txn, nil
}

// Deposit is ApplySavingTransaction with type DEPOSIT
func (s *LedgerService) Deposit(ctx context.Context, actor Actor, accountID uint, amount decimal.Decimal, description string) (*models.SavingTransaction, error) {
	return s.ApplySavingTransaction(ctx, actor, SavingTransactionInput{
		AccountID:   accountID,
		Type:        domain.TransactionDeposit,
		Amount:      amount,
		Description: description,
	})
}

// Withdraw is ApplySavingTransaction with type WITHDRAWAL
func (s *LedgerService) Withdraw(ctx context.Context, actor Actor, accountID uint, amount decimal.Decimal, description string) (*models.SavingTransaction, error) {
	return s.ApplySavingTransaction(ctx, actor, SavingTransactionInput{
		AccountID:   accountID,
		Type:        domain.TransactionWithdrawal,
		Amount:      amount,
		Description: description,
	})
}

// GetAccount returns an account with its owner
func (s *LedgerService) GetAccount(ctx context.Context, id uint) (*models.SavingAccount, error) {
	account, err := s.store.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return account, nil
}

// GetAccountByMember returns the account owned by a member
func (s *LedgerService) GetAccountByMember(ctx context.Context, memberID uint) (*models.SavingAccount, error) {
	account, err := s.store.Accounts().GetByMemberID(ctx, memberID)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return account, nil
}

// ListAccounts lists accounts with their owners
func (s *LedgerService) ListAccounts(ctx context.Context, page Page) ([]*models.SavingAccount, int64, error) {
	return s.store.Accounts().List(ctx, page.Offset, page.Limit)
}

// ListTransactions lists an account's transactions, newest first
func (s *LedgerService) ListTransactions(ctx context.Context, accountID uint, page Page) ([]*models.SavingTransaction, int64, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, 0, err
	}
	return s.store.SavingTransactions().ListByAccount(ctx, accountID, page.Offset, page.Limit)
}

func checkSavingInput(in SavingTransactionInput) error {
	if !in.Type.Valid() {
		return domain.NewValidationError("transaction type must be DEPOSIT or WITHDRAWAL")
	}
	if !in.Amount.Round(2).IsPositive() {
		return domain.ErrAmountNotPositive
	}
	return nil
}

// applySavingTransaction does the work of ApplySavingTransaction inside an
// existing transaction so member registration can fold in an opening deposit.
func applySavingTransaction(ctx context.Context, tx repositories.Store, actor Actor, in SavingTransactionInput) (*models.SavingTransaction, error) {
	if err := checkSavingInput(in); err != nil {
		return nil, err
	}

	account, err := tx.Accounts().LockByID(ctx, in.AccountID)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	amount := in.Amount.Round(2)
	balance := account.Balance
	switch in.Type {
	case domain.TransactionDeposit:
		balance = balance.Add(amount)
	case domain.TransactionWithdrawal:
		if amount.GreaterThan(balance) {
			return nil, domain.ErrInsufficientBalance
		}
		balance = balance.Sub(amount)
	}

	if err := tx.Accounts().UpdateBalance(ctx, account.ID, balance); err != nil {
		return nil, err
	}
	account.Balance = balance

	txn := &models.SavingTransaction{
		AccountID:               account.ID,
		Type:                    string(in.Type),
		Amount:                  amount,
		BalanceAfterTransaction: balance,
		Description:             in.Description,
		PerformedBy:             actor.Label(),
	}
	if err := tx.SavingTransactions().Create(ctx, txn); err != nil {
		return nil, err
	}

	owner := fmt.Sprintf("account #%d", account.ID)
	if account.Member != nil {
		owner = fmt.Sprintf("%s (%s)", account.Member.FullName(), account.Member.MemberNo)
	}
	kind := strings.ToLower(string(in.Type))
	message := fmt.Sprintf("%s recorded a %s of %s for %s", actor.Label(), kind, amount.StringFixed(2), owner)
	if err := notifyAdmin(ctx, tx, domain.NotifySaving, message, notificationRefs{
		MemberID:      uintPtr(account.MemberID),
		TransactionID: uintPtr(txn.ID),
	}); err != nil {
		return nil, err
	}

	action := fmt.Sprintf("Savings %s of %s, balance %s", kind, amount.StringFixed(2), balance.StringFixed(2))
	if err := logActivity(ctx, tx, account.MemberID, action, actor.IP); err != nil {
		return nil, err
	}

	return txn, nil
}
