package repositories

import (
	"context"

	"devroots-sacco/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ============================================================
// Saving Accounts
// ============================================================

// savingAccountRepository implements SavingAccountRepository interface
type savingAccountRepository struct {
	db *gorm.DB
}

// NewSavingAccountRepository creates a new saving account repository
func NewSavingAccountRepository(db *gorm.DB) SavingAccountRepository {
	return &savingAccountRepository{db: db}
}

// Create creates a new saving account
func (r *savingAccountRepository) Create(ctx context.Context, account *models.SavingAccount) error {
	return translateError(r.db.WithContext(ctx).Omit("Member", "Transactions").Create(account).Error)
}

// GetByID gets an account by ID with its member
func (r *savingAccountRepository) GetByID(ctx context.Context, id uint) (*models.SavingAccount, error) {
	var account models.SavingAccount
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

// GetByMemberID gets the account owned by a member
func (r *savingAccountRepository) GetByMemberID(ctx context.Context, memberID uint) (*models.SavingAccount, error) {
	var account models.SavingAccount
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&account).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

// LockByID reads an account row and holds a write lock until the transaction ends
func (r *savingAccountRepository) LockByID(ctx context.Context, id uint) (*models.SavingAccount, error) {
	var account models.SavingAccount
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Member").
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

// UpdateBalance writes a new balance
func (r *savingAccountRepository) UpdateBalance(ctx context.Context, id uint, balance decimal.Decimal) error {
	return translateError(r.db.WithContext(ctx).
		Model(&models.SavingAccount{}).
		Where("id = ?", id).
		Update("balance", balance).Error)
}

// List lists accounts with their members
func (r *savingAccountRepository) List(ctx context.Context, offset, limit int) ([]*models.SavingAccount, int64, error) {
	var accounts []*models.SavingAccount
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.SavingAccount{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Member").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

// TotalBalance sums all account balances
func (r *savingAccountRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.SavingAccount{}).
		Select("SUM(balance)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// ============================================================
// Saving Transactions
// ============================================================

// savingTransactionRepository implements SavingTransactionRepository interface
type savingTransactionRepository struct {
	db *gorm.DB
}

// NewSavingTransactionRepository creates a new saving transaction repository
func NewSavingTransactionRepository(db *gorm.DB) SavingTransactionRepository {
	return &savingTransactionRepository{db: db}
}

// Create records a transaction
func (r *savingTransactionRepository) Create(ctx context.Context, txn *models.SavingTransaction) error {
	return translateError(r.db.WithContext(ctx).Create(txn).Error)
}

// ListByAccount lists an account's transactions, newest first
func (r *savingTransactionRepository) ListByAccount(ctx context.Context, accountID uint, offset, limit int) ([]*models.SavingTransaction, int64, error) {
	var txns []*models.SavingTransaction
	var total int64

	if err := r.db.WithContext(ctx).
		Model(&models.SavingTransaction{}).
		Where("account_id = ?", accountID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}
