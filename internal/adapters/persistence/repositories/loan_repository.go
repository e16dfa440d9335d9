package repositories

import (
	"context"
	"time"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ============================================================
// Loans
// ============================================================

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return translateError(r.db.WithContext(ctx).Omit("Member", "Repayments", "Guarantors").Create(loan).Error)
}

// GetByID gets a loan by ID with member, guarantors and repayments
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Guarantors").
		Preload("Repayments", func(db *gorm.DB) *gorm.DB {
			return db.Order("date_paid DESC, id DESC")
		}).
		Where("id = ?", id).
		First(&loan).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &loan, nil
}

// LockByID reads a loan row and holds a write lock until the transaction ends
func (r *loanRepository) LockByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Member").
		Where("id = ?", id).
		First(&loan).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &loan, nil
}

// Update updates a loan's own columns
func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return translateError(r.db.WithContext(ctx).Omit("Member", "Repayments", "Guarantors").Save(loan).Error)
}

// List lists loans with optional member/status filter, newest first
func (r *loanRepository) List(ctx context.Context, filter LoanFilter, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.MemberID != 0 {
			db = db.Where("member_id = ?", filter.MemberID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.Loan{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Member").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error
	if err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}

// Count counts loans, optionally by status
func (r *loanRepository) Count(ctx context.Context, status string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Loan{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

// ListOverdue returns approved loans past their end date that still carry a balance
func (r *loanRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("status = ?", string(domain.LoanApproved)).
		Where("end_date < ?", asOf).
		Where("current_balance > 0").
		Order("end_date").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// ============================================================
// Repayments
// ============================================================

// loanRepaymentRepository implements LoanRepaymentRepository interface
type loanRepaymentRepository struct {
	db *gorm.DB
}

// NewLoanRepaymentRepository creates a new loan repayment repository
func NewLoanRepaymentRepository(db *gorm.DB) LoanRepaymentRepository {
	return &loanRepaymentRepository{db: db}
}

// Create records a repayment
func (r *loanRepaymentRepository) Create(ctx context.Context, repayment *models.LoanRepayment) error {
	return translateError(r.db.WithContext(ctx).Create(repayment).Error)
}

// GetByID gets a repayment by ID
func (r *loanRepaymentRepository) GetByID(ctx context.Context, id uint) (*models.LoanRepayment, error) {
	var repayment models.LoanRepayment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&repayment).Error; err != nil {
		return nil, translateError(err)
	}
	return &repayment, nil
}

// Delete deletes a repayment
func (r *loanRepaymentRepository) Delete(ctx context.Context, id uint) error {
	return translateError(r.db.WithContext(ctx).Delete(&models.LoanRepayment{}, id).Error)
}

// ListByLoan lists repayments of a loan, newest first
func (r *loanRepaymentRepository) ListByLoan(ctx context.Context, loanID uint) ([]*models.LoanRepayment, error) {
	var repayments []*models.LoanRepayment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("date_paid DESC, id DESC").
		Find(&repayments).Error
	if err != nil {
		return nil, err
	}
	return repayments, nil
}

// SumByLoan sums all repayments recorded against a loan
func (r *loanRepaymentRepository) SumByLoan(ctx context.Context, loanID uint) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.LoanRepayment{}).
		Select("SUM(amount_paid)").
		Where("loan_id = ?", loanID).
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
// Guarantors
// ============================================================

// loanGuarantorRepository implements LoanGuarantorRepository interface
type loanGuarantorRepository struct {
	db *gorm.DB
}

// NewLoanGuarantorRepository creates a new loan guarantor repository
func NewLoanGuarantorRepository(db *gorm.DB) LoanGuarantorRepository {
	return &loanGuarantorRepository{db: db}
}

// CreateBatch inserts guarantor rows in one statement
func (r *loanGuarantorRepository) CreateBatch(ctx context.Context, guarantors []*models.LoanGuarantor) error {
	if len(guarantors) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Omit("GuarantorMember").Create(&guarantors).Error)
}

// ListByLoan lists guarantors of a loan
func (r *loanGuarantorRepository) ListByLoan(ctx context.Context, loanID uint) ([]*models.LoanGuarantor, error) {
	var guarantors []*models.LoanGuarantor
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id").Find(&guarantors).Error
	if err != nil {
		return nil, err
	}
	return guarantors, nil
}

// CountByLoan counts guarantors attached to a loan
func (r *loanGuarantorRepository) CountByLoan(ctx context.Context, loanID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LoanGuarantor{}).Where("loan_id = ?", loanID).Count(&count).Error
	return count, err
}

// CountOpenByMember counts guarantees member gave on loans that are neither rejected nor paid
func (r *loanGuarantorRepository) CountOpenByMember(ctx context.Context, memberID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoanGuarantor{}).
		Joins("JOIN loans ON loans.id = loan_guarantors.loan_id").
		Where("loan_guarantors.guarantor_member_id = ?", memberID).
		Where("loans.status NOT IN ?", []string{string(domain.LoanRejected), string(domain.LoanPaid)}).
		Count(&count).Error
	return count, err
}

// DeleteByMember removes every guarantee given by member
func (r *loanGuarantorRepository) DeleteByMember(ctx context.Context, memberID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("guarantor_member_id = ?", memberID).Delete(&models.LoanGuarantor{})
	return result.RowsAffected, translateError(result.Error)
}
