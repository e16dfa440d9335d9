package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Savings
// ============================================================

// SavingAccount represents saving_accounts table (one per member)
type SavingAccount struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	MemberID  uint            `gorm:"uniqueIndex;not null" json:"member_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Member       *Member             `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Transactions []SavingTransaction `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

func (SavingAccount) TableName() string {
	return "saving_accounts"
}

// SavingTransaction represents saving_transactions table (immutable)
type SavingTransaction struct {
	ID                      uint            `gorm:"primaryKey" json:"id"`
	AccountID               uint            `gorm:"index;not null" json:"account_id"`
	Type                    string          `gorm:"size:10;not null" json:"transaction_type"`
	Amount                  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	BalanceAfterTransaction decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"balance_after_transaction"`
	Description             string          `gorm:"size:255" json:"description"`
	PerformedBy             string          `gorm:"size:150" json:"performed_by"`
	CreatedAt               time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (SavingTransaction) TableName() string {
	return "saving_transactions"
}

// ============================================================
// Loans
// ============================================================

// Loan represents loans table
type Loan struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	MemberID        uint            `gorm:"index;not null" json:"member_id"`
	PrincipalAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"principal_amount"`
	InterestRate    decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"interest_rate"`
	TermMonths      int             `gorm:"not null" json:"term_months"`
	StartDate       time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate         time.Time       `gorm:"type:date;not null" json:"end_date"`
	CurrentBalance  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"current_balance"`
	Status          string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ApprovedBy      *uint           `json:"approved_by"`
	ApprovedAt      *time.Time      `json:"approved_at"`
	Remark          string          `gorm:"type:text" json:"remark"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Member     *Member         `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Repayments []LoanRepayment `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"repayments,omitempty"`
	Guarantors []LoanGuarantor `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"guarantors,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// LoanRepayment represents loan_repayments table
type LoanRepayment struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	LoanID              uint            `gorm:"index;not null" json:"loan_id"`
	AmountPaid          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount_paid"`
	BalanceAfterPayment decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"balance_after_payment"`
	DatePaid            time.Time       `gorm:"not null" json:"date_paid"`
	RecordedBy          string          `gorm:"size:150" json:"recorded_by"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (LoanRepayment) TableName() string {
	return "loan_repayments"
}

// LoanGuarantor represents loan_guarantors table
type LoanGuarantor struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	LoanID            uint      `gorm:"uniqueIndex:idx_loan_guarantor;not null" json:"loan_id"`
	GuarantorMemberID uint      `gorm:"uniqueIndex:idx_loan_guarantor;not null" json:"guarantor_member_id"`
	FullName          string    `gorm:"size:200" json:"full_name"`
	Phone             string    `gorm:"size:20" json:"phone"`
	Email             string    `gorm:"size:100" json:"email"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`

	GuarantorMember *Member `gorm:"foreignKey:GuarantorMemberID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (LoanGuarantor) TableName() string {
	return "loan_guarantors"
}
