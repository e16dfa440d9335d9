package repositories

import (
	"context"
	"time"

	"devroots-sacco/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
)

// Store groups every repository behind a single unit of work.
// Atomic runs fn against a Store bound to one database transaction;
// any error returned by fn rolls the whole unit back.
type Store interface {
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository
	Roles() RoleRepository
	Members() MemberRepository
	Accounts() SavingAccountRepository
	SavingTransactions() SavingTransactionRepository
	Loans() LoanRepository
	Repayments() LoanRepaymentRepository
	Guarantors() LoanGuarantorRepository
	AdminNotifications() AdminNotificationRepository
	Notifications() NotificationRepository
	ActivityLogs() ActivityLogRepository
	Settings() SettingRepository

	Atomic(ctx context.Context, fn func(tx Store) error) error
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	AddToGroup(ctx context.Context, userID uint, groupName string) error
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) (bool, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// RoleRepository defines role repository interface
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id uint) (*models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]*models.Role, error)
	// GetForUser returns the role assigned to a user, ErrNotFound when none
	GetForUser(ctx context.Context, userID uint) (*models.Role, error)
	AssignToUser(ctx context.Context, userID uint, roleID *uint) error
}

// MemberFilter narrows member listings
type MemberFilter struct {
	Query  string
	Status string
}

// MemberRepository defines member repository interface
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id uint) (*models.Member, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Member, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Member, error)
	ExistsByMemberNo(ctx context.Context, memberNo string) (bool, error)
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter MemberFilter, offset, limit int) ([]*models.Member, int64, error)
	Count(ctx context.Context, status string) (int64, error)
}

// SavingAccountRepository defines saving account repository interface
type SavingAccountRepository interface {
	Create(ctx context.Context, account *models.SavingAccount) error
	GetByID(ctx context.Context, id uint) (*models.SavingAccount, error)
	GetByMemberID(ctx context.Context, memberID uint) (*models.SavingAccount, error)
	// LockByID reads the account with SELECT ... FOR UPDATE
	LockByID(ctx context.Context, id uint) (*models.SavingAccount, error)
	UpdateBalance(ctx context.Context, id uint, balance decimal.Decimal) error
	List(ctx context.Context, offset, limit int) ([]*models.SavingAccount, int64, error)
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}

// SavingTransactionRepository defines saving transaction repository interface
type SavingTransactionRepository interface {
	Create(ctx context.Context, txn *models.SavingTransaction) error
	ListByAccount(ctx context.Context, accountID uint, offset, limit int) ([]*models.SavingTransaction, int64, error)
}

// LoanFilter narrows loan listings
type LoanFilter struct {
	MemberID uint
	Status   string
}

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	// LockByID reads the loan with SELECT ... FOR UPDATE
	LockByID(ctx context.Context, id uint) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	List(ctx context.Context, filter LoanFilter, offset, limit int) ([]*models.Loan, int64, error)
	Count(ctx context.Context, status string) (int64, error)
	// ListOverdue returns approved loans past their end date with an outstanding balance
	ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Loan, error)
}

// LoanRepaymentRepository defines loan repayment repository interface
type LoanRepaymentRepository interface {
	Create(ctx context.Context, repayment *models.LoanRepayment) error
	GetByID(ctx context.Context, id uint) (*models.LoanRepayment, error)
	Delete(ctx context.Context, id uint) error
	ListByLoan(ctx context.Context, loanID uint) ([]*models.LoanRepayment, error)
	SumByLoan(ctx context.Context, loanID uint) (decimal.Decimal, error)
}

// LoanGuarantorRepository defines loan guarantor repository interface
type LoanGuarantorRepository interface {
	CreateBatch(ctx context.Context, guarantors []*models.LoanGuarantor) error
	ListByLoan(ctx context.Context, loanID uint) ([]*models.LoanGuarantor, error)
	CountByLoan(ctx context.Context, loanID uint) (int64, error)
	CountOpenByMember(ctx context.Context, memberID uint) (int64, error)
	DeleteByMember(ctx context.Context, memberID uint) (int64, error)
}

// AdminNotificationRepository defines admin inbox repository interface
type AdminNotificationRepository interface {
	Create(ctx context.Context, n *models.AdminNotification) error
	GetByID(ctx context.Context, id uint) (*models.AdminNotification, error)
	List(ctx context.Context, unreadOnly bool, offset, limit int) ([]*models.AdminNotification, int64, error)
	CountUnread(ctx context.Context) (int64, error)
	Latest(ctx context.Context, limit int) ([]*models.AdminNotification, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context) (int64, error)
	ExistsForLoanSince(ctx context.Context, loanID uint, notificationType string, since time.Time) (bool, error)
}

// NotificationRepository defines member notification repository interface
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	ListByMember(ctx context.Context, memberID uint, offset, limit int) ([]*models.Notification, int64, error)
	ListSupport(ctx context.Context, offset, limit int) ([]*models.Notification, int64, error)
	CountUnreadByMember(ctx context.Context, memberID uint) (int64, error)
	MarkRead(ctx context.Context, id uint) error
}

// ActivityLogRepository defines activity log repository interface
type ActivityLogRepository interface {
	Create(ctx context.Context, log *models.UserActivityLog) error
	List(ctx context.Context, memberID uint, offset, limit int) ([]*models.UserActivityLog, int64, error)
	Recent(ctx context.Context, memberID uint, limit int) ([]*models.UserActivityLog, error)
}

// SettingRepository defines system setting repository interface
type SettingRepository interface {
	// Get returns the singleton row, ErrNotFound when it has not been created
	Get(ctx context.Context) (*models.SystemSetting, error)
	Save(ctx context.Context, setting *models.SystemSetting) error
}
