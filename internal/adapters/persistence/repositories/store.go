package repositories

import (
	"context"
	"errors"
	"fmt"

	"devroots-sacco/internal/core/domain"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// MySQL error numbers that map onto domain errors
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// gormStore implements Store on top of a *gorm.DB (plain or transactional)
type gormStore struct {
	db *gorm.DB
}

// NewStore creates a new gorm backed store
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db}
}

func (s *gormStore) RefreshTokens() RefreshTokenRepository {
	return &refreshTokenRepository{db: s.db}
}

func (s *gormStore) Roles() RoleRepository {
	return &roleRepository{db: s.db}
}

func (s *gormStore) Members() MemberRepository {
	return &memberRepository{db: s.db}
}

func (s *gormStore) Accounts() SavingAccountRepository {
	return &savingAccountRepository{db: s.db}
}

func (s *gormStore) SavingTransactions() SavingTransactionRepository {
	return &savingTransactionRepository{db: s.db}
}

func (s *gormStore) Loans() LoanRepository {
	return &loanRepository{db: s.db}
}

func (s *gormStore) Repayments() LoanRepaymentRepository {
	return &loanRepaymentRepository{db: s.db}
}

func (s *gormStore) Guarantors() LoanGuarantorRepository {
	return &loanGuarantorRepository{db: s.db}
}

func (s *gormStore) AdminNotifications() AdminNotificationRepository {
	return &adminNotificationRepository{db: s.db}
}

func (s *gormStore) Notifications() NotificationRepository {
	return &notificationRepository{db: s.db}
}

func (s *gormStore) ActivityLogs() ActivityLogRepository {
	return &activityLogRepository{db: s.db}
}

func (s *gormStore) Settings() SettingRepository {
	return &settingRepository{db: s.db}
}

// Atomic runs fn inside a database transaction
func (s *gormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
	return translateError(err)
}

// translateError maps gorm and MySQL errors onto domain errors.
// Errors already carrying a domain meaning pass through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", domain.ErrDuplicateEntry, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateEntry, myErr.Message)
		case mysqlDeadlock, mysqlLockWaitTimeout:
			return fmt.Errorf("%w: %s", domain.ErrConflict, myErr.Message)
		}
	}
	return err
}
