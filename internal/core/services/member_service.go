package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// memberNoAttempts bounds the search for an unused membership number
const memberNoAttempts = 20

// MemberService handles member registration and KYC records
type MemberService struct {
	store repositories.Store
	cache Cache
	fee   decimal.Decimal
	now   func() time.Time
}

// NewMemberService creates a new member service. fee is the membership
// fee recorded when a registration omits it and no settings row exists.
func NewMemberService(store repositories.Store, cache Cache, fee decimal.Decimal) *MemberService {
	return &MemberService{
		store: store,
		cache: cache,
		fee:   fee,
		now:   time.Now,
	}
}

// MemberProfile holds the KYC fields shared by registration and updates
type MemberProfile struct {
	FirstName        string     `json:"first_name" validate:"required,max=100"`
	LastName         string     `json:"last_name" validate:"required,max=100"`
	Gender           string     `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	DateOfBirth      *time.Time `json:"date_of_birth"`
	MaritalStatus    string     `json:"marital_status" validate:"max=20"`
	Nationality      string     `json:"nationality" validate:"max=50"`
	Phone            string     `json:"phone" validate:"required,max=20"`
	Email            string     `json:"email" validate:"omitempty,email,max=100"`
	Address          string     `json:"address"`
	PreferredContact string     `json:"preferred_contact" validate:"max=20"`
	NationalID       string     `json:"national_id" validate:"required,max=30"`
	Occupation       string     `json:"occupation" validate:"max=100"`
	EmploymentStatus string     `json:"employment_status" validate:"max=30"`
	EmployerName     string     `json:"employer_name" validate:"max=150"`
	EmployerAddress  string     `json:"employer_address"`
	IncomeRange      string     `json:"income_range" validate:"max=50"`
	SourceOfIncome   string     `json:"source_of_income" validate:"max=100"`
	TINNumber        string     `json:"tin_number" validate:"max=30"`
	NokName          string     `json:"nok_name" validate:"max=150"`
	NokRelationship  string     `json:"nok_relationship" validate:"max=50"`
	NokPhone         string     `json:"nok_phone" validate:"max=20"`
	NokAddress       string     `json:"nok_address"`
	PreferredSaving  string     `json:"preferred_saving" validate:"max=30"`
}

// CreateMemberInput represents a staff registration of a new member
type CreateMemberInput struct {
	MemberProfile
	MembershipFeePaid *decimal.Decimal `json:"membership_fee_paid"`
	InitialDeposit    decimal.Decimal  `json:"initial_deposit"`
}

// UpdateMemberInput carries the fields to change; nil pointers are left alone
type UpdateMemberInput struct {
	FirstName         *string          `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName          *string          `json:"last_name" validate:"omitempty,min=1,max=100"`
	Gender            *string          `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	DateOfBirth       *time.Time       `json:"date_of_birth"`
	MaritalStatus     *string          `json:"marital_status" validate:"omitempty,max=20"`
	Nationality       *string          `json:"nationality" validate:"omitempty,max=50"`
	Phone             *string          `json:"phone" validate:"omitempty,min=1,max=20"`
	Email             *string          `json:"email" validate:"omitempty,email,max=100"`
	Address           *string          `json:"address"`
	PreferredContact  *string          `json:"preferred_contact" validate:"omitempty,max=20"`
	Occupation        *string          `json:"occupation" validate:"omitempty,max=100"`
	EmploymentStatus  *string          `json:"employment_status" validate:"omitempty,max=30"`
	EmployerName      *string          `json:"employer_name" validate:"omitempty,max=150"`
	EmployerAddress   *string          `json:"employer_address"`
	IncomeRange       *string          `json:"income_range" validate:"omitempty,max=50"`
	SourceOfIncome    *string          `json:"source_of_income" validate:"omitempty,max=100"`
	TINNumber         *string          `json:"tin_number" validate:"omitempty,max=30"`
	NokName           *string          `json:"nok_name" validate:"omitempty,max=150"`
	NokRelationship   *string          `json:"nok_relationship" validate:"omitempty,max=50"`
	NokPhone          *string          `json:"nok_phone" validate:"omitempty,max=20"`
	NokAddress        *string          `json:"nok_address"`
	PreferredSaving   *string          `json:"preferred_saving" validate:"omitempty,max=30"`
	MembershipFeePaid *decimal.Decimal `json:"membership_fee_paid"`
}

// CreateMember registers a member together with an empty savings account.
// A positive initial deposit is posted through the ledger in the same unit.
func (s *MemberService) CreateMember(ctx context.Context, actor Actor, in CreateMemberInput) (*models.Member, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if in.InitialDeposit.IsNegative() {
		return nil, domain.NewValidationError("initial deposit cannot be negative")
	}
	fee := s.fee
	if in.MembershipFeePaid != nil {
		if in.MembershipFeePaid.IsNegative() {
			return nil, domain.NewValidationError("membership fee cannot be negative")
		}
		fee = in.MembershipFeePaid.Round(2)
	}

	var member *models.Member
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		memberNo, err := s.nextMemberNo(ctx, tx)
		if err != nil {
			return err
		}

		fee := fee
		if in.MembershipFeePaid == nil {
			setting, err := loadSetting(ctx, tx)
			if err != nil {
				return err
			}
			if setting != nil {
				fee = setting.MembershipFee
			}
		}

		member = &models.Member{MemberNo: memberNo}
		applyProfile(member, in.MemberProfile)
		member.MembershipFeePaid = fee
		member.Status = string(domain.MemberActive)
		if err := tx.Members().Create(ctx, member); err != nil {
			if errors.Is(err, domain.ErrDuplicateEntry) {
				return fmt.Errorf("member with national ID %s: %w", in.NationalID, domain.ErrDuplicateEntry)
			}
			return err
		}

		account := &models.SavingAccount{MemberID: member.ID, Balance: decimal.Zero}
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		member.SavingAccount = account

		message := fmt.Sprintf("%s registered member %s (%s)", actor.Label(), member.FullName(), member.MemberNo)
		if err := notifyAdmin(ctx, tx, domain.NotifyMember, message, notificationRefs{MemberID: uintPtr(member.ID)}); err != nil {
			return err
		}

		if in.InitialDeposit.Round(2).IsPositive() {
			txn, err := applySavingTransaction(ctx, tx, actor, SavingTransactionInput{
				AccountID:   account.ID,
				Type:        domain.TransactionDeposit,
				Amount:      in.InitialDeposit,
				Description: "Initial deposit",
			})
			if err != nil {
				return err
			}
			account.Balance = txn.BalanceAfterTransaction
		}
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"national_id": in.NationalID,
			"actor":       actor.Label(),
			"error":       err.Error(),
		}).Error("Member registration failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"member_id": member.ID,
		"member_no": member.MemberNo,
		"actor":     actor.Label(),
	}).Info("Member registered")

	invalidateDashboard(ctx, s.cache)
	return member, nil
}

// GetMember returns a member with their savings account
func (s *MemberService) GetMember(ctx context.Context, id uint) (*models.Member, error) {
	member, err := s.store.Members().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrMemberNotFound)
	}
	return member, nil
}

// GetMemberByUser returns the member linked to a login
func (s *MemberService) GetMemberByUser(ctx context.Context, userID uint) (*models.Member, error) {
	member, err := s.store.Members().GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFound(err, domain.ErrMemberNotFound)
	}
	return member, nil
}

// ListMembers lists members matching filter
func (s *MemberService) ListMembers(ctx context.Context, filter repositories.MemberFilter, page Page) ([]*models.Member, int64, error) {
	if filter.Status != "" && !domain.MemberStatus(filter.Status).Valid() {
		return nil, 0, domain.NewValidationError("unknown member status %q", filter.Status)
	}
	return s.store.Members().List(ctx, filter, page.Offset, page.Limit)
}

// UpdateMember changes a member's KYC fields
func (s *MemberService) UpdateMember(ctx context.Context, actor Actor, id uint, in UpdateMemberInput) (*models.Member, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if in.MembershipFeePaid != nil && in.MembershipFeePaid.IsNegative() {
		return nil, domain.NewValidationError("membership fee cannot be negative")
	}

	var member *models.Member
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		var err error
		member, err = tx.Members().GetByID(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrMemberNotFound)
		}
		applyUpdate(member, in)
		if err := tx.Members().Update(ctx, member); err != nil {
			return err
		}
		message := fmt.Sprintf("%s updated member %s (%s)", actor.Label(), member.FullName(), member.MemberNo)
		return notifyAdmin(ctx, tx, domain.NotifyMember, message, notificationRefs{MemberID: uintPtr(member.ID)})
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ChangeStatus moves a member between PENDING, ACTIVE, SUSPENDED and EXITED.
// Suspended and exited members lose the ability to sign in.
func (s *MemberService) ChangeStatus(ctx context.Context, actor Actor, id uint, status domain.MemberStatus) (*models.Member, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("unknown member status %q", status)
	}

	var member *models.Member
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		var err error
		member, err = tx.Members().GetByID(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrMemberNotFound)
		}
		if member.Status == string(status) {
			return nil
		}
		previous := member.Status
		member.Status = string(status)
		if err := tx.Members().Update(ctx, member); err != nil {
			return err
		}

		if member.UserID != nil {
			user, err := tx.Users().GetByID(ctx, *member.UserID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if user != nil {
				active := status == domain.MemberActive || status == domain.MemberPending
				if user.IsActive != active {
					user.IsActive = active
					if err := tx.Users().Update(ctx, user); err != nil {
						return err
					}
					if !active {
						if err := tx.RefreshTokens().RevokeAllByUserID(ctx, user.ID); err != nil {
							return err
						}
					}
				}
			}
		}

		message := fmt.Sprintf("%s changed member %s from %s to %s", actor.Label(), member.MemberNo, previous, status)
		if err := notifyAdmin(ctx, tx, domain.NotifyMember, message, notificationRefs{MemberID: uintPtr(member.ID)}); err != nil {
			return err
		}
		return notifyMember(ctx, tx, member.ID, "Membership status changed",
			fmt.Sprintf("Your membership status is now %s.", status))
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"member_id": member.ID,
		"status":    member.Status,
		"actor":     actor.Label(),
	}).Info("Member status changed")

	invalidateDashboard(ctx, s.cache)
	return member, nil
}

// DeleteMember removes a member, their ledger records and their login
func (s *MemberService) DeleteMember(ctx context.Context, actor Actor, id uint) error {
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		member, err := tx.Members().GetByID(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrMemberNotFound)
		}
		open, err := tx.Guarantors().CountOpenByMember(ctx, member.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.NewValidationError("member %s guarantees %d open loan(s) and cannot be deleted", member.MemberNo, open)
		}
		// guarantees on rejected or paid loans go with the member
		if _, err := tx.Guarantors().DeleteByMember(ctx, member.ID); err != nil {
			return err
		}
		if err := tx.Members().Delete(ctx, member.ID); err != nil {
			return notFound(err, domain.ErrMemberNotFound)
		}
		if member.UserID != nil {
			if err := tx.Users().Delete(ctx, *member.UserID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		message := fmt.Sprintf("%s deleted member %s (%s)", actor.Label(), member.FullName(), member.MemberNo)
		return notifyAdmin(ctx, tx, domain.NotifyMember, message, notificationRefs{})
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"member_id": id,
		"actor":     actor.Label(),
	}).Info("Member deleted")

	invalidateDashboard(ctx, s.cache)
	return nil
}

// nextMemberNo returns an unused number of the form DEV-2025-0042
func (s *MemberService) nextMemberNo(ctx context.Context, tx repositories.Store) (string, error) {
	year := s.now().Year()
	for i := 0; i < memberNoAttempts; i++ {
		candidate := formatMemberNo(year, uuid.New())
		exists, err := tx.Members().ExistsByMemberNo(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free member number for %d after %d attempts: %w", year, memberNoAttempts, domain.ErrConflict)
}

func formatMemberNo(year int, id uuid.UUID) string {
	return fmt.Sprintf("DEV-%d-%04d", year, binary.BigEndian.Uint32(id[:4])%10000)
}

func applyProfile(m *models.Member, p MemberProfile) {
	m.FirstName = p.FirstName
	m.LastName = p.LastName
	m.Gender = p.Gender
	m.DateOfBirth = p.DateOfBirth
	m.MaritalStatus = p.MaritalStatus
	m.Nationality = p.Nationality
	m.Phone = p.Phone
	m.Email = p.Email
	m.Address = p.Address
	m.PreferredContact = p.PreferredContact
	m.NationalID = p.NationalID
	m.Occupation = p.Occupation
	m.EmploymentStatus = p.EmploymentStatus
	m.EmployerName = p.EmployerName
	m.EmployerAddress = p.EmployerAddress
	m.IncomeRange = p.IncomeRange
	m.SourceOfIncome = p.SourceOfIncome
	m.TINNumber = p.TINNumber
	m.NokName = p.NokName
	m.NokRelationship = p.NokRelationship
	m.NokPhone = p.NokPhone
	m.NokAddress = p.NokAddress
	m.PreferredSaving = p.PreferredSaving
}

func applyUpdate(m *models.Member, in UpdateMemberInput) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&m.FirstName, in.FirstName)
	set(&m.LastName, in.LastName)
	set(&m.Gender, in.Gender)
	set(&m.MaritalStatus, in.MaritalStatus)
	set(&m.Nationality, in.Nationality)
	set(&m.Phone, in.Phone)
	set(&m.Email, in.Email)
	set(&m.Address, in.Address)
	set(&m.PreferredContact, in.PreferredContact)
	set(&m.Occupation, in.Occupation)
	set(&m.EmploymentStatus, in.EmploymentStatus)
	set(&m.EmployerName, in.EmployerName)
	set(&m.EmployerAddress, in.EmployerAddress)
	set(&m.IncomeRange, in.IncomeRange)
	set(&m.SourceOfIncome, in.SourceOfIncome)
	set(&m.TINNumber, in.TINNumber)
	set(&m.NokName, in.NokName)
	set(&m.NokRelationship, in.NokRelationship)
	set(&m.NokPhone, in.NokPhone)
	set(&m.NokAddress, in.NokAddress)
	set(&m.PreferredSaving, in.PreferredSaving)
	if in.DateOfBirth != nil {
		m.DateOfBirth = in.DateOfBirth
	}
	if in.MembershipFeePaid != nil {
		m.MembershipFeePaid = in.MembershipFeePaid.Round(2)
	}
}
