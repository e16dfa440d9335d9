package services

import (
	"context"
	"errors"
	"fmt"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/core/policy"
	"devroots-sacco/internal/pkg/validator"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ============================================================
// Activity logs
// ============================================================

// ActivityService reads the member activity trail
type ActivityService struct {
	store repositories.Store
}

// NewActivityService creates a new activity service
func NewActivityService(store repositories.Store) *ActivityService {
	return &ActivityService{store: store}
}

// List lists activity entries, newest first; memberID 0 lists everyone
func (s *ActivityService) List(ctx context.Context, memberID uint, page Page) ([]*models.UserActivityLog, int64, error) {
	return s.store.ActivityLogs().List(ctx, memberID, page.Offset, page.Limit)
}

// ============================================================
// System settings
// ============================================================

// SettingsService reads and updates the singleton settings row
type SettingsService struct {
	store    repositories.Store
	defaults models.SystemSetting
}

// NewSettingsService creates a new settings service. defaults are returned
// until the row is first saved.
func NewSettingsService(store repositories.Store, defaults models.SystemSetting) *SettingsService {
	return &SettingsService{store: store, defaults: defaults}
}

// UpdateSettingsInput carries the settings to change
type UpdateSettingsInput struct {
	DefaultInterestRate *decimal.Decimal `json:"default_interest_rate"`
	MembershipFee       *decimal.Decimal `json:"membership_fee"`
	MinLoanAmount       *decimal.Decimal `json:"min_loan_amount"`
	MaxLoanAmount       *decimal.Decimal `json:"max_loan_amount"`
	MaxTermMonths       *int             `json:"max_term_months" validate:"omitempty,gte=0,lte=600"`
}

// Get returns the current settings
func (s *SettingsService) Get(ctx context.Context) (*models.SystemSetting, error) {
	setting, err := s.store.Settings().Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		defaults := s.defaults
		return &defaults, nil
	}
	return setting, err
}

// Update applies in to the settings row, creating it when missing
func (s *SettingsService) Update(ctx context.Context, actor Actor, in UpdateSettingsInput) (*models.SystemSetting, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	setting, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if in.DefaultInterestRate != nil {
		setting.DefaultInterestRate = *in.DefaultInterestRate
	}
	if in.MembershipFee != nil {
		setting.MembershipFee = in.MembershipFee.Round(2)
	}
	if in.MinLoanAmount != nil {
		setting.MinLoanAmount = in.MinLoanAmount.Round(2)
	}
	if in.MaxLoanAmount != nil {
		setting.MaxLoanAmount = in.MaxLoanAmount.Round(2)
	}
	if in.MaxTermMonths != nil {
		setting.MaxTermMonths = *in.MaxTermMonths
	}
	if err := checkSetting(setting); err != nil {
		return nil, err
	}

	err = runAtomic(ctx, s.store, func(tx repositories.Store) error {
		if err := tx.Settings().Save(ctx, setting); err != nil {
			return err
		}
		return notifyAdmin(ctx, tx, domain.NotifySystem, fmt.Sprintf("%s updated the system settings", actor.Label()), notificationRefs{})
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"rate":  setting.DefaultInterestRate.String(),
		"actor": actor.Label(),
	}).Info("Settings updated")
	return setting, nil
}

func checkSetting(s *models.SystemSetting) error {
	if err := checkRate(s.DefaultInterestRate, "default interest rate"); err != nil {
		return err
	}
	if s.MembershipFee.IsNegative() || s.MinLoanAmount.IsNegative() || s.MaxLoanAmount.IsNegative() {
		return domain.NewValidationError("amounts cannot be negative")
	}
	if s.MaxLoanAmount.IsPositive() && s.MinLoanAmount.GreaterThan(s.MaxLoanAmount) {
		return domain.NewValidationError("minimum loan amount exceeds the maximum")
	}
	return nil
}

// ============================================================
// Roles
// ============================================================

// RoleService manages roles and their assignment to users
type RoleService struct {
	store repositories.Store
}

// NewRoleService creates a new role service
func NewRoleService(store repositories.Store) *RoleService {
	return &RoleService{store: store}
}

// RoleInput represents a role definition
type RoleInput struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=255"`
	Permissions []string `json:"permissions" validate:"unique"`
}

// AssignRoleInput assigns a role to a user; a nil role clears it
type AssignRoleInput struct {
	UserID uint  `json:"user_id" validate:"required"`
	RoleID *uint `json:"role_id"`
}

// List lists all roles
func (s *RoleService) List(ctx context.Context) ([]*models.Role, error) {
	return s.store.Roles().List(ctx)
}

// Create creates a role
func (s *RoleService) Create(ctx context.Context, in RoleInput) (*models.Role, error) {
	if err := checkRoleInput(in); err != nil {
		return nil, err
	}
	role := &models.Role{Name: in.Name, Description: in.Description, Permissions: in.Permissions}
	if err := s.store.Roles().Create(ctx, role); err != nil {
		return nil, err
	}
	logrus.WithField("role", role.Name).Info("Role created")
	return role, nil
}

// Update replaces a role's definition
func (s *RoleService) Update(ctx context.Context, id uint, in RoleInput) (*models.Role, error) {
	if err := checkRoleInput(in); err != nil {
		return nil, err
	}
	role, err := s.store.Roles().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Errorf("role: %w", domain.ErrNotFound))
	}
	role.Name = in.Name
	role.Description = in.Description
	role.Permissions = in.Permissions
	if err := s.store.Roles().Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Delete deletes a role
func (s *RoleService) Delete(ctx context.Context, id uint) error {
	if err := s.store.Roles().Delete(ctx, id); err != nil {
		return notFound(err, fmt.Errorf("role: %w", domain.ErrNotFound))
	}
	return nil
}

// Assign sets or clears a user's role. The change takes effect when the
// user's token is next issued.
func (s *RoleService) Assign(ctx context.Context, actor Actor, in AssignRoleInput) error {
	if err := validator.Struct(in); err != nil {
		return err
	}
	if _, err := s.store.Users().GetByID(ctx, in.UserID); err != nil {
		return notFound(err, domain.ErrUserNotFound)
	}
	if in.RoleID != nil {
		if _, err := s.store.Roles().GetByID(ctx, *in.RoleID); err != nil {
			return notFound(err, fmt.Errorf("role: %w", domain.ErrNotFound))
		}
	}
	if err := s.store.Roles().AssignToUser(ctx, in.UserID, in.RoleID); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": in.UserID,
		"role_id": in.RoleID,
		"actor":   actor.Label(),
	}).Info("Role assigned")
	return nil
}

func checkRoleInput(in RoleInput) error {
	if err := validator.Struct(in); err != nil {
		return err
	}
	for _, p := range in.Permissions {
		if !policy.Known(p) {
			return domain.NewValidationError("unknown permission %q", p)
		}
	}
	return nil
}
