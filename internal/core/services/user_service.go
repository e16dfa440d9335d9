package services

import (
	"context"
	"errors"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/pkg/validator"

	"github.com/sirupsen/logrus"
)

// ErrCannotChangeSelf rejects an administrator demoting or disabling themselves
var ErrCannotChangeSelf = domain.NewValidationError("you cannot change your own staff or active flag")

// UserService handles login account management
type UserService struct {
	store repositories.Store
}

// NewUserService creates a new user service
func NewUserService(store repositories.Store) *UserService {
	return &UserService{store: store}
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users []*models.UserResponse `json:"users"`
	Total int64                  `json:"total"`
}

// UpdateUserInput represents update user input (for admin)
type UpdateUserInput struct {
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
	IsStaff  *bool   `json:"is_staff"`
	IsActive *bool   `json:"is_active"`
}

// ListUsers lists login accounts
func (s *UserService) ListUsers(ctx context.Context, page Page) (*ListUsersOutput, error) {
	users, total, err := s.store.Users().List(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		responses[i], err = s.describe(ctx, user)
		if err != nil {
			return nil, err
		}
	}
	return &ListUsersOutput{Users: responses, Total: total}, nil
}

// GetUser gets a user by ID
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return s.describe(ctx, user)
}

// UpdateUser updates a user's email and flags
func (s *UserService) UpdateUser(ctx context.Context, actor Actor, id uint, input *UpdateUserInput) (*models.UserResponse, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if id == actor.UserID && (input.IsStaff != nil || input.IsActive != nil) {
		return nil, ErrCannotChangeSelf
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	err = runAtomic(ctx, s.store, func(tx repositories.Store) error {
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		if !user.IsActive {
			return tx.RefreshTokens().RevokeAllByUserID(ctx, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"is_staff":  user.IsStaff,
		"is_active": user.IsActive,
		"actor":     actor.Label(),
	}).Info("User updated")

	return s.describe(ctx, user)
}

// describe adds member link and role to a user response
func (s *UserService) describe(ctx context.Context, user *models.User) (*models.UserResponse, error) {
	resp := user.ToResponse()

	member, err := s.store.Members().GetByUserID(ctx, user.ID)
	switch {
	case err == nil:
		resp.MemberID = uintPtr(member.ID)
		resp.MemberNo = member.MemberNo
		resp.MustChangePassword = member.MustChangePassword
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	role, err := s.store.Roles().GetForUser(ctx, user.ID)
	switch {
	case err == nil:
		resp.Role = role.Name
		resp.Permissions = role.Permissions
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	return resp, nil
}
