package services

import (
	"context"
	"errors"
	"time"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/config"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/pkg/jwt"
	"devroots-sacco/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuthService handles authentication business logic
type AuthService struct {
	store repositories.Store
	cfg   *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(store repositories.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		store: store,
		cfg:   cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// principal is a user together with what the token needs to carry about them
type principal struct {
	user   *models.User
	member *models.Member
	role   *models.Role
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, input *LoginInput, ip string) (*AuthResponse, error) {
	// 1. Find user by username
	user, err := s.store.Users().GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Check if user is active
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// 4. Load member link and role
	p, err := s.loadPrincipal(ctx, s.store, user)
	if err != nil {
		return nil, err
	}

	// 5. Record the sign-in and issue tokens in one unit
	var resp *AuthResponse
	err = runAtomic(ctx, s.store, func(tx repositories.Store) error {
		now := time.Now()
		user.LastLogin = &now
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		if p.member != nil {
			if err := logActivity(ctx, tx, p.member.ID, "Logged in", ip); err != nil {
				return err
			}
		}
		resp, err = s.issue(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"ip":       ip,
	}).Info("User logged in")

	return resp, nil
}

// RefreshToken refreshes the access token using refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	// 2. Find token in DB by hash
	storedToken, err := s.store.RefreshTokens().GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	// 3. Check if token is revoked or expired
	if storedToken.IsRevoked() {
		return nil, domain.ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	// 4. Get user
	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	p, err := s.loadPrincipal(ctx, s.store, user)
	if err != nil {
		return nil, err
	}

	// 5. Rotate: revoke the old token and issue a new pair. The revoke is
	// conditional, a token already spent by a concurrent refresh issues nothing.
	var resp *AuthResponse
	err = runAtomic(ctx, s.store, func(tx repositories.Store) error {
		revoked, err := tx.RefreshTokens().Revoke(ctx, storedToken.ID)
		if err != nil {
			return err
		}
		if !revoked {
			return domain.ErrTokenRevoked
		}
		resp, err = s.issue(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("username", user.Username).Info("Token refreshed")
	return resp, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.store.RefreshTokens().RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return err
	}

	logrus.Info("User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.store.RefreshTokens().RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	logrus.WithField("user_id", userID).Info("All sessions revoked")
	return nil
}

// ChangePassword replaces the password after checking the current one,
// clears the forced-change flag and signs every other session out.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput, ip string) (*AuthResponse, error) {
	if !password.ValidatePassword(input.NewPassword) {
		return nil, &domain.ValidationError{Reason: domain.ErrPasswordTooShort.Error()}
	}
	if input.NewPassword == input.CurrentPassword {
		return nil, domain.NewValidationError("new password must differ from the current password")
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	if !password.Verify(input.CurrentPassword, user.Password) {
		return nil, domain.NewValidationError("current password is incorrect")
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return nil, err
	}

	var resp *AuthResponse
	err = runAtomic(ctx, s.store, func(tx repositories.Store) error {
		user.Password = hashed
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		if err := tx.RefreshTokens().RevokeAllByUserID(ctx, user.ID); err != nil {
			return err
		}

		p, err := s.loadPrincipal(ctx, tx, user)
		if err != nil {
			return err
		}
		if p.member != nil {
			if p.member.MustChangePassword {
				p.member.MustChangePassword = false
				if err := tx.Members().Update(ctx, p.member); err != nil {
					return err
				}
			}
			if err := logActivity(ctx, tx, p.member.ID, "Changed password", ip); err != nil {
				return err
			}
		}
		resp, err = s.issue(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("Password changed")
	return resp, nil
}

// Me returns the signed-in user with member link and role
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	p, err := s.loadPrincipal(ctx, s.store, user)
	if err != nil {
		return nil, err
	}
	return p.response(), nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

func (s *AuthService) loadPrincipal(ctx context.Context, store repositories.Store, user *models.User) (*principal, error) {
	p := &principal{user: user}

	member, err := store.Members().GetByUserID(ctx, user.ID)
	switch {
	case err == nil:
		p.member = member
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	role, err := store.Roles().GetForUser(ctx, user.ID)
	switch {
	case err == nil:
		p.role = role
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	return p, nil
}

// issue signs a token pair for p and stores the refresh token through tx
func (s *AuthService) issue(ctx context.Context, tx repositories.Store, p *principal) (*AuthResponse, error) {
	tokens, err := s.generateTokens(p)
	if err != nil {
		return nil, err
	}

	token := &models.RefreshToken{
		UserID:    p.user.ID,
		TokenHash: password.HashToken(tokens.RefreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	if err := tx.RefreshTokens().Create(ctx, token); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         p.response(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(p *principal) (*TokenPair, error) {
	claims := jwt.Claims{
		UserID:   p.user.ID,
		Username: p.user.Username,
		IsStaff:  p.user.IsStaff,
		Groups:   p.user.GroupNames(),
	}
	if p.member != nil {
		claims.MemberID = p.member.ID
		claims.MemberNo = p.member.MemberNo
		claims.MustChangePassword = p.member.MustChangePassword
	}
	if p.role != nil {
		claims.Permissions = p.role.Permissions
	}

	accessToken, err := jwt.GenerateAccessToken(claims, s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		p.user.ID,
		uuid.New().String(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (p *principal) response() *models.UserResponse {
	resp := p.user.ToResponse()
	if p.member != nil {
		resp.MemberID = uintPtr(p.member.ID)
		resp.MemberNo = p.member.MemberNo
		resp.MustChangePassword = p.member.MustChangePassword
	}
	if p.role != nil {
		resp.Role = p.role.Name
		resp.Permissions = p.role.Permissions
	}
	return resp
}
