package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/pkg/password"

	"github.com/sirupsen/logrus"
)

// usernameAttempts bounds the numeric suffixes tried on a username collision
const usernameAttempts = 1000

// CredentialService provisions member logins
type CredentialService struct {
	store repositories.Store
}

// NewCredentialService creates a new credential service
func NewCredentialService(store repositories.Store) *CredentialService {
	return &CredentialService{store: store}
}

// ProvisionedCredential is returned once to the staff member who created it
type ProvisionedCredential struct {
	UserID            uint   `json:"user_id"`
	MemberID          uint   `json:"member_id"`
	Username          string `json:"username"`
	TemporaryPassword string `json:"temporary_password"`
}

// ProvisionCredential creates a login for a member who has none. The
// username is first.last.NNNN from the member's name and number; the
// password is random and must be changed at first sign-in.
func (s *CredentialService) ProvisionCredential(ctx context.Context, actor Actor, memberID uint) (*ProvisionedCredential, error) {
	temporary, err := password.GenerateTemporary(password.TemporaryLength)
	if err != nil {
		return nil, err
	}
	hashed, err := password.Hash(temporary)
	if err != nil {
		return nil, err
	}

	var cred *ProvisionedCredential
	err = runAtomic(ctx, s.store, func(tx repositories.Store) error {
		member, err := tx.Members().GetByID(ctx, memberID)
		if err != nil {
			return notFound(err, domain.ErrMemberNotFound)
		}
		if member.UserID != nil {
			return domain.NewValidationError("member %s already has login credentials", member.MemberNo)
		}

		username, err := availableUsername(ctx, tx, BaseUsername(member.FirstName, member.LastName, member.MemberNo))
		if err != nil {
			return err
		}

		user := &models.User{
			Username:  username,
			Email:     member.Email,
			Password:  hashed,
			FirstName: member.FirstName,
			LastName:  member.LastName,
			IsActive:  member.Status == string(domain.MemberActive) || member.Status == string(domain.MemberPending),
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		if err := tx.Users().AddToGroup(ctx, user.ID, domain.GroupMember); err != nil {
			return err
		}

		member.UserID = &user.ID
		member.MustChangePassword = true
		if err := tx.Members().Update(ctx, member); err != nil {
			return err
		}

		if err := notifyMember(ctx, tx, member.ID, "Welcome to DevRoots SACCO",
			fmt.Sprintf("Your login %s has been created. Change your temporary password when you first sign in.", username)); err != nil {
			return err
		}
		message := fmt.Sprintf("%s created login %s for member %s", actor.Label(), username, member.MemberNo)
		if err := notifyAdmin(ctx, tx, domain.NotifyMember, message, notificationRefs{MemberID: uintPtr(member.ID)}); err != nil {
			return err
		}

		cred = &ProvisionedCredential{
			UserID:            user.ID,
			MemberID:          member.ID,
			Username:          username,
			TemporaryPassword: temporary,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"member_id": cred.MemberID,
		"user_id":   cred.UserID,
		"username":  cred.Username,
		"actor":     actor.Label(),
	}).Info("Member credentials provisioned")

	return cred, nil
}

// BaseUsername builds first.last.NNNN from lowercased alphanumeric name
// parts and the last four characters of the membership number.
func BaseUsername(firstName, lastName, memberNo string) string {
	suffix := memberNo
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{alnumLower(firstName), alnumLower(lastName), strings.ToLower(suffix)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

func alnumLower(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// availableUsername returns base, or base with the smallest numeric suffix
// that is not taken
func availableUsername(ctx context.Context, tx repositories.Store, base string) (string, error) {
	candidate := base
	for i := 1; i <= usernameAttempts; i++ {
		exists, err := tx.Users().ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", fmt.Errorf("username %s: %w", base, domain.ErrDuplicateEntry)
}
