package services

import (
	"context"
	"testing"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/core/policy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = models.SystemSetting{
	DefaultInterestRate: decimal.RequireFromString("0.02"),
	MembershipFee:       decimal.RequireFromString("20000"),
}

func TestSettingsService(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewSettingsService(store, testDefaults)

	t.Run("DefaultsUntilSaved", func(t *testing.T) {
		got, err := svc.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0.02", got.DefaultInterestRate.String())
		assert.Nil(t, store.d.setting)
	})

	t.Run("Update", func(t *testing.T) {
		rate := dec("0.035")
		maxAmount := dec("5000000")
		term := 48
		got, err := svc.Update(ctx, staff, UpdateSettingsInput{DefaultInterestRate: &rate, MaxLoanAmount: &maxAmount, MaxTermMonths: &term})
		require.NoError(t, err)
		assert.Equal(t, "0.035", got.DefaultInterestRate.String())
		assert.Equal(t, "20000.00", got.MembershipFee.StringFixed(2))
		require.NotNil(t, store.d.setting)
		assert.Equal(t, 48, store.d.setting.MaxTermMonths)
		assert.Len(t, store.ofType(domain.NotifySystem), 1)

		// loans now pick up the saved rate
		member, _ := seedMember(store, "Amina", "Okello", "1001", decimal.Zero)
		loan, err := newTestLoanService(store).OriginateLoan(ctx, staff, OriginateLoanInput{MemberID: member.ID, PrincipalAmount: dec("100"), TermMonths: 2})
		require.NoError(t, err)
		assert.Equal(t, "0.035", loan.InterestRate.String())
	})

	t.Run("Rejections", func(t *testing.T) {
		rate := dec("1")
		precise := dec("0.12345")
		negative := dec("-1")
		minAmount := dec("6000000")
		term := 601
		tests := []struct {
			name string
			in   UpdateSettingsInput
		}{
			{"RateNotFraction", UpdateSettingsInput{DefaultInterestRate: &rate}},
			{"RateTooPrecise", UpdateSettingsInput{DefaultInterestRate: &precise}},
			{"NegativeFee", UpdateSettingsInput{MembershipFee: &negative}},
			{"MinAboveMax", UpdateSettingsInput{MinLoanAmount: &minAmount}},
			{"TermTooLong", UpdateSettingsInput{MaxTermMonths: &term}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Update(ctx, staff, tt.in)
				assert.True(t, domain.IsValidation(err), "got %v", err)
			})
		}
		assert.Equal(t, "0.035", store.d.setting.DefaultInterestRate.String())
	})
}

func TestRoleService(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoleService(store)
	user := &models.User{Username: "cashier", Password: "x", IsActive: true}
	require.NoError(t, store.Users().Create(ctx, user))

	role, err := svc.Create(ctx, RoleInput{Name: "Teller", Permissions: []string{policy.SavingsView, policy.SavingsTransact}})
	require.NoError(t, err)

	t.Run("DuplicateName", func(t *testing.T) {
		_, err := svc.Create(ctx, RoleInput{Name: "Teller"})
		assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
	})

	t.Run("UnknownPermission", func(t *testing.T) {
		_, err := svc.Create(ctx, RoleInput{Name: "Auditor", Permissions: []string{"everything"}})
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("RepeatedPermission", func(t *testing.T) {
		_, err := svc.Create(ctx, RoleInput{Name: "Auditor", Permissions: []string{policy.LogsView, policy.LogsView}})
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Update", func(t *testing.T) {
		updated, err := svc.Update(ctx, role.ID, RoleInput{Name: "Senior Teller", Permissions: []string{policy.SavingsView}})
		require.NoError(t, err)
		assert.Equal(t, "Senior Teller", updated.Name)

		_, err = svc.Update(ctx, 999, RoleInput{Name: "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Assign", func(t *testing.T) {
		require.NoError(t, svc.Assign(ctx, staff, AssignRoleInput{UserID: user.ID, RoleID: &role.ID}))
		got, err := store.Roles().GetForUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, role.ID, got.ID)

		missing := uint(999)
		assert.ErrorIs(t, svc.Assign(ctx, staff, AssignRoleInput{UserID: user.ID, RoleID: &missing}), domain.ErrNotFound)
		assert.ErrorIs(t, svc.Assign(ctx, staff, AssignRoleInput{UserID: 999, RoleID: &role.ID}), domain.ErrUserNotFound)

		require.NoError(t, svc.Assign(ctx, staff, AssignRoleInput{UserID: user.ID}))
		_, err = store.Roles().GetForUser(ctx, user.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, role.ID))
		assert.ErrorIs(t, svc.Delete(ctx, role.ID), domain.ErrNotFound)
		roles, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, roles)
	})
}

func TestActivityService_List(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a, _ := seedMember(store, "Amina", "Okello", "1001", decimal.Zero)
	b, _ := seedMember(store, "Brian", "Mugisha", "1002", decimal.Zero)
	require.NoError(t, logActivity(ctx, store, a.ID, "Logged in", "10.0.0.1"))
	require.NoError(t, logActivity(ctx, store, b.ID, "Logged in", "10.0.0.2"))
	require.NoError(t, logActivity(ctx, store, a.ID, "Changed password", "10.0.0.1"))
	svc := NewActivityService(store)

	all, total, err := svc.List(ctx, 0, Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, "Changed password", all[0].Action)

	_, total, err = svc.List(ctx, b.ID, Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	member, _ := seedMember(store, "Amina", "Okello", "1001", decimal.Zero)
	cred, err := NewCredentialService(store).ProvisionCredential(ctx, staff, member.ID)
	require.NoError(t, err)
	require.NoError(t, store.RefreshTokens().Create(ctx, &models.RefreshToken{UserID: cred.UserID, TokenHash: "h"}))
	svc := NewUserService(store)

	t.Run("Get", func(t *testing.T) {
		got, err := svc.GetUser(ctx, cred.UserID)
		require.NoError(t, err)
		require.NotNil(t, got.MemberID)
		assert.Equal(t, member.ID, *got.MemberID)
		assert.True(t, got.MustChangePassword)
		assert.Equal(t, []string{domain.GroupMember}, got.Groups)

		_, err = svc.GetUser(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("List", func(t *testing.T) {
		out, err := svc.ListUsers(ctx, Page{Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, out.Total)
	})

	t.Run("Deactivate", func(t *testing.T) {
		inactive := false
		got, err := svc.UpdateUser(ctx, staff, cred.UserID, &UpdateUserInput{IsActive: &inactive})
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		token, err := store.RefreshTokens().GetByTokenHash(ctx, "h")
		require.NoError(t, err)
		assert.True(t, token.IsRevoked())
	})

	t.Run("CannotChangeSelf", func(t *testing.T) {
		self := Actor{UserID: cred.UserID, Username: cred.Username}
		staffFlag := true
		_, err := svc.UpdateUser(ctx, self, cred.UserID, &UpdateUserInput{IsStaff: &staffFlag})
		assert.ErrorIs(t, err, ErrCannotChangeSelf)
	})

	t.Run("BadEmail", func(t *testing.T) {
		email := "not-an-email"
		_, err := svc.UpdateUser(ctx, staff, cred.UserID, &UpdateUserInput{Email: &email})
		assert.True(t, domain.IsValidation(err))
	})
}
