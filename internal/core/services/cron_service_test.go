package services

import (
	"context"
	"testing"
	"time"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/config"
	"devroots-sacco/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCronConfig = config.CronConfig{
	Enabled:              true,
	OverdueLoanReminders: "0 0 7 * * *",
	TokenCleanup:         "0 30 2 * * *",
}

func seedLoan(store *memStore, memberID uint, status domain.LoanStatus, end time.Time, balance string) *models.Loan {
	loan := &models.Loan{
		MemberID:        memberID,
		PrincipalAmount: dec("1000"),
		InterestRate:    dec("0.02"),
		TermMonths:      12,
		StartDate:       end.AddDate(0, 0, -360),
		EndDate:         end,
		CurrentBalance:  dec(balance),
		Status:          string(status),
	}
	_ = store.Loans().Create(context.Background(), loan)
	return loan
}

func TestCronService_RegistersJobs(t *testing.T) {
	svc := NewCronService(newMemStore(), testCronConfig)
	assert.Len(t, svc.cron.Entries(), 2)

	bad := NewCronService(newMemStore(), config.CronConfig{OverdueLoanReminders: "not a schedule", TokenCleanup: "0 30 2 * * *"})
	assert.Len(t, bad.cron.Entries(), 1)
}

func TestCronService_SendOverdueLoanReminders(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	store.d.clock = func() time.Time { return clock }

	member, _ := seedMember(store, "Amina", "Okello", "1001", decimal.Zero)
	overdue := seedLoan(store, member.ID, domain.LoanApproved, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "400")
	seedLoan(store, member.ID, domain.LoanApproved, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), "400") // not due yet
	seedLoan(store, member.ID, domain.LoanApproved, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "400") // due today
	seedLoan(store, member.ID, domain.LoanApproved, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), "0")
	seedLoan(store, member.ID, domain.LoanPending, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), "1000")
	seedLoan(store, member.ID, domain.LoanRejected, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), "1000")

	svc := NewCronService(store, testCronConfig)
	svc.now = func() time.Time { return clock }

	sent, err := svc.SendOverdueLoanReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	reminders := store.ofType(domain.NotifySystem)
	require.Len(t, reminders, 1)
	require.NotNil(t, reminders[0].LoanID)
	assert.Equal(t, overdue.ID, *reminders[0].LoanID)
	assert.Contains(t, reminders[0].Message, "9 days overdue")
	assert.Contains(t, reminders[0].Message, "400.00 outstanding")

	t.Run("OncePerDay", func(t *testing.T) {
		clock = clock.Add(6 * time.Hour)
		sent, err := svc.SendOverdueLoanReminders(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Len(t, store.ofType(domain.NotifySystem), 1)
	})

	t.Run("NextDay", func(t *testing.T) {
		clock = clock.Add(24 * time.Hour)
		sent, err := svc.SendOverdueLoanReminders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, sent, "yesterday's due loan is now overdue too")
	})
}

func TestCronService_CleanupExpiredTokens(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := time.Now()
	revokedAt := now.Add(-time.Minute)
	require.NoError(t, store.RefreshTokens().Create(ctx, &models.RefreshToken{UserID: 1, TokenHash: "live", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, store.RefreshTokens().Create(ctx, &models.RefreshToken{UserID: 1, TokenHash: "expired", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, store.RefreshTokens().Create(ctx, &models.RefreshToken{UserID: 1, TokenHash: "revoked", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}))

	svc := NewCronService(store, testCronConfig)
	n, err := svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = store.RefreshTokens().GetByTokenHash(ctx, "live")
	assert.NoError(t, err)
}
