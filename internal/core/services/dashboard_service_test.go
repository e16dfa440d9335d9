package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_GetAdminDashboard(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a, _ := seedMember(store, "Amina", "Okello", "1001", dec("1500.50"))
	b, _ := seedMember(store, "Brian", "Mugisha", "1002", dec("499.50"))
	b.Status = string(domain.MemberSuspended)
	require.NoError(t, store.Members().Update(ctx, b))
	seedLoan(store, a.ID, domain.LoanPending, time.Now().AddDate(1, 0, 0), "1000")
	seedLoan(store, a.ID, domain.LoanApproved, time.Now().AddDate(1, 0, 0), "1000")

	cache := newMemCache()
	svc := NewDashboardService(store, cache, time.Minute)

	data, err := svc.GetAdminDashboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, data.TotalMembers)
	assert.EqualValues(t, 1, data.ActiveMembers)
	assert.EqualValues(t, 2, data.TotalLoans)
	assert.EqualValues(t, 1, data.PendingLoans)
	assert.Equal(t, "2000.00", data.TotalSavings.StringFixed(2))
	assert.Contains(t, cache.values, DashboardCacheKey)

	t.Run("ServedFromCache", func(t *testing.T) {
		seedMember(store, "Cissy", "Nakato", "1003", decimal.Zero)
		cached, err := svc.GetAdminDashboard(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, cached.TotalMembers)
	})

	t.Run("InvalidatedByMutation", func(t *testing.T) {
		ledger := NewLedgerService(store, cache)
		account, err := store.Accounts().GetByMemberID(ctx, a.ID)
		require.NoError(t, err)
		_, err = ledger.Deposit(ctx, staff, account.ID, dec("1000"), "")
		require.NoError(t, err)

		fresh, err := svc.GetAdminDashboard(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, fresh.TotalMembers)
		assert.Equal(t, "3000.00", fresh.TotalSavings.StringFixed(2))
	})

	t.Run("CacheFailureFallsThrough", func(t *testing.T) {
		broken := newMemCache()
		broken.err = errors.New("redis down")
		data, err := NewDashboardService(store, broken, time.Minute).GetAdminDashboard(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, data.TotalMembers)
	})
}

func TestDashboardService_GetMemberDashboard(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	member, account := seedMember(store, "Amina", "Okello", "1001", decimal.Zero)
	ledger := NewLedgerService(store, NewNopCache())
	for i := 0; i < 7; i++ {
		_, err := ledger.Deposit(ctx, staff, account.ID, dec("10"), "")
		require.NoError(t, err)
	}
	loans := newTestLoanService(store)
	approvedLoan(t, loans, member.ID, "1000")

	svc := NewDashboardService(store, NewNopCache(), time.Minute)
	data, err := svc.GetMemberDashboard(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.MemberNo, data.Member.MemberNo)
	assert.Equal(t, "70.00", data.Account.Balance.StringFixed(2))
	assert.Len(t, data.RecentTransactions, recentItems)
	assert.Equal(t, "70.00", data.RecentTransactions[0].BalanceAfterTransaction.StringFixed(2))
	assert.Len(t, data.RecentActivity, recentItems)
	require.NotNil(t, data.LatestLoan)
	assert.Equal(t, string(domain.LoanApproved), data.LatestLoan.Status)
	assert.EqualValues(t, 1, data.UnreadCount)

	_, err = svc.GetMemberDashboard(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestDashboardService_Reports(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a, _ := seedMember(store, "Amina", "Okello", "1001", dec("100"))
	b, _ := seedMember(store, "Brian", "Mugisha", "1002", dec("250"))
	end := time.Now().AddDate(1, 0, 0)
	seedLoan(store, a.ID, domain.LoanApproved, end, "400")
	seedLoan(store, b.ID, domain.LoanApproved, end, "1000")
	seedLoan(store, b.ID, domain.LoanPending, end, "1000")
	svc := NewDashboardService(store, NewNopCache(), time.Minute)

	t.Run("Loans", func(t *testing.T) {
		report, err := svc.GetLoanReport(ctx, repositories.LoanFilter{Status: string(domain.LoanApproved)}, Page{Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, report.Total)
		assert.Equal(t, "2000.00", report.TotalPrincipal.StringFixed(2))
		assert.Equal(t, "1400.00", report.TotalOutstanding.StringFixed(2))
		assert.Equal(t, "2480.00", report.TotalPayable.StringFixed(2))
		assert.Equal(t, "40.00", report.TotalMonthlyIncome.StringFixed(2))
	})

	t.Run("LoansPageTotals", func(t *testing.T) {
		report, err := svc.GetLoanReport(ctx, repositories.LoanFilter{}, Page{Limit: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 3, report.Total)
		assert.Len(t, report.Loans, 1)
		assert.Equal(t, "1000.00", report.TotalPrincipal.StringFixed(2))
	})

	t.Run("Savings", func(t *testing.T) {
		report, err := svc.GetSavingsReport(ctx, Page{Limit: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 2, report.Total)
		assert.Len(t, report.Accounts, 1)
		assert.Equal(t, "350.00", report.TotalSavings.StringFixed(2))
	})
}
