package services

import (
	"context"
	"errors"
	"time"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// recentItems is how many transactions and log entries the member dashboard shows
const recentItems = 5

// DashboardService handles dashboard and report queries
type DashboardService struct {
	store repositories.Store
	cache Cache
	ttl   time.Duration
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store repositories.Store, cache Cache, ttl time.Duration) *DashboardService {
	return &DashboardService{store: store, cache: cache, ttl: ttl}
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	TotalMembers  int64           `json:"total_members"`
	ActiveMembers int64           `json:"active_members"`
	TotalLoans    int64           `json:"total_loans"`
	PendingLoans  int64           `json:"pending_loans"`
	TotalSavings  decimal.Decimal `json:"total_savings"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// GetAdminDashboard returns the headline figures, served from cache when fresh
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	var cached AdminDashboardData
	hit, err := s.cache.Get(ctx, DashboardCacheKey, &cached)
	if err != nil {
		logrus.WithField("error", err.Error()).Warn("Dashboard cache read failed")
	}
	if hit {
		return &cached, nil
	}

	data := &AdminDashboardData{GeneratedAt: time.Now().UTC()}
	if data.TotalMembers, err = s.store.Members().Count(ctx, ""); err != nil {
		return nil, err
	}
	if data.ActiveMembers, err = s.store.Members().Count(ctx, string(domain.MemberActive)); err != nil {
		return nil, err
	}
	if data.TotalLoans, err = s.store.Loans().Count(ctx, ""); err != nil {
		return nil, err
	}
	if data.PendingLoans, err = s.store.Loans().Count(ctx, string(domain.LoanPending)); err != nil {
		return nil, err
	}
	if data.TotalSavings, err = s.store.Accounts().TotalBalance(ctx); err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, DashboardCacheKey, data, s.ttl); err != nil {
		logrus.WithField("error", err.Error()).Warn("Dashboard cache write failed")
	}
	return data, nil
}

// ============================================================
// Member Dashboard
// ============================================================

// MemberDashboardData represents a member's own dashboard
type MemberDashboardData struct {
	Member             *models.MemberResponse      `json:"member"`
	Account            *models.SavingAccount       `json:"account"`
	RecentTransactions []*models.SavingTransaction `json:"recent_transactions"`
	RecentActivity     []*models.UserActivityLog   `json:"recent_activity"`
	LatestLoan         *LoanView                   `json:"latest_loan"`
	UnreadCount        int64                       `json:"unread_notifications"`
}

// GetMemberDashboard returns the member's account, recent activity and latest loan
func (s *DashboardService) GetMemberDashboard(ctx context.Context, memberID uint) (*MemberDashboardData, error) {
	member, err := s.store.Members().GetByID(ctx, memberID)
	if err != nil {
		return nil, notFound(err, domain.ErrMemberNotFound)
	}
	data := &MemberDashboardData{
		Member:             member.ToResponse(),
		RecentTransactions: []*models.SavingTransaction{},
	}

	account, err := s.store.Accounts().GetByMemberID(ctx, memberID)
	switch {
	case err == nil:
		data.Account = account
		txns, _, err := s.store.SavingTransactions().ListByAccount(ctx, account.ID, 0, recentItems)
		if err != nil {
			return nil, err
		}
		data.RecentTransactions = txns
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if data.RecentActivity, err = s.store.ActivityLogs().Recent(ctx, memberID, recentItems); err != nil {
		return nil, err
	}

	loans, _, err := s.store.Loans().List(ctx, repositories.LoanFilter{MemberID: memberID}, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(loans) > 0 {
		// List does not preload guarantors and repayments
		latest, err := s.store.Loans().GetByID(ctx, loans[0].ID)
		if err != nil {
			return nil, err
		}
		data.LatestLoan = newLoanView(latest)
	}

	if data.UnreadCount, err = s.store.Notifications().CountUnreadByMember(ctx, memberID); err != nil {
		return nil, err
	}
	return data, nil
}

// ============================================================
// Reports
// ============================================================

// LoanReport lists loans with derived figures and portfolio totals
type LoanReport struct {
	Loans              []*LoanView     `json:"loans"`
	Total              int64           `json:"total"`
	TotalPrincipal     decimal.Decimal `json:"total_principal"`
	TotalOutstanding   decimal.Decimal `json:"total_outstanding"`
	TotalPayable       decimal.Decimal `json:"total_payable"`
	TotalMonthlyIncome decimal.Decimal `json:"total_monthly_interest"`
}

// GetLoanReport returns a page of loans; totals cover the page
func (s *DashboardService) GetLoanReport(ctx context.Context, filter repositories.LoanFilter, page Page) (*LoanReport, error) {
	loans, total, err := s.store.Loans().List(ctx, filter, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}

	report := &LoanReport{
		Loans:              make([]*LoanView, len(loans)),
		Total:              total,
		TotalPrincipal:     decimal.Zero,
		TotalOutstanding:   decimal.Zero,
		TotalPayable:       decimal.Zero,
		TotalMonthlyIncome: decimal.Zero,
	}
	for i, loan := range loans {
		view := newLoanView(loan)
		report.Loans[i] = view
		report.TotalPrincipal = report.TotalPrincipal.Add(loan.PrincipalAmount)
		report.TotalOutstanding = report.TotalOutstanding.Add(loan.CurrentBalance)
		report.TotalPayable = report.TotalPayable.Add(view.TotalPayable)
		report.TotalMonthlyIncome = report.TotalMonthlyIncome.Add(view.MonthlyInterest)
	}
	return report, nil
}

// SavingsReport lists accounts and the balance held across all of them
type SavingsReport struct {
	Accounts     []*models.SavingAccount `json:"accounts"`
	Total        int64                   `json:"total"`
	TotalSavings decimal.Decimal         `json:"total_savings"`
}

// GetSavingsReport returns a page of accounts and the overall total
func (s *DashboardService) GetSavingsReport(ctx context.Context, page Page) (*SavingsReport, error) {
	accounts, total, err := s.store.Accounts().List(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	sum, err := s.store.Accounts().TotalBalance(ctx)
	if err != nil {
		return nil, err
	}
	return &SavingsReport{Accounts: accounts, Total: total, TotalSavings: sum}, nil
}
