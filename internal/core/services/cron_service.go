package services

import (
	"context"
	"fmt"
	"time"

	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/config"
	"devroots-sacco/internal/core/domain"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds a single scheduled run
const jobTimeout = 5 * time.Minute

// CronService runs the scheduled back office jobs
type CronService struct {
	cron  *cron.Cron
	store repositories.Store
	cfg   config.CronConfig
	now   func() time.Time
}

// NewCronService creates the scheduler with UTC timezone and seconds precision
func NewCronService(store repositories.Store, cfg config.CronConfig) *CronService {
	s := &CronService{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
		),
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *CronService) registerJobs() {
	// Daily overdue loan reminders
	if _, err := s.cron.AddFunc(s.cfg.OverdueLoanReminders, s.runJob("SendOverdueLoanReminders", func(ctx context.Context) error {
		_, err := s.SendOverdueLoanReminders(ctx)
		return err
	})); err != nil {
		logrus.WithField("error", err.Error()).Error("Failed to register SendOverdueLoanReminders job")
	}

	// Expired refresh token cleanup
	if _, err := s.cron.AddFunc(s.cfg.TokenCleanup, s.runJob("CleanupExpiredTokens", func(ctx context.Context) error {
		_, err := s.CleanupExpiredTokens(ctx)
		return err
	})); err != nil {
		logrus.WithField("error", err.Error()).Error("Failed to register CleanupExpiredTokens job")
	}

	logrus.WithField("jobs", len(s.cron.Entries())).Info("Cron jobs registered")
}

func (s *CronService) runJob(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		started := time.Now()
		if err := fn(ctx); err != nil {
			logrus.WithFields(logrus.Fields{"job": name, "error": err.Error()}).Error("Scheduled job failed")
			return
		}
		logrus.WithFields(logrus.Fields{"job": name, "took": time.Since(started).String()}).Info("Scheduled job finished")
	}
}

// SendOverdueLoanReminders raises one system notification per overdue loan
// per day. A loan is overdue when approved, past its end date and still
// carrying a balance.
func (s *CronService) SendOverdueLoanReminders(ctx context.Context) (int, error) {
	now := s.now().UTC()
	startOfDay := now.Truncate(24 * time.Hour)

	loans, err := s.store.Loans().ListOverdue(ctx, startOfDay)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, loan := range loans {
		exists, err := s.store.AdminNotifications().ExistsForLoanSince(ctx, loan.ID, string(domain.NotifySystem), startOfDay)
		if err != nil {
			return sent, err
		}
		if exists {
			continue
		}

		owner := fmt.Sprintf("member #%d", loan.MemberID)
		if loan.Member != nil {
			owner = fmt.Sprintf("%s (%s)", loan.Member.FullName(), loan.Member.MemberNo)
		}
		days := int(startOfDay.Sub(loan.EndDate.UTC().Truncate(24*time.Hour)).Hours() / 24)
		message := fmt.Sprintf("Loan #%d of %s is %d days overdue with %s outstanding",
			loan.ID, owner, days, loan.CurrentBalance.StringFixed(2))

		if err := notifyAdmin(ctx, s.store, domain.NotifySystem, message, notificationRefs{
			MemberID: uintPtr(loan.MemberID),
			LoanID:   uintPtr(loan.ID),
		}); err != nil {
			return sent, err
		}
		sent++
	}

	if sent > 0 {
		logrus.WithField("count", sent).Info("Overdue loan reminders sent")
	}
	return sent, nil
}

// CleanupExpiredTokens deletes expired and revoked refresh tokens
func (s *CronService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.store.RefreshTokens().DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	logrus.WithField("count", n).Info("Expired refresh tokens deleted")
	return n, nil
}

// Start begins the cron scheduler
func (s *CronService) Start() {
	s.cron.Start()
	logrus.Info("Cron scheduler started")
}

// Stop gracefully stops the cron scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logrus.Info("Cron scheduler stopped")
}
