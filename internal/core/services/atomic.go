package services

import (
	"context"
	"errors"
	"fmt"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"

	"github.com/sirupsen/logrus"
)

// DashboardCacheKey holds the cached admin dashboard
const DashboardCacheKey = "dashboard:admin"

// runAtomic runs fn in one transaction, retrying once when the database
// reports a deadlock or lock timeout. fn must not keep state between runs.
func runAtomic(ctx context.Context, store repositories.Store, fn func(tx repositories.Store) error) error {
	err := store.Atomic(ctx, fn)
	if errors.Is(err, domain.ErrConflict) {
		logrus.WithField("error", err.Error()).Warn("Transaction conflict, retrying once")
		err = store.Atomic(ctx, fn)
	}
	return err
}

// notFound swaps a bare ErrNotFound for a more specific one
func notFound(err error, specific error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return specific
	}
	return err
}

// invalidateDashboard drops cached aggregates after a mutation
func invalidateDashboard(ctx context.Context, cache Cache) {
	if err := cache.Delete(ctx, DashboardCacheKey); err != nil {
		logrus.WithField("error", err.Error()).Warn("Failed to invalidate dashboard cache")
	}
}

// notificationRefs links an admin notification to the records it describes
type notificationRefs struct {
	MemberID      *uint
	LoanID        *uint
	TransactionID *uint
}

// notifyAdmin writes an admin inbox entry through tx
func notifyAdmin(ctx context.Context, tx repositories.Store, kind domain.NotificationType, message string, refs notificationRefs) error {
	n := &models.AdminNotification{
		Type:          string(kind),
		Message:       message,
		MemberID:      refs.MemberID,
		LoanID:        refs.LoanID,
		TransactionID: refs.TransactionID,
	}
	if err := tx.AdminNotifications().Create(ctx, n); err != nil {
		return fmt.Errorf("admin notification: %w", err)
	}
	return nil
}

// notifyMember writes a member inbox entry through tx
func notifyMember(ctx context.Context, tx repositories.Store, memberID uint, title, message string) error {
	n := &models.Notification{
		MemberID: &memberID,
		Title:    title,
		Message:  message,
	}
	if err := tx.Notifications().Create(ctx, n); err != nil {
		return fmt.Errorf("member notification: %w", err)
	}
	return nil
}

// logActivity appends to a member's activity trail through tx
func logActivity(ctx context.Context, tx repositories.Store, memberID uint, action, ip string) error {
	entry := &models.UserActivityLog{
		MemberID:  memberID,
		Action:    action,
		IPAddress: ip,
	}
	if err := tx.ActivityLogs().Create(ctx, entry); err != nil {
		return fmt.Errorf("activity log: %w", err)
	}
	return nil
}

func uintPtr(v uint) *uint {
	return &v
}
