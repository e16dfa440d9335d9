package services

import (
	"context"
	"errors"
	"fmt"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/pkg/validator"

	"github.com/sirupsen/logrus"
)

// latestNotifications is how many entries the inbox summary carries
const latestNotifications = 7

// NotificationService manages the admin inbox and member notifications
type NotificationService struct {
	store repositories.Store
}

// NewNotificationService creates a new notification service
func NewNotificationService(store repositories.Store) *NotificationService {
	return &NotificationService{store: store}
}

// InboxSummary is the unread count and the latest admin notifications
type InboxSummary struct {
	UnreadCount int64                       `json:"unread_count"`
	Latest      []*models.AdminNotification `json:"latest"`
}

// SupportTicketInput represents a member's support request
type SupportTicketInput struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ============================================================
// Admin inbox
// ============================================================

// ListAdmin lists admin notifications, newest first
func (s *NotificationService) ListAdmin(ctx context.Context, unreadOnly bool, page Page) ([]*models.AdminNotification, int64, error) {
	return s.store.AdminNotifications().List(ctx, unreadOnly, page.Offset, page.Limit)
}

// Summary returns the unread count and latest entries for the admin header
func (s *NotificationService) Summary(ctx context.Context) (*InboxSummary, error) {
	unread, err := s.store.AdminNotifications().CountUnread(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.store.AdminNotifications().Latest(ctx, latestNotifications)
	if err != nil {
		return nil, err
	}
	return &InboxSummary{UnreadCount: unread, Latest: latest}, nil
}

// MarkAdminRead marks one admin notification read
func (s *NotificationService) MarkAdminRead(ctx context.Context, id uint) error {
	if _, err := s.store.AdminNotifications().GetByID(ctx, id); err != nil {
		return notFound(err, fmt.Errorf("notification: %w", domain.ErrNotFound))
	}
	return s.store.AdminNotifications().MarkRead(ctx, id)
}

// MarkAllAdminRead marks every admin notification read
func (s *NotificationService) MarkAllAdminRead(ctx context.Context) (int64, error) {
	return s.store.AdminNotifications().MarkAllRead(ctx)
}

// ListSupport lists support tickets opened by members
func (s *NotificationService) ListSupport(ctx context.Context, page Page) ([]*models.Notification, int64, error) {
	return s.store.Notifications().ListSupport(ctx, page.Offset, page.Limit)
}

// ============================================================
// Member inbox
// ============================================================

// ListForMember lists a member's notifications, newest first
func (s *NotificationService) ListForMember(ctx context.Context, memberID uint, page Page) ([]*models.Notification, int64, error) {
	return s.store.Notifications().ListByMember(ctx, memberID, page.Offset, page.Limit)
}

// MarkMemberRead marks a member's own notification read. Another member's
// notification is reported as not found.
func (s *NotificationService) MarkMemberRead(ctx context.Context, memberID, id uint) error {
	n, err := s.store.Notifications().GetByID(ctx, id)
	if err != nil || n.MemberID == nil || *n.MemberID != memberID {
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("notification: %w", domain.ErrNotFound)
		}
		return err
	}
	return s.store.Notifications().MarkRead(ctx, id)
}

// OpenSupportTicket records a member's support request and alerts the admins
func (s *NotificationService) OpenSupportTicket(ctx context.Context, actor Actor, memberID uint, in SupportTicketInput) (*models.Notification, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	var ticket *models.Notification
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		member, err := tx.Members().GetByID(ctx, memberID)
		if err != nil {
			return notFound(err, domain.ErrMemberNotFound)
		}

		ticket = &models.Notification{
			MemberID:  &member.ID,
			Title:     in.Subject,
			Message:   in.Message,
			IsSupport: true,
		}
		if err := tx.Notifications().Create(ctx, ticket); err != nil {
			return err
		}

		message := fmt.Sprintf("Support request from %s (%s): %s", member.FullName(), member.MemberNo, in.Subject)
		if err := notifyAdmin(ctx, tx, domain.NotifyOther, message, notificationRefs{MemberID: uintPtr(member.ID)}); err != nil {
			return err
		}
		return logActivity(ctx, tx, member.ID, "Opened support request: "+in.Subject, actor.IP)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"member_id": memberID,
		"ticket_id": ticket.ID,
	}).Info("Support ticket opened")

	return ticket, nil
}
