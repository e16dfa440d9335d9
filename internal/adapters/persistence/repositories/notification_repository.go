package repositories

import (
	"context"
	"time"

	"devroots-sacco/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ============================================================
// Admin inbox
// ============================================================

// adminNotificationRepository implements AdminNotificationRepository interface
type adminNotificationRepository struct {
	db *gorm.DB
}

// NewAdminNotificationRepository creates a new admin notification repository
func NewAdminNotificationRepository(db *gorm.DB) AdminNotificationRepository {
	return &adminNotificationRepository{db: db}
}

// Create creates a new admin notification
func (r *adminNotificationRepository) Create(ctx context.Context, n *models.AdminNotification) error {
	return translateError(r.db.WithContext(ctx).Create(n).Error)
}

// GetByID gets an admin notification by ID
func (r *adminNotificationRepository) GetByID(ctx context.Context, id uint) (*models.AdminNotification, error) {
	var n models.AdminNotification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, translateError(err)
	}
	return &n, nil
}

// List lists admin notifications, newest first
func (r *adminNotificationRepository) List(ctx context.Context, unreadOnly bool, offset, limit int) ([]*models.AdminNotification, int64, error) {
	var items []*models.AdminNotification
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if unreadOnly {
			return db.Where("is_read = ?", false)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.AdminNotification{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountUnread counts unread admin notifications
func (r *adminNotificationRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AdminNotification{}).Where("is_read = ?", false).Count(&count).Error
	return count, err
}

// Latest returns the most recent notifications
func (r *adminNotificationRepository) Latest(ctx context.Context, limit int) ([]*models.AdminNotification, error) {
	var items []*models.AdminNotification
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// MarkRead marks one notification as read
func (r *adminNotificationRepository) MarkRead(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.AdminNotification{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

// MarkAllRead marks every unread notification as read
func (r *adminNotificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AdminNotification{}).
		Where("is_read = ?", false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// ExistsForLoanSince reports whether a notification of the given type was raised for a loan after since
func (r *adminNotificationRepository) ExistsForLoanSince(ctx context.Context, loanID uint, notificationType string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AdminNotification{}).
		Where("loan_id = ? AND type = ? AND created_at >= ?", loanID, notificationType, since).
		Count(&count).Error
	return count > 0, err
}

// ============================================================
// Member inbox & support tickets
// ============================================================

// notificationRepository implements NotificationRepository interface
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create creates a new notification
func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return translateError(r.db.WithContext(ctx).Omit("Member").Create(n).Error)
}

// GetByID gets a notification by ID
func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, translateError(err)
	}
	return &n, nil
}

// ListByMember lists a member's notifications, newest first
func (r *notificationRepository) ListByMember(ctx context.Context, memberID uint, offset, limit int) ([]*models.Notification, int64, error) {
	var items []*models.Notification
	var total int64

	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("member_id = ? AND is_support = ?", memberID, false).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Where("member_id = ? AND is_support = ?", memberID, false).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListSupport lists support tickets raised by members
func (r *notificationRepository) ListSupport(ctx context.Context, offset, limit int) ([]*models.Notification, int64, error) {
	var items []*models.Notification
	var total int64

	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("is_support = ?", true).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("is_support = ?", true).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountUnreadByMember counts a member's unread notifications
func (r *notificationRepository) CountUnreadByMember(ctx context.Context, memberID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("member_id = ? AND is_support = ? AND is_read = ?", memberID, false, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks a notification as read
func (r *notificationRepository) MarkRead(ctx context.Context, id uint) error {
	return translateError(r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error)
}
