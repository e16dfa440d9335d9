package repositories

import (
	"context"

	"devroots-sacco/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ============================================================
// Activity Logs
// ============================================================

// activityLogRepository implements ActivityLogRepository interface
type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

// Create records an activity
func (r *activityLogRepository) Create(ctx context.Context, log *models.UserActivityLog) error {
	return translateError(r.db.WithContext(ctx).Omit("Member").Create(log).Error)
}

// List lists activity logs, optionally for one member, newest first
func (r *activityLogRepository) List(ctx context.Context, memberID uint, offset, limit int) ([]*models.UserActivityLog, int64, error) {
	var logs []*models.UserActivityLog
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if memberID != 0 {
			return db.Where("member_id = ?", memberID)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.UserActivityLog{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Member").
		Order("timestamp DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// Recent returns a member's latest activities
func (r *activityLogRepository) Recent(ctx context.Context, memberID uint, limit int) ([]*models.UserActivityLog, error) {
	var logs []*models.UserActivityLog
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// ============================================================
// System Settings
// ============================================================

// settingRepository implements SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// Get returns the first (and only) settings row
func (r *settingRepository) Get(ctx context.Context) (*models.SystemSetting, error) {
	var setting models.SystemSetting
	if err := r.db.WithContext(ctx).Order("id").First(&setting).Error; err != nil {
		return nil, translateError(err)
	}
	return &setting, nil
}

// Save creates or updates the settings row
func (r *settingRepository) Save(ctx context.Context, setting *models.SystemSetting) error {
	return translateError(r.db.WithContext(ctx).Save(setting).Error)
}

// ============================================================
// Roles
// ============================================================

// roleRepository implements RoleRepository interface
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// Create creates a new role
func (r *roleRepository) Create(ctx context.Context, role *models.Role) error {
	return translateError(r.db.WithContext(ctx).Create(role).Error)
}

// GetByID gets a role by ID
func (r *roleRepository) GetByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error; err != nil {
		return nil, translateError(err)
	}
	return &role, nil
}

// Update updates a role
func (r *roleRepository) Update(ctx context.Context, role *models.Role) error {
	return translateError(r.db.WithContext(ctx).Save(role).Error)
}

// Delete deletes a role; assignments fall back to no role
func (r *roleRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Role{}, id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

// List lists all roles by name
func (r *roleRepository) List(ctx context.Context) ([]*models.Role, error) {
	var roles []*models.Role
	if err := r.db.WithContext(ctx).Order("name").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// GetForUser returns the role assigned to a user
func (r *roleRepository) GetForUser(ctx context.Context, userID uint) (*models.Role, error) {
	var userRole models.UserRole
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("user_id = ?", userID).
		First(&userRole).Error
	if err != nil {
		return nil, translateError(err)
	}
	if userRole.Role == nil {
		return nil, translateError(gorm.ErrRecordNotFound)
	}
	return userRole.Role, nil
}

// AssignToUser sets (or clears, when roleID is nil) a user's role
func (r *roleRepository) AssignToUser(ctx context.Context, userID uint, roleID *uint) error {
	userRole := models.UserRole{UserID: userID, RoleID: roleID}
	return translateError(r.db.WithContext(ctx).
		Omit("User", "Role").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role_id"}),
		}).
		Create(&userRole).Error)
}
