package repositories

import (
	"context"

	"devroots-sacco/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// memberRepository implements MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// Create creates a new member
func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return translateError(r.db.WithContext(ctx).Omit("SavingAccount", "Loans", "User").Create(member).Error)
}

// GetByID gets a member by ID with its saving account
func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Preload("SavingAccount").
		Where("id = ?", id).
		First(&member).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &member, nil
}

// GetByIDs gets members by IDs; missing IDs are simply absent from the result
func (r *memberRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Member, error) {
	var members []*models.Member
	if len(ids) == 0 {
		return members, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// GetByUserID gets the member linked to a login
func (r *memberRepository) GetByUserID(ctx context.Context, userID uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Preload("SavingAccount").
		Where("user_id = ?", userID).
		First(&member).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &member, nil
}

// ExistsByMemberNo checks if a member number is taken
func (r *memberRepository) ExistsByMemberNo(ctx context.Context, memberNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("member_no = ?", memberNo).
		Count(&count).Error
	return count > 0, err
}

// Update updates a member's own columns
func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	return translateError(r.db.WithContext(ctx).Omit("SavingAccount", "Loans", "User").Save(member).Error)
}

// Delete hard deletes a member; accounts, loans and logs cascade
func (r *memberRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Member{}, id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

// List lists members with search and pagination
func (r *memberRepository) List(ctx context.Context, filter MemberFilter, offset, limit int) ([]*models.Member, int64, error) {
	var members []*models.Member
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Query != "" {
			like := "%" + filter.Query + "%"
			db = db.Where(
				"member_no LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR national_id LIKE ? OR phone LIKE ? OR email LIKE ?",
				like, like, like, like, like, like,
			)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.Member{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("SavingAccount").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&members).Error
	if err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

// Count counts members, optionally by status
func (r *memberRepository) Count(ctx context.Context, status string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Member{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}
