package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth & Identity Tables
// ============================================================

// User represents users table (login credentials for staff and members)
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string     `gorm:"size:100" json:"email"`
	Password  string     `gorm:"size:255;not null" json:"-"`
	FirstName string     `gorm:"size:100" json:"first_name"`
	LastName  string     `gorm:"size:100" json:"last_name"`
	IsStaff   bool       `gorm:"default:false" json:"is_staff"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Groups []Group `gorm:"many2many:user_groups;" json:"groups,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// GroupNames returns the names of the groups the user belongs to
func (u *User) GroupNames() []string {
	names := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		names = append(names, g.Name)
	}
	return names
}

// InGroup reports whether the user is a member of the named group
func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

// UserResponse DTO
type UserResponse struct {
	ID                 uint      `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	IsStaff            bool      `json:"is_staff"`
	IsActive           bool      `json:"is_active"`
	Groups             []string  `json:"groups"`
	MemberID           *uint     `json:"member_id,omitempty"`
	MemberNo           string    `json:"member_no,omitempty"`
	MustChangePassword bool      `json:"must_change_password"`
	Role               string    `json:"role,omitempty"`
	Permissions        []string  `json:"permissions,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsStaff,
		IsActive:  u.IsActive,
		Groups:    u.GroupNames(),
		CreatedAt: u.CreatedAt,
	}
}

// Group represents auth groups ("Admin", "Member")
type Group struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:150;not null" json:"name"`
}

func (Group) TableName() string {
	return "groups"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// AutoMigrate runs auto migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity
		&Group{},
		&User{},
		&RefreshToken{},
		&Role{},
		&UserRole{},
		// Members & ledger
		&Member{},
		&SavingAccount{},
		&SavingTransaction{},
		&Loan{},
		&LoanRepayment{},
		&LoanGuarantor{},
		// Inbox & audit
		&AdminNotification{},
		&Notification{},
		&UserActivityLog{},
		&SystemSetting{},
	)
}
