package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Inbox, Audit & Settings
// ============================================================

// AdminNotification represents admin_notifications table
type AdminNotification struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Type          string    `gorm:"size:20;not null;index" json:"notification_type"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	MemberID      *uint     `gorm:"index" json:"member_id"`
	LoanID        *uint     `gorm:"index" json:"loan_id"`
	TransactionID *uint     `json:"transaction_id"`
	IsRead        bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AdminNotification) TableName() string {
	return "admin_notifications"
}

// Notification represents member-facing notifications and support tickets
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MemberID  *uint     `gorm:"index" json:"member_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsSupport bool      `gorm:"default:false;index" json:"is_support"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	Member *Member `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"member,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

// UserActivityLog represents user_activity_logs table
type UserActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MemberID  uint      `gorm:"index;not null" json:"member_id"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`

	Member *Member `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"member,omitempty"`
}

func (UserActivityLog) TableName() string {
	return "user_activity_logs"
}

// SystemSetting represents system_settings table (singleton row)
type SystemSetting struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	DefaultInterestRate decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"default_interest_rate"`
	MembershipFee       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:20000" json:"membership_fee"`
	MinLoanAmount       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"min_loan_amount"`
	MaxLoanAmount       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"max_loan_amount"`
	MaxTermMonths       int             `gorm:"not null;default:0" json:"max_term_months"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}
