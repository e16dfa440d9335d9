package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Members (KYC)
// ============================================================

// Member represents members table
type Member struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	MemberNo string `gorm:"uniqueIndex;size:20;not null" json:"member_no"`
	UserID   *uint  `gorm:"uniqueIndex" json:"user_id"`

	// Personal
	FirstName     string     `gorm:"size:100;not null" json:"first_name"`
	LastName      string     `gorm:"size:100;not null" json:"last_name"`
	Gender        string     `gorm:"size:10" json:"gender"`
	DateOfBirth   *time.Time `gorm:"type:date" json:"date_of_birth"`
	MaritalStatus string     `gorm:"size:20" json:"marital_status"`
	Nationality   string     `gorm:"size:50" json:"nationality"`

	// Contact
	Phone            string `gorm:"size:20" json:"phone"`
	Email            string `gorm:"size:100" json:"email"`
	Address          string `gorm:"type:text" json:"address"`
	PreferredContact string `gorm:"size:20" json:"preferred_contact"`

	// Identification & employment
	NationalID       string `gorm:"uniqueIndex;size:30;not null" json:"national_id"`
	Occupation       string `gorm:"size:100" json:"occupation"`
	EmploymentStatus string `gorm:"size:30" json:"employment_status"`
	EmployerName     string `gorm:"size:150" json:"employer_name"`
	EmployerAddress  string `gorm:"type:text" json:"employer_address"`
	IncomeRange      string `gorm:"size:50" json:"income_range"`
	SourceOfIncome   string `gorm:"size:100" json:"source_of_income"`
	TINNumber        string `gorm:"size:30" json:"tin_number"`

	// Next of kin
	NokName         string `gorm:"size:150" json:"nok_name"`
	NokRelationship string `gorm:"size:50" json:"nok_relationship"`
	NokPhone        string `gorm:"size:20" json:"nok_phone"`
	NokAddress      string `gorm:"type:text" json:"nok_address"`

	// Membership
	PreferredSaving    string          `gorm:"size:30" json:"preferred_saving"`
	MembershipFeePaid  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:20000" json:"membership_fee_paid"`
	Status             string          `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	MustChangePassword bool            `gorm:"default:false" json:"must_change_password"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User          *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	SavingAccount *SavingAccount `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"saving_account,omitempty"`
	Loans         []Loan         `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"loans,omitempty"`
}

func (Member) TableName() string {
	return "members"
}

// FullName returns "first last"
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// MemberResponse DTO
type MemberResponse struct {
	ID                 uint             `json:"id"`
	MemberNo           string           `json:"member_no"`
	FullName           string           `json:"full_name"`
	FirstName          string           `json:"first_name"`
	LastName           string           `json:"last_name"`
	Gender             string           `json:"gender"`
	DateOfBirth        *time.Time       `json:"date_of_birth"`
	Phone              string           `json:"phone"`
	Email              string           `json:"email"`
	NationalID         string           `json:"national_id"`
	Occupation         string           `json:"occupation"`
	EmploymentStatus   string           `json:"employment_status"`
	PreferredSaving    string           `json:"preferred_saving"`
	MembershipFeePaid  decimal.Decimal  `json:"membership_fee_paid"`
	Status             string           `json:"status"`
	HasCredential      bool             `json:"has_credential"`
	MustChangePassword bool             `json:"must_change_password"`
	Balance            *decimal.Decimal `json:"balance,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

func (m *Member) ToResponse() *MemberResponse {
	resp := &MemberResponse{
		ID:                 m.ID,
		MemberNo:           m.MemberNo,
		FullName:           m.FullName(),
		FirstName:          m.FirstName,
		LastName:           m.LastName,
		Gender:             m.Gender,
		DateOfBirth:        m.DateOfBirth,
		Phone:              m.Phone,
		Email:              m.Email,
		NationalID:         m.NationalID,
		Occupation:         m.Occupation,
		EmploymentStatus:   m.EmploymentStatus,
		PreferredSaving:    m.PreferredSaving,
		MembershipFeePaid:  m.MembershipFeePaid,
		Status:             m.Status,
		HasCredential:      m.UserID != nil,
		MustChangePassword: m.MustChangePassword,
		CreatedAt:          m.CreatedAt,
	}
	if m.SavingAccount != nil {
		balance := m.SavingAccount.Balance
		resp.Balance = &balance
	}
	return resp
}
