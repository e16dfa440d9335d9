package config

import (
	"errors"
	"log"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/core/policy"
	"devroots-sacco/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders; each step is idempotent
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedGroups(); err != nil {
		return err
	}
	if err := s.seedRoles(); err != nil {
		return err
	}
	if err := s.seedSettings(); err != nil {
		return err
	}
	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

func (s *Seeder) seedGroups() error {
	for _, name := range []string{domain.GroupAdmin, domain.GroupMember} {
		group := models.Group{Name: name}
		if err := s.db.Where("name = ?", name).FirstOrCreate(&group).Error; err != nil {
			return err
		}
	}
	return nil
}

// seedRoles seeds the default staff roles
func (s *Seeder) seedRoles() error {
	roles := []models.Role{
		{
			Name:        "Loan Officer",
			Description: "Originates loans, records repayments and views members",
			Permissions: []string{policy.MembersView, policy.LoansView, policy.LoansManage, policy.SavingsView},
		},
		{
			Name:        "Teller",
			Description: "Handles deposits and withdrawals",
			Permissions: []string{policy.MembersView, "savings.*"},
		},
		{
			Name:        "Auditor",
			Description: "Read-only access to reports and logs",
			Permissions: []string{policy.MembersView, policy.SavingsView, policy.LoansView, policy.ReportsView, policy.LogsView},
		},
	}

	for _, role := range roles {
		var count int64
		s.db.Model(&models.Role{}).Where("name = ?", role.Name).Count(&count)
		if count > 0 {
			continue
		}
		if err := s.db.Create(&role).Error; err != nil {
			return err
		}
		log.Printf("✅ Role created: %s", role.Name)
	}
	return nil
}

// seedSettings creates the singleton settings row
func (s *Seeder) seedSettings() error {
	var setting models.SystemSetting
	err := s.db.Order("id").First(&setting).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	setting = models.SystemSetting{
		DefaultInterestRate: s.cfg.Ledger.DefaultInterestRate,
		MembershipFee:       s.cfg.Ledger.MembershipFee,
	}
	return s.db.Create(&setting).Error
}

// seedAdminUser seeds the bootstrap staff account.
// Skipped unless ADMIN_PASSWORD is set.
func (s *Seeder) seedAdminUser() error {
	if s.cfg.Admin.Password == "" {
		log.Println("⚠️ ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var count int64
	s.db.Model(&models.User{}).Where("username = ?", s.cfg.Admin.Username).Count(&count)
	if count > 0 {
		return nil
	}

	if !password.ValidatePassword(s.cfg.Admin.Password) {
		return domain.ErrPasswordTooShort
	}
	hashedPassword, err := password.Hash(s.cfg.Admin.Password)
	if err != nil {
		return err
	}

	var adminGroup models.Group
	if err := s.db.Where("name = ?", domain.GroupAdmin).First(&adminGroup).Error; err != nil {
		return err
	}

	admin := &models.User{
		Username: s.cfg.Admin.Username,
		Email:    s.cfg.Admin.Email,
		Password: hashedPassword,
		IsStaff:  true,
		IsActive: true,
		Groups:   []models.Group{adminGroup},
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}
