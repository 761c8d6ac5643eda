package bootstrap

import (
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/config"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Scholarship{},
		&entity.Application{},
		&entity.Message{},
		&entity.Document{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Scholarship office staff"},
		{Name: entity.RoleManager, Description: "Read-only reviewer"},
		{Name: entity.RoleCustomer, Description: "Student applicant"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedAdminUser creates the support admin from config. The account students
// are pointed at for messaging must exist before the first conversation.
func SeedAdminUser(db *gorm.DB, cfg *config.Config, logger *zap.Logger) error {
	var adminRole entity.Role
	if err := db.Where("name = ?", entity.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", entity.NormalizeEmail(cfg.AdminEmail)).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Debug("admin user already exists, skipping seed", zap.String("email", cfg.AdminEmail))
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := entity.User{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hashedPasswordBytes),
		RoleID:       &adminRole.ID,
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	logger.Info("admin user seeded", zap.String("email", adminUser.Email))
	return nil
}
