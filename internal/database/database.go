package database

import (
	"fmt"

	"github.com/porty/backend/internal/config"
	"github.com/porty/backend/internal/models"
	"github.com/porty/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig, adminCfg config.AdminConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := seedAdminUser(db, adminCfg); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate is also used by the test harness against sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Portfolio{},
		&models.Project{},
		&models.AuditLog{},
	)
}

// seedAdminUser creates the first admin on an empty database. Admin accounts
// cannot be created through registration.
func seedAdminUser(db *gorm.DB, cfg config.AdminConfig) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:         cfg.Name,
		Email:        cfg.Email,
		PasswordHash: hash,
		Subdomain:    cfg.Subdomain,
		Role:         models.UserRoleAdmin,
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		portfolio := models.NewPortfolio(admin.ID)
		return tx.Create(&portfolio).Error
	})
}
