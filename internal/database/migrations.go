package database

import (
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/masterdash/masterdash/internal/models"
	"github.com/masterdash/masterdash/pkg/crypto"
)

// Default bootstrap administrator. The password can be overridden through
// MASTERDASH_SEED_ADMIN_PASSWORD before first start; the account is only
// created when no users exist yet.
const (
	seedAdminEmail    = "admin@masterdash.local"
	seedAdminName     = "Administrator"
	seedAdminPassword = "changeme"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Sector{},
		&models.Area{},
		&models.User{},
		&models.Dashboard{},
		&models.DashboardAccess{},
		&models.AuditLog{},
	)
}

// SeedData creates the bootstrap administrator when the user table is empty.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := strings.TrimSpace(os.Getenv("MASTERDASH_SEED_ADMIN_PASSWORD"))
	if password == "" {
		password = seedAdminPassword
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    seedAdminEmail,
		Name:     seedAdminName,
		Password: hashed,
		Role:     models.RoleAdmin,
	}

	return db.Create(&admin).Error
}
