package bootstrap

import (
	"fmt"

	"anoa.com/contentscore/internal/entity"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := entity.AutoMigrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// SeedAdminUser creates a local admin for development databases, where the
// user directory is not connected.
func SeedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("username = ?", "admin").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Info("admin user already exists, skipping seed")
		return nil
	}

	admin := entity.User{
		Username: "admin",
		Role:     entity.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.WithField("user_id", admin.ID).Info("admin user seeded")
	return nil
}
