package entity

import "gorm.io/gorm"

// AutoMigrate creates the tables this service owns plus the collaborator
// tables it reads, so a fresh database (or a test database) is usable.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Post{},
		&PointTransaction{},
		&UserScore{},
		&UserAchievement{},
		&Notification{},
	)
}
