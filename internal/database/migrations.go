package database

import (
	"gorm.io/gorm"

	"github.com/muhammadNahidul/social-media-API/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.EmailOTP{},
		&models.Session{},
		&models.Profile{},
		&models.Follow{},
	)
}
