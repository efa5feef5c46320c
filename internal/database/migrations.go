package database

import (
	"gorm.io/gorm"

	"github.com/filmatlas/filmatlas/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MovieCache{},
		&models.SpotifyToken{},
		&models.SoundtrackCache{},
		&models.SavedMovie{},
		&models.RateCounter{},
	)
}
