package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filmatlas/filmatlas/internal/models"
)

// FavoriteService manages the per-user saved movies list.
type FavoriteService struct {
	db *gorm.DB
}

// NewFavoriteService constructs a favorite service once a database handle is supplied.
func NewFavoriteService(db *gorm.DB) (*FavoriteService, error) {
	if db == nil {
		return nil, errors.New("favorite service: db is required")
	}
	return &FavoriteService{db: db}, nil
}

// SaveFavoriteInput captures the fields persisted when a user pins a title.
type SaveFavoriteInput struct {
	UserID       string `json:"-"`
	MovieID      int64  `json:"movie_id" validate:"required"`
	MediaType    string `json:"media_type" validate:"required,oneof=movie tv"`
	Title        string `json:"title" validate:"required"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

// Save pins a title for a user. Saving an already saved title refreshes its
// display fields.
func (s *FavoriteService) Save(ctx context.Context, input SaveFavoriteInput) (*models.SavedMovie, error) {
	if s == nil {
		return nil, errors.New("favorite service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("favorite service: user id is required")
	}

	row := models.SavedMovie{
		UserID:       userID,
		MovieID:      input.MovieID,
		MediaType:    input.MediaType,
		Title:        strings.TrimSpace(input.Title),
		PosterPath:   input.PosterPath,
		BackdropPath: input.BackdropPath,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"media_type", "title", "poster_path", "backdrop_path", "updated_at"}),
		}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Remove unpins a title for a user. Removing an absent favorite is a no-op.
func (s *FavoriteService) Remove(ctx context.Context, userID string, movieID int64) error {
	if s == nil {
		return errors.New("favorite service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("favorite service: user id is required")
	}

	return s.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&models.SavedMovie{}).Error
}

// List returns a user's saved titles, most recently saved first.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]models.SavedMovie, error) {
	if s == nil {
		return nil, errors.New("favorite service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("favorite service: user id is required")
	}

	var rows []models.SavedMovie
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// IsSaved reports whether a user has pinned the given title.
func (s *FavoriteService) IsSaved(ctx context.Context, userID string, movieID int64) (bool, error) {
	if s == nil {
		return false, errors.New("favorite service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.SavedMovie{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
