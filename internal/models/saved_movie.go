package models

// SavedMovie is a favorite pinned by a user. The user identifier comes from
// the fronting auth layer; this service does not manage sessions.
type SavedMovie struct {
	BaseModel
	UserID       string `gorm:"size:128;not null;uniqueIndex:idx_saved_user_movie" json:"user_id"`
	MovieID      int64  `gorm:"not null;uniqueIndex:idx_saved_user_movie" json:"movie_id"`
	MediaType    string `gorm:"size:16" json:"media_type"`
	Title        string `json:"title"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

// TableName keeps the historical table name.
func (SavedMovie) TableName() string { return "saved_movies" }
