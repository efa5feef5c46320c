package models

import (
	"time"

	"gorm.io/datatypes"
)

// SoundtrackCache stores the outcome of a soundtrack resolution. A NULL
// SoundtrackURL is a valid cached "no match found" result, distinct from the
// row being absent; any row inside the TTL window is authoritative.
type SoundtrackCache struct {
	MovieID         int64          `gorm:"primaryKey;autoIncrement:false" json:"movie_id"`
	MediaType       string         `gorm:"primaryKey;size:16" json:"media_type"`
	MovieName       string         `json:"movie_name"`
	SoundtrackURL   *string        `json:"soundtrack_url"`
	SpotifyResponse datatypes.JSON `json:"spotify_response,omitempty"`
	CachedAt        time.Time      `gorm:"index" json:"cached_at"`
}

// TableName keeps the historical table name.
func (SoundtrackCache) TableName() string { return "soundtrack_cache" }
