package models

import (
	"time"

	"gorm.io/datatypes"
)

// Media kinds accepted by the metadata provider.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// MovieCache holds the independently fetched metadata fragments for a single
// title. A row may exist with any subset of fragments populated; CachedAt is
// restamped on every write to any fragment and is the only freshness signal.
type MovieCache struct {
	MovieID   int64          `gorm:"primaryKey;autoIncrement:false" json:"movie_id"`
	MediaType string         `gorm:"primaryKey;size:16" json:"media_type"`
	Details   datatypes.JSON `json:"details,omitempty"`
	Videos    datatypes.JSON `json:"videos,omitempty"`
	Credits   datatypes.JSON `json:"credits,omitempty"`
	Providers datatypes.JSON `json:"providers,omitempty"`
	CachedAt  time.Time      `gorm:"index" json:"cached_at"`
}

// TableName keeps the historical table name.
func (MovieCache) TableName() string { return "movie_cache" }

// Fragment returns the named fragment blob, or nil when absent.
func (m *MovieCache) Fragment(name string) datatypes.JSON {
	if m == nil {
		return nil
	}
	switch name {
	case "details":
		return m.Details
	case "videos":
		return m.Videos
	case "credits":
		return m.Credits
	case "providers":
		return m.Providers
	default:
		return nil
	}
}

// ValidMediaType reports whether the supplied kind is one the metadata
// provider understands.
func ValidMediaType(kind string) bool {
	return kind == MediaTypeMovie || kind == MediaTypeTV
}
