package models

import "time"

// SpotifyToken is a cached client-credentials bearer token. Rows are never
// mutated: a fresh row supersedes older ones naturally, readers pick the
// most-future-expiring valid row, and maintenance reaps expired rows. There
// is deliberately no uniqueness constraint; duplicate valid tokens are
// harmless.
type SpotifyToken struct {
	BaseModel
	AccessToken string    `gorm:"not null" json:"-"`
	TokenType   string    `gorm:"size:32" json:"token_type"`
	ExpiresAt   time.Time `gorm:"index" json:"expires_at"`
}

// TableName keeps the historical table name.
func (SpotifyToken) TableName() string { return "spotify_tokens" }

// Valid reports whether the token is still usable at the supplied instant.
func (t *SpotifyToken) Valid(now time.Time) bool {
	return t != nil && t.ExpiresAt.After(now)
}
