package models

import "time"

// RateCounter backs the database rate-limit store so counters are shared
// across instances, the store being the only shared resource.
type RateCounter struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Count     int64     `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
