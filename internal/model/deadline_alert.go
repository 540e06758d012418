package model

import "time"

// DeadlineAlert marks that a push alert was sent for an infraction on a
// given day, so the deadline scanner does not re-notify within the day.
type DeadlineAlert struct {
	InfractionID int64     `gorm:"primaryKey"`
	SentOn       string    `gorm:"primaryKey;size:10"` // YYYY-MM-DD
	CreatedAt    time.Time `gorm:"not null"`
}
