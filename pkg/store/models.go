package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	FullName     string
	PasswordHash string
	Role         string    `gorm:"not null"`
	Active       bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type ReviewOutcomeModel struct {
	ID              string `gorm:"primaryKey"`
	ContentID       string `gorm:"not null;index"`
	Category        string `gorm:"not null"`
	Status          string `gorm:"not null"`
	Findings        datatypes.JSON `gorm:"type:jsonb"`
	Summary         string         `gorm:"type:text"`
	Recommendations datatypes.JSON `gorm:"type:jsonb"`
	QualityScore    float64
	CreatedAt       time.Time `gorm:"not null;index"`
	CompletedAt     *time.Time
}
