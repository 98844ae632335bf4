package models

import (
	"time"

	"github.com/google/uuid"
)

type Footage struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	LocationName    string    `json:"location_name" db:"location_name"`
	Latitude        *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude       *float64  `json:"longitude,omitempty" db:"longitude"`
	VideoPath       string    `json:"video_path" db:"video_path"`
	DurationSeconds float64   `json:"duration_seconds" db:"duration_seconds"`
	FPS             float64   `json:"fps" db:"fps"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	IsProcessed     bool      `json:"is_processed" db:"is_processed"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
