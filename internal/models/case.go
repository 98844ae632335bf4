package models

import (
	"time"

	"github.com/google/uuid"
)

// Case statuses that mean the search is still being pursued. Only cases in
// one of these states are paired with newly uploaded footage.
const (
	CaseStatusActive     = "Active"
	CaseStatusQueued     = "Queued"
	CaseStatusProcessing = "Processing"
)

var ActiveCaseStatuses = []string{CaseStatusActive, CaseStatusQueued, CaseStatusProcessing}

type Case struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	PersonName       string      `json:"person_name" db:"person_name"`
	LastSeenLocation string      `json:"last_seen_location" db:"last_seen_location"`
	Latitude         *float64    `json:"latitude,omitempty" db:"latitude"`
	Longitude        *float64    `json:"longitude,omitempty" db:"longitude"`
	Status           string      `json:"status" db:"status"`
	ReferenceImages  []CaseImage `json:"reference_images,omitempty" db:"-"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
}

// CaseImage is a reference photo of the missing person. ImagePath is a blob key.
type CaseImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CaseID    uuid.UUID `json:"case_id" db:"case_id"`
	ImagePath string    `json:"image_path" db:"image_path"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
}
