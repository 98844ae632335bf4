package dto

import "github.com/google/uuid"

type FootageResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	LocationName    string    `json:"location_name"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	FPS             float64   `json:"fps"`
	IsProcessed     bool      `json:"is_processed"`
	CreatedAt       string    `json:"created_at"`
}

type NearbyFootageResponse struct {
	CaseID     uuid.UUID         `json:"case_id"`
	Location   string            `json:"location"`
	Footage    []FootageResponse `json:"footage"`
	CanApprove bool              `json:"can_approve"`
}

type CaseAnalysisStats struct {
	TotalMatches      int `json:"total_matches"`
	SuccessfulMatches int `json:"successful_matches"`
	TotalDetections   int `json:"total_detections"`
	HighConfidence    int `json:"high_confidence_detections"`
	Processing        int `json:"processing_matches"`
	Pending           int `json:"pending_matches"`
}

type CaseAnalysisResponse struct {
	CaseID     uuid.UUID           `json:"case_id"`
	PersonName string              `json:"person_name"`
	Matches    []MatchResponse     `json:"matches"`
	Detections []DetectionResponse `json:"detections"`
	Stats      CaseAnalysisStats   `json:"stats"`
}
