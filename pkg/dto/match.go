package dto

import "github.com/google/uuid"

type MatchResponse struct {
	ID                  uuid.UUID `json:"id"`
	CaseID              uuid.UUID `json:"case_id"`
	FootageID           uuid.UUID `json:"footage_id"`
	MatchScore          float64   `json:"match_score"`
	DistanceKM          *float64  `json:"distance_km,omitempty"`
	MatchType           string    `json:"match_type"`
	Status              string    `json:"status"`
	PersonFound         bool      `json:"person_found"`
	ConfidenceScore     *float64  `json:"confidence_score,omitempty"`
	DetectionCount      int       `json:"detection_count"`
	AnalysisStartedAt   string    `json:"analysis_started_at,omitempty"`
	AnalysisCompletedAt string    `json:"analysis_completed_at,omitempty"`
	CreatedAt           string    `json:"created_at"`
}

type MatchStatsResponse struct {
	Total       int `json:"total"`
	PersonFound int `json:"person_found"`
	Pending     int `json:"pending"`
	Processing  int `json:"processing"`
	Completed   int `json:"completed"`
	Failed      int `json:"failed"`
}

type MatchListResponse struct {
	Matches  []MatchResponse    `json:"matches"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Stats    MatchStatsResponse `json:"stats"`
}

type MatchQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
}

type MatchDetailResponse struct {
	Match      MatchResponse       `json:"match"`
	Detections []DetectionResponse `json:"detections"`
}

// ScanResponse is returned by endpoints that run a scan synchronously.
type ScanResponse struct {
	Completed bool          `json:"completed"`
	Match     MatchResponse `json:"match"`
}

type MatchesCreatedResponse struct {
	MatchesCreated int `json:"matches_created"`
}

// WSEvent is a WebSocket message for real-time match lifecycle delivery.
type WSEvent struct {
	Type           string    `json:"type"` // match_processing, match_completed, match_failed
	MatchID        uuid.UUID `json:"match_id"`
	CaseID         uuid.UUID `json:"case_id"`
	FootageID      uuid.UUID `json:"footage_id"`
	Status         string    `json:"status"`
	PersonFound    bool      `json:"person_found"`
	Confidence     *float64  `json:"confidence,omitempty"`
	DetectionCount int       `json:"detection_count"`
	Timestamp      string    `json:"timestamp"`
}
