package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusProcessing MatchStatus = "processing"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusFailed     MatchStatus = "failed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusProcessing, MatchStatusCompleted, MatchStatusFailed:
		return true
	}
	return false
}

type MatchType string

const (
	MatchTypeLocation  MatchType = "location"
	MatchTypeProximity MatchType = "proximity"
	MatchTypeManual    MatchType = "manual"
)

// ErrMatchProcessing is returned when a match cannot be reset because a scan
// currently holds it.
var ErrMatchProcessing = errors.New("match is being processed")

// ManualMatchScore is assigned to pairings an operator selected by hand.
const ManualMatchScore = 0.9

// Match pairs one Case with one Footage. At most one exists per pair.
type Match struct {
	ID                  uuid.UUID   `json:"id" db:"id"`
	CaseID              uuid.UUID   `json:"case_id" db:"case_id"`
	FootageID           uuid.UUID   `json:"footage_id" db:"footage_id"`
	MatchScore          float64     `json:"match_score" db:"match_score"`
	DistanceKM          *float64    `json:"distance_km,omitempty" db:"distance_km"`
	MatchType           MatchType   `json:"match_type" db:"match_type"`
	Status              MatchStatus `json:"status" db:"status"`
	AnalysisStartedAt   *time.Time  `json:"analysis_started_at,omitempty" db:"analysis_started_at"`
	AnalysisCompletedAt *time.Time  `json:"analysis_completed_at,omitempty" db:"analysis_completed_at"`
	PersonFound         bool        `json:"person_found" db:"person_found"`
	ConfidenceScore     *float64    `json:"confidence_score,omitempty" db:"confidence_score"`
	DetectionCount      int         `json:"detection_count" db:"detection_count"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
}

// NewMatch is a pending pairing produced by the location matcher.
type NewMatch struct {
	CaseID     uuid.UUID
	FootageID  uuid.UUID
	Score      float64
	DistanceKM *float64
	Type       MatchType
}

// MatchResult holds the summary fields written when a scan finishes.
type MatchResult struct {
	Status          MatchStatus
	PersonFound     bool
	ConfidenceScore *float64
	DetectionCount  int
}

type MatchStats struct {
	Total       int `json:"total"`
	PersonFound int `json:"person_found"`
	Pending     int `json:"pending"`
	Processing  int `json:"processing"`
	Completed   int `json:"completed"`
	Failed      int `json:"failed"`
}

// MatchEvent is published whenever a match changes lifecycle state.
type MatchEvent struct {
	MatchID        uuid.UUID   `json:"match_id"`
	CaseID         uuid.UUID   `json:"case_id"`
	FootageID      uuid.UUID   `json:"footage_id"`
	Status         MatchStatus `json:"status"`
	PersonFound    bool        `json:"person_found"`
	Confidence     *float64    `json:"confidence,omitempty"`
	DetectionCount int         `json:"detection_count"`
	Timestamp      time.Time   `json:"timestamp"`
}
