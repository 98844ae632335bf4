package models

import (
	"time"

	"github.com/google/uuid"
)

// Box is a bounding box in frame pixels, stored as {top,right,bottom,left}.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

func (b Box) Width() int  { return b.Right - b.Left }
func (b Box) Height() int { return b.Bottom - b.Top }

// Detection is one piece of evidence found in one sampled frame.
type Detection struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	MatchID            uuid.UUID `json:"match_id" db:"match_id"`
	Timestamp          float64   `json:"timestamp" db:"timestamp"` // seconds into the video
	ConfidenceScore    float64   `json:"confidence_score" db:"confidence_score"`
	FaceMatchScore     *float64  `json:"face_match_score,omitempty" db:"face_match_score"`
	ClothingMatchScore *float64  `json:"clothing_match_score,omitempty" db:"clothing_match_score"`
	Box                Box       `json:"detection_box" db:"detection_box"`
	FramePath          string    `json:"frame_path" db:"frame_path"`
	Method             string    `json:"analysis_method" db:"analysis_method"`
	Signature          []float32 `json:"-" db:"signature"`
	Verified           bool      `json:"verified" db:"verified"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}
