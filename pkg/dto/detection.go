package dto

import "github.com/google/uuid"

type BoxResponse struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

type DetectionResponse struct {
	ID                 uuid.UUID   `json:"id"`
	MatchID            uuid.UUID   `json:"match_id"`
	Timestamp          float64     `json:"timestamp"`
	ConfidenceScore    float64     `json:"confidence_score"`
	FaceMatchScore     *float64    `json:"face_match_score,omitempty"`
	ClothingMatchScore *float64    `json:"clothing_match_score,omitempty"`
	Box                BoxResponse `json:"detection_box"`
	Method             string      `json:"analysis_method"`
	Verified           bool        `json:"verified"`
	CropURL            string      `json:"crop_url,omitempty"`
	CreatedAt          string      `json:"created_at"`
}
