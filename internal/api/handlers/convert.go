package handlers

import (
	"fmt"
	"time"

	"github.com/your-org/footwatch/internal/models"
	"github.com/your-org/footwatch/pkg/dto"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func toMatchResponse(m models.Match) dto.MatchResponse {
	return dto.MatchResponse{
		ID:                  m.ID,
		CaseID:              m.CaseID,
		FootageID:           m.FootageID,
		MatchScore:          m.MatchScore,
		DistanceKM:          m.DistanceKM,
		MatchType:           string(m.MatchType),
		Status:              string(m.Status),
		PersonFound:         m.PersonFound,
		ConfidenceScore:     m.ConfidenceScore,
		DetectionCount:      m.DetectionCount,
		AnalysisStartedAt:   formatOptionalTime(m.AnalysisStartedAt),
		AnalysisCompletedAt: formatOptionalTime(m.AnalysisCompletedAt),
		CreatedAt:           formatTime(m.CreatedAt),
	}
}

func toMatchResponses(matches []models.Match) []dto.MatchResponse {
	resp := make([]dto.MatchResponse, 0, len(matches))
	for _, m := range matches {
		resp = append(resp, toMatchResponse(m))
	}
	return resp
}

func toDetectionResponse(d models.Detection) dto.DetectionResponse {
	resp := dto.DetectionResponse{
		ID:                 d.ID,
		MatchID:            d.MatchID,
		Timestamp:          d.Timestamp,
		ConfidenceScore:    d.ConfidenceScore,
		FaceMatchScore:     d.FaceMatchScore,
		ClothingMatchScore: d.ClothingMatchScore,
		Box: dto.BoxResponse{
			Top:    d.Box.Top,
			Right:  d.Box.Right,
			Bottom: d.Box.Bottom,
			Left:   d.Box.Left,
		},
		Method:    d.Method,
		Verified:  d.Verified,
		CreatedAt: formatTime(d.CreatedAt),
	}
	if d.FramePath != "" {
		resp.CropURL = fmt.Sprintf("/v1/detections/%s/crop", d.ID)
	}
	return resp
}

func toDetectionResponses(detections []models.Detection) []dto.DetectionResponse {
	resp := make([]dto.DetectionResponse, 0, len(detections))
	for _, d := range detections {
		resp = append(resp, toDetectionResponse(d))
	}
	return resp
}

func toFootageResponse(f models.Footage) dto.FootageResponse {
	return dto.FootageResponse{
		ID:              f.ID,
		Title:           f.Title,
		LocationName:    f.LocationName,
		Latitude:        f.Latitude,
		Longitude:       f.Longitude,
		DurationSeconds: f.DurationSeconds,
		FPS:             f.FPS,
		IsProcessed:     f.IsProcessed,
		CreatedAt:       formatTime(f.CreatedAt),
	}
}

func toStatsResponse(s models.MatchStats) dto.MatchStatsResponse {
	return dto.MatchStatsResponse{
		Total:       s.Total,
		PersonFound: s.PersonFound,
		Pending:     s.Pending,
		Processing:  s.Processing,
		Completed:   s.Completed,
		Failed:      s.Failed,
	}
}

// ToWSEvent converts a lifecycle event for WebSocket delivery.
func ToWSEvent(evt models.MatchEvent) *dto.WSEvent {
	return &dto.WSEvent{
		Type:           "match_" + string(evt.Status),
		MatchID:        evt.MatchID,
		CaseID:         evt.CaseID,
		FootageID:      evt.FootageID,
		Status:         string(evt.Status),
		PersonFound:    evt.PersonFound,
		Confidence:     evt.Confidence,
		DetectionCount: evt.DetectionCount,
		Timestamp:      formatTime(evt.Timestamp),
	}
}
