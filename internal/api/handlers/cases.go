package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/control"
	"github.com/your-org/footwatch/internal/matching"
	"github.com/your-org/footwatch/internal/models"
	"github.com/your-org/footwatch/pkg/dto"
)

// highConfidence is the detection confidence counted as high in case analysis.
const highConfidence = 0.7

type CaseHandler struct {
	db      Store
	matcher Matcher
	scanner Scanner
	control ControlPublisher
}

// NewCaseHandler builds the case endpoints. scanner and control may be nil;
// manual assignment then leaves the scan to the worker.
func NewCaseHandler(db Store, matcher Matcher, scanner Scanner, control ControlPublisher) *CaseHandler {
	return &CaseHandler{db: db, matcher: matcher, scanner: scanner, control: control}
}

func (h *CaseHandler) Match(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return
	}

	created, err := h.matcher.MatchNewCase(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, matching.ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if created > 0 {
		wakeWorker(h.control)
	}

	c.JSON(http.StatusOK, dto.MatchesCreatedResponse{MatchesCreated: created})
}

func (h *CaseHandler) NearbyFootage(c *gin.Context) {
	kase, ok := h.loadCase(c)
	if !ok {
		return
	}

	footage, err := h.matcher.FindNearbyFootage(c.Request.Context(), kase.LastSeenLocation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.NearbyFootageResponse{
		CaseID:     kase.ID,
		Location:   kase.LastSeenLocation,
		Footage:    make([]dto.FootageResponse, 0, len(footage)),
		CanApprove: len(footage) > 0,
	}
	for _, f := range footage {
		resp.Footage = append(resp.Footage, toFootageResponse(f))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CaseHandler) Analysis(c *gin.Context) {
	kase, ok := h.loadCase(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	matches, err := h.db.ListMatchesByCase(ctx, kase.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	detections, err := h.db.ListCaseDetections(ctx, kase.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats := dto.CaseAnalysisStats{
		TotalMatches:    len(matches),
		TotalDetections: len(detections),
	}
	for _, m := range matches {
		if m.PersonFound {
			stats.SuccessfulMatches++
		}
		switch m.Status {
		case models.MatchStatusProcessing:
			stats.Processing++
		case models.MatchStatusPending:
			stats.Pending++
		}
	}
	for _, d := range detections {
		if d.ConfidenceScore > highConfidence {
			stats.HighConfidence++
		}
	}

	c.JSON(http.StatusOK, dto.CaseAnalysisResponse{
		CaseID:     kase.ID,
		PersonName: kase.PersonName,
		Matches:    toMatchResponses(matches),
		Detections: toDetectionResponses(detections),
		Stats:      stats,
	})
}

// Assign pairs a case with operator-chosen footage and scans it at once.
func (h *CaseHandler) Assign(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return
	}
	footageID, err := uuid.Parse(c.Param("footageId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid footage id"})
		return
	}

	match, err := h.matcher.AssignManual(c.Request.Context(), caseID, footageID)
	switch {
	case errors.Is(err, matching.ErrCaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	case errors.Is(err, matching.ErrFootageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "footage not found"})
		return
	case errors.Is(err, models.ErrMatchProcessing):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.scanner == nil {
		wakeWorker(h.control)
		c.JSON(http.StatusAccepted, dto.ScanResponse{Completed: false, Match: toMatchResponse(*match)})
		return
	}

	completed := h.scanner.Run(context.WithoutCancel(c.Request.Context()), match.ID)
	respondScan(c, h.db, match, completed)
}

func (h *CaseHandler) loadCase(c *gin.Context) (*models.Case, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return nil, false
	}

	kase, err := h.db.GetCase(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if kase == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return nil, false
	}
	return kase, true
}

// respondScan reloads the match after a synchronous scan so the response
// carries the final summary.
func respondScan(c *gin.Context, db Store, match *models.Match, completed bool) {
	fresh, err := db.GetMatch(c.Request.Context(), match.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if fresh != nil {
		match = fresh
	}
	c.JSON(http.StatusOK, dto.ScanResponse{Completed: completed, Match: toMatchResponse(*match)})
}

// wakeWorker asks the worker's scheduler to pick up pending matches now.
func wakeWorker(pub ControlPublisher) {
	if pub == nil {
		return
	}
	if err := pub.PublishControl(control.Command{Action: control.ActionRunPending}); err != nil {
		slog.Warn("publish run_pending", "error", err)
	}
}
