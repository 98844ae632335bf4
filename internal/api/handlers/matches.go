package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/control"
	"github.com/your-org/footwatch/internal/models"
	"github.com/your-org/footwatch/pkg/dto"
)

const (
	matchPageSize = 20
	// maxMatchPage keeps the row offset well inside int range.
	maxMatchPage = 100_000
)

type MatchHandler struct {
	db      Store
	blob    Blob
	scanner Scanner
	control ControlPublisher
}

func NewMatchHandler(db Store, blob Blob, scanner Scanner, control ControlPublisher) *MatchHandler {
	return &MatchHandler{db: db, blob: blob, scanner: scanner, control: control}
}

func (h *MatchHandler) List(c *gin.Context) {
	var q dto.MatchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.MatchStatus(q.Status)
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	page := min(max(q.Page, 1), maxMatchPage)

	ctx := c.Request.Context()
	matches, total, err := h.db.ListMatches(ctx, status, matchPageSize, (page-1)*matchPageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	stats, err := h.db.MatchStats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.MatchListResponse{
		Matches:  toMatchResponses(matches),
		Total:    total,
		Page:     page,
		PageSize: matchPageSize,
		Stats:    toStatsResponse(stats),
	})
}

func (h *MatchHandler) Stats(c *gin.Context) {
	stats, err := h.db.MatchStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toStatsResponse(stats))
}

func (h *MatchHandler) Get(c *gin.Context) {
	match, ok := h.loadMatch(c)
	if !ok {
		return
	}

	detections, err := h.db.ListDetections(c.Request.Context(), match.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.MatchDetailResponse{
		Match:      toMatchResponse(*match),
		Detections: toDetectionResponses(detections),
	})
}

// Reprocess clears the match summary and scans the footage again.
func (h *MatchHandler) Reprocess(c *gin.Context) {
	match, ok := h.loadMatch(c)
	if !ok {
		return
	}

	if match.Status == models.MatchStatusProcessing {
		c.JSON(http.StatusConflict, gin.H{"error": models.ErrMatchProcessing.Error()})
		return
	}

	if h.scanner == nil {
		if _, err := h.db.ResetMatch(c.Request.Context(), match.ID); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, models.ErrMatchProcessing) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		wakeWorker(h.control)
		match.Status = models.MatchStatusPending
		c.JSON(http.StatusAccepted, dto.ScanResponse{Completed: false, Match: toMatchResponse(*match)})
		return
	}

	completed := h.scanner.Reprocess(context.WithoutCancel(c.Request.Context()), match.ID)
	respondScan(c, h.db, match, completed)
}

func (h *MatchHandler) RunPending(c *gin.Context) {
	if h.control == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "control channel unavailable"})
		return
	}
	if err := h.control.PublishControl(control.Command{Action: control.ActionRunPending}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "triggered"})
}

// Delete removes the match, its detections and their crop images.
func (h *MatchHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return
	}

	ctx := c.Request.Context()
	crops, found, err := h.db.DeleteMatch(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}

	if len(crops) > 0 {
		if err := h.blob.DeleteObjects(ctx, crops); err != nil {
			slog.Warn("delete detection crops", "match_id", id, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *MatchHandler) loadMatch(c *gin.Context) (*models.Match, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return nil, false
	}

	match, err := h.db.GetMatch(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if match == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return nil, false
	}
	return match, true
}
