package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/matching"
	"github.com/your-org/footwatch/pkg/dto"
)

type FootageHandler struct {
	matcher Matcher
	control ControlPublisher
}

func NewFootageHandler(matcher Matcher, control ControlPublisher) *FootageHandler {
	return &FootageHandler{matcher: matcher, control: control}
}

func (h *FootageHandler) Match(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid footage id"})
		return
	}

	created, err := h.matcher.MatchNewFootage(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, matching.ErrFootageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "footage not found"})
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
