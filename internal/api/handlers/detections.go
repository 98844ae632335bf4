package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/storage"
)

type DetectionHandler struct {
	db   Store
	blob Blob
}

func NewDetectionHandler(db Store, blob Blob) *DetectionHandler {
	return &DetectionHandler{db: db, blob: blob}
}

// Crop serves the JPEG crop of a detection.
func (h *DetectionHandler) Crop(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid detection id"})
		return
	}

	d, err := h.db.GetDetection(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if d == nil || d.FramePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "crop not found"})
		return
	}

	data, err := h.blob.GetObject(c.Request.Context(), d.FramePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "crop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/jpeg", data)
}
