package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"beatflow/backend/internal/models"
)

// createReportRequest is the intake payload. Exactly one target
// reference must be set.
type createReportRequest struct {
	CommentID  *string `json:"commentId"`
	RatingID   *string `json:"ratingId"`
	PlaylistID *string `json:"playlistId"`
	ReporterID string  `json:"reporterId" binding:"required"`
	AuthorID   string  `json:"authorId" binding:"required"`
}

func (r *createReportRequest) targetCount() int {
	count := 0
	for _, id := range []*string{r.CommentID, r.RatingID, r.PlaylistID} {
		if id != nil && *id != "" {
			count++
		}
	}
	return count
}

// CreateReport persists a report in state Checking and fires the
// immediate processing path. The response never waits for the verdict;
// deferred reports are picked up by the sweep.
func (h *Handler) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.targetCount() != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of commentId, ratingId, playlistId is required"})
		return
	}
	if req.ReporterID == req.AuthorID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you cannot report your own content"})
		return
	}

	report := &models.ModerationReport{
		CommentID:  req.CommentID,
		RatingID:   req.RatingID,
		PlaylistID: req.PlaylistID,
		ReporterID: req.ReporterID,
		AuthorID:   req.AuthorID,
	}
	if err := h.Storage.CreateReport(report); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
		return
	}

	// Immediate path; the sweep races for the same lock later if this
	// attempt is deferred.
	go h.Pipeline.ProcessReport(context.Background(), report.ID)

	c.JSON(http.StatusCreated, gin.H{"id": report.ID, "state": report.State})
}

// GetReport returns the current state of one report.
func (h *Handler) GetReport(c *gin.Context) {
	report, err := h.Storage.GetReportByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// QuotaStatus exposes the classifier quota snapshot for operators.
func (h *Handler) QuotaStatus(c *gin.Context) {
	st := h.Quota.Status(c.Request.Context())
	if st == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quota status unavailable"})
		return
	}
	c.JSON(http.StatusOK, st)
}
