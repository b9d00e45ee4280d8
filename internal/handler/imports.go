package handler

import (
	"io"
	"net/http"

	"stallsync/internal/apierror"
	"stallsync/internal/middleware"
	"stallsync/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ImportsHandler accepts CSV uploads and hands them to the async worker
// pool. Rows are processed independently; the job result lists per-row
// outcomes and can be polled by job id.
type ImportsHandler struct {
	dispatcher *worker.Dispatcher
	rdb        *redis.Client
}

func NewImportsHandler(dispatcher *worker.Dispatcher, rdb *redis.Client) *ImportsHandler {
	return &ImportsHandler{dispatcher: dispatcher, rdb: rdb}
}

func (h *ImportsHandler) UploadStockCSV(c *gin.Context) {
	siteID := c.PostForm("site_id")
	if _, err := uuid.Parse(siteID); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid site_id"))
		return
	}
	stallID := c.PostForm("stall_id")
	if stallID != "" {
		if _, err := uuid.Parse(stallID); err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid stall_id"))
			return
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("missing file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("unreadable file"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("unreadable file"))
		return
	}

	claims := middleware.GetClaims(c)
	jobID := uuid.NewString()
	payload := worker.ImportJobPayload{
		JobID:     jobID,
		SiteID:    siteID,
		StallID:   stallID,
		ActorID:   claims.UserID,
		ActorName: claims.Name,
		CSV:       string(content),
	}
	if err := h.dispatcher.EnqueueStockImport(c.Request.Context(), payload); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to enqueue import"))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

func (h *ImportsHandler) GetImportResult(c *gin.Context) {
	jobID := c.Param("id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid job id"))
		return
	}
	result, err := worker.FetchImportResult(c.Request.Context(), h.rdb, jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to load import result"))
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"job_id": jobID, "status": "pending"})
		return
	}
	c.JSON(http.StatusOK, result)
}
