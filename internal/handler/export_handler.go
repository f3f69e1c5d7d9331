package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/uniplan/uniplan-api/internal/models"
	"github.com/uniplan/uniplan-api/internal/service"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
	"github.com/uniplan/uniplan-api/pkg/response"
)

type exportService interface {
	Enqueue(ctx context.Context, sessionID, format string) (*models.ExportJob, error)
	Job(id string) (*models.ExportJob, error)
	Download(token string) (*os.File, string, error)
}

// ExportHandler exposes the asynchronous export endpoints.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Enqueue godoc
// @Summary Queue a background export of a session grid
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param format query string false "csv or pdf (default pdf)"
// @Success 202 {object} response.Envelope
// @Router /timetable/sessions/{id}/exports [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	job, err := h.service.Enqueue(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Fetch the state of a queued export
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.service.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export via its signed token
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} byte
// @Router /timetable/export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, contentType, err := h.service.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+info.Name()+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
