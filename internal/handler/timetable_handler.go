package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniplan/uniplan-api/internal/dto"
	"github.com/uniplan/uniplan-api/internal/models"
	"github.com/uniplan/uniplan-api/internal/service"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
	"github.com/uniplan/uniplan-api/pkg/response"
)

type timetableService interface {
	Allocate(ctx context.Context, req dto.AllocateRequest) (*dto.AllocateResponse, error)
	AllocationSheet(ctx context.Context, schoolID, departmentID string) (*dto.AllocationSheet, error)
	Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error)
	Generated(ctx context.Context, query dto.GeneratedQuery) (models.SlotSet, error)
	Grid(ctx context.Context, sessionID string) (*dto.SessionGridResponse, error)
	EditCell(ctx context.Context, sessionID string, req dto.EditCellRequest) (*dto.SessionGridResponse, error)
	Save(ctx context.Context, req dto.SaveTimetableRequest) (*models.SavedTimetable, error)
	ListSaved(ctx context.Context) ([]models.SavedTimetable, error)
	GetSaved(ctx context.Context, id string) (*models.SavedTimetable, error)
	Export(ctx context.Context, sessionID, format string) ([]byte, string, error)
}

// TimetableHandler exposes allocation, generation, editing and save endpoints.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Allocate godoc
// @Summary Submit subject-staff allocations for a department
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AllocateRequest true "Allocation payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/allocate [post]
func (h *TimetableHandler) Allocate(c *gin.Context) {
	var req dto.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid allocation payload"))
		return
	}
	resp, err := h.service.Allocate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Allocations godoc
// @Summary List a department's subject catalog and stored pairings
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param school_id query string true "School ID"
// @Param department_id query string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/allocations [get]
func (h *TimetableHandler) Allocations(c *gin.Context) {
	sheet, err := h.service.AllocationSheet(c.Request.Context(), c.Query("school_id"), c.Query("department_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Generate godoc
// @Summary Generate timetables and open an editing session
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	resp, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Generated godoc
// @Summary Fetch the last persisted generation result
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param school_id query string true "School ID"
// @Param department_id query string true "Department ID"
// @Param semesterType query string true "odd or even"
// @Success 200 {object} response.Envelope
// @Router /timetable/generated [get]
func (h *TimetableHandler) Generated(c *gin.Context) {
	var query dto.GeneratedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generated query"))
		return
	}
	set, err := h.service.Generated(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, set, nil)
}

// Grid godoc
// @Summary Render an editing session's grid with edits applied
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/sessions/{id} [get]
func (h *TimetableHandler) Grid(c *gin.Context) {
	resp, err := h.service.Grid(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// EditCell godoc
// @Summary Replace the contents of one grid cell
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param payload body dto.EditCellRequest true "Cell edit payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/sessions/{id}/cells [put]
func (h *TimetableHandler) EditCell(c *gin.Context) {
	var req dto.EditCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cell edit payload"))
		return
	}
	resp, err := h.service.EditCell(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Export godoc
// @Summary Export a session's grid as CSV or PDF
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param format query string false "csv or pdf (default pdf)"
// @Success 200 {file} byte
// @Router /timetable/sessions/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	data, contentType, err := h.service.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "pdf"
	if contentType == "text/csv" {
		ext = "csv"
	}
	c.Header("Content-Disposition", `attachment; filename="timetable.`+ext+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// Save godoc
// @Summary Persist a session's timetable and close the session
// @Tags SavedTimetables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SaveTimetableRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Router /saved-timetables/save [post]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	saved, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// ListSaved godoc
// @Summary List saved timetables
// @Tags SavedTimetables
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /saved-timetables [get]
func (h *TimetableHandler) ListSaved(c *gin.Context) {
	saved, err := h.service.ListSaved(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}

// GetSaved godoc
// @Summary Fetch one saved timetable with its payload
// @Tags SavedTimetables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Saved timetable ID"
// @Success 200 {object} response.Envelope
// @Router /saved-timetables/{id} [get]
func (h *TimetableHandler) GetSaved(c *gin.Context) {
	saved, err := h.service.GetSaved(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}
