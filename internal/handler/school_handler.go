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

type hierarchyService interface {
	ListSchools(ctx context.Context) ([]models.School, error)
	CreateSchool(ctx context.Context, req dto.CreateSchoolRequest) (*models.School, error)
	DeleteSchool(ctx context.Context, id string) error
	ListDepartments(ctx context.Context, schoolID string) ([]models.Department, error)
	CreateDepartment(ctx context.Context, schoolID string, req dto.CreateDepartmentRequest) (*models.Department, error)
	DeleteDepartment(ctx context.Context, id string) error
	ListCourses(ctx context.Context, departmentID string) ([]models.Course, error)
	CreateCourse(ctx context.Context, schoolID, departmentID string, req dto.CreateCourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error
	ListClasses(ctx context.Context, courseID string) ([]models.Class, error)
	CreateClass(ctx context.Context, courseID string, req dto.CreateClassRequest) (*models.Class, error)
	ListSections(ctx context.Context, classID string) ([]models.Section, error)
	CreateSection(ctx context.Context, classID string, req dto.CreateSectionRequest) (*models.Section, error)
}

// SchoolHandler exposes the academic hierarchy endpoints.
type SchoolHandler struct {
	service hierarchyService
}

// NewSchoolHandler constructs the handler.
func NewSchoolHandler(svc *service.SchoolService) *SchoolHandler {
	return &SchoolHandler{service: svc}
}

// ListSchools godoc
// @Summary List schools
// @Tags Hierarchy
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /schools [get]
func (h *SchoolHandler) ListSchools(c *gin.Context) {
	schools, err := h.service.ListSchools(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schools, nil)
}

// CreateSchool godoc
// @Summary Create a school
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateSchoolRequest true "School payload"
// @Success 201 {object} response.Envelope
// @Router /schools [post]
func (h *SchoolHandler) CreateSchool(c *gin.Context) {
	var req dto.CreateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid school payload"))
		return
	}
	school, err := h.service.CreateSchool(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, school)
}

// DeleteSchool godoc
// @Summary Delete a school
// @Tags Hierarchy
// @Security BearerAuth
// @Param id path string true "School ID"
// @Success 204
// @Router /schools/{id} [delete]
func (h *SchoolHandler) DeleteSchool(c *gin.Context) {
	if err := h.service.DeleteSchool(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListDepartments godoc
// @Summary List departments of a school
// @Tags Hierarchy
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{id}/departments [get]
func (h *SchoolHandler) ListDepartments(c *gin.Context) {
	departments, err := h.service.ListDepartments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// CreateDepartment godoc
// @Summary Create a department under a school
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Param payload body dto.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /schools/{id}/departments [post]
func (h *SchoolHandler) CreateDepartment(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid department payload"))
		return
	}
	department, err := h.service.CreateDepartment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department)
}

// DeleteDepartment godoc
// @Summary Delete a department
// @Tags Hierarchy
// @Security BearerAuth
// @Param id path string true "Department ID"
// @Success 204
// @Router /departments/{id} [delete]
func (h *SchoolHandler) DeleteDepartment(c *gin.Context) {
	if err := h.service.DeleteDepartment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCourses godoc
// @Summary List courses of a department
// @Tags Hierarchy
// @Produce json
// @Security BearerAuth
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/courses [get]
func (h *SchoolHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// CreateCourse godoc
// @Summary Create a course under a department
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Department ID"
// @Param school_id query string true "Owning school ID"
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /departments/{id}/courses [post]
func (h *SchoolHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	schoolID := c.Query("school_id")
	if schoolID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing school_id"))
		return
	}
	course, err := h.service.CreateCourse(c.Request.Context(), schoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// DeleteCourse godoc
// @Summary Delete a course
// @Tags Hierarchy
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *SchoolHandler) DeleteCourse(c *gin.Context) {
	if err := h.service.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListClasses godoc
// @Summary List classes of a course
// @Tags Hierarchy
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/classes [get]
func (h *SchoolHandler) ListClasses(c *gin.Context) {
	classes, err := h.service.ListClasses(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// CreateClass godoc
// @Summary Create a class under a course
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/classes [post]
func (h *SchoolHandler) CreateClass(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	class, err := h.service.CreateClass(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// ListSections godoc
// @Summary List sections of a class
// @Tags Hierarchy
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/sections [get]
func (h *SchoolHandler) ListSections(c *gin.Context) {
	sections, err := h.service.ListSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// CreateSection godoc
// @Summary Create a section under a class
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body dto.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/sections [post]
func (h *SchoolHandler) CreateSection(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}
	section, err := h.service.CreateSection(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}
