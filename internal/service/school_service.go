package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniplan/uniplan-api/internal/dto"
	"github.com/uniplan/uniplan-api/internal/models"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
)

type hierarchyRepository interface {
	ListSchools(ctx context.Context) ([]models.School, error)
	CreateSchool(ctx context.Context, school *models.School) error
	DeleteSchool(ctx context.Context, id string) error
	ListDepartments(ctx context.Context, schoolID string) ([]models.Department, error)
	CreateDepartment(ctx context.Context, department *models.Department) error
	DeleteDepartment(ctx context.Context, id string) error
	ListCourses(ctx context.Context, departmentID string) ([]models.Course, error)
	FindCourseByID(ctx context.Context, id string) (*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id string) error
	ListClasses(ctx context.Context, courseID string) ([]models.Class, error)
	CreateClass(ctx context.Context, class *models.Class) error
	ListSections(ctx context.Context, classID string) ([]models.Section, error)
	CreateSection(ctx context.Context, section *models.Section) error
}

// SchoolService coordinates the academic hierarchy.
type SchoolService struct {
	repo      hierarchyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService constructs SchoolService.
func NewSchoolService(repo hierarchyRepository, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolService{repo: repo, validator: validate, logger: logger}
}

// ListSchools returns every school.
func (s *SchoolService) ListSchools(ctx context.Context) ([]models.School, error) {
	schools, err := s.repo.ListSchools(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	return schools, nil
}

// CreateSchool registers a new school.
func (s *SchoolService) CreateSchool(ctx context.Context, req dto.CreateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}
	school := &models.School{SchoolName: req.SchoolName}
	if err := s.repo.CreateSchool(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create school")
	}
	s.logger.Info("school created", zap.String("school_id", school.SchoolID))
	return school, nil
}

// DeleteSchool removes a school.
func (s *SchoolService) DeleteSchool(ctx context.Context, id string) error {
	if err := s.repo.DeleteSchool(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete school")
	}
	return nil
}

// ListDepartments returns a school's departments.
func (s *SchoolService) ListDepartments(ctx context.Context, schoolID string) ([]models.Department, error) {
	departments, err := s.repo.ListDepartments(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// CreateDepartment adds a department to a school.
func (s *SchoolService) CreateDepartment(ctx context.Context, schoolID string, req dto.CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	department := &models.Department{SchoolID: schoolID, DepartmentName: req.DepartmentName}
	if err := s.repo.CreateDepartment(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	return department, nil
}

// DeleteDepartment removes a department.
func (s *SchoolService) DeleteDepartment(ctx context.Context, id string) error {
	if err := s.repo.DeleteDepartment(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}
	return nil
}

// ListCourses returns a department's courses.
func (s *SchoolService) ListCourses(ctx context.Context, departmentID string) ([]models.Course, error) {
	courses, err := s.repo.ListCourses(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// CreateCourse adds a course to a department. The owning school id is copied
// onto the course so downstream lookups avoid a join.
func (s *SchoolService) CreateCourse(ctx context.Context, schoolID, departmentID string, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{SchoolID: schoolID, DepartmentID: departmentID, CourseName: req.CourseName}
	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// DeleteCourse removes a course.
func (s *SchoolService) DeleteCourse(ctx context.Context, id string) error {
	if err := s.repo.DeleteCourse(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

// ListClasses returns the semester cohorts of a course.
func (s *SchoolService) ListClasses(ctx context.Context, courseID string) ([]models.Class, error) {
	classes, err := s.repo.ListClasses(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// CreateClass adds a class to a course.
func (s *SchoolService) CreateClass(ctx context.Context, courseID string, req dto.CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := &models.Class{CourseID: courseID, ClassName: req.ClassName, Semester: req.Semester}
	if err := s.repo.CreateClass(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// ListSections returns the sections of a class.
func (s *SchoolService) ListSections(ctx context.Context, classID string) ([]models.Section, error) {
	sections, err := s.repo.ListSections(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// CreateSection adds a section to a class.
func (s *SchoolService) CreateSection(ctx context.Context, classID string, req dto.CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	section := &models.Section{ClassID: classID, SectionName: req.SectionName}
	if err := s.repo.CreateSection(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return section, nil
}
