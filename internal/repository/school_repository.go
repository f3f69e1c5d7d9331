package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniplan/uniplan-api/internal/models"
)

// SchoolRepository handles persistence for the academic hierarchy: schools,
// departments, courses, classes and sections.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository creates a new repository instance.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// ListSchools returns all schools ordered by name.
func (r *SchoolRepository) ListSchools(ctx context.Context) ([]models.School, error) {
	const query = `SELECT school_id, school_name, created_at FROM schools ORDER BY school_name`
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// CreateSchool persists a new school.
func (r *SchoolRepository) CreateSchool(ctx context.Context, school *models.School) error {
	if school.SchoolID == "" {
		school.SchoolID = uuid.NewString()
	}
	if school.CreatedAt.IsZero() {
		school.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO schools (school_id, school_name, created_at) VALUES (:school_id, :school_name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

// DeleteSchool removes a school and cascades to its descendants.
func (r *SchoolRepository) DeleteSchool(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schools WHERE school_id = $1`, id); err != nil {
		return fmt.Errorf("delete school: %w", err)
	}
	return nil
}

// ListDepartments returns departments belonging to a school.
func (r *SchoolRepository) ListDepartments(ctx context.Context, schoolID string) ([]models.Department, error) {
	const query = `SELECT department_id, school_id, department_name, created_at FROM departments WHERE school_id = $1 ORDER BY department_name`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, schoolID); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// CreateDepartment persists a new department under a school.
func (r *SchoolRepository) CreateDepartment(ctx context.Context, department *models.Department) error {
	if department.DepartmentID == "" {
		department.DepartmentID = uuid.NewString()
	}
	if department.CreatedAt.IsZero() {
		department.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO departments (department_id, school_id, department_name, created_at) VALUES (:department_id, :school_id, :department_name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// DeleteDepartment removes a department.
func (r *SchoolRepository) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE department_id = $1`, id); err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return nil
}

// ListCourses returns courses belonging to a department.
func (r *SchoolRepository) ListCourses(ctx context.Context, departmentID string) ([]models.Course, error) {
	const query = `SELECT course_id, department_id, school_id, course_name, created_at FROM courses WHERE department_id = $1 ORDER BY course_name`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, departmentID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindCourseByID returns a course by id, nil when it does not exist.
func (r *SchoolRepository) FindCourseByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT course_id, department_id, school_id, course_name, created_at FROM courses WHERE course_id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// CreateCourse persists a new course under a department.
func (r *SchoolRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.CourseID == "" {
		course.CourseID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (course_id, department_id, school_id, course_name, created_at) VALUES (:course_id, :department_id, :school_id, :course_name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// DeleteCourse removes a course.
func (r *SchoolRepository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE course_id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// ListClasses returns semester cohorts for a course.
func (r *SchoolRepository) ListClasses(ctx context.Context, courseID string) ([]models.Class, error) {
	const query = `SELECT class_id, course_id, class_name, semester, created_at FROM classes WHERE course_id = $1 ORDER BY semester, class_name`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, courseID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// CreateClass persists a new class under a course.
func (r *SchoolRepository) CreateClass(ctx context.Context, class *models.Class) error {
	if class.ClassID == "" {
		class.ClassID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (class_id, course_id, class_name, semester, created_at) VALUES (:class_id, :course_id, :class_name, :semester, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// ListSections returns the sections of a class.
func (r *SchoolRepository) ListSections(ctx context.Context, classID string) ([]models.Section, error) {
	const query = `SELECT section_id, class_id, section_name, created_at FROM sections WHERE class_id = $1 ORDER BY section_name`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, classID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// CreateSection persists a new section under a class.
func (r *SchoolRepository) CreateSection(ctx context.Context, section *models.Section) error {
	if section.SectionID == "" {
		section.SectionID = uuid.NewString()
	}
	if section.CreatedAt.IsZero() {
		section.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sections (section_id, class_id, section_name, created_at) VALUES (:section_id, :class_id, :section_name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}
