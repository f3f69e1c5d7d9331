package dto

// CreateSchoolRequest describes payload for registering a school.
type CreateSchoolRequest struct {
	SchoolName string `json:"school_name" validate:"required,min=2,max=150"`
}

// CreateDepartmentRequest describes payload for adding a department to a school.
type CreateDepartmentRequest struct {
	DepartmentName string `json:"department_name" validate:"required,min=2,max=150"`
}

// CreateCourseRequest describes payload for adding a course to a department.
type CreateCourseRequest struct {
	CourseName string `json:"course_name" validate:"required,min=2,max=150"`
}

// CreateClassRequest describes payload for adding a semester cohort to a course.
type CreateClassRequest struct {
	ClassName string `json:"class_name" validate:"required,min=1,max=150"`
	Semester  string `json:"semester" validate:"required,min=1,max=2"`
}

// CreateSectionRequest describes payload for subdividing a class.
type CreateSectionRequest struct {
	SectionName string `json:"section_name" validate:"required,min=1,max=50"`
}
