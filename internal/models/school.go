package models

import "time"

// School is the root of the academic hierarchy.
type School struct {
	SchoolID   string    `db:"school_id" json:"school_id"`
	SchoolName string    `db:"school_name" json:"school_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Department belongs to a school.
type Department struct {
	DepartmentID   string    `db:"department_id" json:"department_id"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	DepartmentName string    `db:"department_name" json:"department_name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Course belongs to a department. School and department keys are carried so
// the save-payload builder can resolve them without extra joins.
type Course struct {
	CourseID     string    `db:"course_id" json:"course_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	CourseName   string    `db:"course_name" json:"course_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Class is one semester cohort within a course.
type Class struct {
	ClassID   string    `db:"class_id" json:"class_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	ClassName string    `db:"class_name" json:"class_name"`
	Semester  string    `db:"semester" json:"semester"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Section subdivides a class.
type Section struct {
	SectionID   string    `db:"section_id" json:"section_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	SectionName string    `db:"section_name" json:"section_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
