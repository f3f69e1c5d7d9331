package models

import "time"

// Subject represents an academic subject offered by a course.
type Subject struct {
	SubjectID       string    `db:"subject_id" json:"subject_id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	SubjectName     string    `db:"subject_name" json:"subject_name"`
	SubType         string    `db:"sub_type" json:"sub_type"`
	SubjectCategory string    `db:"subject_category" json:"subject_category"`
	TheoryCredits   int       `db:"theory_credits" json:"theory_credits"`
	LabCredits      int       `db:"lab_credits" json:"lab_credits"`
	Semester        string    `db:"semester" json:"semester"`
	StaffID         *string   `db:"staff_id" json:"staff_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	CourseID  string
	Category  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
