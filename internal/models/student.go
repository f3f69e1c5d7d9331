package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	RollNumber  string    `db:"roll_number" json:"roll_number"`
	Email       string    `db:"email" json:"email"`
	ClassID     string    `db:"class_id" json:"class_id"`
	SectionID   string    `db:"section_id" json:"section_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates search parameters for listing students.
type StudentFilter struct {
	ClassID   string
	SectionID string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
