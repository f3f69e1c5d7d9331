package models

import "time"

// Staff represents a teaching staff member.
type Staff struct {
	StaffID        string    `db:"staff_id" json:"staff_id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	Specialization string    `db:"specialization" json:"specialization"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	DepartmentID   string    `db:"department_id" json:"department_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StaffFilter encapsulates search parameters for listing staff.
type StaffFilter struct {
	SchoolID     string
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
