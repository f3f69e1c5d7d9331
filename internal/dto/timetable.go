package dto

import (
	"github.com/uniplan/uniplan-api/internal/models"
	"github.com/uniplan/uniplan-api/internal/timetable"
)

// AllocationRequest captures one subject-staff pairing in the allocation step.
// Staff fields stay optional; pairings without a staff id are incomplete and
// are dropped before anything is persisted.
type AllocationRequest struct {
	SubjectID     string `json:"subject_id" validate:"required"`
	SubjectName   string `json:"subject_name" validate:"required"`
	StaffID       string `json:"staff_id"`
	StaffName     string `json:"staff_name"`
	CourseID      string `json:"course_id" validate:"required"`
	TheoryCredits int    `json:"theory_credits" validate:"min=0"`
	LabCredits    int    `json:"lab_credits" validate:"min=0"`
}

// AllocateRequest submits subject-staff allocations together with the working
// day shape.
type AllocateRequest struct {
	SchoolID     string              `json:"school_id" validate:"required"`
	DepartmentID string              `json:"department_id" validate:"required"`
	Allocations  []AllocationRequest `json:"allocations" validate:"required,dive"`
	TimeConfig   models.TimeConfig   `json:"timeConfig" validate:"required"`
}

// AllocateResponse reports how many allocations were accepted.
type AllocateResponse struct {
	Accepted int `json:"accepted"`
	Skipped  int `json:"skipped"`
}

// AllocationSheet seeds the subject-staff pairing table: the department's
// subject catalog plus any pairings stored earlier.
type AllocationSheet struct {
	Subjects    []models.Subject    `json:"subjects"`
	Allocations []models.Allocation `json:"allocations"`
}

// GenerateRequest asks the engine to build timetables for a department.
type GenerateRequest struct {
	SchoolID     string            `json:"school_id" validate:"required"`
	DepartmentID string            `json:"department_id" validate:"required"`
	SemesterType string            `json:"semesterType" validate:"required,oneof=odd even"`
	TimeConfig   models.TimeConfig `json:"timeConfig" validate:"required"`
}

// GenerateResponse returns the editing session handle plus the indexed grid.
type GenerateResponse struct {
	SessionID string                  `json:"session_id"`
	ExpiresAt string                  `json:"expires_at"`
	Tables    []timetable.CourseTable `json:"tables"`
}

// SessionGridResponse is the rendered grid for an editing session with the
// overlay applied.
type SessionGridResponse struct {
	SessionID string                  `json:"session_id"`
	ExpiresAt string                  `json:"expires_at"`
	Tables    []timetable.CourseTable `json:"tables"`
}

// EditCellRequest replaces the contents of one grid cell.
type EditCellRequest struct {
	Day         string `json:"day" validate:"required"`
	TimeSlot    string `json:"time_slot" validate:"required"`
	Semester    string `json:"semester" validate:"required"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	StaffID     string `json:"staff_id"`
	StaffName   string `json:"staff_name"`
	SlotType    string `json:"slot_type" validate:"omitempty,oneof=theory lab free lunch ge minor"`
}

// SaveTimetableRequest persists a session's post-overlay timetable under an
// operator-supplied name. Saving the same name again overwrites.
type SaveTimetableRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Name      string `json:"name" validate:"required,min=1,max=150"`
}

// GeneratedQuery filters persisted generation results.
type GeneratedQuery struct {
	SchoolID     string `form:"school_id" json:"school_id" validate:"required"`
	DepartmentID string `form:"department_id" json:"department_id" validate:"required"`
	SemesterType string `form:"semesterType" json:"semesterType" validate:"required,oneof=odd even"`
}
