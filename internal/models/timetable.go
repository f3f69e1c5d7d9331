package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SlotType classifies what occupies a period.
type SlotType string

const (
	SlotTypeTheory SlotType = "theory"
	SlotTypeLab    SlotType = "lab"
	SlotTypeFree   SlotType = "free"
	SlotTypeLunch  SlotType = "lunch"
	SlotTypeGE     SlotType = "ge"
	SlotTypeMinor  SlotType = "minor"
)

// Slot is one scheduled (or free/lunch) period as produced by the generation
// engine. Slots are immutable once received; manual edits live in the session
// overlay and never mutate the originals.
type Slot struct {
	Day             int      `db:"day" json:"day"`
	StartTime       string   `db:"start_time" json:"start_time"`
	EndTime         string   `db:"end_time" json:"end_time"`
	Semester        string   `db:"semester" json:"semester"`
	CourseID        string   `db:"course_id" json:"course_id"`
	SubjectID       string   `db:"subject_id" json:"subject_id,omitempty"`
	SubjectName     string   `db:"subject_name" json:"subject_name,omitempty"`
	StaffID         string   `db:"staff_id" json:"staff_id,omitempty"`
	StaffName       string   `db:"staff_name" json:"staff_name,omitempty"`
	SlotType        SlotType `db:"slot_type" json:"slot_type"`
	SubjectCategory string   `db:"subject_category" json:"subject_category,omitempty"`
}

// TimeLabel returns the "start-end" column label for the slot.
func (s Slot) TimeLabel() string {
	return s.StartTime + "-" + s.EndTime
}

// SlotSet groups slots by their "{courseID}-{semester}" key. This is the
// normalised shape every consumer works with; the engine boundary produces it
// exactly once.
type SlotSet map[string][]Slot

// GroupKey builds the course-semester grouping key.
func GroupKey(courseID, semester string) string {
	return courseID + "-" + semester
}

// SplitGroupKey splits a grouping key into course id and semester. The
// semester is the suffix after the last dash so that course ids containing
// dashes (UUIDs) survive the round trip.
func SplitGroupKey(key string) (courseID, semester string) {
	idx := strings.LastIndex(key, "-")
	if idx < 0 {
		return key, ""
	}
	return key[:idx], key[idx+1:]
}

// GroupSlots indexes a flat slot list by course-semester key.
func GroupSlots(slots []Slot) SlotSet {
	set := make(SlotSet)
	for _, slot := range slots {
		key := GroupKey(slot.CourseID, slot.Semester)
		set[key] = append(set[key], slot)
	}
	return set
}

// Flatten returns every slot across all groups.
func (s SlotSet) Flatten() []Slot {
	var out []Slot
	for _, slots := range s {
		out = append(out, slots...)
	}
	return out
}

// Allocation maps one subject to the staff member teaching it. An allocation
// is complete only once StaffID is set; incomplete allocations are excluded
// from allocate/generate payloads.
type Allocation struct {
	ID            string    `db:"id" json:"id"`
	SchoolID      string    `db:"school_id" json:"school_id"`
	DepartmentID  string    `db:"department_id" json:"department_id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	SubjectName   string    `db:"subject_name" json:"subject_name"`
	StaffID       *string   `db:"staff_id" json:"staff_id"`
	StaffName     *string   `db:"staff_name" json:"staff_name"`
	TheoryCredits int       `db:"theory_credits" json:"theory_credits"`
	LabCredits    int       `db:"lab_credits" json:"lab_credits"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Complete reports whether a staff member has been assigned.
func (a Allocation) Complete() bool {
	return a.StaffID != nil && *a.StaffID != ""
}

// TimeConfig carries the working-day shape forwarded to the generation engine
// and used locally to synthesize the GE column. All times are "HH:MM".
type TimeConfig struct {
	WorkingDays    int    `json:"workingDays" validate:"required,min=1,max=7"`
	DayStart       string `json:"dayStart" validate:"required,hhmm"`
	DayEnd         string `json:"dayEnd" validate:"required,hhmm"`
	LunchStart     string `json:"lunchStart" validate:"required,hhmm"`
	LunchEnd       string `json:"lunchEnd" validate:"required,hhmm"`
	GEStart        string `json:"geStart" validate:"omitempty,hhmm"`
	GEEnd          string `json:"geEnd" validate:"omitempty,hhmm"`
	TheoryDuration int    `json:"theoryDuration" validate:"required,min=1"`
	LabDuration    int    `json:"labDuration" validate:"required,min=1"`
}

// SemesterType selects the odd (1,3,5,7) or even (2,4,6,8) cohort.
const (
	SemesterTypeOdd  = "odd"
	SemesterTypeEven = "even"
)

// SavedSlot is the persisted slot record inside a saved timetable. Unlike the
// in-memory Slot it carries the weekday name instead of a numeric index.
type SavedSlot struct {
	Day             string   `json:"day"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	Semester        string   `json:"semester"`
	CourseID        string   `json:"course_id"`
	SubjectID       string   `json:"subject_id,omitempty"`
	SubjectName     string   `json:"subject_name,omitempty"`
	StaffID         string   `json:"staff_id,omitempty"`
	StaffName       string   `json:"staff_name,omitempty"`
	SlotType        SlotType `json:"slot_type"`
	SubjectCategory string   `json:"subject_category,omitempty"`
}

// SavedTimetable is an upserted snapshot keyed by operator-supplied name.
type SavedTimetable struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	CourseID      string         `db:"course_id" json:"course_id"`
	DepartmentID  string         `db:"department_id" json:"department_id"`
	SchoolID      string         `db:"school_id" json:"school_id"`
	CourseName    string         `db:"course_name" json:"course_name"`
	TimetableData types.JSONText `db:"timetable_data" json:"timetable_data"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// GeneratedBatch identifies one persisted generation result.
type GeneratedBatch struct {
	SchoolID     string `db:"school_id"`
	DepartmentID string `db:"department_id"`
	SemesterType string `db:"semester_type"`
}

// CacheKey returns the redis key for a generated batch.
func (b GeneratedBatch) CacheKey() string {
	return fmt.Sprintf("timetable:generated:%s:%s:%s", b.SchoolID, b.DepartmentID, b.SemesterType)
}

// GeneratedCachePattern matches every cached generation result for a
// department, across semester types. Used to invalidate stale results when
// the department's allocations change.
func GeneratedCachePattern(schoolID, departmentID string) string {
	return fmt.Sprintf("timetable:generated:%s:%s:*", schoolID, departmentID)
}
