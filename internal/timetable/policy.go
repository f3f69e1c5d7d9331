package timetable

import "github.com/uniplan/uniplan-api/internal/models"

// FirstYearGE reports whether a semester is governed by the first-year rule:
// semesters 1 and 2 always show Generic Elective in the GE window, regardless
// of what the engine produced for that cell.
func FirstYearGE(semester string) bool {
	return semester == "1" || semester == "2"
}

// SyntheticGESlot builds the slot rendered for a first-year GE cell.
func SyntheticGESlot(day int, start, end, semester, courseID string) models.Slot {
	return models.Slot{
		Day:         day,
		StartTime:   start,
		EndTime:     end,
		Semester:    semester,
		CourseID:    courseID,
		SubjectName: "Generic Elective",
		SlotType:    models.SlotTypeGE,
	}
}
