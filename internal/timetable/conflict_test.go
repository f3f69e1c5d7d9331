package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uniplan/uniplan-api/internal/models"
)

func teachingSlot(day int, start, staffID string) models.Slot {
	return models.Slot{
		Day:         day,
		StartTime:   start,
		EndTime:     "11:00",
		Semester:    "3",
		CourseID:    "course-a",
		SubjectName: "Operating Systems",
		StaffID:     staffID,
		SlotType:    models.SlotTypeTheory,
	}
}

func TestStaffIDs(t *testing.T) {
	assert.Equal(t, []string{"st1"}, StaffIDs("st1"))
	assert.Equal(t, []string{"st1", "st2"}, StaffIDs("st1,st2"))
	assert.Equal(t, []string{"st1", "st2"}, StaffIDs(" st1 , st2 "))
	assert.Nil(t, StaffIDs(""))
	assert.Nil(t, StaffIDs(" , "))
}

func TestHasStaffConflictDetectsOverlap(t *testing.T) {
	a := teachingSlot(0, "10:00", "st1")
	b := teachingSlot(0, "10:00", "st1,st2")
	b.CourseID = "course-b"
	b.EndTime = "12:00"
	b.Semester = "5"
	b.SubjectName = "Databases"

	all := []models.Slot{a, b}

	// Conflict is symmetric even though end time, semester and course differ.
	assert.True(t, HasStaffConflict(a, all))
	assert.True(t, HasStaffConflict(b, all))
}

func TestHasStaffConflictIgnoresDisjointStaff(t *testing.T) {
	a := teachingSlot(0, "10:00", "st1")
	b := teachingSlot(0, "10:00", "st2,st3")
	b.CourseID = "course-b"

	all := []models.Slot{a, b}
	assert.False(t, HasStaffConflict(a, all))
	assert.False(t, HasStaffConflict(b, all))
}

func TestHasStaffConflictRequiresSameDayAndStart(t *testing.T) {
	a := teachingSlot(0, "10:00", "st1")
	otherDay := teachingSlot(1, "10:00", "st1")
	otherStart := teachingSlot(0, "11:00", "st1")

	assert.False(t, HasStaffConflict(a, []models.Slot{a, otherDay}))
	assert.False(t, HasStaffConflict(a, []models.Slot{a, otherStart}))
}

func TestHasStaffConflictExcludesInactiveSlots(t *testing.T) {
	a := teachingSlot(0, "10:00", "st1")

	free := teachingSlot(0, "10:00", "st1")
	free.SlotType = models.SlotTypeFree

	lunch := teachingSlot(0, "10:00", "st1")
	lunch.SlotType = models.SlotTypeLunch

	unnamed := teachingSlot(0, "10:00", "st1")
	unnamed.SubjectName = ""

	unstaffed := teachingSlot(0, "10:00", "")

	all := []models.Slot{a, free, lunch, unnamed, unstaffed}
	assert.False(t, HasStaffConflict(a, all))
	assert.False(t, HasStaffConflict(free, all))
	assert.False(t, HasStaffConflict(unstaffed, all))
}

func TestHasStaffConflictSkipsItself(t *testing.T) {
	a := teachingSlot(0, "10:00", "st1")
	assert.False(t, HasStaffConflict(a, []models.Slot{a}))
}
