package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniplan/uniplan-api/internal/models"
)

func testTimeConfig() models.TimeConfig {
	return models.TimeConfig{
		WorkingDays:    5,
		DayStart:       "10:00",
		DayEnd:         "18:30",
		LunchStart:     "13:00",
		LunchEnd:       "14:00",
		GEStart:        "17:30",
		GEEnd:          "18:30",
		TheoryDuration: 60,
		LabDuration:    120,
	}
}

func gridSlot(courseID, semester string, day int, start, end, subject, staffID string) models.Slot {
	return models.Slot{
		Day:         day,
		StartTime:   start,
		EndTime:     end,
		Semester:    semester,
		CourseID:    courseID,
		SubjectName: subject,
		StaffID:     staffID,
		SlotType:    models.SlotTypeTheory,
	}
}

func TestBuildCourseTablesPlacesEverySlot(t *testing.T) {
	set := models.SlotSet{
		"course-a-3": {
			gridSlot("course-a", "3", 0, "10:00", "11:00", "Operating Systems", "st1"),
			gridSlot("course-a", "3", 2, "11:00", "12:00", "Networks", "st2"),
		},
		"course-a-5": {
			gridSlot("course-a", "5", 0, "10:00", "11:00", "Compilers", "st3"),
		},
	}

	tables := BuildCourseTables(set, testTimeConfig(), nil)
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, "course-a", table.CourseID)
	assert.Equal(t, []string{"3", "5"}, table.Semesters)

	cell := table.Grid["Monday"]["10:00-11:00"]["3"]
	require.Len(t, cell.Slots, 1)
	assert.Equal(t, "Operating Systems", cell.Slots[0].SubjectName)

	cell = table.Grid["Wednesday"]["11:00-12:00"]["3"]
	require.Len(t, cell.Slots, 1)
	assert.Equal(t, "Networks", cell.Slots[0].SubjectName)

	// Cells the engine produced nothing for stay empty.
	assert.Empty(t, table.Grid["Friday"]["10:00-11:00"]["3"].Slots)
	assert.Empty(t, table.Grid["Wednesday"]["11:00-12:00"]["5"].Slots)
}

func TestBuildCourseTablesSortsCourses(t *testing.T) {
	set := models.SlotSet{
		"course-b-3": {gridSlot("course-b", "3", 0, "10:00", "11:00", "Algebra", "st1")},
		"course-a-3": {gridSlot("course-a", "3", 0, "10:00", "11:00", "Physics", "st2")},
	}

	tables := BuildCourseTables(set, testTimeConfig(), nil)
	require.Len(t, tables, 2)
	assert.Equal(t, "course-a", tables[0].CourseID)
	assert.Equal(t, "course-b", tables[1].CourseID)
}

func TestBuildCourseTablesAppendsGEColumnOnce(t *testing.T) {
	set := models.SlotSet{
		"course-a-3": {
			gridSlot("course-a", "3", 0, "10:00", "11:00", "Operating Systems", "st1"),
			// Engine already produced a slot inside the GE window.
			gridSlot("course-a", "3", 1, "17:30", "18:30", "Seminar", "st2"),
		},
	}

	tables := BuildCourseTables(set, testTimeConfig(), nil)
	require.Len(t, tables, 1)

	count := 0
	for _, label := range tables[0].TimeSlots {
		if label == "17:30-18:30" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBuildCourseTablesSynthesizesFirstYearGE(t *testing.T) {
	set := models.SlotSet{
		"course-a-1": {gridSlot("course-a", "1", 0, "10:00", "11:00", "Calculus", "st1")},
		"course-a-3": {gridSlot("course-a", "3", 0, "10:00", "11:00", "Networks", "st2")},
	}

	tables := BuildCourseTables(set, testTimeConfig(), nil)
	require.Len(t, tables, 1)
	table := tables[0]

	for _, day := range Weekdays {
		cell := table.Grid[day]["17:30-18:30"]["1"]
		require.Len(t, cell.Slots, 1, "semester 1 GE cell on %s", day)
		assert.Equal(t, "Generic Elective", cell.Slots[0].SubjectName)
		assert.Equal(t, models.SlotTypeGE, cell.Slots[0].SlotType)
	}

	// Higher semesters keep whatever the engine produced, here nothing.
	assert.Empty(t, table.Grid["Monday"]["17:30-18:30"]["3"].Slots)
}

func TestBuildCourseTablesGEOverridesEngineSlot(t *testing.T) {
	set := models.SlotSet{
		"course-a-1": {
			gridSlot("course-a", "1", 0, "10:00", "11:00", "Calculus", "st1"),
			// The engine scheduled a real subject inside the GE window.
			gridSlot("course-a", "1", 1, "17:30", "18:30", "Robotics Lab", "st2"),
		},
	}

	tables := BuildCourseTables(set, testTimeConfig(), nil)
	require.Len(t, tables, 1)

	cell := tables[0].Grid["Tuesday"]["17:30-18:30"]["1"]
	require.Len(t, cell.Slots, 1)
	assert.Equal(t, "Generic Elective", cell.Slots[0].SubjectName)
	assert.Equal(t, models.SlotTypeGE, cell.Slots[0].SlotType)
}

func TestBuildCourseTablesFlagsStaffConflicts(t *testing.T) {
	set := models.SlotSet{
		"course-a-3": {gridSlot("course-a", "3", 0, "10:00", "11:00", "Operating Systems", "st1")},
		"course-b-5": {gridSlot("course-b", "5", 0, "10:00", "12:00", "Databases", "st1,st2")},
	}

	tables := BuildCourseTables(set, testTimeConfig(), nil)
	require.Len(t, tables, 2)

	cellA := tables[0].Grid["Monday"]["10:00-11:00"]["3"]
	assert.True(t, cellA.StaffConflict)
	assert.Equal(t, "Staff Conflict!", cellA.Warning)

	cellB := tables[1].Grid["Monday"]["10:00-12:00"]["5"]
	assert.True(t, cellB.StaffConflict)
}

func TestBuildCourseTablesElectivePairNotFlagged(t *testing.T) {
	french := gridSlot("course-a", "3", 0, "10:00", "11:00", "French", "st1")
	french.SlotType = models.SlotTypeMinor
	german := gridSlot("course-a", "3", 0, "10:00", "11:00", "German", "st1")
	german.SubjectCategory = "elective"

	set := models.SlotSet{"course-a-3": {french, german}}

	tables := BuildCourseTables(set, testTimeConfig(), nil)
	require.Len(t, tables, 1)

	cell := tables[0].Grid["Monday"]["10:00-11:00"]["3"]
	require.Len(t, cell.Slots, 2)
	assert.True(t, cell.ElectivePair)
	assert.False(t, cell.StaffConflict)
}

func TestBuildCourseTablesAppliesOverlay(t *testing.T) {
	set := models.SlotSet{
		"course-a-3": {
			gridSlot("course-a", "3", 0, "10:00", "11:00", "Operating Systems", "st1"),
			gridSlot("course-a", "3", 1, "10:00", "11:00", "Networks", "st2"),
		},
	}
	edited := gridSlot("course-a", "3", 0, "10:00", "11:00", "Graph Theory", "st9")
	overlay := Overlay{
		{Day: "Monday", TimeSlot: "10:00-11:00", Semester: "3"}: {edited},
	}

	tables := BuildCourseTables(set, testTimeConfig(), overlay)
	require.Len(t, tables, 1)
	table := tables[0]

	cell := table.Grid["Monday"]["10:00-11:00"]["3"]
	require.Len(t, cell.Slots, 1)
	assert.Equal(t, "Graph Theory", cell.Slots[0].SubjectName)

	// Neighbouring cells are untouched.
	other := table.Grid["Tuesday"]["10:00-11:00"]["3"]
	require.Len(t, other.Slots, 1)
	assert.Equal(t, "Networks", other.Slots[0].SubjectName)
}
