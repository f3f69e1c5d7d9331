package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniplan/uniplan-api/internal/models"
)

func TestBuildSavePayloadSerialisesDayNames(t *testing.T) {
	set := models.SlotSet{
		"course-a-3": {
			gridSlot("course-a", "3", 0, "10:00", "11:00", "Operating Systems", "st1"),
			gridSlot("course-a", "3", 4, "11:00", "12:00", "Networks", "st2"),
		},
	}

	payload := BuildSavePayload(set, nil)
	require.Len(t, payload, 1)

	saved := payload["course-a-3"]
	require.Len(t, saved, 2)
	assert.Equal(t, "Monday", saved[0].Day)
	assert.Equal(t, "Friday", saved[1].Day)
	assert.Equal(t, "Operating Systems", saved[0].SubjectName)
}

func TestBuildSavePayloadReplacesEditedSlot(t *testing.T) {
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

	payload := BuildSavePayload(set, overlay)
	saved := payload["course-a-3"]
	require.Len(t, saved, 2)

	var monday, tuesday *models.SavedSlot
	for i := range saved {
		switch saved[i].Day {
		case "Monday":
			monday = &saved[i]
		case "Tuesday":
			tuesday = &saved[i]
		}
	}
	require.NotNil(t, monday)
	require.NotNil(t, tuesday)

	assert.Equal(t, "Graph Theory", monday.SubjectName)
	assert.Equal(t, "st9", monday.StaffID)
	assert.Equal(t, "Networks", tuesday.SubjectName)
}

func TestBuildSavePayloadAppendsWhenNoMatch(t *testing.T) {
	set := models.SlotSet{
		"course-a-3": {
			gridSlot("course-a", "3", 0, "10:00", "11:00", "Operating Systems", "st1"),
		},
	}
	// Edit lands on a cell the engine produced nothing for.
	added := models.Slot{SubjectName: "Seminar", StaffID: "st5", SlotType: models.SlotTypeTheory}
	overlay := Overlay{
		{Day: "Wednesday", TimeSlot: "14:00-15:00", Semester: "3"}: {added},
	}

	payload := BuildSavePayload(set, overlay)
	saved := payload["course-a-3"]
	require.Len(t, saved, 2)

	assert.Equal(t, "Wednesday", saved[1].Day)
	assert.Equal(t, "14:00", saved[1].StartTime)
	assert.Equal(t, "15:00", saved[1].EndTime)
	assert.Equal(t, "3", saved[1].Semester)
	assert.Equal(t, "course-a", saved[1].CourseID)
	assert.Equal(t, "Seminar", saved[1].SubjectName)
}

func TestBuildSavePayloadLeavesInputUntouched(t *testing.T) {
	original := gridSlot("course-a", "3", 0, "10:00", "11:00", "Operating Systems", "st1")
	set := models.SlotSet{"course-a-3": {original}}
	overlay := Overlay{
		{Day: "Monday", TimeSlot: "10:00-11:00", Semester: "3"}: {
			gridSlot("course-a", "3", 0, "10:00", "11:00", "Graph Theory", "st9"),
		},
	}

	BuildSavePayload(set, overlay)
	assert.Equal(t, "Operating Systems", set["course-a-3"][0].SubjectName)
}

func TestBuildSavePayloadRoundTripsThroughGrid(t *testing.T) {
	set := models.SlotSet{
		"course-a-3": {
			gridSlot("course-a", "3", 0, "10:00", "11:00", "Operating Systems", "st1"),
			gridSlot("course-a", "3", 1, "11:00", "12:00", "Networks", "st2"),
		},
	}
	edited := gridSlot("course-a", "3", 0, "10:00", "11:00", "Graph Theory", "st9")
	overlay := Overlay{
		{Day: "Monday", TimeSlot: "10:00-11:00", Semester: "3"}: {edited},
	}

	payload := BuildSavePayload(set, overlay)

	// Re-index the persisted payload and compare against the overlaid grid.
	restored := make(models.SlotSet, len(payload))
	for key, saved := range payload {
		for _, s := range saved {
			restored[key] = append(restored[key], models.Slot{
				Day:             DayIndex(s.Day),
				StartTime:       s.StartTime,
				EndTime:         s.EndTime,
				Semester:        s.Semester,
				CourseID:        s.CourseID,
				SubjectID:       s.SubjectID,
				SubjectName:     s.SubjectName,
				StaffID:         s.StaffID,
				StaffName:       s.StaffName,
				SlotType:        s.SlotType,
				SubjectCategory: s.SubjectCategory,
			})
		}
	}

	want := BuildCourseTables(set, testTimeConfig(), overlay)
	got := BuildCourseTables(restored, testTimeConfig(), nil)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Grid, got[i].Grid)
	}
}

func TestPayloadCourse(t *testing.T) {
	set := models.SlotSet{
		"course-b-5": {},
		"course-a-3": {},
	}
	assert.Equal(t, "course-a", PayloadCourse(set))
	assert.Equal(t, "", PayloadCourse(models.SlotSet{}))
}
