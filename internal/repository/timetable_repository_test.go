package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniplan/uniplan-api/internal/models"
)

func testBatch() models.GeneratedBatch {
	return models.GeneratedBatch{
		SchoolID:     "school-1",
		DepartmentID: "dept-1",
		SemesterType: models.SemesterTypeOdd,
	}
}

func TestUpsertGenerated(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec("INSERT INTO generated_timetables").
		WillReturnResult(sqlmock.NewResult(0, 1))

	set := models.SlotSet{
		"course-a-3": {{Day: 0, StartTime: "10:00", EndTime: "11:00", Semester: "3", CourseID: "course-a", SlotType: models.SlotTypeTheory}},
	}
	require.NoError(t, repo.UpsertGenerated(context.Background(), testBatch(), set))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetGeneratedRoundTrip(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	set := models.SlotSet{
		"course-a-3": {{Day: 0, StartTime: "10:00", EndTime: "11:00", Semester: "3", CourseID: "course-a", SubjectName: "OS", SlotType: models.SlotTypeTheory}},
	}
	payload, err := json.Marshal(set)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"school_id", "department_id", "semester_type", "slots", "updated_at"}).
		AddRow("school-1", "dept-1", models.SemesterTypeOdd, payload, time.Now())
	mock.ExpectQuery("SELECT .* FROM generated_timetables").
		WithArgs("school-1", "dept-1", models.SemesterTypeOdd).
		WillReturnRows(rows)

	got, err := repo.GetGenerated(context.Background(), testBatch())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "OS", got["course-a-3"][0].SubjectName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetGeneratedMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery("SELECT .* FROM generated_timetables").
		WillReturnRows(sqlmock.NewRows([]string{"school_id"}))

	got, err := repo.GetGenerated(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveTimetableUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec("INSERT INTO saved_timetables").
		WillReturnResult(sqlmock.NewResult(0, 1))

	saved := &models.SavedTimetable{
		Name:          "CS odd 2026",
		CourseID:      "course-a",
		DepartmentID:  "dept-1",
		SchoolID:      "school-1",
		CourseName:    "Computer Science",
		TimetableData: []byte(`{}`),
	}
	require.NoError(t, repo.SaveTimetable(context.Background(), saved))
	assert.NotEmpty(t, saved.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSavedByIDMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery("SELECT .* FROM saved_timetables").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	saved, err := repo.FindSavedByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, saved)
}
