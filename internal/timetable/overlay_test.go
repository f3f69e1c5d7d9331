package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniplan/uniplan-api/internal/models"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
)

func newTestStore(ttl time.Duration) (*SessionStore, *time.Time) {
	store := NewSessionStore(ttl)
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	return store, &now
}

func testSlotSet() models.SlotSet {
	return models.SlotSet{
		"course-a-3": {
			gridSlot("course-a", "3", 0, "10:00", "11:00", "Operating Systems", "st1"),
		},
	}
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	session := store.Create("school-1", "dept-1", models.SemesterTypeOdd, testTimeConfig(), testSlotSet())
	require.NotEmpty(t, session.ID)

	got, err := store.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "school-1", got.SchoolID)
	assert.Equal(t, "dept-1", got.DepartmentID)
	assert.Equal(t, models.SemesterTypeOdd, got.SemesterType)
	assert.Empty(t, got.Overlay)
}

func TestSessionStoreGetUnknown(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	_, err := store.Get("missing")
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestSessionStoreEditReplacesCell(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	session := store.Create("school-1", "dept-1", models.SemesterTypeOdd, testTimeConfig(), testSlotSet())

	key := CellKey{Day: "Monday", TimeSlot: "10:00-11:00", Semester: "3"}
	first := gridSlot("course-a", "3", 0, "10:00", "11:00", "Graph Theory", "st9")
	require.NoError(t, store.EditCell(session.ID, key, first))

	second := gridSlot("course-a", "3", 0, "10:00", "11:00", "Number Theory", "st4")
	require.NoError(t, store.EditCell(session.ID, key, second))

	overlay, err := store.OverlaySnapshot(session.ID)
	require.NoError(t, err)
	require.Len(t, overlay, 1)
	require.Len(t, overlay[key], 1)
	// The second edit wins outright.
	assert.Equal(t, "Number Theory", overlay[key][0].SubjectName)
}

func TestSessionStoreEditRejectsUnknownDay(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	session := store.Create("school-1", "dept-1", models.SemesterTypeOdd, testTimeConfig(), testSlotSet())

	key := CellKey{Day: "Saturday", TimeSlot: "10:00-11:00", Semester: "3"}
	err := store.EditCell(session.ID, key, models.Slot{})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestSessionStoreEditRejectsMalformedTimeSlot(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	session := store.Create("school-1", "dept-1", models.SemesterTypeOdd, testTimeConfig(), testSlotSet())

	for _, label := range []string{"afternoon", "10:00", "10:00-", "25:00-26:00", ""} {
		key := CellKey{Day: "Monday", TimeSlot: label, Semester: "3"}
		err := store.EditCell(session.ID, key, models.Slot{SubjectName: "Graph Theory"})
		require.Error(t, err, "label %q", label)
		assert.Equal(t, 400, appErrors.FromError(err).Status)
	}

	overlay, err := store.OverlaySnapshot(session.ID)
	require.NoError(t, err)
	assert.Empty(t, overlay, "rejected edits must not reach the overlay")
}

func TestSessionStoreGetReturnsIsolatedCopy(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	session := store.Create("school-1", "dept-1", models.SemesterTypeOdd, testTimeConfig(), testSlotSet())

	got, err := store.Get(session.ID)
	require.NoError(t, err)
	got.Overlay[CellKey{Day: "Monday", TimeSlot: "10:00-11:00", Semester: "3"}] = []models.Slot{{}}

	fresh, err := store.Get(session.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Overlay)
}

func TestSessionStoreExpiry(t *testing.T) {
	store, now := newTestStore(30 * time.Minute)
	session := store.Create("school-1", "dept-1", models.SemesterTypeOdd, testTimeConfig(), testSlotSet())

	*now = now.Add(31 * time.Minute)

	_, err := store.Get(session.ID)
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)

	key := CellKey{Day: "Monday", TimeSlot: "10:00-11:00", Semester: "3"}
	assert.Error(t, store.EditCell(session.ID, key, models.Slot{}))
}

func TestSessionStoreDelete(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	session := store.Create("school-1", "dept-1", models.SemesterTypeOdd, testTimeConfig(), testSlotSet())

	store.Delete(session.ID)

	_, err := store.Get(session.ID)
	assert.Error(t, err)
}
