package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniplan/uniplan-api/internal/dto"
	"github.com/uniplan/uniplan-api/internal/engine"
	"github.com/uniplan/uniplan-api/internal/models"
	"github.com/uniplan/uniplan-api/internal/timetable"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
)

type stubEngine struct {
	set    models.SlotSet
	err    error
	called bool
}

func (s *stubEngine) Generate(_ context.Context, _ engine.GenerateInput) (models.SlotSet, error) {
	s.called = true
	return s.set, s.err
}

type stubAllocRepo struct {
	replaced []models.Allocation
	called   bool
}

func (s *stubAllocRepo) Replace(_ context.Context, _, _ string, allocations []models.Allocation) error {
	s.called = true
	s.replaced = allocations
	return nil
}

func (s *stubAllocRepo) List(_ context.Context, _, _ string) ([]models.Allocation, error) {
	return s.replaced, nil
}

type stubTimetableRepo struct {
	upserted  models.SlotSet
	stored    models.SlotSet
	saved     *models.SavedTimetable
	savedList []models.SavedTimetable
	getCalled bool
}

func (s *stubTimetableRepo) UpsertGenerated(_ context.Context, _ models.GeneratedBatch, set models.SlotSet) error {
	s.upserted = set
	return nil
}

func (s *stubTimetableRepo) GetGenerated(_ context.Context, _ models.GeneratedBatch) (models.SlotSet, error) {
	s.getCalled = true
	return s.stored, nil
}

func (s *stubTimetableRepo) SaveTimetable(_ context.Context, saved *models.SavedTimetable) error {
	s.saved = saved
	return nil
}

func (s *stubTimetableRepo) ListSaved(_ context.Context) ([]models.SavedTimetable, error) {
	return s.savedList, nil
}

func (s *stubTimetableRepo) FindSavedByID(_ context.Context, _ string) (*models.SavedTimetable, error) {
	return s.saved, nil
}

type stubCourses struct {
	course *models.Course
	err    error
}

func (s *stubCourses) FindCourseByID(_ context.Context, _ string) (*models.Course, error) {
	return s.course, s.err
}

func (s *stubCourses) ListCourses(_ context.Context, _ string) ([]models.Course, error) {
	if s.course == nil {
		return nil, nil
	}
	return []models.Course{*s.course}, nil
}

type stubSubjects struct {
	subjects  []models.Subject
	courseIDs []string
}

func (s *stubSubjects) ListByCourses(_ context.Context, courseIDs []string) ([]models.Subject, error) {
	s.courseIDs = courseIDs
	return s.subjects, nil
}

type stubCache struct {
	data     map[string][]byte
	patterns []string
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte)}
}

func (s *stubCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return nil
}

func (s *stubCache) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			delete(s.data, key)
		}
	}
	return nil
}

func validTimeConfig() models.TimeConfig {
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

func engineSlotSet() models.SlotSet {
	return models.SlotSet{
		"course-a-3": {
			{Day: 0, StartTime: "10:00", EndTime: "11:00", Semester: "3", CourseID: "course-a", SubjectName: "Operating Systems", StaffID: "st1", SlotType: models.SlotTypeTheory},
		},
	}
}

type serviceDeps struct {
	engine   *stubEngine
	alloc    *stubAllocRepo
	repo     *stubTimetableRepo
	courses  *stubCourses
	subjects *stubSubjects
	cache    *stubCache
	sessions *timetable.SessionStore
}

func newTimetableService(deps *serviceDeps) *TimetableService {
	if deps.engine == nil {
		deps.engine = &stubEngine{set: engineSlotSet()}
	}
	if deps.alloc == nil {
		deps.alloc = &stubAllocRepo{}
	}
	if deps.repo == nil {
		deps.repo = &stubTimetableRepo{}
	}
	if deps.courses == nil {
		deps.courses = &stubCourses{course: &models.Course{
			CourseID: "course-a", DepartmentID: "dept-1", SchoolID: "school-1", CourseName: "Computer Science",
		}}
	}
	if deps.subjects == nil {
		deps.subjects = &stubSubjects{}
	}
	if deps.cache == nil {
		deps.cache = newStubCache()
	}
	if deps.sessions == nil {
		deps.sessions = timetable.NewSessionStore(time.Hour)
	}
	return NewTimetableService(deps.engine, deps.alloc, deps.repo, deps.courses, deps.subjects, deps.cache, deps.sessions, nil, nil, nil, time.Minute)
}

func TestAllocateRejectsWhenNothingComplete(t *testing.T) {
	deps := &serviceDeps{}
	svc := newTimetableService(deps)

	_, err := svc.Allocate(context.Background(), dto.AllocateRequest{
		SchoolID:     "school-1",
		DepartmentID: "dept-1",
		Allocations: []dto.AllocationRequest{
			{SubjectID: "sub-1", SubjectName: "OS", CourseID: "course-a"},
			{SubjectID: "sub-2", SubjectName: "DB", CourseID: "course-a", StaffID: "  "},
		},
		TimeConfig: validTimeConfig(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.False(t, deps.alloc.called, "nothing may be persisted")
}

func TestAllocateDropsIncompletePairings(t *testing.T) {
	deps := &serviceDeps{}
	svc := newTimetableService(deps)

	resp, err := svc.Allocate(context.Background(), dto.AllocateRequest{
		SchoolID:     "school-1",
		DepartmentID: "dept-1",
		Allocations: []dto.AllocationRequest{
			{SubjectID: "sub-1", SubjectName: "OS", CourseID: "course-a", StaffID: "st1", StaffName: "Dr. A"},
			{SubjectID: "sub-2", SubjectName: "DB", CourseID: "course-a"},
		},
		TimeConfig: validTimeConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, 1, resp.Skipped)
	require.Len(t, deps.alloc.replaced, 1)
	assert.Equal(t, "sub-1", deps.alloc.replaced[0].SubjectID)
	assert.True(t, deps.alloc.replaced[0].Complete())
}

func TestAllocateInvalidatesGeneratedCache(t *testing.T) {
	deps := &serviceDeps{cache: newStubCache()}
	batch := models.GeneratedBatch{SchoolID: "school-1", DepartmentID: "dept-1", SemesterType: models.SemesterTypeOdd}
	require.NoError(t, deps.cache.Set(context.Background(), batch.CacheKey(), engineSlotSet(), time.Minute))
	svc := newTimetableService(deps)

	_, err := svc.Allocate(context.Background(), dto.AllocateRequest{
		SchoolID:     "school-1",
		DepartmentID: "dept-1",
		Allocations:  []dto.AllocationRequest{{SubjectID: "sub-1", SubjectName: "OS", CourseID: "course-a", StaffID: "st1"}},
		TimeConfig:   validTimeConfig(),
	})
	require.NoError(t, err)

	require.Len(t, deps.cache.patterns, 1)
	assert.Equal(t, "timetable:generated:school-1:dept-1:*", deps.cache.patterns[0])
	assert.Empty(t, deps.cache.data, "stale generated results must be evicted")
}

func TestAllocationSheetPairsCatalogWithAllocations(t *testing.T) {
	deps := &serviceDeps{
		subjects: &stubSubjects{subjects: []models.Subject{
			{SubjectID: "sub-1", SubjectName: "Operating Systems", CourseID: "course-a"},
			{SubjectID: "sub-2", SubjectName: "Databases", CourseID: "course-a"},
		}},
	}
	svc := newTimetableService(deps)

	_, err := svc.Allocate(context.Background(), dto.AllocateRequest{
		SchoolID:     "school-1",
		DepartmentID: "dept-1",
		Allocations:  []dto.AllocationRequest{{SubjectID: "sub-1", SubjectName: "Operating Systems", CourseID: "course-a", StaffID: "st1", StaffName: "Dr. A"}},
		TimeConfig:   validTimeConfig(),
	})
	require.NoError(t, err)

	sheet, err := svc.AllocationSheet(context.Background(), "school-1", "dept-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"course-a"}, deps.subjects.courseIDs)
	require.Len(t, sheet.Subjects, 2)
	require.Len(t, sheet.Allocations, 1)
	assert.Equal(t, "sub-1", sheet.Allocations[0].SubjectID)
}

func TestAllocationSheetRequiresSelection(t *testing.T) {
	svc := newTimetableService(&serviceDeps{})

	_, err := svc.AllocationSheet(context.Background(), "", "dept-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAllocateRejectsBadTimeConfig(t *testing.T) {
	svc := newTimetableService(&serviceDeps{})

	cfg := validTimeConfig()
	cfg.DayStart = "25:99"
	_, err := svc.Allocate(context.Background(), dto.AllocateRequest{
		SchoolID:     "school-1",
		DepartmentID: "dept-1",
		Allocations:  []dto.AllocationRequest{{SubjectID: "s", SubjectName: "OS", CourseID: "c", StaffID: "st1"}},
		TimeConfig:   cfg,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGenerateOpensSessionAndPersists(t *testing.T) {
	deps := &serviceDeps{}
	svc := newTimetableService(deps)

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{
		SchoolID:     "school-1",
		DepartmentID: "dept-1",
		SemesterType: models.SemesterTypeOdd,
		TimeConfig:   validTimeConfig(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	require.Len(t, resp.Tables, 1)
	assert.Equal(t, engineSlotSet(), deps.repo.upserted)

	// The session is live and renders the same grid.
	grid, err := svc.Grid(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, resp.Tables, grid.Tables)
}

func TestGenerateEngineFailureKeepsStoredResult(t *testing.T) {
	deps := &serviceDeps{engine: &stubEngine{err: appErrors.ErrUpstream}}
	svc := newTimetableService(deps)

	_, err := svc.Generate(context.Background(), dto.GenerateRequest{
		SchoolID:     "school-1",
		DepartmentID: "dept-1",
		SemesterType: models.SemesterTypeOdd,
		TimeConfig:   validTimeConfig(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
	assert.Nil(t, deps.repo.upserted, "a failed generate must not overwrite stored results")
}

func TestGeneratedPrefersCache(t *testing.T) {
	deps := &serviceDeps{cache: newStubCache()}
	batch := models.GeneratedBatch{SchoolID: "school-1", DepartmentID: "dept-1", SemesterType: models.SemesterTypeOdd}
	require.NoError(t, deps.cache.Set(context.Background(), batch.CacheKey(), engineSlotSet(), time.Minute))
	svc := newTimetableService(deps)

	set, err := svc.Generated(context.Background(), dto.GeneratedQuery{
		SchoolID: "school-1", DepartmentID: "dept-1", SemesterType: models.SemesterTypeOdd,
	})
	require.NoError(t, err)
	assert.Len(t, set["course-a-3"], 1)
	assert.False(t, deps.repo.getCalled, "cache hit must not touch the database")
}

func TestGeneratedFallsBackToStore(t *testing.T) {
	deps := &serviceDeps{repo: &stubTimetableRepo{stored: engineSlotSet()}}
	svc := newTimetableService(deps)

	set, err := svc.Generated(context.Background(), dto.GeneratedQuery{
		SchoolID: "school-1", DepartmentID: "dept-1", SemesterType: models.SemesterTypeOdd,
	})
	require.NoError(t, err)
	assert.Len(t, set, 1)
	assert.True(t, deps.repo.getCalled)
}

func TestGeneratedMissing(t *testing.T) {
	svc := newTimetableService(&serviceDeps{})

	_, err := svc.Generated(context.Background(), dto.GeneratedQuery{
		SchoolID: "school-1", DepartmentID: "dept-1", SemesterType: models.SemesterTypeEven,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEditCellReplacesCellInGrid(t *testing.T) {
	deps := &serviceDeps{}
	svc := newTimetableService(deps)

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{
		SchoolID: "school-1", DepartmentID: "dept-1", SemesterType: models.SemesterTypeOdd, TimeConfig: validTimeConfig(),
	})
	require.NoError(t, err)

	grid, err := svc.EditCell(context.Background(), resp.SessionID, dto.EditCellRequest{
		Day:         "Monday",
		TimeSlot:    "10:00-11:00",
		Semester:    "3",
		SubjectName: "Graph Theory",
		StaffName:   "Dr. B",
		SlotType:    "theory",
	})
	require.NoError(t, err)

	cell := grid.Tables[0].Grid["Monday"]["10:00-11:00"]["3"]
	require.Len(t, cell.Slots, 1)
	assert.Equal(t, "Graph Theory", cell.Slots[0].SubjectName)
}

func TestSaveUnknownCourseRejectedLocally(t *testing.T) {
	deps := &serviceDeps{courses: &stubCourses{course: nil}}
	svc := newTimetableService(deps)

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{
		SchoolID: "school-1", DepartmentID: "dept-1", SemesterType: models.SemesterTypeOdd, TimeConfig: validTimeConfig(),
	})
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), dto.SaveTimetableRequest{SessionID: resp.SessionID, Name: "CS odd"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, deps.repo.saved, "nothing may be persisted")

	// Failed save leaves the session untouched.
	_, err = svc.Grid(context.Background(), resp.SessionID)
	assert.NoError(t, err)
}

func TestSavePersistsAndClosesSession(t *testing.T) {
	deps := &serviceDeps{}
	svc := newTimetableService(deps)

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{
		SchoolID: "school-1", DepartmentID: "dept-1", SemesterType: models.SemesterTypeOdd, TimeConfig: validTimeConfig(),
	})
	require.NoError(t, err)

	_, err = svc.EditCell(context.Background(), resp.SessionID, dto.EditCellRequest{
		Day: "Monday", TimeSlot: "10:00-11:00", Semester: "3", SubjectName: "Graph Theory", SlotType: "theory",
	})
	require.NoError(t, err)

	saved, err := svc.Save(context.Background(), dto.SaveTimetableRequest{SessionID: resp.SessionID, Name: "CS odd"})
	require.NoError(t, err)
	assert.Equal(t, "CS odd", saved.Name)
	assert.Equal(t, "course-a", saved.CourseID)
	assert.Equal(t, "dept-1", saved.DepartmentID)
	assert.Equal(t, "Computer Science", saved.CourseName)

	var payload map[string][]models.SavedSlot
	require.NoError(t, json.Unmarshal(saved.TimetableData, &payload))
	require.Len(t, payload["course-a-3"], 1)
	assert.Equal(t, "Monday", payload["course-a-3"][0].Day)
	assert.Equal(t, "Graph Theory", payload["course-a-3"][0].SubjectName)

	// Session is gone once saved.
	_, err = svc.Grid(context.Background(), resp.SessionID)
	assert.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	svc := newTimetableService(&serviceDeps{})

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{
		SchoolID: "school-1", DepartmentID: "dept-1", SemesterType: models.SemesterTypeOdd, TimeConfig: validTimeConfig(),
	})
	require.NoError(t, err)

	body, contentType, err := svc.Export(context.Background(), resp.SessionID, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(body), "Operating Systems")
}

func TestExportUnknownFormat(t *testing.T) {
	svc := newTimetableService(&serviceDeps{})

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{
		SchoolID: "school-1", DepartmentID: "dept-1", SemesterType: models.SemesterTypeOdd, TimeConfig: validTimeConfig(),
	})
	require.NoError(t, err)

	_, _, err = svc.Export(context.Background(), resp.SessionID, "xlsx")
	require.Error(t, err)
	assert.True(t, errors.As(err, new(*appErrors.Error)))
}
