package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniplan/uniplan-api/internal/dto"
	"github.com/uniplan/uniplan-api/internal/engine"
	"github.com/uniplan/uniplan-api/internal/models"
	"github.com/uniplan/uniplan-api/internal/timetable"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
	"github.com/uniplan/uniplan-api/pkg/export"
)

type engineClient interface {
	Generate(ctx context.Context, input engine.GenerateInput) (models.SlotSet, error)
}

type allocationRepository interface {
	Replace(ctx context.Context, schoolID, departmentID string, allocations []models.Allocation) error
	List(ctx context.Context, schoolID, departmentID string) ([]models.Allocation, error)
}

type timetableRepository interface {
	UpsertGenerated(ctx context.Context, batch models.GeneratedBatch, set models.SlotSet) error
	GetGenerated(ctx context.Context, batch models.GeneratedBatch) (models.SlotSet, error)
	SaveTimetable(ctx context.Context, saved *models.SavedTimetable) error
	ListSaved(ctx context.Context) ([]models.SavedTimetable, error)
	FindSavedByID(ctx context.Context, id string) (*models.SavedTimetable, error)
}

type courseFinder interface {
	FindCourseByID(ctx context.Context, id string) (*models.Course, error)
	ListCourses(ctx context.Context, departmentID string) ([]models.Course, error)
}

type subjectCatalog interface {
	ListByCourses(ctx context.Context, courseIDs []string) ([]models.Subject, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

var timeFormat = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// RegisterTimeFormat adds the "hhmm" validation tag used by TimeConfig.
func RegisterTimeFormat(v *validator.Validate) error {
	return v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timeFormat.MatchString(fl.Field().String())
	})
}

// TimetableService coordinates the allocation → generate → edit → save flow.
type TimetableService struct {
	engine    engineClient
	allocRepo allocationRepository
	repo      timetableRepository
	courses   courseFinder
	subjects  subjectCatalog
	cache     timetableCache
	sessions  *timetable.SessionStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewTimetableService constructs TimetableService.
func NewTimetableService(
	engineClient engineClient,
	allocRepo allocationRepository,
	repo timetableRepository,
	courses courseFinder,
	subjects subjectCatalog,
	cache timetableCache,
	sessions *timetable.SessionStore,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	_ = RegisterTimeFormat(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &TimetableService{
		engine:    engineClient,
		allocRepo: allocRepo,
		repo:      repo,
		courses:   courses,
		subjects:  subjects,
		cache:     cache,
		sessions:  sessions,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// Allocate stores the subject-staff pairings for a department. Pairings
// without a staff member are dropped; when nothing remains the request is
// rejected locally and nothing is persisted.
func (s *TimetableService) Allocate(ctx context.Context, req dto.AllocateRequest) (*dto.AllocateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}

	var complete []models.Allocation
	skipped := 0
	for _, a := range req.Allocations {
		if strings.TrimSpace(a.StaffID) == "" {
			skipped++
			continue
		}
		staffID := a.StaffID
		staffName := a.StaffName
		complete = append(complete, models.Allocation{
			CourseID:      a.CourseID,
			SubjectID:     a.SubjectID,
			SubjectName:   a.SubjectName,
			StaffID:       &staffID,
			StaffName:     &staffName,
			TheoryCredits: a.TheoryCredits,
			LabCredits:    a.LabCredits,
		})
	}
	if len(complete) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "please allocate staff before proceeding")
	}

	if err := s.allocRepo.Replace(ctx, req.SchoolID, req.DepartmentID, complete); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store allocations")
	}

	// Previously generated timetables were built from the old pairings.
	if err := s.cache.DeleteByPattern(ctx, models.GeneratedCachePattern(req.SchoolID, req.DepartmentID)); err != nil {
		s.logger.Warn("failed to invalidate generated cache", zap.Error(err))
	}

	s.logger.Info("allocations stored",
		zap.String("school_id", req.SchoolID),
		zap.String("department_id", req.DepartmentID),
		zap.Int("accepted", len(complete)),
		zap.Int("skipped", skipped),
	)
	return &dto.AllocateResponse{Accepted: len(complete), Skipped: skipped}, nil
}

// AllocationSheet returns the department's subject catalog alongside the
// allocations already stored, seeding the subject-staff pairing table.
func (s *TimetableService) AllocationSheet(ctx context.Context, schoolID, departmentID string) (*dto.AllocationSheet, error) {
	if strings.TrimSpace(schoolID) == "" || strings.TrimSpace(departmentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school_id and department_id are required")
	}

	courses, err := s.courses.ListCourses(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	courseIDs := make([]string, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.CourseID)
	}

	subjects, err := s.subjects.ListByCourses(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	allocations, err := s.allocRepo.List(ctx, schoolID, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allocations")
	}

	return &dto.AllocationSheet{Subjects: subjects, Allocations: allocations}, nil
}

// Generate calls the engine, opens an editing session over the normalised
// result, and persists it for later retrieval. An engine failure leaves any
// previously stored result untouched.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	start := time.Now()
	set, err := s.engine.Generate(ctx, engine.GenerateInput{
		SchoolID:     req.SchoolID,
		DepartmentID: req.DepartmentID,
		SemesterType: req.SemesterType,
		TimeConfig:   req.TimeConfig,
	})
	s.metrics.ObserveEngineGenerate(time.Since(start))
	if err != nil {
		return nil, err
	}

	batch := models.GeneratedBatch{SchoolID: req.SchoolID, DepartmentID: req.DepartmentID, SemesterType: req.SemesterType}
	if err := s.repo.UpsertGenerated(ctx, batch, set); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store generated timetable")
	}
	if err := s.cache.Set(ctx, batch.CacheKey(), set, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache generated timetable", zap.Error(err))
	}

	session := s.sessions.Create(req.SchoolID, req.DepartmentID, req.SemesterType, req.TimeConfig, set)
	s.metrics.SetActiveSessions(s.sessions.Len())

	return &dto.GenerateResponse{
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
		Tables:    timetable.BuildCourseTables(set, req.TimeConfig, nil),
	}, nil
}

// Generated returns the last persisted generation result for a batch,
// cache-first.
func (s *TimetableService) Generated(ctx context.Context, query dto.GeneratedQuery) (models.SlotSet, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generated query")
	}

	batch := models.GeneratedBatch{SchoolID: query.SchoolID, DepartmentID: query.DepartmentID, SemesterType: query.SemesterType}
	var cached models.SlotSet
	if err := s.cache.Get(ctx, batch.CacheKey(), &cached); err == nil {
		s.metrics.RecordCacheOperation(true)
		return cached, nil
	}
	s.metrics.RecordCacheOperation(false)

	set, err := s.repo.GetGenerated(ctx, batch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generated timetable")
	}
	if set == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no generated timetable for this selection")
	}

	if err := s.cache.Set(ctx, batch.CacheKey(), set, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache generated timetable", zap.Error(err))
	}
	return set, nil
}

// Grid renders a session's timetable with the overlay applied.
func (s *TimetableService) Grid(_ context.Context, sessionID string) (*dto.SessionGridResponse, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionGridResponse{
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
		Tables:    timetable.BuildCourseTables(session.Slots, session.TimeConfig, session.Overlay),
	}, nil
}

// EditCell replaces one cell in the session overlay and returns the updated
// grid.
func (s *TimetableService) EditCell(ctx context.Context, sessionID string, req dto.EditCellRequest) (*dto.SessionGridResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cell payload")
	}

	slotType := models.SlotType(req.SlotType)
	if slotType == "" {
		slotType = models.SlotTypeTheory
	}
	key := timetable.CellKey{Day: req.Day, TimeSlot: req.TimeSlot, Semester: req.Semester}
	slot := models.Slot{
		SubjectID:   req.SubjectID,
		SubjectName: req.SubjectName,
		StaffID:     req.StaffID,
		StaffName:   req.StaffName,
		SlotType:    slotType,
		Semester:    req.Semester,
	}
	if err := s.sessions.EditCell(sessionID, key, slot); err != nil {
		return nil, err
	}
	return s.Grid(ctx, sessionID)
}

// Save builds the persisted payload from a session, resolves its course, and
// upserts the snapshot under the supplied name. A failed save leaves the
// session and its overlay untouched.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*models.SavedTimetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}

	session, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return nil, err
	}

	courseID := timetable.PayloadCourse(session.Slots)
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session has no timetable data")
	}
	course, err := s.courses.FindCourseByID(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course")
	}
	if course == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s not found", courseID))
	}

	payload := timetable.BuildSavePayload(session.Slots, session.Overlay)
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable")
	}

	saved := &models.SavedTimetable{
		Name:          req.Name,
		CourseID:      course.CourseID,
		DepartmentID:  course.DepartmentID,
		SchoolID:      course.SchoolID,
		CourseName:    course.CourseName,
		TimetableData: data,
	}
	if err := s.repo.SaveTimetable(ctx, saved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save timetable")
	}

	s.sessions.Delete(req.SessionID)
	s.metrics.SetActiveSessions(s.sessions.Len())
	s.logger.Info("timetable saved", zap.String("name", saved.Name), zap.String("course_id", saved.CourseID))
	return saved, nil
}

// ListSaved returns saved timetables.
func (s *TimetableService) ListSaved(ctx context.Context) ([]models.SavedTimetable, error) {
	saved, err := s.repo.ListSaved(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list saved timetables")
	}
	return saved, nil
}

// GetSaved returns one saved timetable.
func (s *TimetableService) GetSaved(ctx context.Context, id string) (*models.SavedTimetable, error) {
	saved, err := s.repo.FindSavedByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch saved timetable")
	}
	if saved == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "saved timetable not found")
	}
	return saved, nil
}

// Export renders a session's post-overlay grid as CSV or PDF.
func (s *TimetableService) Export(_ context.Context, sessionID, format string) ([]byte, string, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, "", err
	}
	tables := timetable.BuildCourseTables(session.Slots, session.TimeConfig, session.Overlay)
	dataset := gridDataset(tables)

	switch format {
	case "csv":
		body, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return body, "text/csv", nil
	case "pdf", "":
		body, err := export.NewPDFExporter().Render(dataset, "Timetable")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return body, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+format)
	}
}

// gridDataset flattens rendered course tables into one exportable table:
// course, semester, day, then one column per time slot.
func gridDataset(tables []timetable.CourseTable) export.Dataset {
	headers := []string{"Course", "Semester", "Day"}
	labelSet := make(map[string]bool)
	var labels []string
	for _, table := range tables {
		for _, label := range table.TimeSlots {
			if !labelSet[label] {
				labelSet[label] = true
				labels = append(labels, label)
			}
		}
	}
	sort.Strings(labels)
	headers = append(headers, labels...)

	var rows []map[string]string
	for _, table := range tables {
		for _, semester := range table.Semesters {
			for _, day := range timetable.Weekdays {
				row := map[string]string{
					"Course":   table.CourseID,
					"Semester": semester,
					"Day":      day,
				}
				for _, label := range table.TimeSlots {
					row[label] = cellText(table.Grid[day][label][semester])
				}
				rows = append(rows, row)
			}
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func cellText(cell timetable.Cell) string {
	if len(cell.Slots) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cell.Slots))
	for _, slot := range cell.Slots {
		text := slot.SubjectName
		if text == "" {
			text = string(slot.SlotType)
		}
		if slot.StaffName != "" {
			text += " (" + slot.StaffName + ")"
		}
		parts = append(parts, text)
	}
	line := strings.Join(parts, " / ")
	if cell.StaffConflict {
		line += " [" + cell.Warning + "]"
	}
	return line
}
