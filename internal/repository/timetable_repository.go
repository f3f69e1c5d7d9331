package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniplan/uniplan-api/internal/models"
)

// TimetableRepository handles persistence for generated slot sets and saved
// timetables.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new repository instance.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// generatedRow is the storage shape for one generation result: the whole
// normalised slot set as a JSON document keyed by batch.
type generatedRow struct {
	SchoolID     string    `db:"school_id"`
	DepartmentID string    `db:"department_id"`
	SemesterType string    `db:"semester_type"`
	Slots        []byte    `db:"slots"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// UpsertGenerated stores the latest generation result for a batch, replacing
// any previous one. A failed generate never reaches this call, so prior
// results survive engine outages.
func (r *TimetableRepository) UpsertGenerated(ctx context.Context, batch models.GeneratedBatch, set models.SlotSet) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal generated slots: %w", err)
	}

	const query = `INSERT INTO generated_timetables (school_id, department_id, semester_type, slots, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (school_id, department_id, semester_type)
		DO UPDATE SET slots = EXCLUDED.slots, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, batch.SchoolID, batch.DepartmentID, batch.SemesterType, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert generated timetable: %w", err)
	}
	return nil
}

// GetGenerated returns the stored generation result for a batch, nil when
// the batch has never been generated.
func (r *TimetableRepository) GetGenerated(ctx context.Context, batch models.GeneratedBatch) (models.SlotSet, error) {
	const query = `SELECT school_id, department_id, semester_type, slots, updated_at FROM generated_timetables WHERE school_id = $1 AND department_id = $2 AND semester_type = $3 LIMIT 1`
	var row generatedRow
	if err := r.db.GetContext(ctx, &row, query, batch.SchoolID, batch.DepartmentID, batch.SemesterType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get generated timetable: %w", err)
	}

	var set models.SlotSet
	if err := json.Unmarshal(row.Slots, &set); err != nil {
		return nil, fmt.Errorf("unmarshal generated slots: %w", err)
	}
	return set, nil
}

// SaveTimetable upserts a named timetable snapshot. The operator-supplied
// name is the conflict key, so saving the same name again overwrites.
func (r *TimetableRepository) SaveTimetable(ctx context.Context, saved *models.SavedTimetable) error {
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now

	const query = `INSERT INTO saved_timetables (id, name, course_id, department_id, school_id, course_name, timetable_data, created_at, updated_at)
		VALUES (:id, :name, :course_id, :department_id, :school_id, :course_name, :timetable_data, :created_at, :updated_at)
		ON CONFLICT (name)
		DO UPDATE SET course_id = EXCLUDED.course_id, department_id = EXCLUDED.department_id, school_id = EXCLUDED.school_id, course_name = EXCLUDED.course_name, timetable_data = EXCLUDED.timetable_data, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, saved); err != nil {
		return fmt.Errorf("save timetable: %w", err)
	}
	return nil
}

// ListSaved returns saved timetables, newest first.
func (r *TimetableRepository) ListSaved(ctx context.Context) ([]models.SavedTimetable, error) {
	const query = `SELECT id, name, course_id, department_id, school_id, course_name, timetable_data, created_at, updated_at FROM saved_timetables ORDER BY updated_at DESC`
	var saved []models.SavedTimetable
	if err := r.db.SelectContext(ctx, &saved, query); err != nil {
		return nil, fmt.Errorf("list saved timetables: %w", err)
	}
	return saved, nil
}

// FindSavedByID returns one saved timetable, nil when absent.
func (r *TimetableRepository) FindSavedByID(ctx context.Context, id string) (*models.SavedTimetable, error) {
	const query = `SELECT id, name, course_id, department_id, school_id, course_name, timetable_data, created_at, updated_at FROM saved_timetables WHERE id = $1 LIMIT 1`
	var saved models.SavedTimetable
	if err := r.db.GetContext(ctx, &saved, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find saved timetable: %w", err)
	}
	return &saved, nil
}
