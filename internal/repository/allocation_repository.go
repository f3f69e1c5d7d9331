package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniplan/uniplan-api/internal/models"
)

// AllocationRepository handles persistence for subject-staff allocations.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository creates a new repository instance.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// Replace swaps the allocation set for a school/department pair inside one
// transaction. Re-submitting allocations is idempotent: the previous set is
// dropped before the new one lands.
func (r *AllocationRepository) Replace(ctx context.Context, schoolID, departmentID string, allocations []models.Allocation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin allocations tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM allocations WHERE school_id = $1 AND department_id = $2`, schoolID, departmentID); err != nil {
		return fmt.Errorf("clear allocations: %w", err)
	}

	const insert = `INSERT INTO allocations (id, school_id, department_id, course_id, subject_id, subject_name, staff_id, staff_name, theory_credits, lab_credits, created_at) VALUES (:id, :school_id, :department_id, :course_id, :subject_id, :subject_name, :staff_id, :staff_name, :theory_credits, :lab_credits, :created_at)`
	now := time.Now().UTC()
	for i := range allocations {
		if allocations[i].ID == "" {
			allocations[i].ID = uuid.NewString()
		}
		allocations[i].SchoolID = schoolID
		allocations[i].DepartmentID = departmentID
		if allocations[i].CreatedAt.IsZero() {
			allocations[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insert, allocations[i]); err != nil {
			return fmt.Errorf("insert allocation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit allocations: %w", err)
	}
	return nil
}

// List returns the stored allocations for a school/department pair.
func (r *AllocationRepository) List(ctx context.Context, schoolID, departmentID string) ([]models.Allocation, error) {
	const query = `SELECT id, school_id, department_id, course_id, subject_id, subject_name, staff_id, staff_name, theory_credits, lab_credits, created_at FROM allocations WHERE school_id = $1 AND department_id = $2 ORDER BY subject_name`
	var allocations []models.Allocation
	if err := r.db.SelectContext(ctx, &allocations, query, schoolID, departmentID); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocations, nil
}
