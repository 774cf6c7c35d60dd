package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// ConstraintRepository reads the scheduling rules that change between generation runs.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository constructs the repository.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// ListTeacherConstraints returns the unavailability windows of a term.
func (r *ConstraintRepository) ListTeacherConstraints(ctx context.Context, termID string) ([]models.TeacherConstraint, error) {
	const query = `SELECT id, term_id, teacher_id, day_of_week, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, reason
FROM teacher_constraints WHERE term_id = $1 ORDER BY teacher_id ASC, day_of_week ASC, start_time ASC`
	var rows []models.TeacherConstraint
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("list teacher constraints: %w", err)
	}
	return rows, nil
}

// ListSubjectRequirements returns room and time-of-day requirements per subject.
func (r *ConstraintRepository) ListSubjectRequirements(ctx context.Context) ([]models.SubjectRequirement, error) {
	const query = `SELECT subject_id, room_id, room_category, time_preference FROM subject_requirements ORDER BY subject_id ASC`
	var rows []models.SubjectRequirement
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list subject requirements: %w", err)
	}
	return rows, nil
}

// ListLessonRequirements returns per-class weekly hour overrides of a term.
func (r *ConstraintRepository) ListLessonRequirements(ctx context.Context, termID string) ([]models.LessonRequirement, error) {
	const query = `SELECT term_id, class_id, subject_id, hours FROM lesson_requirements WHERE term_id = $1 ORDER BY class_id ASC, subject_id ASC`
	var rows []models.LessonRequirement
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("list lesson requirements: %w", err)
	}
	return rows, nil
}
