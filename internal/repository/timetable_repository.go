package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// TimetableRepository persists versioned timetables and their lessons.
// Lesson ids are unique per timetable: (timetable_id, id) is the key of timetable_lessons.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a timetable assigning the next version of its term.
func (r *TimetableRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if timetable.TermID == "" {
		return fmt.Errorf("term_id is required")
	}
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.Status == "" {
		timetable.Status = models.TimetableStatusDraft
	}
	if len(timetable.Meta) == 0 {
		timetable.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now
	if timetable.Status == models.TimetableStatusPublished && timetable.PublishedAt == nil {
		timetable.PublishedAt = &now
	}

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetables WHERE term_id = $1`
	if err := sqlx.GetContext(ctx, target, &timetable.Version, nextVersionQuery, timetable.TermID); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const insertQuery = `
INSERT INTO timetables (id, term_id, version, status, meta, created_at, updated_at, published_at)
VALUES (:id, :term_id, :version, :status, :meta, :created_at, :updated_at, :published_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, timetable); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// InsertLessons stores the lessons of a timetable version.
func (r *TimetableRepository) InsertLessons(ctx context.Context, exec sqlx.ExtContext, lessons []models.TimetableLesson) error {
	if len(lessons) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_lessons (id, timetable_id, day_of_week, start_time, end_time, subject_id, class_id, teacher_id, room_id, created_at)
VALUES (:id, :timetable_id, :day_of_week, :start_time, :end_time, :subject_id, :class_id, :teacher_id, :room_id, :created_at)`

	for i := range lessons {
		lesson := &lessons[i]
		if lesson.ID == "" {
			lesson.ID = uuid.NewString()
		}
		if lesson.CreatedAt.IsZero() {
			lesson.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, lesson); err != nil {
			return fmt.Errorf("insert timetable lesson: %w", err)
		}
	}
	return nil
}

// ArchivePublished moves the published versions of a term, other than exceptID, to ARCHIVED.
func (r *TimetableRepository) ArchivePublished(ctx context.Context, exec sqlx.ExtContext, termID, exceptID string) (int64, error) {
	const query = `UPDATE timetables SET status = $1, updated_at = $2 WHERE term_id = $3 AND status = $4 AND id <> $5`
	result, err := r.exec(exec).ExecContext(ctx, query, models.TimetableStatusArchived, time.Now().UTC(), termID, models.TimetableStatusPublished, exceptID)
	if err != nil {
		return 0, fmt.Errorf("archive published timetables: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archived timetables rows affected: %w", err)
	}
	return affected, nil
}

// ListByTerm returns all versions of a term, newest first.
func (r *TimetableRepository) ListByTerm(ctx context.Context, termID string) ([]models.Timetable, error) {
	const query = `SELECT id, term_id, version, status, meta, created_at, updated_at, published_at FROM timetables WHERE term_id = $1 ORDER BY version DESC`
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, termID); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return timetables, nil
}

// FindByID loads a timetable by its identifier. sql.ErrNoRows is returned unwrapped.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	const query = `SELECT id, term_id, version, status, meta, created_at, updated_at, published_at FROM timetables WHERE id = $1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// ListLessons returns the lessons of a timetable ordered by day and start time.
func (r *TimetableRepository) ListLessons(ctx context.Context, timetableID string) ([]models.TimetableLesson, error) {
	const query = `SELECT id, timetable_id, day_of_week, start_time, end_time, subject_id, class_id, teacher_id, room_id, created_at FROM timetable_lessons WHERE timetable_id = $1 ORDER BY day_of_week ASC, start_time ASC, class_id ASC`
	var lessons []models.TimetableLesson
	if err := r.db.SelectContext(ctx, &lessons, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable lessons: %w", err)
	}
	return lessons, nil
}

// Delete removes a timetable version together with its lessons.
func (r *TimetableRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM timetable_lessons WHERE timetable_id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable lessons: %w", err)
	}
	result, err := target.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
