package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// CatalogRepository reads the reference data the scheduling engine plans against. Every list is
// returned in a stable order because the engine breaks ties by catalog position.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListSubjects returns all subjects ordered by code.
func (r *CatalogRepository) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, code, name, weekly_hours, coefficient FROM subjects ORDER BY code ASC, id ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ListGrades returns all grades ordered by level.
func (r *CatalogRepository) ListGrades(ctx context.Context) ([]models.Grade, error) {
	const query = `SELECT id, name, level FROM grades ORDER BY level ASC, id ASC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ListClasses returns all classes with their grade level, ordered by name.
func (r *CatalogRepository) ListClasses(ctx context.Context) ([]models.Class, error) {
	const query = `SELECT c.id, c.name, c.abbreviation, c.grade_id, g.level AS grade_level, c.capacity
FROM classes c LEFT JOIN grades g ON g.id = c.grade_id ORDER BY c.name ASC, c.id ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListTeachers returns active teachers ordered by name.
func (r *CatalogRepository) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, full_name, active FROM teachers WHERE active = TRUE ORDER BY full_name ASC, id ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// ListTeacherSubjects returns every teacher qualification.
func (r *CatalogRepository) ListTeacherSubjects(ctx context.Context) ([]models.TeacherSubject, error) {
	const query = `SELECT teacher_id, subject_id FROM teacher_subjects ORDER BY teacher_id ASC, subject_id ASC`
	var rows []models.TeacherSubject
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return rows, nil
}

// ListTeacherClasses returns every class a teacher may be scheduled for.
func (r *CatalogRepository) ListTeacherClasses(ctx context.Context) ([]models.TeacherClass, error) {
	const query = `SELECT teacher_id, class_id FROM teacher_classes ORDER BY teacher_id ASC, class_id ASC`
	var rows []models.TeacherClass
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teacher classes: %w", err)
	}
	return rows, nil
}

// ListRooms returns all rooms ordered by name.
func (r *CatalogRepository) ListRooms(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name, capacity, category FROM rooms ORDER BY name ASC, id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
