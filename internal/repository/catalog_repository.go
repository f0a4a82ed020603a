package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// CatalogRepository reads the entities a timetable is generated from.
// Every method accepts an optional executor so a generation run can read
// its whole snapshot inside one transaction.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new repository instance.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListSections returns all sections ordered by name.
func (r *CatalogRepository) ListSections(ctx context.Context, exec sqlx.ExtContext) ([]models.Section, error) {
	const query = `SELECT id, name, department, classroom, created_at FROM sections ORDER BY name ASC`
	var sections []models.Section
	if err := sqlx.SelectContext(ctx, r.exec(exec), &sections, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// ListFaculty returns all faculty members ordered by name.
func (r *CatalogRepository) ListFaculty(ctx context.Context, exec sqlx.ExtContext) ([]models.Faculty, error) {
	const query = `SELECT id, name, department, created_at FROM faculty ORDER BY name ASC`
	var faculty []models.Faculty
	if err := sqlx.SelectContext(ctx, r.exec(exec), &faculty, query); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return faculty, nil
}

// ListSubjects returns all subjects ordered by code.
func (r *CatalogRepository) ListSubjects(ctx context.Context, exec sqlx.ExtContext) ([]models.Subject, error) {
	const query = `SELECT id, code, name, type, COALESCE(lab_room, '') AS lab_room, credits, created_at FROM subjects ORDER BY code ASC`
	var subjects []models.Subject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ListRooms returns rooms in creation order. The first room is the
// fallback for unresolvable classrooms, so the order must be stable.
func (r *CatalogRepository) ListRooms(ctx context.Context, exec sqlx.ExtContext) ([]models.Room, error) {
	const query = `SELECT id, name, type, capacity, created_at FROM rooms ORDER BY created_at ASC, id ASC`
	var rooms []models.Room
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListTimeSlots returns the daily template ordered by slot order.
func (r *CatalogRepository) ListTimeSlots(ctx context.Context, exec sqlx.ExtContext) ([]models.TimeSlot, error) {
	const query = `SELECT id, start_time, end_time, slot_order, created_at FROM time_slots ORDER BY slot_order ASC`
	var slots []models.TimeSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// ListFacultySubjects returns every teaching mapping.
func (r *CatalogRepository) ListFacultySubjects(ctx context.Context, exec sqlx.ExtContext) ([]models.FacultySubject, error) {
	const query = `SELECT id, faculty_id, subject_id, section_id FROM faculty_subjects ORDER BY id ASC`
	var rows []models.FacultySubject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query); err != nil {
		return nil, fmt.Errorf("list faculty subjects: %w", err)
	}
	return rows, nil
}

// Stats counts rows across the catalog and timetable tables.
func (r *CatalogRepository) Stats(ctx context.Context) (*models.CatalogStats, error) {
	const query = `
SELECT
    (SELECT COUNT(*) FROM sections) AS sections,
    (SELECT COUNT(*) FROM faculty) AS faculty,
    (SELECT COUNT(*) FROM subjects) AS subjects,
    (SELECT COUNT(*) FROM rooms) AS rooms,
    (SELECT COUNT(*) FROM time_slots) AS time_slots,
    (SELECT COUNT(*) FROM faculty_subjects) AS mappings,
    (SELECT COUNT(*) FROM timetable_entries) AS entries,
    (SELECT COUNT(*) FROM timetable_entries WHERE is_locked) AS locked_entries,
    (SELECT COUNT(*) FROM timetable_entries WHERE session_type = 'lab') AS lab_entries,
    (SELECT COUNT(*) FROM timetable_entries WHERE session_type <> 'lab') AS theory_entries`
	var stats models.CatalogStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	return &stats, nil
}
