package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const timetableDetailSelect = `
SELECT te.id, te.section_id, te.subject_id, te.faculty_id, te.room_id, te.time_slot_id, te.day_of_week,
       te.session_type, te.is_locked, te.created_at, te.updated_at,
       sec.name AS section_name, sub.name AS subject_name, sub.code AS subject_code,
       f.name AS faculty_name, r.name AS room_name,
       ts.start_time, ts.end_time, ts.slot_order
FROM timetable_entries te
JOIN sections sec ON sec.id = te.section_id
JOIN subjects sub ON sub.id = te.subject_id
JOIN faculty f ON f.id = te.faculty_id
JOIN rooms r ON r.id = te.room_id
JOIN time_slots ts ON ts.id = te.time_slot_id`

// TimetableRepository persists generated timetable entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new repository instance.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns entries with joined names matching the filter, ordered by
// day and slot.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("te.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.FacultyID != "" {
		conditions = append(conditions, fmt.Sprintf("te.faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("te.room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.DayOfWeek > 0 {
		conditions = append(conditions, fmt.Sprintf("te.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.Locked != nil {
		conditions = append(conditions, fmt.Sprintf("te.is_locked = $%d", len(args)+1))
		args = append(args, *filter.Locked)
	}

	query := timetableDetailSelect
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\nORDER BY te.day_of_week ASC, ts.slot_order ASC, sec.name ASC"

	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// FindByID returns a single entry with details.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error) {
	query := timetableDetailSelect + "\nWHERE te.id = $1"
	var entry models.TimetableEntryDetail
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListLocked returns the locked entries a generation run must preserve.
func (r *TimetableRepository) ListLocked(ctx context.Context, exec sqlx.ExtContext) ([]models.TimetableEntry, error) {
	const query = `SELECT id, section_id, subject_id, faculty_id, room_id, time_slot_id, day_of_week, session_type, is_locked, created_at, updated_at
FROM timetable_entries WHERE is_locked = TRUE`
	var entries []models.TimetableEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query); err != nil {
		return nil, fmt.Errorf("list locked timetable entries: %w", err)
	}
	return entries, nil
}

// SetLocked updates the lock flag of an entry.
func (r *TimetableRepository) SetLocked(ctx context.Context, id string, locked bool) error {
	const query = `UPDATE timetable_entries SET is_locked = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, locked, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update timetable entry lock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timetable entry lock rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteUnlocked removes every entry that is not locked and reports how
// many rows were removed.
func (r *TimetableRepository) DeleteUnlocked(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	const query = `DELETE FROM timetable_entries WHERE is_locked = FALSE`
	res, err := r.exec(exec).ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete unlocked timetable entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete unlocked timetable entries rows: %w", err)
	}
	return affected, nil
}

// InsertBatch persists new entries, assigning ids and timestamps.
func (r *TimetableRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_entries (id, section_id, subject_id, faculty_id, room_id, time_slot_id, day_of_week, session_type, is_locked, created_at, updated_at)
VALUES (:id, :section_id, :subject_id, :faculty_id, :room_id, :time_slot_id, :day_of_week, :session_type, :is_locked, :created_at, :updated_at)`

	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}
	return nil
}

// CountUnlocked returns the number of entries a regenerate would replace.
func (r *TimetableRepository) CountUnlocked(ctx context.Context, exec sqlx.ExtContext) (int, error) {
	const query = `SELECT COUNT(*) FROM timetable_entries WHERE is_locked = FALSE`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query); err != nil {
		return 0, fmt.Errorf("count unlocked timetable entries: %w", err)
	}
	return count, nil
}
