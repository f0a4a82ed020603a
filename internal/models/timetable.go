package models

import "time"

// Session types stored in timetable_entries.session_type.
const (
	SessionTypeTheory = "theory"
	SessionTypeLab    = "lab"
)

// TimetableEntry is one placed session. Lab entries reference their first
// slot and implicitly hold the next one.
type TimetableEntry struct {
	ID          string    `db:"id" json:"id" csv:"id"`
	SectionID   string    `db:"section_id" json:"section_id" csv:"section_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id" csv:"subject_id"`
	FacultyID   string    `db:"faculty_id" json:"faculty_id" csv:"faculty_id"`
	RoomID      string    `db:"room_id" json:"room_id" csv:"room_id"`
	TimeSlotID  string    `db:"time_slot_id" json:"time_slot_id" csv:"time_slot_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week" csv:"day_of_week"`
	SessionType string    `db:"session_type" json:"session_type" csv:"session_type"`
	IsLocked    bool      `db:"is_locked" json:"is_locked" csv:"is_locked"`
	CreatedAt   time.Time `db:"created_at" json:"created_at" csv:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at" csv:"-"`
}

// TimetableEntryDetail joins an entry with the names a grid view needs.
type TimetableEntryDetail struct {
	TimetableEntry
	SectionName string `db:"section_name" json:"section_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
	FacultyName string `db:"faculty_name" json:"faculty_name"`
	RoomName    string `db:"room_name" json:"room_name"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
	SlotOrder   int    `db:"slot_order" json:"slot_order"`
}

// TimetableFilter describes query params for listing entries.
type TimetableFilter struct {
	SectionID string
	FacultyID string
	RoomID    string
	DayOfWeek int
	Locked    *bool
}
