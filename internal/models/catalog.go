package models

import "time"

// Section represents a student cohort with its home classroom.
type Section struct {
	ID         string    `db:"id" json:"id" csv:"id"`
	Name       string    `db:"name" json:"name" csv:"name"`
	Department string    `db:"department" json:"department" csv:"department"`
	Classroom  string    `db:"classroom" json:"classroom" csv:"classroom"`
	CreatedAt  time.Time `db:"created_at" json:"created_at" csv:"-"`
}

// Faculty represents a teaching staff member.
type Faculty struct {
	ID         string    `db:"id" json:"id" csv:"id"`
	Name       string    `db:"name" json:"name" csv:"name"`
	Department string    `db:"department" json:"department" csv:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at" csv:"-"`
}

// Subject types stored in subjects.type.
const (
	SubjectTypeTheory = "theory"
	SubjectTypeLab    = "lab"
)

// Subject represents a course.
type Subject struct {
	ID        string    `db:"id" json:"id" csv:"id"`
	Code      string    `db:"code" json:"code" csv:"code"`
	Name      string    `db:"name" json:"name" csv:"name"`
	Type      string    `db:"type" json:"type" csv:"type"`
	LabRoom   string    `db:"lab_room" json:"lab_room,omitempty" csv:"lab_room"`
	Credits   int       `db:"credits" json:"credits" csv:"credits"`
	CreatedAt time.Time `db:"created_at" json:"created_at" csv:"-"`
}

// Room represents a bookable space.
type Room struct {
	ID        string    `db:"id" json:"id" csv:"id"`
	Name      string    `db:"name" json:"name" csv:"name"`
	Type      string    `db:"type" json:"type" csv:"type"`
	Capacity  int       `db:"capacity" json:"capacity" csv:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at" csv:"-"`
}

// TimeSlot is a position in the daily template.
type TimeSlot struct {
	ID        string    `db:"id" json:"id" csv:"id"`
	StartTime string    `db:"start_time" json:"start_time" csv:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time" csv:"end_time"`
	SlotOrder int       `db:"slot_order" json:"slot_order" csv:"slot_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at" csv:"-"`
}

// FacultySubject maps a faculty member to a subject taught to a section.
type FacultySubject struct {
	ID        string `db:"id" json:"id" csv:"id"`
	FacultyID string `db:"faculty_id" json:"faculty_id" csv:"faculty_id"`
	SubjectID string `db:"subject_id" json:"subject_id" csv:"subject_id"`
	SectionID string `db:"section_id" json:"section_id" csv:"section_id"`
}

// CatalogStats summarises table sizes for the dashboard.
type CatalogStats struct {
	Sections      int `db:"sections" json:"sections"`
	Faculty       int `db:"faculty" json:"faculty"`
	Subjects      int `db:"subjects" json:"subjects"`
	Rooms         int `db:"rooms" json:"rooms"`
	TimeSlots     int `db:"time_slots" json:"time_slots"`
	Mappings      int `db:"mappings" json:"mappings"`
	Entries       int `db:"entries" json:"entries"`
	LockedEntries int `db:"locked_entries" json:"locked_entries"`
	LabEntries    int `db:"lab_entries" json:"lab_entries"`
	TheoryEntries int `db:"theory_entries" json:"theory_entries"`
}

// MetricsSnapshot is a lightweight view over the service counters.
type MetricsSnapshot struct {
	RequestsTotal      uint64    `json:"requests_total"`
	CacheHitRatio      float64   `json:"cache_hit_ratio"`
	Generations        uint64    `json:"generations"`
	LastGeneratedCount int       `json:"last_generated_count"`
	LastScore          int       `json:"last_score"`
	LastShortfallCount int       `json:"last_shortfall_count"`
	Goroutines         int       `json:"goroutines"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// DashboardStats is the payload of the stats endpoint.
type DashboardStats struct {
	Counts  CatalogStats    `json:"counts"`
	Metrics MetricsSnapshot `json:"metrics"`
}

// CatalogSnapshot bundles every generation input read at one point in time.
type CatalogSnapshot struct {
	Mappings  []FacultySubject
	Sections  []Section
	Faculty   []Faculty
	Subjects  []Subject
	Rooms     []Room
	TimeSlots []TimeSlot
	Locked    []TimetableEntry
}
