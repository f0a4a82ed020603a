package dto

import (
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
)

// Generation actions.
const (
	ActionGenerate   = "generate"
	ActionRegenerate = "regenerate"
)

// GenerateTimetableRequest triggers a generation run. An empty action means
// generate; regenerate first clears every unlocked entry.
type GenerateTimetableRequest struct {
	Action string `json:"action" mapstructure:"action" validate:"omitempty,oneof=generate regenerate"`
	Seed   *int64 `json:"seed,omitempty" mapstructure:"seed" validate:"omitempty"`
}

// Regenerate reports whether unlocked entries should be replaced.
func (r GenerateTimetableRequest) Regenerate() bool {
	return r.Action == ActionRegenerate
}

// SkippedMapping is a faculty-subject row that produced no obligation.
type SkippedMapping struct {
	MappingID string `json:"mapping_id"`
	FacultyID string `json:"faculty_id"`
	SubjectID string `json:"subject_id"`
	SectionID string `json:"section_id"`
	Reason    string `json:"reason"`
}

// ShortfallSummary reports an under-scheduled obligation.
type ShortfallSummary struct {
	SectionID   string `json:"section_id"`
	SubjectID   string `json:"subject_id"`
	SubjectCode string `json:"subject_code,omitempty"`
	FacultyID   string `json:"faculty_id"`
	SessionType string `json:"session_type"`
	Required    int    `json:"required"`
	Placed      int    `json:"placed"`
}

// GenerateTimetableResponse mirrors the generation outcome.
type GenerateTimetableResponse struct {
	Success          bool                        `json:"success"`
	Message          string                      `json:"message"`
	EntriesCount     int                         `json:"entries_count"`
	DeletedCount     int64                       `json:"deleted_count,omitempty"`
	LockedCount      int                         `json:"locked_count,omitempty"`
	Score            int                         `json:"score"`
	ScoreBreakdown   scheduler.ScoreBreakdown    `json:"score_breakdown"`
	Shortfalls       []ShortfallSummary          `json:"shortfalls,omitempty"`
	Skipped          []SkippedMapping            `json:"skipped,omitempty"`
	LockedCollisions []scheduler.LockedCollision `json:"locked_collisions,omitempty"`
}

// Generation job states.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// GenerationJobResponse describes an async generation job.
type GenerationJobResponse struct {
	JobID      string                     `json:"job_id"`
	Action     string                     `json:"action"`
	Status     string                     `json:"status"`
	Attempts   int                        `json:"attempts"`
	Error      string                     `json:"error,omitempty"`
	Result     *GenerateTimetableResponse `json:"result,omitempty"`
	EnqueuedAt time.Time                  `json:"enqueued_at"`
	StartedAt  *time.Time                 `json:"started_at,omitempty"`
	FinishedAt *time.Time                 `json:"finished_at,omitempty"`
}

// TimetableQuery filters timetable listings.
type TimetableQuery struct {
	SectionID string `form:"section_id"`
	FacultyID string `form:"faculty_id"`
	RoomID    string `form:"room_id"`
	DayOfWeek int    `form:"day_of_week" validate:"omitempty,min=1,max=5"`
	Locked    *bool  `form:"locked"`
}

// Filter converts the query to a repository filter.
func (q TimetableQuery) Filter() models.TimetableFilter {
	return models.TimetableFilter{
		SectionID: q.SectionID,
		FacultyID: q.FacultyID,
		RoomID:    q.RoomID,
		DayOfWeek: q.DayOfWeek,
		Locked:    q.Locked,
	}
}

// ToggleLockRequest sets the lock flag. A nil value flips the current state.
type ToggleLockRequest struct {
	IsLocked *bool `json:"is_locked"`
}

// TimetableEntryView is a listing row with its formatted slot label.
type TimetableEntryView struct {
	models.TimetableEntryDetail
	DayName   string `json:"day_name"`
	SlotLabel string `json:"slot_label"`
}

// ConflictReport is the result of auditing persisted entries.
type ConflictReport struct {
	Checked   int                  `json:"checked"`
	Conflicts []scheduler.Conflict `json:"conflicts"`
}

// ExportQuery selects the export format and scope.
type ExportQuery struct {
	Format    string `form:"format" validate:"omitempty,oneof=csv pdf"`
	SectionID string `form:"section_id"`
	FacultyID string `form:"faculty_id"`
	RoomID    string `form:"room_id"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
