package scheduler

import "fmt"

// SessionType distinguishes single-slot theory sessions from two-slot labs.
type SessionType string

const (
	SessionTheory SessionType = "theory"
	SessionLab    SessionType = "lab"
)

// RoomKind classifies rooms.
type RoomKind string

const (
	RoomClassroom RoomKind = "classroom"
	RoomLab       RoomKind = "lab"
)

// Days of the teaching week, Monday (1) through Friday (5).
var weekDays = []int{1, 2, 3, 4, 5}

var (
	labStartPreference    = []int{4, 3, 5, 2, 6}
	theorySlotPreference  = []int{3, 2, 4, 5, 1, 6, 7}
	labSpan               = 2
	maxSectionLoadPerDay  = 5
	earlySlotOrder        = 1
	lateSlotOrder         = 7
	earlySlotPenalty      = 2
	lateSlotPenalty       = 1
	sectionOverloadWeight = 3
	facultyGapWeight      = 2
)

// TimeSlot is one position of the daily template shared by every weekday.
type TimeSlot struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	SlotOrder int    `json:"slot_order"`
}

// Room is a bookable space.
type Room struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     RoomKind `json:"type"`
	Capacity int      `json:"capacity"`
}

// Section is a cohort of students with a home classroom.
type Section struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Classroom  string `json:"classroom"`
}

// Faculty is a teaching staff member.
type Faculty struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// Subject is a course taught to sections.
type Subject struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Code    string      `json:"code"`
	Kind    SessionType `json:"type"`
	LabRoom string      `json:"lab_room,omitempty"`
	Credits int         `json:"credits"`
}

// TeachingAssignment states that a faculty member teaches a subject to a section.
type TeachingAssignment struct {
	ID        string `json:"id"`
	FacultyID string `json:"faculty_id"`
	SubjectID string `json:"subject_id"`
	SectionID string `json:"section_id"`
}

// Obligation is the schedulable unit derived from one TeachingAssignment.
type Obligation struct {
	SectionID        string      `json:"section_id"`
	SubjectID        string      `json:"subject_id"`
	FacultyID        string      `json:"faculty_id"`
	RoomID           string      `json:"room_id"`
	SessionType      SessionType `json:"session_type"`
	SessionsRequired int         `json:"sessions_required"`
	SubjectCode      string      `json:"subject_code,omitempty"`
	SubjectName      string      `json:"subject_name,omitempty"`
	FacultyName      string      `json:"faculty_name,omitempty"`
}

func (o Obligation) String() string {
	name := o.SubjectName
	if name == "" {
		name = o.SubjectID
	}
	return fmt.Sprintf("%s (%s) section=%s faculty=%s", name, o.SessionType, o.SectionID, o.FacultyID)
}

// LockedEntry is a committed placement that generation must keep as-is.
type LockedEntry struct {
	ID          string      `json:"id"`
	SectionID   string      `json:"section_id"`
	SubjectID   string      `json:"subject_id"`
	FacultyID   string      `json:"faculty_id"`
	RoomID      string      `json:"room_id"`
	TimeSlotID  string      `json:"time_slot_id"`
	DayOfWeek   int         `json:"day_of_week"`
	SessionType SessionType `json:"session_type"`
}

// Assignment places an obligation at a day and slot. Labs are anchored at
// their first slot; SlotOrder+1 is held implicitly.
type Assignment struct {
	Obligation Obligation `json:"obligation"`
	DayOfWeek  int        `json:"day_of_week"`
	TimeSlotID string     `json:"time_slot_id"`
	SlotOrder  int        `json:"slot_order"`
}

// Slots returns every slot order the assignment occupies.
func (a Assignment) Slots() []int {
	return spanFor(a.Obligation.SessionType, a.SlotOrder)
}

// Shortfall reports an obligation that got fewer sessions than required.
type Shortfall struct {
	Obligation Obligation `json:"obligation"`
	Required   int        `json:"required"`
	Placed     int        `json:"placed"`
}

// LockedCollision is a cell claimed by a locked entry that an earlier locked
// entry already holds. Both entries stay in place; the overlap is reported.
type LockedCollision struct {
	EntryID    string   `json:"entry_id"`
	Resource   Resource `json:"resource"`
	ResourceID string   `json:"resource_id"`
	Cell       Cell     `json:"cell"`
}

// Missing is the number of sessions that could not be placed.
func (s Shortfall) Missing() int {
	return s.Required - s.Placed
}

func spanFor(kind SessionType, start int) []int {
	if kind == SessionLab {
		span := make([]int, labSpan)
		for i := range span {
			span[i] = start + i
		}
		return span
	}
	return []int{start}
}
