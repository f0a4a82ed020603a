package scheduler

import (
	"errors"
	"math"

	"github.com/samber/lo"
)

// ErrNoRooms is returned when obligations cannot be given any room at all.
var ErrNoRooms = errors.New("no rooms defined")

const creditsPerSession = 1.5

// Catalog holds the entities teaching assignments refer to.
type Catalog struct {
	Sections []Section
	Faculty  []Faculty
	Subjects []Subject
	Rooms    []Room
}

// SkippedRow explains why a teaching assignment produced no obligation.
type SkippedRow struct {
	Assignment TeachingAssignment `json:"assignment"`
	Reason     string             `json:"reason"`
}

// BuildResult is the output of BuildObligations.
type BuildResult struct {
	Obligations []Obligation `json:"obligations"`
	Skipped     []SkippedRow `json:"skipped,omitempty"`
}

// BuildObligations derives one obligation per resolvable teaching assignment.
func BuildObligations(rows []TeachingAssignment, catalog Catalog) (BuildResult, error) {
	var result BuildResult
	if len(rows) == 0 {
		return result, nil
	}
	if len(catalog.Rooms) == 0 {
		return result, ErrNoRooms
	}

	sections := lo.KeyBy(catalog.Sections, func(s Section) string { return s.ID })
	faculty := lo.KeyBy(catalog.Faculty, func(f Faculty) string { return f.ID })
	subjects := lo.KeyBy(catalog.Subjects, func(s Subject) string { return s.ID })
	resolver := newRoomResolver(catalog.Rooms)

	result.Obligations = make([]Obligation, 0, len(rows))
	for _, row := range rows {
		subject, ok := subjects[row.SubjectID]
		if !ok {
			result.Skipped = append(result.Skipped, SkippedRow{Assignment: row, Reason: "subject not found"})
			continue
		}
		member, ok := faculty[row.FacultyID]
		if !ok {
			result.Skipped = append(result.Skipped, SkippedRow{Assignment: row, Reason: "faculty not found"})
			continue
		}
		section, ok := sections[row.SectionID]
		if !ok {
			result.Skipped = append(result.Skipped, SkippedRow{Assignment: row, Reason: "section not found"})
			continue
		}

		result.Obligations = append(result.Obligations, Obligation{
			SectionID:        section.ID,
			SubjectID:        subject.ID,
			FacultyID:        member.ID,
			RoomID:           resolver.resolve(subject, section),
			SessionType:      sessionTypeOf(subject),
			SessionsRequired: SessionsRequired(subject),
			SubjectCode:      subject.Code,
			SubjectName:      subject.Name,
			FacultyName:      member.Name,
		})
	}
	return result, nil
}

// SessionsRequired returns the weekly session count for a subject: one
// two-slot block for labs, ceil(credits/1.5) single slots for theory.
func SessionsRequired(subject Subject) int {
	if sessionTypeOf(subject) == SessionLab {
		return 1
	}
	if subject.Credits <= 0 {
		return 0
	}
	return int(math.Ceil(float64(subject.Credits) / creditsPerSession))
}

func sessionTypeOf(subject Subject) SessionType {
	if subject.Kind == SessionLab {
		return SessionLab
	}
	return SessionTheory
}

type roomResolver struct {
	labByName       map[string]Room
	classroomByName map[string]Room
	fallback        Room
}

// newRoomResolver indexes rooms by name. On duplicate names the lab lookup
// keeps the last room and the classroom lookup keeps the first.
func newRoomResolver(rooms []Room) roomResolver {
	labByName := make(map[string]Room, len(rooms))
	classroomByName := make(map[string]Room, len(rooms))
	for _, room := range rooms {
		labByName[room.Name] = room
		if _, exists := classroomByName[room.Name]; !exists {
			classroomByName[room.Name] = room
		}
	}
	return roomResolver{labByName: labByName, classroomByName: classroomByName, fallback: rooms[0]}
}

// resolve picks the dedicated lab room for labs when it exists, otherwise the
// section's home classroom, otherwise the first room of any kind.
func (r roomResolver) resolve(subject Subject, section Section) string {
	if sessionTypeOf(subject) == SessionLab && subject.LabRoom != "" {
		if room, ok := r.labByName[subject.LabRoom]; ok {
			return room.ID
		}
	}
	if room, ok := r.classroomByName[section.Classroom]; ok && section.Classroom != "" {
		return room.ID
	}
	return r.fallback.ID
}
