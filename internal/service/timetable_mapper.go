package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
)

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
}

func dayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return fmt.Sprintf("Day %d", day)
}

// formatSlotTime renders "HH:MM[:SS]" as "h:mm AM/PM".
func formatSlotTime(raw string) string {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return raw
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return raw
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%s %s", display, parts[1], suffix)
}

func slotLabel(start, end string) string {
	return formatSlotTime(start) + " - " + formatSlotTime(end)
}

func toSchedulerSlots(slots []models.TimeSlot) []scheduler.TimeSlot {
	return lo.Map(slots, func(s models.TimeSlot, _ int) scheduler.TimeSlot {
		return scheduler.TimeSlot{ID: s.ID, StartTime: s.StartTime, EndTime: s.EndTime, SlotOrder: s.SlotOrder}
	})
}

func toSchedulerRooms(rooms []models.Room) []scheduler.Room {
	return lo.Map(rooms, func(r models.Room, _ int) scheduler.Room {
		return scheduler.Room{ID: r.ID, Name: r.Name, Kind: scheduler.RoomKind(r.Type), Capacity: r.Capacity}
	})
}

func toSchedulerCatalog(sections []models.Section, faculty []models.Faculty, subjects []models.Subject, rooms []models.Room) scheduler.Catalog {
	return scheduler.Catalog{
		Sections: lo.Map(sections, func(s models.Section, _ int) scheduler.Section {
			return scheduler.Section{ID: s.ID, Name: s.Name, Department: s.Department, Classroom: s.Classroom}
		}),
		Faculty: lo.Map(faculty, func(f models.Faculty, _ int) scheduler.Faculty {
			return scheduler.Faculty{ID: f.ID, Name: f.Name, Department: f.Department}
		}),
		Subjects: lo.Map(subjects, func(s models.Subject, _ int) scheduler.Subject {
			return scheduler.Subject{
				ID:      s.ID,
				Name:    s.Name,
				Code:    s.Code,
				Kind:    scheduler.SessionType(s.Type),
				LabRoom: s.LabRoom,
				Credits: s.Credits,
			}
		}),
		Rooms: toSchedulerRooms(rooms),
	}
}

func toTeachingAssignments(rows []models.FacultySubject) []scheduler.TeachingAssignment {
	return lo.Map(rows, func(r models.FacultySubject, _ int) scheduler.TeachingAssignment {
		return scheduler.TeachingAssignment{ID: r.ID, FacultyID: r.FacultyID, SubjectID: r.SubjectID, SectionID: r.SectionID}
	})
}

func toLockedEntries(entries []models.TimetableEntry) []scheduler.LockedEntry {
	return lo.Map(entries, func(e models.TimetableEntry, _ int) scheduler.LockedEntry {
		return scheduler.LockedEntry{
			ID:          e.ID,
			SectionID:   e.SectionID,
			SubjectID:   e.SubjectID,
			FacultyID:   e.FacultyID,
			RoomID:      e.RoomID,
			TimeSlotID:  e.TimeSlotID,
			DayOfWeek:   e.DayOfWeek,
			SessionType: scheduler.SessionType(e.SessionType),
		}
	})
}

func toTimetableEntries(assignments []scheduler.Assignment) []models.TimetableEntry {
	return lo.Map(assignments, func(a scheduler.Assignment, _ int) models.TimetableEntry {
		return models.TimetableEntry{
			SectionID:   a.Obligation.SectionID,
			SubjectID:   a.Obligation.SubjectID,
			FacultyID:   a.Obligation.FacultyID,
			RoomID:      a.Obligation.RoomID,
			TimeSlotID:  a.TimeSlotID,
			DayOfWeek:   a.DayOfWeek,
			SessionType: string(a.Obligation.SessionType),
			IsLocked:    false,
		}
	})
}

func toShortfallSummaries(shortfalls []scheduler.Shortfall) []dto.ShortfallSummary {
	return lo.Map(shortfalls, func(s scheduler.Shortfall, _ int) dto.ShortfallSummary {
		return dto.ShortfallSummary{
			SectionID:   s.Obligation.SectionID,
			SubjectID:   s.Obligation.SubjectID,
			SubjectCode: s.Obligation.SubjectCode,
			FacultyID:   s.Obligation.FacultyID,
			SessionType: string(s.Obligation.SessionType),
			Required:    s.Required,
			Placed:      s.Placed,
		}
	})
}

func toSkippedMappings(rows []scheduler.SkippedRow) []dto.SkippedMapping {
	return lo.Map(rows, func(r scheduler.SkippedRow, _ int) dto.SkippedMapping {
		return dto.SkippedMapping{
			MappingID: r.Assignment.ID,
			FacultyID: r.Assignment.FacultyID,
			SubjectID: r.Assignment.SubjectID,
			SectionID: r.Assignment.SectionID,
			Reason:    r.Reason,
		}
	})
}

func toPlacement(entry models.TimetableEntryDetail) scheduler.Placement {
	return scheduler.Placement{
		EntryID:     entry.ID,
		FacultyID:   entry.FacultyID,
		SectionID:   entry.SectionID,
		RoomID:      entry.RoomID,
		DayOfWeek:   entry.DayOfWeek,
		SlotOrder:   entry.SlotOrder,
		SessionType: scheduler.SessionType(entry.SessionType),
	}
}

func toEntryView(entry models.TimetableEntryDetail) dto.TimetableEntryView {
	return dto.TimetableEntryView{
		TimetableEntryDetail: entry,
		DayName:              dayName(entry.DayOfWeek),
		SlotLabel:            slotLabel(entry.StartTime, entry.EndTime),
	}
}
