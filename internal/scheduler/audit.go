package scheduler

import (
	"sort"
)

// Placement is a persisted entry reduced to what the audit needs.
type Placement struct {
	EntryID     string      `json:"entry_id"`
	FacultyID   string      `json:"faculty_id"`
	SectionID   string      `json:"section_id"`
	RoomID      string      `json:"room_id"`
	DayOfWeek   int         `json:"day_of_week"`
	SlotOrder   int         `json:"slot_order"`
	SessionType SessionType `json:"session_type"`
}

// PlacementFromAssignment converts a generated assignment.
func PlacementFromAssignment(entryID string, a Assignment) Placement {
	return Placement{
		EntryID:     entryID,
		FacultyID:   a.Obligation.FacultyID,
		SectionID:   a.Obligation.SectionID,
		RoomID:      a.Obligation.RoomID,
		DayOfWeek:   a.DayOfWeek,
		SlotOrder:   a.SlotOrder,
		SessionType: a.Obligation.SessionType,
	}
}

// PlacementFromLocked converts a locked entry using the slot template.
func PlacementFromLocked(entry LockedEntry, slots []TimeSlot) (Placement, bool) {
	for _, slot := range slots {
		if slot.ID == entry.TimeSlotID {
			return Placement{
				EntryID:     entry.ID,
				FacultyID:   entry.FacultyID,
				SectionID:   entry.SectionID,
				RoomID:      entry.RoomID,
				DayOfWeek:   entry.DayOfWeek,
				SlotOrder:   slot.SlotOrder,
				SessionType: entry.SessionType,
			}, true
		}
	}
	return Placement{}, false
}

// ConflictKind tells double bookings from malformed lab spans.
type ConflictKind string

const (
	ConflictDoubleBooked ConflictKind = "DOUBLE_BOOKED"
	ConflictBrokenSpan   ConflictKind = "BROKEN_SPAN"
)

// Conflict is one audit finding.
type Conflict struct {
	Kind       ConflictKind `json:"kind"`
	Resource   Resource     `json:"resource,omitempty"`
	ResourceID string       `json:"resource_id,omitempty"`
	Cell       Cell         `json:"cell"`
	EntryIDs   []string     `json:"entry_ids"`
}

type resourceCell struct {
	resource Resource
	id       string
	cell     Cell
}

// DetectConflicts reports every cell held more than once per resource and
// every lab whose second slot is missing from the template.
func DetectConflicts(placements []Placement, slots []TimeSlot) []Conflict {
	defined := make(map[int]bool, len(slots))
	for _, slot := range slots {
		defined[slot.SlotOrder] = true
	}

	holders := make(map[resourceCell][]string)
	var order []resourceCell
	var conflicts []Conflict

	note := func(key resourceCell, entryID string) {
		if _, seen := holders[key]; !seen {
			order = append(order, key)
		}
		holders[key] = append(holders[key], entryID)
	}

	for _, p := range placements {
		for _, slot := range spanFor(p.SessionType, p.SlotOrder) {
			cell := Cell{Day: p.DayOfWeek, Slot: slot}
			if !defined[slot] {
				conflicts = append(conflicts, Conflict{Kind: ConflictBrokenSpan, Cell: cell, EntryIDs: []string{p.EntryID}})
				continue
			}
			note(resourceCell{ResourceFaculty, p.FacultyID, cell}, p.EntryID)
			note(resourceCell{ResourceSection, p.SectionID, cell}, p.EntryID)
			note(resourceCell{ResourceRoom, p.RoomID, cell}, p.EntryID)
		}
	}

	for _, key := range order {
		ids := holders[key]
		if len(ids) < 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:       ConflictDoubleBooked,
			Resource:   key.resource,
			ResourceID: key.id,
			Cell:       key.cell,
			EntryIDs:   ids,
		})
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Cell.Day != conflicts[j].Cell.Day {
			return conflicts[i].Cell.Day < conflicts[j].Cell.Day
		}
		return conflicts[i].Cell.Slot < conflicts[j].Cell.Slot
	})
	return conflicts
}
