package scheduler

import "fmt"

// Resource names a conflict dimension.
type Resource string

const (
	ResourceFaculty Resource = "FACULTY"
	ResourceSection Resource = "SECTION"
	ResourceRoom    Resource = "ROOM"
)

// Cell is one (day, slot order) position of the weekly grid.
type Cell struct {
	Day  int `json:"day"`
	Slot int `json:"slot"`
}

// OccupancyError is returned when a cell would be held twice by the same resource.
type OccupancyError struct {
	Resource Resource
	ID       string
	Cell     Cell
}

func (e *OccupancyError) Error() string {
	return fmt.Sprintf("%s %s already occupied on day %d slot %d", e.Resource, e.ID, e.Cell.Day, e.Cell.Slot)
}

type cellSet map[Cell]struct{}

// Tracker records which cells each faculty member, section and room holds.
type Tracker struct {
	faculty map[string]cellSet
	section map[string]cellSet
	room    map[string]cellSet
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		faculty: make(map[string]cellSet),
		section: make(map[string]cellSet),
		room:    make(map[string]cellSet),
	}
}

// Available reports whether none of the slots on day are held by the faculty
// member, the section or the room.
func (t *Tracker) Available(facultyID, sectionID, roomID string, day int, slots ...int) bool {
	for _, slot := range slots {
		cell := Cell{Day: day, Slot: slot}
		if t.held(t.faculty, facultyID, cell) || t.held(t.section, sectionID, cell) || t.held(t.room, roomID, cell) {
			return false
		}
	}
	return true
}

// Occupy marks the slots on day as held by all three resources. Callers check
// Available first; a collision here is a logic error and nothing is recorded.
func (t *Tracker) Occupy(facultyID, sectionID, roomID string, day int, slots ...int) error {
	if collisions := t.collisions(facultyID, sectionID, roomID, day, slots); len(collisions) > 0 {
		return collisions[0]
	}
	for _, slot := range slots {
		cell := Cell{Day: day, Slot: slot}
		add(t.faculty, facultyID, cell)
		add(t.section, sectionID, cell)
		add(t.room, roomID, cell)
	}
	return nil
}

// Reserve is used for seeding locked entries. It records every free cell and
// returns the collisions instead of failing, so overlapping locked rows can be
// reported while their cells stay blocked.
func (t *Tracker) Reserve(facultyID, sectionID, roomID string, day int, slots ...int) []*OccupancyError {
	collisions := t.collisions(facultyID, sectionID, roomID, day, slots)
	for _, slot := range slots {
		cell := Cell{Day: day, Slot: slot}
		add(t.faculty, facultyID, cell)
		add(t.section, sectionID, cell)
		add(t.room, roomID, cell)
	}
	return collisions
}

// Occupied returns how many cells the resource currently holds.
func (t *Tracker) Occupied(resource Resource, id string) int {
	switch resource {
	case ResourceFaculty:
		return len(t.faculty[id])
	case ResourceSection:
		return len(t.section[id])
	case ResourceRoom:
		return len(t.room[id])
	}
	return 0
}

func (t *Tracker) collisions(facultyID, sectionID, roomID string, day int, slots []int) []*OccupancyError {
	var out []*OccupancyError
	for _, slot := range slots {
		cell := Cell{Day: day, Slot: slot}
		if t.held(t.faculty, facultyID, cell) {
			out = append(out, &OccupancyError{Resource: ResourceFaculty, ID: facultyID, Cell: cell})
		}
		if t.held(t.section, sectionID, cell) {
			out = append(out, &OccupancyError{Resource: ResourceSection, ID: sectionID, Cell: cell})
		}
		if t.held(t.room, roomID, cell) {
			out = append(out, &OccupancyError{Resource: ResourceRoom, ID: roomID, Cell: cell})
		}
	}
	return out
}

func (t *Tracker) held(index map[string]cellSet, id string, cell Cell) bool {
	set, ok := index[id]
	if !ok {
		return false
	}
	_, taken := set[cell]
	return taken
}

func add(index map[string]cellSet, id string, cell Cell) {
	set, ok := index[id]
	if !ok {
		set = make(cellSet)
		index[id] = set
	}
	set[cell] = struct{}{}
}
