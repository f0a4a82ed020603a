package scheduler

import (
	"math/rand"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// grid indexes the daily slot template by slot order.
type grid struct {
	slots   []TimeSlot
	byOrder map[int]TimeSlot
	byID    map[string]TimeSlot
}

func newGrid(timeSlots []TimeSlot) grid {
	sorted := make([]TimeSlot, len(timeSlots))
	copy(sorted, timeSlots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SlotOrder < sorted[j].SlotOrder
	})
	return grid{
		slots:   sorted,
		byOrder: lo.KeyBy(sorted, func(s TimeSlot) int { return s.SlotOrder }),
		byID:    lo.KeyBy(sorted, func(s TimeSlot) string { return s.ID }),
	}
}

func (g grid) size() int {
	return len(g.slots)
}

// engine places obligations first-fit without backtracking.
type engine struct {
	grid    grid
	tracker *Tracker
	rng     *rand.Rand
	logger  *zap.Logger

	assignments []Assignment
	shortfalls  []Shortfall
	collisions  []LockedCollision
}

func newEngine(g grid, rng *rand.Rand, logger *zap.Logger) *engine {
	return &engine{
		grid:    g,
		tracker: NewTracker(),
		rng:     rng,
		logger:  logger,
	}
}

// seedLocked reserves the cells of every locked entry before any placement.
func (e *engine) seedLocked(locked []LockedEntry) {
	for _, entry := range locked {
		slot, ok := e.grid.byID[entry.TimeSlotID]
		if !ok {
			e.logger.Warn("locked entry references unknown time slot",
				zap.String("entry_id", entry.ID),
				zap.String("time_slot_id", entry.TimeSlotID))
			continue
		}
		span := spanFor(entry.SessionType, slot.SlotOrder)
		for _, collision := range e.tracker.Reserve(entry.FacultyID, entry.SectionID, entry.RoomID, entry.DayOfWeek, span...) {
			e.logger.Warn("locked entries overlap",
				zap.String("entry_id", entry.ID),
				zap.String("resource", string(collision.Resource)),
				zap.String("resource_id", collision.ID),
				zap.Int("day", collision.Cell.Day),
				zap.Int("slot", collision.Cell.Slot))
			e.collisions = append(e.collisions, LockedCollision{
				EntryID:    entry.ID,
				Resource:   collision.Resource,
				ResourceID: collision.ID,
				Cell:       collision.Cell,
			})
		}
	}
}

// scheduleLabs gives every lab one two-slot block, trying preferred starts on
// shuffled days and committing the first free span.
func (e *engine) scheduleLabs(labs []Obligation) error {
	for _, ob := range e.shuffled(labs) {
		placed, err := e.placeLab(ob)
		if err != nil {
			return err
		}
		if !placed {
			e.logger.Warn("failed to schedule lab", zap.Stringer("obligation", ob))
			e.shortfalls = append(e.shortfalls, Shortfall{Obligation: ob, Required: ob.SessionsRequired, Placed: 0})
		}
	}
	return nil
}

func (e *engine) placeLab(ob Obligation) (bool, error) {
	for _, day := range e.shuffledDays() {
		for _, start := range labStartPreference {
			if start+1 > e.grid.size() {
				continue
			}
			startSlot, ok := e.grid.byOrder[start]
			if !ok {
				continue
			}
			if _, ok := e.grid.byOrder[start+1]; !ok {
				continue
			}
			span := spanFor(SessionLab, start)
			if !e.tracker.Available(ob.FacultyID, ob.SectionID, ob.RoomID, day, span...) {
				continue
			}
			if err := e.tracker.Occupy(ob.FacultyID, ob.SectionID, ob.RoomID, day, span...); err != nil {
				return false, err
			}
			e.assignments = append(e.assignments, Assignment{
				Obligation: ob,
				DayOfWeek:  day,
				TimeSlotID: startSlot.ID,
				SlotOrder:  start,
			})
			return true, nil
		}
	}
	return false, nil
}

// scheduleTheory places up to SessionsRequired single-slot sessions per
// obligation, at most one per day.
func (e *engine) scheduleTheory(theory []Obligation) error {
	for _, ob := range e.shuffled(theory) {
		placed := 0
		for _, day := range e.shuffledDays() {
			if placed >= ob.SessionsRequired {
				break
			}
			ok, err := e.placeTheoryOnDay(ob, day)
			if err != nil {
				return err
			}
			if ok {
				placed++
			}
		}
		if placed < ob.SessionsRequired {
			e.logger.Warn("theory obligation under-scheduled",
				zap.Stringer("obligation", ob),
				zap.Int("required", ob.SessionsRequired),
				zap.Int("placed", placed))
			e.shortfalls = append(e.shortfalls, Shortfall{Obligation: ob, Required: ob.SessionsRequired, Placed: placed})
		}
	}
	return nil
}

func (e *engine) placeTheoryOnDay(ob Obligation, day int) (bool, error) {
	for _, order := range theorySlotPreference {
		slot, ok := e.grid.byOrder[order]
		if !ok {
			continue
		}
		if !e.tracker.Available(ob.FacultyID, ob.SectionID, ob.RoomID, day, order) {
			continue
		}
		if err := e.tracker.Occupy(ob.FacultyID, ob.SectionID, ob.RoomID, day, order); err != nil {
			return false, err
		}
		e.assignments = append(e.assignments, Assignment{
			Obligation: ob,
			DayOfWeek:  day,
			TimeSlotID: slot.ID,
			SlotOrder:  order,
		})
		return true, nil
	}
	return false, nil
}

func (e *engine) shuffled(items []Obligation) []Obligation {
	out := make([]Obligation, len(items))
	copy(out, items)
	e.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (e *engine) shuffledDays() []int {
	days := make([]int, len(weekDays))
	copy(days, weekDays)
	e.rng.Shuffle(len(days), func(i, j int) { days[i], days[j] = days[j], days[i] })
	return days
}
