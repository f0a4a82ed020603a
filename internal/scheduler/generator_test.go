package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sevenSlots() []TimeSlot {
	starts := []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00"}
	ends := []string{"10:00", "11:00", "12:00", "13:00", "15:00", "16:00", "17:00"}
	slots := make([]TimeSlot, len(starts))
	for i := range starts {
		slots[i] = TimeSlot{
			ID:        fmt.Sprintf("ts-%d", i+1),
			StartTime: starts[i],
			EndTime:   ends[i],
			SlotOrder: i + 1,
		}
	}
	return slots
}

func placementsOf(result *Result) []Placement {
	out := make([]Placement, 0, len(result.Assignments))
	for i, a := range result.Assignments {
		out = append(out, PlacementFromAssignment(fmt.Sprintf("gen-%d", i), a))
	}
	return out
}

func TestGenerateWithoutObligations(t *testing.T) {
	result, err := Generate(Input{TimeSlots: sevenSlots()}, WithSeed(1))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, NoMappingsMessage, result.Message)
	assert.Empty(t, result.Assignments)
}

func TestGenerateSingleLabTakesPreferredStart(t *testing.T) {
	lab := Obligation{SectionID: "s1", SubjectID: "os-lab", FacultyID: "f1", RoomID: "lab-1", SessionType: SessionLab, SessionsRequired: 1}

	result, err := Generate(Input{Obligations: []Obligation{lab}, TimeSlots: sevenSlots()}, WithSeed(7))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Assignments, 1)

	got := result.Assignments[0]
	assert.Equal(t, 4, got.SlotOrder)
	assert.Equal(t, "ts-4", got.TimeSlotID)
	assert.Equal(t, []int{4, 5}, got.Slots())
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, "Generated 1 timetable entries with optimization score 0", result.Message)
}

func TestGenerateTheorySpreadsAcrossDays(t *testing.T) {
	theory := Obligation{SectionID: "s1", SubjectID: "dbms", FacultyID: "f1", RoomID: "r1", SessionType: SessionTheory, SessionsRequired: 2}

	result, err := Generate(Input{Obligations: []Obligation{theory}, TimeSlots: sevenSlots()}, WithSeed(3))
	require.NoError(t, err)
	require.Len(t, result.Assignments, 2)
	assert.NotEqual(t, result.Assignments[0].DayOfWeek, result.Assignments[1].DayOfWeek)
	for _, a := range result.Assignments {
		assert.Equal(t, 3, a.SlotOrder, "first preference is free on an empty grid")
	}
	assert.Empty(t, result.Shortfalls)
}

func TestGenerateCapsTheoryAtOneSessionPerDay(t *testing.T) {
	theory := Obligation{SectionID: "s1", SubjectID: "maths", FacultyID: "f1", RoomID: "r1", SessionType: SessionTheory, SessionsRequired: 6}

	result, err := Generate(Input{Obligations: []Obligation{theory}, TimeSlots: sevenSlots()}, WithSeed(11))
	require.NoError(t, err)
	assert.Len(t, result.Assignments, 5)
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, 1, result.Shortfalls[0].Missing())
	assert.True(t, result.Success)
}

func TestGenerateNeverDoubleBooks(t *testing.T) {
	var obligations []Obligation
	for s := 1; s <= 4; s++ {
		section := fmt.Sprintf("sec-%d", s)
		room := fmt.Sprintf("room-%d", s)
		obligations = append(obligations,
			Obligation{SectionID: section, SubjectID: "lab", FacultyID: "f-lab", RoomID: "lab-1", SessionType: SessionLab, SessionsRequired: 1},
			Obligation{SectionID: section, SubjectID: "maths", FacultyID: "f-maths", RoomID: room, SessionType: SessionTheory, SessionsRequired: 3},
			Obligation{SectionID: section, SubjectID: "physics", FacultyID: fmt.Sprintf("f-phy-%d", s%2), RoomID: room, SessionType: SessionTheory, SessionsRequired: 2},
			Obligation{SectionID: section, SubjectID: "english", FacultyID: "f-eng", RoomID: room, SessionType: SessionTheory, SessionsRequired: 2},
		)
	}
	slots := sevenSlots()

	for seed := int64(0); seed < 25; seed++ {
		result, err := Generate(Input{Obligations: obligations, TimeSlots: slots}, WithSeed(seed))
		require.NoError(t, err)
		assert.Empty(t, DetectConflicts(placementsOf(result), slots), "seed %d", seed)

		placed := map[string]int{}
		for _, a := range result.Assignments {
			placed[a.Obligation.SectionID+"/"+a.Obligation.SubjectID]++
			if a.Obligation.SessionType == SessionLab {
				assert.Contains(t, labStartPreference, a.SlotOrder)
			}
		}
		for _, sf := range result.Shortfalls {
			assert.Less(t, sf.Placed, sf.Required)
		}
		for _, ob := range obligations {
			assert.LessOrEqual(t, placed[ob.SectionID+"/"+ob.SubjectID], ob.SessionsRequired)
		}
	}
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	obligations := []Obligation{
		{SectionID: "s1", SubjectID: "a", FacultyID: "f1", RoomID: "r1", SessionType: SessionTheory, SessionsRequired: 3},
		{SectionID: "s1", SubjectID: "b", FacultyID: "f2", RoomID: "r1", SessionType: SessionTheory, SessionsRequired: 2},
		{SectionID: "s2", SubjectID: "c", FacultyID: "f1", RoomID: "lab", SessionType: SessionLab, SessionsRequired: 1},
	}
	in := Input{Obligations: obligations, TimeSlots: sevenSlots()}

	first, err := Generate(in, WithSeed(42))
	require.NoError(t, err)
	second, err := Generate(in, WithSeed(42))
	require.NoError(t, err)
	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Score, second.Score)
}

func TestGenerateRespectsLockedEntries(t *testing.T) {
	slots := sevenSlots()
	var locked []LockedEntry
	// f1 is fully booked on Wednesday to Friday
	for day := 3; day <= 5; day++ {
		for _, slot := range slots {
			locked = append(locked, LockedEntry{
				ID:          fmt.Sprintf("locked-%d-%d", day, slot.SlotOrder),
				SectionID:   "other",
				SubjectID:   "seminar",
				FacultyID:   "f1",
				RoomID:      "hall",
				TimeSlotID:  slot.ID,
				DayOfWeek:   day,
				SessionType: SessionTheory,
			})
		}
	}
	theory := Obligation{SectionID: "s1", SubjectID: "dbms", FacultyID: "f1", RoomID: "r1", SessionType: SessionTheory, SessionsRequired: 3}

	result, err := Generate(Input{Obligations: []Obligation{theory}, TimeSlots: slots, Locked: locked}, WithSeed(5))
	require.NoError(t, err)
	require.Len(t, result.Assignments, 2)
	for _, a := range result.Assignments {
		assert.LessOrEqual(t, a.DayOfWeek, 2)
	}
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, 2, result.Shortfalls[0].Placed)
	assert.Equal(t, 3, result.Shortfalls[0].Required)

	placements := placementsOf(result)
	for _, entry := range locked {
		p, ok := PlacementFromLocked(entry, slots)
		require.True(t, ok)
		placements = append(placements, p)
	}
	assert.Empty(t, DetectConflicts(placements, slots))
}

func TestGenerateLockedLabBlocksBothSlots(t *testing.T) {
	slots := sevenSlots()
	var locked []LockedEntry
	// f1 runs a locked lab from slot 3 through slot 4 every day
	for day := 1; day <= 5; day++ {
		locked = append(locked, LockedEntry{
			ID:          fmt.Sprintf("locked-lab-%d", day),
			SectionID:   "other",
			SubjectID:   "net-lab",
			FacultyID:   "f1",
			RoomID:      "lab-2",
			TimeSlotID:  "ts-3",
			DayOfWeek:   day,
			SessionType: SessionLab,
		})
	}
	theory := Obligation{SectionID: "s1", SubjectID: "dbms", FacultyID: "f1", RoomID: "r1", SessionType: SessionTheory, SessionsRequired: 5}

	for seed := int64(1); seed <= 10; seed++ {
		result, err := Generate(Input{Obligations: []Obligation{theory}, TimeSlots: slots, Locked: locked}, WithSeed(seed))
		require.NoError(t, err)
		require.Len(t, result.Assignments, 5)
		for _, a := range result.Assignments {
			assert.NotEqual(t, 3, a.SlotOrder)
			assert.NotEqual(t, 4, a.SlotOrder)
			assert.Equal(t, 2, a.SlotOrder)
		}
		assert.Empty(t, result.LockedCollisions)

		placements := placementsOf(result)
		for _, entry := range locked {
			p, ok := PlacementFromLocked(entry, slots)
			require.True(t, ok)
			placements = append(placements, p)
		}
		assert.Empty(t, DetectConflicts(placements, slots))
	}
}

func TestGenerateReportsOverlappingLockedEntries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	slots := sevenSlots()
	locked := []LockedEntry{
		{ID: "locked-a", SectionID: "s1", SubjectID: "dbms", FacultyID: "f1", RoomID: "r1", TimeSlotID: "ts-2", DayOfWeek: 1, SessionType: SessionTheory},
		{ID: "locked-b", SectionID: "s2", SubjectID: "os", FacultyID: "f1", RoomID: "r2", TimeSlotID: "ts-2", DayOfWeek: 1, SessionType: SessionTheory},
	}

	theory := Obligation{SectionID: "s3", SubjectID: "dbms", FacultyID: "f2", RoomID: "r3", SessionType: SessionTheory, SessionsRequired: 1}

	result, err := Generate(Input{Obligations: []Obligation{theory}, TimeSlots: slots, Locked: locked}, WithSeed(1), WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Len(t, result.Assignments, 1)
	require.Len(t, result.LockedCollisions, 1)
	collision := result.LockedCollisions[0]
	assert.Equal(t, "locked-b", collision.EntryID)
	assert.Equal(t, ResourceFaculty, collision.Resource)
	assert.Equal(t, "f1", collision.ResourceID)
	assert.Equal(t, Cell{Day: 1, Slot: 2}, collision.Cell)
	assert.Equal(t, 1, logs.FilterMessage("locked entries overlap").Len())
}

func TestGenerateReportsUnplaceableLab(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	slots := sevenSlots()[:2]
	lab := Obligation{SectionID: "s1", SubjectID: "os-lab", FacultyID: "f1", RoomID: "lab-1", SessionType: SessionLab, SessionsRequired: 1}

	result, err := Generate(Input{Obligations: []Obligation{lab}, TimeSlots: slots}, WithSeed(1), WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Assignments)
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, 1, result.Shortfalls[0].Missing())
	assert.Equal(t, 1, logs.FilterMessage("failed to schedule lab").Len())
	assert.Equal(t, "Generated 0 timetable entries with optimization score 0", result.Message)
}
