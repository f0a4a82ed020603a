package service

import (
	"math/rand"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
)

// PlanOffline runs the scheduler over an in-memory snapshot without
// touching storage. A zero seed picks a time based one.
func PlanOffline(snap models.CatalogSnapshot, seed int64, logger *zap.Logger) (*dto.GenerateTimetableResponse, []models.TimetableEntry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(snap.Mappings) == 0 {
		return &dto.GenerateTimetableResponse{Success: false, Message: scheduler.NoMappingsMessage}, nil, nil
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	resp, entries, _, err := planSnapshot(snap, rand.New(rand.NewSource(seed)), logger)
	return resp, entries, err
}

// AuditOffline checks entries against the slot template. Entries whose
// slot is not in the template are counted but cannot be placed.
func AuditOffline(entries []models.TimetableEntry, slots []models.TimeSlot) dto.ConflictReport {
	template := toSchedulerSlots(slots)
	placements := lo.FilterMap(toLockedEntries(entries), func(e scheduler.LockedEntry, _ int) (scheduler.Placement, bool) {
		return scheduler.PlacementFromLocked(e, template)
	})
	conflicts := scheduler.DetectConflicts(placements, template)
	if conflicts == nil {
		conflicts = []scheduler.Conflict{}
	}
	return dto.ConflictReport{Checked: len(entries), Conflicts: conflicts}
}
