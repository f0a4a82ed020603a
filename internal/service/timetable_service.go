package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type timetableEntryRepository interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error)
	FindByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error)
	SetLocked(ctx context.Context, id string, locked bool) error
}

type timeSlotReader interface {
	ListTimeSlots(ctx context.Context, exec sqlx.ExtContext) ([]models.TimeSlot, error)
}

// TimetableService serves persisted timetable entries.
type TimetableService struct {
	entries   timetableEntryRepository
	slots     timeSlotReader
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs the service.
func NewTimetableService(entries timetableEntryRepository, slots timeSlotReader, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{entries: entries, slots: slots, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

func timetableCacheKey(q dto.TimetableQuery) string {
	locked := "any"
	if q.Locked != nil {
		locked = fmt.Sprintf("%t", *q.Locked)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%d:%s", cacheKeyTimetable, q.SectionID, q.FacultyID, q.RoomID, q.DayOfWeek, locked)
}

// List returns entries matching the query with day and slot labels.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]dto.TimetableEntryView, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}
	views, err := remember(ctx, s.cache, timetableCacheKey(query), s.cacheTTL, func(ctx context.Context) ([]dto.TimetableEntryView, error) {
		entries, err := s.entries.List(ctx, query.Filter())
		if err != nil {
			return nil, err
		}
		return lo.Map(entries, func(e models.TimetableEntryDetail, _ int) dto.TimetableEntryView { return toEntryView(e) }), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	return views, nil
}

// ToggleLock sets the lock flag of an entry, flipping it when no value is
// supplied. Locked entries survive regeneration.
func (s *TimetableService) ToggleLock(ctx context.Context, id string, req dto.ToggleLockRequest) (*dto.TimetableEntryView, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entry id is required")
	}
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}

	locked := !entry.IsLocked
	if req.IsLocked != nil {
		locked = *req.IsLocked
	}
	if locked != entry.IsLocked {
		if err := s.entries.SetLocked(ctx, id, locked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable entry")
		}
		entry.IsLocked = locked
		s.cache.InvalidateTimetable(ctx)
		s.logger.Info("timetable entry lock changed", zap.String("entry_id", id), zap.Bool("locked", locked))
	}

	view := toEntryView(*entry)
	return &view, nil
}

// Conflicts audits every persisted entry for double bookings and lab spans
// that run past the daily template.
func (s *TimetableService) Conflicts(ctx context.Context) (*dto.ConflictReport, error) {
	entries, err := s.entries.List(ctx, models.TimetableFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	slots, err := s.slots.ListTimeSlots(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}

	placements := lo.Map(entries, func(e models.TimetableEntryDetail, _ int) scheduler.Placement { return toPlacement(e) })
	conflicts := scheduler.DetectConflicts(placements, toSchedulerSlots(slots))
	if len(conflicts) > 0 {
		s.logger.Warn("timetable conflicts detected", zap.Int("count", len(conflicts)))
	}
	if conflicts == nil {
		conflicts = []scheduler.Conflict{}
	}
	return &dto.ConflictReport{Checked: len(entries), Conflicts: conflicts}, nil
}
