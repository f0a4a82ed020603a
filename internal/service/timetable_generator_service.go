package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sync"
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

// Messages for configuration errors found before the scheduler runs.
const (
	noRoomsMessage      = "No rooms found. Please add rooms before generating a timetable."
	noTimeSlotsMessage  = "No time slots found. Please define the daily time slots before generating a timetable."
	allSkippedMessage   = "No schedulable faculty-subject mappings found. Every mapping references a missing section, subject or faculty."
	unlockedExistsError = "unlocked timetable entries already exist, use the regenerate action to replace them"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generatorCatalogReader interface {
	ListSections(ctx context.Context, exec sqlx.ExtContext) ([]models.Section, error)
	ListFaculty(ctx context.Context, exec sqlx.ExtContext) ([]models.Faculty, error)
	ListSubjects(ctx context.Context, exec sqlx.ExtContext) ([]models.Subject, error)
	ListRooms(ctx context.Context, exec sqlx.ExtContext) ([]models.Room, error)
	ListTimeSlots(ctx context.Context, exec sqlx.ExtContext) ([]models.TimeSlot, error)
	ListFacultySubjects(ctx context.Context, exec sqlx.ExtContext) ([]models.FacultySubject, error)
}

type generatorEntryStore interface {
	ListLocked(ctx context.Context, exec sqlx.ExtContext) ([]models.TimetableEntry, error)
	CountUnlocked(ctx context.Context, exec sqlx.ExtContext) (int, error)
	DeleteUnlocked(ctx context.Context, exec sqlx.ExtContext) (int64, error)
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
}

// TimetableGeneratorConfig governs generator behaviour.
type TimetableGeneratorConfig struct {
	// Seed pins the shuffle order when non-zero.
	Seed int64
}

// TimetableGeneratorService reads a consistent snapshot, runs the scheduler
// and persists the new entries. Only one run may be in flight; concurrent
// callers get ErrBusy.
type TimetableGeneratorService struct {
	catalog   generatorCatalogReader
	entries   generatorEntryStore
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableGeneratorConfig

	mu sync.Mutex
}

// NewTimetableGeneratorService wires generator dependencies.
func NewTimetableGeneratorService(
	catalog generatorCatalogReader,
	entries generatorEntryStore,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableGeneratorConfig,
) *TimetableGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableGeneratorService{
		catalog:   catalog,
		entries:   entries,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

type generationSnapshot struct {
	models.CatalogSnapshot
	unlocked int
}

// Generate runs one generation. Configuration problems are reported through
// a response with Success=false; only upstream faults return an error.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	action := req.Action
	if action == "" {
		action = dto.ActionGenerate
	}

	if !s.mu.TryLock() {
		s.metrics.ObserveGeneration(action, GenerationOutcomeRejected, 0, 0, 0, 0)
		return nil, appErrors.ErrBusy
	}
	defer s.mu.Unlock()

	start := time.Now()
	resp, outcome, err := s.run(ctx, req, action)
	duration := time.Since(start)
	if err != nil {
		s.metrics.ObserveGeneration(action, outcome, duration, 0, 0, 0)
		return nil, err
	}

	missing := lo.SumBy(resp.Shortfalls, func(sf dto.ShortfallSummary) int { return sf.Required - sf.Placed })
	s.metrics.ObserveGeneration(action, outcome, duration, resp.EntriesCount, resp.Score, missing)
	return resp, nil
}

func (s *TimetableGeneratorService) run(ctx context.Context, req dto.GenerateTimetableRequest, action string) (*dto.GenerateTimetableResponse, string, error) {
	if s.tx == nil {
		return nil, GenerationOutcomeError, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	snap, err := s.readSnapshot(ctx)
	if err != nil {
		return nil, GenerationOutcomeError, err
	}
	if snap == nil {
		s.logger.Info("no faculty-subject mappings, skipping generation", zap.String("action", action))
		return &dto.GenerateTimetableResponse{Success: false, Message: scheduler.NoMappingsMessage}, GenerationOutcomeNoData, nil
	}
	if !req.Regenerate() && snap.unlocked > 0 {
		return nil, GenerationOutcomeRejected, appErrors.Clone(appErrors.ErrPreconditionFailed, unlockedExistsError)
	}

	resp, entries, outcome, err := planSnapshot(snap.CatalogSnapshot, s.random(req), s.logger)
	if err != nil || outcome != GenerationOutcomeSuccess {
		return resp, outcome, err
	}

	deleted, err := s.persist(ctx, req.Regenerate(), entries)
	if err != nil {
		return nil, GenerationOutcomeError, err
	}
	s.cache.InvalidateTimetable(ctx)
	resp.DeletedCount = deleted
	return resp, GenerationOutcomeSuccess, nil
}

// planSnapshot builds obligations and runs the scheduler. Configuration
// problems come back as an unsuccessful response with a no-data outcome.
func planSnapshot(snap models.CatalogSnapshot, rnd *rand.Rand, logger *zap.Logger) (*dto.GenerateTimetableResponse, []models.TimetableEntry, string, error) {
	if len(snap.TimeSlots) == 0 {
		return &dto.GenerateTimetableResponse{Success: false, Message: noTimeSlotsMessage}, nil, GenerationOutcomeNoData, nil
	}

	built, err := scheduler.BuildObligations(
		toTeachingAssignments(snap.Mappings),
		toSchedulerCatalog(snap.Sections, snap.Faculty, snap.Subjects, snap.Rooms),
	)
	if err != nil {
		if errors.Is(err, scheduler.ErrNoRooms) {
			return &dto.GenerateTimetableResponse{Success: false, Message: noRoomsMessage}, nil, GenerationOutcomeNoData, nil
		}
		return nil, nil, GenerationOutcomeError, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build scheduling obligations")
	}
	for _, skipped := range built.Skipped {
		logger.Warn("skipping faculty-subject mapping",
			zap.String("mapping_id", skipped.Assignment.ID),
			zap.String("reason", skipped.Reason))
	}
	skipped := toSkippedMappings(built.Skipped)
	if len(built.Obligations) == 0 {
		return &dto.GenerateTimetableResponse{Success: false, Message: allSkippedMessage, Skipped: skipped}, nil, GenerationOutcomeNoData, nil
	}
	logger.Info("created schedulable obligations",
		zap.Int("obligations", len(built.Obligations)),
		zap.Int("locked", len(snap.Locked)))

	result, err := scheduler.Generate(scheduler.Input{
		Obligations: built.Obligations,
		TimeSlots:   toSchedulerSlots(snap.TimeSlots),
		Rooms:       toSchedulerRooms(snap.Rooms),
		Locked:      toLockedEntries(snap.Locked),
	}, scheduler.WithRand(rnd), scheduler.WithLogger(logger))
	if err != nil {
		return nil, nil, GenerationOutcomeError, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation failed")
	}

	entries := toTimetableEntries(result.Assignments)
	return &dto.GenerateTimetableResponse{
		Success:          result.Success,
		Message:          result.Message,
		EntriesCount:     len(entries),
		LockedCount:      len(snap.Locked),
		Score:            result.Score,
		ScoreBreakdown:   result.Breakdown,
		Shortfalls:       toShortfallSummaries(result.Shortfalls),
		Skipped:          skipped,
		LockedCollisions: result.LockedCollisions,
	}, entries, GenerationOutcomeSuccess, nil
}

// readSnapshot loads every input inside one read-only repeatable-read
// transaction. It returns nil when there are no mappings to schedule.
func (s *TimetableGeneratorService) readSnapshot(ctx context.Context) (snap *generationSnapshot, err error) {
	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin snapshot transaction")
	}
	defer func() {
		if err != nil || snap == nil {
			_ = tx.Rollback()
		}
	}()

	wrap := func(err error, what string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s", what))
	}

	var out generationSnapshot
	if out.Mappings, err = s.catalog.ListFacultySubjects(ctx, tx); err != nil {
		return nil, wrap(err, "faculty-subject mappings")
	}
	if len(out.Mappings) == 0 {
		return nil, nil
	}
	if out.Sections, err = s.catalog.ListSections(ctx, tx); err != nil {
		return nil, wrap(err, "sections")
	}
	if out.Faculty, err = s.catalog.ListFaculty(ctx, tx); err != nil {
		return nil, wrap(err, "faculty")
	}
	if out.Subjects, err = s.catalog.ListSubjects(ctx, tx); err != nil {
		return nil, wrap(err, "subjects")
	}
	if out.Rooms, err = s.catalog.ListRooms(ctx, tx); err != nil {
		return nil, wrap(err, "rooms")
	}
	if out.TimeSlots, err = s.catalog.ListTimeSlots(ctx, tx); err != nil {
		return nil, wrap(err, "time slots")
	}
	if out.Locked, err = s.entries.ListLocked(ctx, tx); err != nil {
		return nil, wrap(err, "locked entries")
	}
	if out.unlocked, err = s.entries.CountUnlocked(ctx, tx); err != nil {
		return nil, wrap(err, "unlocked entry count")
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close snapshot transaction")
	}
	return &out, nil
}

// persist writes the new entries atomically, first clearing unlocked
// entries when regenerating.
func (s *TimetableGeneratorService) persist(ctx context.Context, regenerate bool, entries []models.TimetableEntry) (deleted int64, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if regenerate {
		if deleted, err = s.entries.DeleteUnlocked(ctx, tx); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear unlocked entries")
			return 0, err
		}
	}
	if err = s.entries.InsertBatch(ctx, tx, entries); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert timetable entries")
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable entries")
		return 0, err
	}
	s.logger.Info("persisted timetable entries", zap.Int("inserted", len(entries)), zap.Int64("deleted", deleted))
	return deleted, nil
}

func (s *TimetableGeneratorService) random(req dto.GenerateTimetableRequest) *rand.Rand {
	seed := s.cfg.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
