package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type catalogRepository interface {
	ListSections(ctx context.Context, exec sqlx.ExtContext) ([]models.Section, error)
	ListFaculty(ctx context.Context, exec sqlx.ExtContext) ([]models.Faculty, error)
	ListSubjects(ctx context.Context, exec sqlx.ExtContext) ([]models.Subject, error)
	ListRooms(ctx context.Context, exec sqlx.ExtContext) ([]models.Room, error)
	ListTimeSlots(ctx context.Context, exec sqlx.ExtContext) ([]models.TimeSlot, error)
	Stats(ctx context.Context) (*models.CatalogStats, error)
}

// CatalogService exposes read-only, cached listings of scheduling inputs.
type CatalogService struct {
	repo     catalogRepository
	cache    *CacheService
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(repo catalogRepository, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, metrics: metrics, cacheTTL: cacheTTL, logger: logger}
}

func cachedList[T any](ctx context.Context, s *CatalogService, kind string, load func(context.Context, sqlx.ExtContext) ([]T, error)) ([]T, error) {
	items, err := remember(ctx, s.cache, catalogCacheKey(kind), s.cacheTTL, func(ctx context.Context) ([]T, error) {
		items, err := load(ctx, nil)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+kind)
	}
	return items, nil
}

// Sections lists sections.
func (s *CatalogService) Sections(ctx context.Context) ([]models.Section, error) {
	return cachedList(ctx, s, "sections", s.repo.ListSections)
}

// Faculty lists faculty members.
func (s *CatalogService) Faculty(ctx context.Context) ([]models.Faculty, error) {
	return cachedList(ctx, s, "faculty", s.repo.ListFaculty)
}

// Subjects lists subjects.
func (s *CatalogService) Subjects(ctx context.Context) ([]models.Subject, error) {
	return cachedList(ctx, s, "subjects", s.repo.ListSubjects)
}

// Rooms lists rooms.
func (s *CatalogService) Rooms(ctx context.Context) ([]models.Room, error) {
	return cachedList(ctx, s, "rooms", s.repo.ListRooms)
}

// TimeSlots lists the daily slot template.
func (s *CatalogService) TimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	return cachedList(ctx, s, "time-slots", s.repo.ListTimeSlots)
}

// Stats returns dashboard counts alongside the service counters.
func (s *CatalogService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	counts, err := remember(ctx, s.cache, cacheKeyStats, s.cacheTTL, func(ctx context.Context) (*models.CatalogStats, error) {
		return s.repo.Stats(ctx)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stats")
	}
	return &models.DashboardStats{Counts: *counts, Metrics: s.metrics.Snapshot()}, nil
}
