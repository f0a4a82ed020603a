package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

// JobTypeGenerateTimetable labels queued generation runs.
const JobTypeGenerateTimetable = "generate_timetable"

type generationRunner interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// GenerationJobService runs timetable generation in the background and
// tracks job state in memory until it expires.
type GenerationJobService struct {
	runner    generationRunner
	queue     jobQueue
	store     *generationJobStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGenerationJobService constructs the service. AttachQueue must be
// called before Enqueue.
func NewGenerationJobService(runner generationRunner, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *GenerationJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &GenerationJobService{
		runner:    runner,
		store:     newGenerationJobStore(ttl),
		metrics:   metrics,
		validator: validator.New(),
		logger:    logger,
	}
}

// AttachQueue sets the queue that feeds Handle.
func (s *GenerationJobService) AttachQueue(queue jobQueue) {
	s.queue = queue
}

// Enqueue validates the request and schedules a generation run.
func (s *GenerationJobService) Enqueue(_ context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "generation queue not configured")
	}
	if req.Action == "" {
		req.Action = dto.ActionGenerate
	}

	payload := map[string]interface{}{}
	if err := mapstructure.Decode(req, &payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode job payload")
	}

	record := dto.GenerationJobResponse{
		JobID:      uuid.NewString(),
		Action:     req.Action,
		Status:     dto.JobStatusQueued,
		EnqueuedAt: time.Now().UTC(),
	}
	s.store.Save(record)

	if err := s.queue.Enqueue(jobs.Job{ID: record.JobID, Type: JobTypeGenerateTimetable, Payload: payload, Enqueued: record.EnqueuedAt}); err != nil {
		s.store.Delete(record.JobID)
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Clone(appErrors.ErrBusy, "generation queue is full, try again later")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation job")
	}

	s.logger.Info("generation job queued", zap.String("job_id", record.JobID), zap.String("action", record.Action))
	return &record, nil
}

// Get returns a job by id.
func (s *GenerationJobService) Get(_ context.Context, id string) (*dto.GenerationJobResponse, error) {
	record, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}
	return &record, nil
}

// Handle processes a queued job. Busy and upstream faults are retried;
// validation problems and bad payloads are not.
func (s *GenerationJobService) Handle(ctx context.Context, job jobs.Job) error {
	var req dto.GenerateTimetableRequest
	if err := mapstructure.Decode(job.Payload, &req); err != nil {
		return jobs.Permanent(fmt.Errorf("decode job payload: %w", err))
	}

	started := time.Now().UTC()
	s.store.Update(job.ID, func(r *dto.GenerationJobResponse) {
		r.Status = dto.JobStatusRunning
		r.Attempts = job.Attempt
		if r.StartedAt == nil {
			r.StartedAt = &started
		}
	})

	resp, err := s.runner.Generate(ctx, req)
	if err != nil {
		s.store.Update(job.ID, func(r *dto.GenerationJobResponse) {
			r.Status = dto.JobStatusQueued
			r.Error = err.Error()
		})
		if !appErrors.Retryable(err) {
			return jobs.Permanent(err)
		}
		return err
	}

	finished := time.Now().UTC()
	s.store.Update(job.ID, func(r *dto.GenerationJobResponse) {
		r.Status = dto.JobStatusSucceeded
		r.Error = ""
		r.Result = resp
		r.FinishedAt = &finished
	})
	s.metrics.ObserveJob(dto.JobStatusSucceeded)
	s.logger.Info("generation job finished", zap.String("job_id", job.ID), zap.Int("entries", resp.EntriesCount), zap.Bool("success", resp.Success))
	return nil
}

// Abandon marks a job failed once the queue stops retrying it.
func (s *GenerationJobService) Abandon(job jobs.Job, err error) {
	finished := time.Now().UTC()
	s.store.Update(job.ID, func(r *dto.GenerationJobResponse) {
		r.Status = dto.JobStatusFailed
		r.Attempts = job.Attempt
		if err != nil {
			r.Error = err.Error()
		}
		r.FinishedAt = &finished
	})
	s.metrics.ObserveJob(dto.JobStatusFailed)
	s.logger.Warn("generation job failed", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
}

type generationJobStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]dto.GenerationJobResponse
}

func newGenerationJobStore(ttl time.Duration) *generationJobStore {
	return &generationJobStore{
		ttl:   ttl,
		items: make(map[string]dto.GenerationJobResponse),
	}
}

func (s *generationJobStore) expired(record dto.GenerationJobResponse, now time.Time) bool {
	if record.FinishedAt == nil {
		return false
	}
	return now.Sub(*record.FinishedAt) > s.ttl
}

// Save stores a record and drops finished jobs past their ttl.
func (s *generationJobStore) Save(record dto.GenerationJobResponse) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.items {
		if s.expired(existing, now) {
			delete(s.items, id)
		}
	}
	s.items[record.JobID] = record
}

func (s *generationJobStore) Get(id string) (dto.GenerationJobResponse, bool) {
	s.mu.RLock()
	record, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.GenerationJobResponse{}, false
	}
	if s.expired(record, time.Now()) {
		s.Delete(id)
		return dto.GenerationJobResponse{}, false
	}
	return record, true
}

func (s *generationJobStore) Update(id string, fn func(*dto.GenerationJobResponse)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.items[id]
	if !ok {
		return
	}
	fn(&record)
	s.items[id] = record
}

func (s *generationJobStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
