package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type generationJobs interface {
	Enqueue(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error)
	Get(ctx context.Context, id string) (*dto.GenerationJobResponse, error)
}

// TimetableGeneratorHandler exposes generation endpoints.
type TimetableGeneratorHandler struct {
	generator timetableGenerator
	jobs      generationJobs
}

// NewTimetableGeneratorHandler constructs the handler.
func NewTimetableGeneratorHandler(generator *service.TimetableGeneratorService, jobs *service.GenerationJobService) *TimetableGeneratorHandler {
	return &TimetableGeneratorHandler{generator: generator, jobs: jobs}
}

// Generate godoc
// @Summary Generate the weekly timetable
// @Description Runs the scheduler synchronously. "generate" requires that no unlocked entries exist; "regenerate" replaces every unlocked entry and keeps locked ones. Configuration problems (no mappings, rooms or time slots) return success=false with HTTP 200.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest false "Generation payload"
// @Success 200 {object} response.Envelope{data=dto.GenerateTimetableResponse}
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /generate-timetable [post]
func (h *TimetableGeneratorHandler) Generate(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// EnqueueJob godoc
// @Summary Queue a background timetable generation
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest false "Generation payload"
// @Success 202 {object} response.Envelope{data=dto.GenerationJobResponse}
// @Failure 409 {object} response.Envelope
// @Router /generate-timetable/jobs [post]
func (h *TimetableGeneratorHandler) EnqueueJob(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	job, err := h.jobs.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", c.Request.URL.Path+"/"+job.JobID)
	response.Accepted(c, job)
}

// GetJob godoc
// @Summary Get a background generation job
// @Tags Timetable
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope{data=dto.GenerationJobResponse}
// @Failure 404 {object} response.Envelope
// @Router /generate-timetable/jobs/{id} [get]
func (h *TimetableGeneratorHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// bindGenerateRequest accepts an empty body as the default action.
func bindGenerateRequest(c *gin.Context) (dto.GenerateTimetableRequest, bool) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return req, false
	}
	return req, true
}
