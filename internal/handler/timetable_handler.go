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

type timetableReader interface {
	List(ctx context.Context, query dto.TimetableQuery) ([]dto.TimetableEntryView, error)
	ToggleLock(ctx context.Context, id string, req dto.ToggleLockRequest) (*dto.TimetableEntryView, error)
	Conflicts(ctx context.Context) (*dto.ConflictReport, error)
}

type timetableExporter interface {
	Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error)
}

// TimetableHandler serves persisted timetable entries.
type TimetableHandler struct {
	service  timetableReader
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService, exporter *service.ExportService) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List timetable entries
// @Tags Timetable
// @Produce json
// @Param section_id query string false "Section ID"
// @Param faculty_id query string false "Faculty ID"
// @Param room_id query string false "Room ID"
// @Param day_of_week query int false "Day of week (1=Monday .. 5=Friday)"
// @Param locked query bool false "Only locked or unlocked entries"
// @Success 200 {object} response.Envelope{data=[]dto.TimetableEntryView}
// @Router /timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	entries, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"total": len(entries)})
}

// ToggleLock godoc
// @Summary Lock or unlock a timetable entry
// @Description Locked entries survive regeneration. Without is_locked the current state is flipped.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.ToggleLockRequest false "Lock state"
// @Success 200 {object} response.Envelope{data=dto.TimetableEntryView}
// @Failure 404 {object} response.Envelope
// @Router /timetable/{id}/toggle-lock [post]
func (h *TimetableHandler) ToggleLock(c *gin.Context) {
	var req dto.ToggleLockRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lock payload"))
		return
	}
	entry, err := h.service.ToggleLock(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry)
}

// Conflicts godoc
// @Summary Audit persisted entries for double bookings
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope{data=dto.ConflictReport}
// @Router /timetable/conflicts [get]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	report, err := h.service.Conflicts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Export godoc
// @Summary Download the timetable as CSV or PDF
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Param section_id query string false "Section ID"
// @Param faculty_id query string false "Faculty ID"
// @Param room_id query string false "Room ID"
// @Success 200 {file} file
// @Router /timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
