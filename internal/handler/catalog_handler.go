package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type catalogReader interface {
	Sections(ctx context.Context) ([]models.Section, error)
	Faculty(ctx context.Context) ([]models.Faculty, error)
	Subjects(ctx context.Context) ([]models.Subject, error)
	Rooms(ctx context.Context) ([]models.Room, error)
	TimeSlots(ctx context.Context) ([]models.TimeSlot, error)
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

// CatalogHandler exposes the scheduling inputs read-only.
type CatalogHandler struct {
	service catalogReader
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

func listResponse[T any](c *gin.Context, load func(context.Context) ([]T, error)) {
	items, err := load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Sections godoc
// @Summary List sections
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.Section}
// @Router /sections [get]
func (h *CatalogHandler) Sections(c *gin.Context) {
	listResponse(c, h.service.Sections)
}

// Faculty godoc
// @Summary List faculty
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.Faculty}
// @Router /faculty [get]
func (h *CatalogHandler) Faculty(c *gin.Context) {
	listResponse(c, h.service.Faculty)
}

// Subjects godoc
// @Summary List subjects
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.Subject}
// @Router /subjects [get]
func (h *CatalogHandler) Subjects(c *gin.Context) {
	listResponse(c, h.service.Subjects)
}

// Rooms godoc
// @Summary List rooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.Room}
// @Router /rooms [get]
func (h *CatalogHandler) Rooms(c *gin.Context) {
	listResponse(c, h.service.Rooms)
}

// TimeSlots godoc
// @Summary List the daily time slots
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.TimeSlot}
// @Router /time-slots [get]
func (h *CatalogHandler) TimeSlots(c *gin.Context) {
	listResponse(c, h.service.TimeSlots)
}

// Stats godoc
// @Summary Dashboard counts and generation metrics
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope{data=models.DashboardStats}
// @Router /stats [get]
func (h *CatalogHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}
