package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/relief/internal/domain/models"
)

// ReportService is the reporting behaviour the handler needs.
type ReportService interface {
	OccupancyReport(ctx context.Context, from, to *time.Time) (*models.OccupancyReport, error)
	ResourceReport(ctx context.Context, centerID primitive.ObjectID, resourceType string) (*models.ResourceReport, error)
	AverageResourceReport(ctx context.Context) ([]models.ResourceAverage, error)
	ExchangeHistory(ctx context.Context, from, to *time.Time, centerID *primitive.ObjectID) ([]models.ExchangeRecord, error)
}

// ReportHandler serves the /relatorios routes.
type ReportHandler struct {
	svc    ReportService
	logger *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc ReportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// Occupancy returns total capacity and occupancy.
func (h *ReportHandler) Occupancy(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	report, err := h.svc.OccupancyReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Resources returns one center's resources, optionally filtered by tipo.
func (h *ReportHandler) Resources(c *gin.Context) {
	id, err := parseObjectID(c.Query("centroId"), "centroId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	report, err := h.svc.ResourceReport(c.Request.Context(), id, strings.TrimSpace(c.Query("tipo")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// AverageResources returns the average quantity per resource type.
func (h *ReportHandler) AverageResources(c *gin.Context) {
	averages, err := h.svc.AverageResourceReport(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, averages)
}

// Negotiations returns the exchange history.
func (h *ReportHandler) Negotiations(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var centerID *primitive.ObjectID
	if raw := c.Query("centroId"); raw != "" {
		id, err := parseObjectID(raw, "centroId")
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		centerID = &id
	}

	records, err := h.svc.ExchangeHistory(c.Request.Context(), from, to, centerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
