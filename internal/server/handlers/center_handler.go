package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/service/centers"
	"github.com/mamadbah2/relief/internal/service/exchange"
)

// CenterService is the registry and occupancy behaviour the handler needs.
type CenterService interface {
	Register(ctx context.Context, in centers.RegisterInput) (*models.Center, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Center, error)
	List(ctx context.Context) ([]models.Center, error)
	AdjustOccupancy(ctx context.Context, id primitive.ObjectID, delta int) (*models.Center, error)
}

// ExchangeService executes exchanges between centers.
type ExchangeService interface {
	Exchange(ctx context.Context, in exchange.Input) (*models.Negotiation, error)
}

// CenterHandler serves the /centros routes.
type CenterHandler struct {
	centers   CenterService
	exchanges ExchangeService
	logger    *zap.Logger
}

// NewCenterHandler constructs the HTTP handler adapter.
func NewCenterHandler(centers CenterService, exchanges ExchangeService, logger *zap.Logger) *CenterHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CenterHandler{centers: centers, exchanges: exchanges, logger: logger}
}

type resourceRequest struct {
	Type     string `json:"tipo" binding:"required"`
	Quantity *int   `json:"quantidade" binding:"required,min=0"`
	Points   int    `json:"pontos" binding:"min=0"`
}

type createCenterRequest struct {
	Name        string            `json:"nome" binding:"required"`
	Address     string            `json:"endereco" binding:"required"`
	Location    string            `json:"localizacao" binding:"required"`
	CapacityMax int               `json:"capacidadeMaxima" binding:"required,gt=0"`
	Occupancy   *int              `json:"quantidadeAtual" binding:"required,min=0"`
	Resources   []resourceRequest `json:"recursos" binding:"required,dive"`
}

// occupancyRequest carries a signed delta. quantidadeAtual is accepted as a legacy alias.
type occupancyRequest struct {
	Delta  *int `json:"delta"`
	Legacy *int `json:"quantidadeAtual"`
}

type exchangeRequest struct {
	DestinationID   string                  `json:"centroDestinoId" binding:"required"`
	FromOrigin      []models.ResourceAmount `json:"recursosOrigem" binding:"required,dive"`
	FromDestination []models.ResourceAmount `json:"recursosDestino" binding:"required,dive"`
}

// Create registers a new center.
func (h *CenterHandler) Create(c *gin.Context) {
	var req createCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	ledger := make(models.Ledger, 0, len(req.Resources))
	for _, r := range req.Resources {
		ledger = append(ledger, models.Resource{Type: r.Type, Quantity: *r.Quantity, Points: r.Points})
	}

	center, err := h.centers.Register(c.Request.Context(), centers.RegisterInput{
		Name:        req.Name,
		Address:     req.Address,
		Location:    req.Location,
		CapacityMax: req.CapacityMax,
		Occupancy:   *req.Occupancy,
		Resources:   ledger,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, center)
}

// List returns every center.
func (h *CenterHandler) List(c *gin.Context) {
	list, err := h.centers.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one center.
func (h *CenterHandler) Get(c *gin.Context) {
	id, err := parseObjectID(c.Param("id"), "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	center, err := h.centers.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, center)
}

// UpdateOccupancy applies an occupancy delta. A delta that would drive occupancy below
// zero is rejected with 400 rather than logged as a warning.
func (h *CenterHandler) UpdateOccupancy(c *gin.Context) {
	id, err := parseObjectID(c.Param("id"), "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req occupancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	delta := req.Delta
	if delta == nil {
		delta = req.Legacy
	}
	if delta == nil {
		respondError(c, h.logger, fmt.Errorf("%w: delta is required", models.ErrValidation))
		return
	}

	center, err := h.centers.AdjustOccupancy(c.Request.Context(), id, *delta)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, center)
}

// Exchange trades resources between the path center and the destination center.
func (h *CenterHandler) Exchange(c *gin.Context) {
	originID, err := parseObjectID(c.Param("id"), "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	destinationID, err := parseObjectID(req.DestinationID, "centroDestinoId")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	negotiation, err := h.exchanges.Exchange(c.Request.Context(), exchange.Input{
		OriginID:        originID,
		DestinationID:   destinationID,
		FromOrigin:      req.FromOrigin,
		FromDestination: req.FromDestination,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, negotiation)
}
