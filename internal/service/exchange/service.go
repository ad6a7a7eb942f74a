package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/repository"
	"github.com/mamadbah2/relief/internal/server/metrics"
)

const (
	// EmergencyThreshold is the occupancy percentage both centers must have reached
	// before an uneven exchange is accepted.
	EmergencyThreshold = 90

	exchangeAttempts = 3
)

// Input describes a bilateral exchange requested by the origin center.
type Input struct {
	OriginID        primitive.ObjectID
	DestinationID   primitive.ObjectID
	FromOrigin      []models.ResourceAmount
	FromDestination []models.ResourceAmount
}

// Service validates and executes resource exchanges between centers.
type Service struct {
	store  repository.Store
	points models.PointTable
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new exchange service instance.
func NewService(store repository.Store, points models.PointTable, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if points == nil {
		points = models.DefaultPointTable()
	}
	return &Service{store: store, points: points, logger: logger, now: time.Now}
}

// Exchange moves FromOrigin to the destination and FromDestination to the origin, all or
// nothing, and records the negotiation.
func (s *Service) Exchange(ctx context.Context, in Input) (*models.Negotiation, error) {
	fromOrigin, fromDestination, err := s.normalize(in)
	if err != nil {
		metrics.RecordExchange(metrics.ExchangeFailed)
		return nil, err
	}

	originPoints, err := s.points.Total(fromOrigin)
	if err != nil {
		metrics.RecordExchange(metrics.ExchangeFailed)
		return nil, fmt.Errorf("exchange resources: origin %w", err)
	}
	destinationPoints, err := s.points.Total(fromDestination)
	if err != nil {
		metrics.RecordExchange(metrics.ExchangeFailed)
		return nil, fmt.Errorf("exchange resources: destination %w", err)
	}

	var negotiation *models.Negotiation
	err = repository.RetryOnConflict(exchangeAttempts, func() error {
		return s.store.WithTransaction(ctx, func(ctx context.Context) error {
			centers := s.store.Centers()

			origin, err := centers.FindByID(ctx, in.OriginID)
			if err != nil {
				return fmt.Errorf("origin %w", err)
			}
			destination, err := centers.FindByID(ctx, in.DestinationID)
			if err != nil {
				return fmt.Errorf("destination %w", err)
			}

			emergency := false
			if originPoints != destinationPoints {
				// Eligibility uses occupancy before the transfer.
				if !origin.AtOrAbove(EmergencyThreshold) || !destination.AtOrAbove(EmergencyThreshold) {
					return fmt.Errorf("%w: origin offers %d points, destination offers %d",
						models.ErrUnfairExchange, originPoints, destinationPoints)
				}
				emergency = true
			}

			if err := origin.Resources.Subtract(fromOrigin); err != nil {
				return fmt.Errorf("origin %s: %w", origin.Name, err)
			}
			if err := destination.Resources.Subtract(fromDestination); err != nil {
				return fmt.Errorf("destination %s: %w", destination.Name, err)
			}
			if err := origin.Resources.Add(fromDestination, s.points); err != nil {
				return fmt.Errorf("origin %s: %w", origin.Name, err)
			}
			if err := destination.Resources.Add(fromOrigin, s.points); err != nil {
				return fmt.Errorf("destination %s: %w", destination.Name, err)
			}

			now := s.now().UTC()
			origin.UpdatedAt = now
			destination.UpdatedAt = now

			if err := centers.Update(ctx, origin); err != nil {
				return err
			}
			if err := centers.Update(ctx, destination); err != nil {
				return err
			}

			record := &models.Negotiation{
				OriginID:          origin.ID,
				DestinationID:     destination.ID,
				FromOrigin:        fromOrigin,
				FromDestination:   fromDestination,
				OriginPoints:      originPoints,
				DestinationPoints: destinationPoints,
				EmergencyOverride: emergency,
				CreatedAt:         now,
			}
			if err := s.store.Negotiations().Insert(ctx, record); err != nil {
				return err
			}

			negotiation = record
			return nil
		})
	})
	if err != nil {
		metrics.RecordExchange(outcome(err))
		s.logger.Info("exchange rejected",
			zap.String("origin_id", in.OriginID.Hex()),
			zap.String("destination_id", in.DestinationID.Hex()),
			zap.Error(err))
		return nil, fmt.Errorf("exchange resources: %w", err)
	}

	if negotiation.EmergencyOverride {
		metrics.RecordExchange(metrics.ExchangeEmergency)
	} else {
		metrics.RecordExchange(metrics.ExchangeCompleted)
	}

	s.logger.Info("exchange completed",
		zap.String("negotiation_id", negotiation.ID.Hex()),
		zap.String("origin_id", negotiation.OriginID.Hex()),
		zap.String("destination_id", negotiation.DestinationID.Hex()),
		zap.Int("origin_points", originPoints),
		zap.Int("destination_points", destinationPoints),
		zap.Bool("emergency", negotiation.EmergencyOverride))

	return negotiation, nil
}

func (s *Service) normalize(in Input) ([]models.ResourceAmount, []models.ResourceAmount, error) {
	if in.OriginID.IsZero() || in.DestinationID.IsZero() {
		return nil, nil, fmt.Errorf("%w: origin and destination are required", models.ErrValidation)
	}
	if in.OriginID == in.DestinationID {
		return nil, nil, fmt.Errorf("%w: a center cannot exchange with itself", models.ErrValidation)
	}
	if len(in.FromOrigin) == 0 && len(in.FromDestination) == 0 {
		return nil, nil, fmt.Errorf("%w: no resources to exchange", models.ErrValidation)
	}

	for _, list := range [][]models.ResourceAmount{in.FromOrigin, in.FromDestination} {
		for _, item := range list {
			if strings.TrimSpace(item.Type) == "" {
				return nil, nil, fmt.Errorf("%w: resource tipo is required", models.ErrValidation)
			}
			if item.Quantity <= 0 {
				return nil, nil, fmt.Errorf("%w: quantidade of %s must be positive", models.ErrValidation, item.Type)
			}
			if item.Quantity > models.MaxQuantity {
				return nil, nil, fmt.Errorf("%w: quantidade of %s exceeds %d", models.ErrValidation, item.Type, models.MaxQuantity)
			}
		}
	}

	fromOrigin := models.MergeAmounts(in.FromOrigin)
	fromDestination := models.MergeAmounts(in.FromDestination)
	for _, list := range [][]models.ResourceAmount{fromOrigin, fromDestination} {
		for _, item := range list {
			if item.Quantity > models.MaxQuantity {
				return nil, nil, fmt.Errorf("%w: quantidade of %s exceeds %d", models.ErrValidation, item.Type, models.MaxQuantity)
			}
		}
	}
	return fromOrigin, fromDestination, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, models.ErrUnfairExchange):
		return metrics.ExchangeUnfair
	case errors.Is(err, models.ErrInsufficientResource):
		return metrics.ExchangeInsufficient
	default:
		return metrics.ExchangeFailed
	}
}
