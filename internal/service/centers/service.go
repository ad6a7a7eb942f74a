package centers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/repository"
	"github.com/mamadbah2/relief/internal/service/notification"
)

const (
	updateAttempts = 3

	// notifyTimeout bounds a breach notification once it is detached from the request.
	notifyTimeout = 30 * time.Second
)

// RegisterInput carries the data needed to register a center.
type RegisterInput struct {
	Name        string
	Address     string
	Location    string
	CapacityMax int
	Occupancy   int
	Resources   models.Ledger
}

// Service owns center records: registration, lookup and occupancy tracking.
type Service struct {
	store    repository.Store
	points   models.PointTable
	notifier notification.Notifier
	logger   *zap.Logger
	now      func() time.Time
	pending  sync.WaitGroup
}

// NewService wires a new center service instance.
func NewService(store repository.Store, points models.PointTable, notifier notification.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if points == nil {
		points = models.DefaultPointTable()
	}
	if notifier == nil {
		notifier = notification.NewLogNotifier(logger)
	}
	return &Service{
		store:    store,
		points:   points,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Register validates and persists a new center. Names must be unique by exact match.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Center, error) {
	now := s.now().UTC()
	center := &models.Center{
		Name:        in.Name,
		Address:     in.Address,
		Location:    in.Location,
		CapacityMax: in.CapacityMax,
		Occupancy:   in.Occupancy,
		Resources:   in.Resources.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if center.Resources == nil {
		center.Resources = models.Ledger{}
	}

	if err := center.Validate(); err != nil {
		return nil, err
	}

	for i := range center.Resources {
		if center.Resources[i].Points == 0 {
			center.Resources[i].Points = s.points.Points(center.Resources[i].Type)
		}
	}

	_, err := s.store.Centers().FindByName(ctx, center.Name)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", models.ErrDuplicateName, center.Name)
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("check center name: %w", err)
	}

	if err := s.store.Centers().Insert(ctx, center); err != nil {
		return nil, err
	}

	s.logger.Info("center registered",
		zap.String("center_id", center.ID.Hex()),
		zap.String("name", center.Name),
		zap.Int("capacity", center.CapacityMax))
	return center, nil
}

// FindByID returns the center or models.ErrNotFound.
func (s *Service) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Center, error) {
	return s.store.Centers().FindByID(ctx, id)
}

// List returns every center, oldest first.
func (s *Service) List(ctx context.Context) ([]models.Center, error) {
	return s.store.Centers().List(ctx, repository.CenterFilter{})
}

// AdjustOccupancy adds a signed delta to the center's occupancy. Results below zero or
// above models.MaxQuantity are rejected; reaching capacity commits anyway and emits a
// capacity breach in the background.
func (s *Service) AdjustOccupancy(ctx context.Context, id primitive.ObjectID, delta int) (*models.Center, error) {
	if delta > models.MaxQuantity || delta < -models.MaxQuantity {
		return nil, fmt.Errorf("adjust occupancy: %w: delta exceeds %d", models.ErrValidation, models.MaxQuantity)
	}

	var updated *models.Center

	err := repository.RetryOnConflict(updateAttempts, func() error {
		return s.store.WithTransaction(ctx, func(ctx context.Context) error {
			center, err := s.store.Centers().FindByID(ctx, id)
			if err != nil {
				return err
			}

			next := center.Occupancy + delta
			if next < 0 {
				return fmt.Errorf("%w: occupancy would drop to %d", models.ErrValidation, next)
			}
			if next > models.MaxQuantity {
				return fmt.Errorf("%w: occupancy would exceed %d", models.ErrValidation, models.MaxQuantity)
			}

			center.Occupancy = next
			center.UpdatedAt = s.now().UTC()
			if err := s.store.Centers().Update(ctx, center); err != nil {
				return err
			}

			updated = center
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("adjust occupancy: %w", err)
	}

	s.logger.Debug("occupancy adjusted",
		zap.String("center_id", updated.ID.Hex()),
		zap.Int("delta", delta),
		zap.Int("occupancy", updated.Occupancy))

	if updated.Occupancy >= updated.CapacityMax {
		s.notifyBreach(ctx, models.CapacityBreach{
			CenterID:    updated.ID,
			CenterName:  updated.Name,
			Occupancy:   updated.Occupancy,
			CapacityMax: updated.CapacityMax,
			Delta:       delta,
			DetectedAt:  updated.UpdatedAt,
		})
	}

	return updated, nil
}

// Wait blocks until every breach notification started so far has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) notifyBreach(ctx context.Context, breach models.CapacityBreach) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()

		if err := s.notifier.NotifyCapacityBreach(ctx, breach); err != nil {
			s.logger.Warn("capacity breach notification failed", zap.String("center_id", breach.CenterID.Hex()), zap.Error(err))
		}
	}()
}
