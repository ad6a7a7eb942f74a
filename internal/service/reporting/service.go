package reporting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/repository"
)

const (
	dateLayout = "2006-01-02"

	// criticalThreshold is the occupancy percentage at which a center is listed as critical.
	criticalThreshold = 90
)

// Service exposes read-only aggregations over centers and the exchange history.
type Service struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(store repository.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// OccupancyReport sums capacity and occupancy of the centers created within the optional
// inclusive bounds.
func (s *Service) OccupancyReport(ctx context.Context, from, to *time.Time) (*models.OccupancyReport, error) {
	centers, err := s.store.Centers().List(ctx, repository.CenterFilter{CreatedFrom: from, CreatedTo: to})
	if err != nil {
		return nil, fmt.Errorf("load centers: %w", err)
	}

	report := &models.OccupancyReport{
		CriticalCenters: []models.CenterOccupancy{},
		GeneratedAt:     s.now().UTC(),
	}

	for i := range centers {
		c := &centers[i]
		report.TotalCapacity += c.CapacityMax
		report.TotalOccupied += c.Occupancy

		if c.AtOrAbove(criticalThreshold) {
			report.CriticalCenters = append(report.CriticalCenters, models.CenterOccupancy{
				ID:          c.ID,
				Name:        c.Name,
				CapacityMax: c.CapacityMax,
				Occupancy:   c.Occupancy,
				Rate:        round2(c.OccupancyRate()),
			})
		}
	}

	if report.TotalCapacity > 0 {
		report.OccupancyRate = round2(float64(report.TotalOccupied) / float64(report.TotalCapacity) * 100)
	}

	s.logger.Debug("occupancy report computed",
		zap.Int("centers", len(centers)),
		zap.Int("critical", len(report.CriticalCenters)))
	return report, nil
}

// ResourceReport lists a center's resources, optionally restricted to one type.
func (s *Service) ResourceReport(ctx context.Context, centerID primitive.ObjectID, resourceType string) (*models.ResourceReport, error) {
	center, err := s.store.Centers().FindByID(ctx, centerID)
	if err != nil {
		return nil, err
	}

	return &models.ResourceReport{
		Center:    center.Name,
		Resources: center.Resources.Filter(resourceType),
	}, nil
}

// AverageResourceReport computes the mean quantity of each resource type over every
// center. Centers that do not hold a type count as zero.
func (s *Service) AverageResourceReport(ctx context.Context) ([]models.ResourceAverage, error) {
	centers, err := s.store.Centers().List(ctx, repository.CenterFilter{})
	if err != nil {
		return nil, fmt.Errorf("load centers: %w", err)
	}

	totals := map[string]int{}
	for _, c := range centers {
		for _, r := range c.Resources {
			totals[r.Type] += r.Quantity
		}
	}

	averages := make([]models.ResourceAverage, 0, len(totals))
	for resourceType, total := range totals {
		averages = append(averages, models.ResourceAverage{
			Type:    resourceType,
			Total:   total,
			Centers: len(centers),
			Average: round2(float64(total) / float64(len(centers))),
		})
	}
	sort.Slice(averages, func(i, j int) bool { return averages[i].Type < averages[j].Type })

	return averages, nil
}

// ExchangeHistory lists negotiations within the optional bounds, optionally restricted to
// those involving centerID, oldest first and with center names resolved.
func (s *Service) ExchangeHistory(ctx context.Context, from, to *time.Time, centerID *primitive.ObjectID) ([]models.ExchangeRecord, error) {
	negotiations, err := s.store.Negotiations().List(ctx, repository.NegotiationFilter{
		From:     from,
		To:       to,
		CenterID: centerID,
	})
	if err != nil {
		return nil, fmt.Errorf("load negotiations: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(negotiations)*2)
	for _, n := range negotiations {
		ids = append(ids, n.OriginID, n.DestinationID)
	}

	centers, err := s.store.Centers().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve center names: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(centers))
	for _, c := range centers {
		names[c.ID] = c.Name
	}

	records := make([]models.ExchangeRecord, 0, len(negotiations))
	for _, n := range negotiations {
		records = append(records, models.ExchangeRecord{
			ID:                n.ID,
			OriginID:          n.OriginID,
			Origin:            names[n.OriginID],
			DestinationID:     n.DestinationID,
			Destination:       names[n.DestinationID],
			FromOrigin:        n.FromOrigin,
			FromDestination:   n.FromDestination,
			OriginPoints:      n.OriginPoints,
			DestinationPoints: n.DestinationPoints,
			EmergencyOverride: n.EmergencyOverride,
			CreatedAt:         n.CreatedAt,
		})
	}
	return records, nil
}

// FormatDigest renders an occupancy report as a short human-readable summary.
func FormatDigest(report *models.OccupancyReport) string {
	day := report.GeneratedAt.Format(dateLayout)
	if report.TotalCapacity == 0 {
		return fmt.Sprintf("Ocupação (%s): nenhum centro cadastrado.", day)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ocupação (%s): %d de %d vagas ocupadas (%.2f%%).",
		day, report.TotalOccupied, report.TotalCapacity, report.OccupancyRate)

	if len(report.CriticalCenters) > 0 {
		names := make([]string, 0, len(report.CriticalCenters))
		for _, c := range report.CriticalCenters {
			names = append(names, fmt.Sprintf("%s %.0f%%", c.Name, c.Rate))
		}
		fmt.Fprintf(&b, " Centros críticos: %s.", strings.Join(names, ", "))
	}
	return b.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
