package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/relief/internal/config"
	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/repository/sheets"
	"github.com/mamadbah2/relief/internal/service/reporting"
	"github.com/mamadbah2/relief/pkg/clients/webhook"
)

// OccupancyReporter produces the report the digest is built from.
type OccupancyReporter interface {
	OccupancyReport(ctx context.Context, from, to *time.Time) (*models.OccupancyReport, error)
}

// Scheduler runs the periodic occupancy digest.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	reporter  OccupancyReporter
	exporter  sheets.Exporter
	publisher webhook.Client
	logger    *zap.Logger
}

// NewScheduler creates a scheduler in the configured timezone. exporter and publisher are
// optional.
func NewScheduler(cfg config.ReportingConfig, reporter OccupancyReporter, exporter sheets.Exporter, publisher webhook.Client, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		spec:      cfg.CronSchedule,
		reporter:  reporter,
		exporter:  exporter,
		publisher: publisher,
		logger:    logger,
	}

	if _, err := s.cron.AddFunc(s.spec, s.runDigest); err != nil {
		return nil, fmt.Errorf("schedule occupancy digest %q: %w", s.spec, err)
	}
	return s, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.spec))
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running digest to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.SendDigest(ctx); err != nil {
		s.logger.Error("occupancy digest failed", zap.Error(err))
	}
}

// SendDigest builds the occupancy report over every center, logs it and forwards it to the
// configured sinks. Sink failures are logged; only a report failure is returned.
func (s *Scheduler) SendDigest(ctx context.Context) error {
	report, err := s.reporter.OccupancyReport(ctx, nil, nil)
	if err != nil {
		return fmt.Errorf("generate occupancy report: %w", err)
	}

	summary := reporting.FormatDigest(report)
	s.logger.Info("occupancy digest",
		zap.String("summary", summary),
		zap.Int("total_capacity", report.TotalCapacity),
		zap.Int("total_occupied", report.TotalOccupied),
		zap.Int("critical_centers", len(report.CriticalCenters)))

	if s.exporter != nil {
		if err := s.exporter.AppendOccupancy(ctx, report); err != nil {
			s.logger.Error("failed to export occupancy digest", zap.Error(err))
		}
	}

	if s.publisher != nil {
		event := webhook.Event{
			Type:       webhook.EventOccupancyDigest,
			OccurredAt: report.GeneratedAt,
			Data: map[string]any{
				"summary": summary,
				"report":  report,
			},
		}
		if err := s.publisher.Post(ctx, event); err != nil {
			s.logger.Error("failed to publish occupancy digest", zap.Error(err))
		}
	}

	return nil
}
