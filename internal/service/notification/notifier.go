package notification

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/server/metrics"
	"github.com/mamadbah2/relief/pkg/clients/webhook"
)

// Notifier receives capacity breaches detected by the occupancy tracker.
type Notifier interface {
	NotifyCapacityBreach(ctx context.Context, breach models.CapacityBreach) error
}

// LogNotifier records breaches as structured warnings and metrics.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds the always-on notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// NotifyCapacityBreach logs the breach.
func (n *LogNotifier) NotifyCapacityBreach(_ context.Context, breach models.CapacityBreach) error {
	metrics.RecordCapacityBreach()
	n.logger.Warn("center reached maximum capacity",
		zap.String("center_id", breach.CenterID.Hex()),
		zap.String("center", breach.CenterName),
		zap.Int("occupancy", breach.Occupancy),
		zap.Int("capacity", breach.CapacityMax),
		zap.Int("delta", breach.Delta))
	return nil
}

// WebhookNotifier forwards breaches to the configured webhook.
type WebhookNotifier struct {
	client  webhook.Client
	timeout time.Duration
}

// NewWebhookNotifier wires a webhook-backed notifier.
func NewWebhookNotifier(client webhook.Client, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{client: client, timeout: timeout}
}

// NotifyCapacityBreach posts a capacity_breach event.
func (n *WebhookNotifier) NotifyCapacityBreach(ctx context.Context, breach models.CapacityBreach) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	return n.client.Post(ctxWithTimeout, webhook.Event{
		Type:       webhook.EventCapacityBreach,
		OccurredAt: breach.DetectedAt,
		Data:       breach,
	})
}

// Multi fans a breach out to every notifier and joins their errors.
type Multi []Notifier

// NotifyCapacityBreach calls each notifier even when an earlier one fails.
func (m Multi) NotifyCapacityBreach(ctx context.Context, breach models.CapacityBreach) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyCapacityBreach(ctx, breach); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
