package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/relief/internal/config"
	"github.com/mamadbah2/relief/internal/domain/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// Exporter appends occupancy snapshots to a spreadsheet.
type Exporter interface {
	AppendOccupancy(ctx context.Context, report *models.OccupancyReport) error
}

// GoogleSheetExporter implements Exporter using the official Google Sheets API.
type GoogleSheetExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	sheetRange    string
	logger        *zap.Logger
}

// NewGoogleSheetExporter builds a Google Sheets backed exporter.
func NewGoogleSheetExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetExporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		sheetRange:    cfg.Range,
		logger:        logger,
	}, nil
}

// OccupancyRow flattens a report into spreadsheet columns:
// timestamp, capacity, occupied, rate, critical center count.
func OccupancyRow(report *models.OccupancyReport) []interface{} {
	return []interface{}{
		report.GeneratedAt.Format(timestampLayout),
		report.TotalCapacity,
		report.TotalOccupied,
		report.OccupancyRate,
		len(report.CriticalCenters),
	}
}

// AppendOccupancy appends one row for the report.
func (e *GoogleSheetExporter) AppendOccupancy(ctx context.Context, report *models.OccupancyReport) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{OccupancyRow(report)}}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, e.sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", e.sheetRange, err)
	}

	e.logger.Debug("occupancy row appended to sheet", zap.String("range", e.sheetRange))
	return nil
}
