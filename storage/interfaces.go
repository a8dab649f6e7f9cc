package storage

import (
	"context"

	"github.com/google/uuid"

	"weblog-stats/models"
)

// RecordWriter is the interface for exporting normalized records.
type RecordWriter interface {
	WriteRecords(records []models.Record) error
	Close() error
}

// ReportWriter is the interface for storing the summary of one run.
type ReportWriter interface {
	WriteReport(ctx context.Context, run Run, report *models.StatsReport) error
	Close() error
}

// Run identifies one invocation of the tool.
type Run struct {
	ID     uuid.UUID
	Source string
	Mode   models.ParseMode
	Stats  models.ParseStats
}
