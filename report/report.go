package report

import (
	"context"
	"errors"

	"github.com/gsa/datagov-metrics/common"
)

// Error definitions
var (
	// ErrReportExists error when a report file already exists
	ErrReportExists = errors.New("report already exists")
	// ErrReportNotFound error when a report file does not exist
	ErrReportNotFound = errors.New("report not found")
)

// Writer defines the report writer interface
type Writer interface {
	// Write serializes a usage report and uploads it to storage
	Write(ctx context.Context, rep *common.UsageReport) error
	// Close closes the writer and cleans up resources
	Close() error
}

// Reader defines the report reader interface
type Reader interface {
	// Read reads a report file from the specified storage path
	Read(ctx context.Context, path string) (*common.UsageReport, error)
	// List lists report file paths for a source and date
	List(ctx context.Context, source common.ReportSource, date string) ([]string, error)
	// Close closes the reader and cleans up resources
	Close() error
}
