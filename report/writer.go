package report

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"sync"

	"github.com/gsa/datagov-metrics/common"
	"github.com/gsa/datagov-metrics/config"
	"github.com/gsa/datagov-metrics/internal/utils"
	"github.com/gsa/datagov-metrics/storage"
	"go.uber.org/zap"
)

// ReportWriter renders usage reports as CSV and uploads them to object storage
type ReportWriter struct {
	provider   storage.ObjectStorageProvider
	config     *config.Config
	logger     *zap.Logger
	gzipWriter *gzip.Writer
	buffer     *bytes.Buffer
	mu         sync.Mutex // protects gzipWriter and buffer from concurrent access
}

var _ Writer = (*ReportWriter)(nil)

// NewReportWriter creates a new report writer
func NewReportWriter(provider storage.ObjectStorageProvider, cfg *config.Config) *ReportWriter {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	buffer := &bytes.Buffer{}
	return &ReportWriter{
		provider:   provider,
		config:     cfg,
		logger:     cfg.GetLogger(),
		gzipWriter: gzip.NewWriter(buffer),
		buffer:     buffer,
	}
}

// ReportPath builds the storage path for a report:
// reports/{source}/{date}/{name}.csv, with a .gz suffix when compression
// is enabled.
func ReportPath(rep *common.UsageReport, compress bool) string {
	path := fmt.Sprintf("reports/%s/%s/%s.csv", rep.Source, rep.Date, rep.Name)
	if compress {
		path += ".gz"
	}
	return path
}

// Write implements Writer interface, renders and uploads a usage report
func (w *ReportWriter) Write(ctx context.Context, rep *common.UsageReport) error {
	if rep == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if !common.ValidReportSources[rep.Source] {
		return fmt.Errorf("invalid report source: %s", rep.Source)
	}
	if err := utils.ValidateReportName(rep.Name); err != nil {
		return err
	}
	if err := utils.ValidateReportDate(rep.Date); err != nil {
		return err
	}

	path := ReportPath(rep, w.config.Compress)

	w.logger.Debug("Writing usage report",
		zap.String("source", string(rep.Source)),
		zap.String("name", rep.Name),
		zap.String("date", rep.Date),
		zap.String("path", path),
		zap.Int("rows", len(rep.Rows)),
	)

	// If overwriting is not allowed, check if the report already exists
	if !w.config.OverwriteExisting {
		exists, err := w.provider.Exists(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to check if report exists: %w", err)
		}
		if exists {
			w.logger.Warn("Report already exists, refusing to overwrite",
				zap.String("path", path),
			)
			return fmt.Errorf("%w: %s", ErrReportExists, path)
		}
	}

	data, err := renderCSV(rep)
	if err != nil {
		return fmt.Errorf("failed to render report CSV: %w", err)
	}

	if w.config.Compress {
		data, err = w.compressDataReuse(data)
		if err != nil {
			return fmt.Errorf("failed to compress report: %w", err)
		}
	}

	if err := w.provider.Upload(ctx, path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}

	w.logger.Info("Successfully wrote usage report",
		zap.String("path", path),
		zap.Int("size_bytes", len(data)),
		zap.Int("rows", len(rep.Rows)),
	)

	return nil
}

// Close closes the writer and releases the internal gzip writer
func (w *ReportWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.gzipWriter != nil {
		err := w.gzipWriter.Close()
		w.gzipWriter = nil
		return err
	}
	return nil
}

// renderCSV serializes the report header and rows as CSV
func renderCSV(rep *common.UsageReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	cw := csv.NewWriter(buf)

	if len(rep.Header) > 0 {
		if err := cw.Write(rep.Header); err != nil {
			return nil, err
		}
	}
	for _, row := range rep.Rows {
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// compressDataReuse uses the reusable gzip writer to compress data
func (w *ReportWriter) compressDataReuse(data []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.gzipWriter == nil {
		return nil, fmt.Errorf("writer is closed")
	}

	w.buffer.Reset()
	w.gzipWriter.Reset(w.buffer)

	if _, err := w.gzipWriter.Write(data); err != nil {
		return nil, err
	}
	if err := w.gzipWriter.Close(); err != nil {
		return nil, err
	}

	// Return copy of compressed data
	result := make([]byte, w.buffer.Len())
	copy(result, w.buffer.Bytes())

	return result, nil
}
