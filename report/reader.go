package report

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gsa/datagov-metrics/common"
	"github.com/gsa/datagov-metrics/config"
	"github.com/gsa/datagov-metrics/internal/utils"
	"github.com/gsa/datagov-metrics/storage"
	"go.uber.org/zap"
)

// ReportReader reads previously uploaded usage reports back from object
// storage, used to verify uploads and inspect historical reports.
type ReportReader struct {
	provider storage.ObjectStorageProvider
	config   *config.Config
	logger   *zap.Logger
}

var _ Reader = (*ReportReader)(nil)

// NewReportReader creates a new report reader
func NewReportReader(provider storage.ObjectStorageProvider, cfg *config.Config) *ReportReader {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &ReportReader{
		provider: provider,
		config:   cfg,
		logger:   cfg.GetLogger(),
	}
}

// Read implements Reader interface. The report source, date and name are
// reconstructed from the storage path, the header from the first CSV row.
func (r *ReportReader) Read(ctx context.Context, path string) (*common.UsageReport, error) {
	exists, err := r.provider.Exists(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check report existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, path)
	}

	body, err := r.provider.Download(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to download report: %w", err)
	}
	defer body.Close()

	var reader io.Reader = body
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip report: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	records, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse report CSV: %w", err)
	}

	rep, err := reportFromPath(path)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		rep.Header = records[0]
		rep.Rows = records[1:]
	}

	r.logger.Debug("Read usage report",
		zap.String("path", path),
		zap.Int("rows", len(rep.Rows)),
	)

	return rep, nil
}

// List implements Reader interface, returning report paths for a source
// and date.
func (r *ReportReader) List(ctx context.Context, source common.ReportSource, date string) ([]string, error) {
	if !common.ValidReportSources[source] {
		return nil, fmt.Errorf("invalid report source: %s", source)
	}
	if err := utils.ValidateReportDate(date); err != nil {
		return nil, err
	}

	prefix := utils.FormatPath("reports", string(source), date)
	return r.provider.List(ctx, prefix)
}

// Close implements Reader interface
func (r *ReportReader) Close() error {
	return nil
}

// reportFromPath reconstructs report identity from a storage path of the
// form reports/{source}/{date}/{name}.csv[.gz].
func reportFromPath(path string) (*common.UsageReport, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 4 || parts[0] != "reports" {
		return nil, fmt.Errorf("invalid report path format: %s", path)
	}

	name := parts[3]
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".csv")

	return &common.UsageReport{
		Source: common.ReportSource(parts[1]),
		Date:   parts[2],
		Name:   name,
	}, nil
}
