package report

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/gsa/datagov-metrics/common"
	"github.com/gsa/datagov-metrics/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockStorageProvider keeps uploaded objects in memory
type MockStorageProvider struct {
	uploadedData map[string][]byte
	uploadError  error
	existsError  error
}

func NewMockStorageProvider() *MockStorageProvider {
	return &MockStorageProvider{
		uploadedData: make(map[string][]byte),
	}
}

func (m *MockStorageProvider) Upload(ctx context.Context, path string, data io.Reader) error {
	if m.uploadError != nil {
		return m.uploadError
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.uploadedData[path] = content
	return nil
}

func (m *MockStorageProvider) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	content, ok := m.uploadedData[path]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (m *MockStorageProvider) Delete(ctx context.Context, path string) error {
	delete(m.uploadedData, path)
	return nil
}

func (m *MockStorageProvider) Exists(ctx context.Context, path string) (bool, error) {
	if m.existsError != nil {
		return false, m.existsError
	}
	_, ok := m.uploadedData[path]
	return ok, nil
}

func (m *MockStorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	for path := range m.uploadedData {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func sampleReport() *common.UsageReport {
	return &common.UsageReport{
		Source: common.ReportSourceCatalog,
		Name:   "dataset-counts",
		Date:   "2024-07-01",
		Header: []string{"organization", "title", "dataset_count"},
		Rows: [][]string{
			{"gsa-gov", "General Services Administration", "1432"},
			{"total", "All organizations", "1432"},
		},
	}
}

func TestReportPath(t *testing.T) {
	rep := sampleReport()
	assert.Equal(t, "reports/catalog/2024-07-01/dataset-counts.csv", ReportPath(rep, false))
	assert.Equal(t, "reports/catalog/2024-07-01/dataset-counts.csv.gz", ReportPath(rep, true))
}

func TestReportWriterWrite(t *testing.T) {
	mock := NewMockStorageProvider()
	writer := NewReportWriter(mock, config.DefaultConfig())
	defer writer.Close()

	rep := sampleReport()
	require.NoError(t, writer.Write(context.Background(), rep))

	data, ok := mock.uploadedData["reports/catalog/2024-07-01/dataset-counts.csv"]
	require.True(t, ok, "report should be uploaded at the expected path")

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "organization,title,dataset_count", lines[0])
	assert.Equal(t, "gsa-gov,General Services Administration,1432", lines[1])
	assert.Equal(t, "total,All organizations,1432", lines[2])
}

func TestReportWriterValidation(t *testing.T) {
	mock := NewMockStorageProvider()
	writer := NewReportWriter(mock, config.DefaultConfig())
	defer writer.Close()
	ctx := context.Background()

	t.Run("nil report", func(t *testing.T) {
		assert.Error(t, writer.Write(ctx, nil))
	})

	t.Run("unknown source", func(t *testing.T) {
		rep := sampleReport()
		rep.Source = "unknown"
		assert.Error(t, writer.Write(ctx, rep))
	})

	t.Run("empty name", func(t *testing.T) {
		rep := sampleReport()
		rep.Name = ""
		assert.Error(t, writer.Write(ctx, rep))
	})

	t.Run("name with path separator", func(t *testing.T) {
		rep := sampleReport()
		rep.Name = "foo/bar"
		assert.Error(t, writer.Write(ctx, rep))
	})

	t.Run("bad date", func(t *testing.T) {
		rep := sampleReport()
		rep.Date = "07/01/2024"
		assert.Error(t, writer.Write(ctx, rep))
	})

	assert.Empty(t, mock.uploadedData, "invalid reports must not be uploaded")
}

func TestReportWriterOverwrite(t *testing.T) {
	t.Run("refuses to overwrite by default", func(t *testing.T) {
		mock := NewMockStorageProvider()
		writer := NewReportWriter(mock, config.DefaultConfig())
		defer writer.Close()

		ctx := context.Background()
		require.NoError(t, writer.Write(ctx, sampleReport()))

		err := writer.Write(ctx, sampleReport())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrReportExists)
	})

	t.Run("overwrites when enabled", func(t *testing.T) {
		mock := NewMockStorageProvider()
		cfg := config.DefaultConfig().WithOverwriteExisting(true)
		writer := NewReportWriter(mock, cfg)
		defer writer.Close()

		ctx := context.Background()
		require.NoError(t, writer.Write(ctx, sampleReport()))

		rep := sampleReport()
		rep.Rows = rep.Rows[:1]
		require.NoError(t, writer.Write(ctx, rep))

		data := mock.uploadedData[ReportPath(rep, false)]
		assert.Equal(t, 2, len(strings.Split(strings.TrimSpace(string(data)), "\n")))
	})
}

func TestReportWriterCompress(t *testing.T) {
	mock := NewMockStorageProvider()
	cfg := config.DefaultConfig().WithCompress(true)
	writer := NewReportWriter(mock, cfg)
	defer writer.Close()

	rep := sampleReport()
	require.NoError(t, writer.Write(context.Background(), rep))

	data, ok := mock.uploadedData["reports/catalog/2024-07-01/dataset-counts.csv.gz"]
	require.True(t, ok, "compressed report should carry a .gz suffix")

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	decompressed, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(decompressed), "organization,title,dataset_count\n"))
}

func TestReportWriterUploadError(t *testing.T) {
	mock := NewMockStorageProvider()
	mock.uploadError = fmt.Errorf("bucket unavailable")
	writer := NewReportWriter(mock, config.DefaultConfig())
	defer writer.Close()

	err := writer.Write(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
}

func TestReportWriterClosed(t *testing.T) {
	mock := NewMockStorageProvider()
	cfg := config.DefaultConfig().WithCompress(true)
	writer := NewReportWriter(mock, cfg)
	require.NoError(t, writer.Close())

	// After Close the compressing path must fail rather than panic
	assert.Error(t, writer.Write(context.Background(), sampleReport()))

	// Close is idempotent
	assert.NoError(t, writer.Close())
}
