package provider

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalFSProvider(t *testing.T) *LocalFSProvider {
	t.Helper()
	p, err := NewLocalFSProvider(&ProviderConfig{
		Type: ProviderTypeLocalFS,
		LocalFS: &LocalFSConfig{
			BasePath:   t.TempDir(),
			CreateDirs: true,
		},
	})
	require.NoError(t, err)
	return p
}

func TestNewLocalFSProvider(t *testing.T) {
	t.Run("rejects wrong provider type", func(t *testing.T) {
		_, err := NewLocalFSProvider(&ProviderConfig{Type: ProviderTypeS3})
		assert.Error(t, err)
	})

	t.Run("creates base directory", func(t *testing.T) {
		basePath := filepath.Join(t.TempDir(), "nested", "reports")
		_, err := NewLocalFSProvider(&ProviderConfig{
			Type:    ProviderTypeLocalFS,
			LocalFS: &LocalFSConfig{BasePath: basePath, CreateDirs: true},
		})
		require.NoError(t, err)

		info, err := os.Stat(basePath)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestLocalFSUploadDownload(t *testing.T) {
	p := newLocalFSProvider(t)
	ctx := context.Background()

	path := "reports/catalog/2024-07-01/dataset-counts.csv"
	content := "organization,title,dataset_count\ntotal,All organizations,0\n"
	require.NoError(t, p.Upload(ctx, path, strings.NewReader(content)))

	body, err := p.Download(ctx, path)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestLocalFSExists(t *testing.T) {
	p := newLocalFSProvider(t)
	ctx := context.Background()

	exists, err := p.Exists(ctx, "reports/catalog/2024-07-01/missing.csv")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, p.Upload(ctx, "reports/catalog/2024-07-01/found.csv", strings.NewReader("x")))

	exists, err = p.Exists(ctx, "reports/catalog/2024-07-01/found.csv")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalFSDelete(t *testing.T) {
	p := newLocalFSProvider(t)
	ctx := context.Background()

	path := "reports/analytics/2024-07-01/site-traffic.csv"
	require.NoError(t, p.Upload(ctx, path, strings.NewReader("x")))
	require.NoError(t, p.Delete(ctx, path))

	exists, err := p.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing object is not an error
	assert.NoError(t, p.Delete(ctx, path))
}

func TestLocalFSList(t *testing.T) {
	p := newLocalFSProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Upload(ctx, "reports/catalog/2024-07-01/dataset-counts.csv", strings.NewReader("a")))
	require.NoError(t, p.Upload(ctx, "reports/catalog/2024-07-02/dataset-counts.csv", strings.NewReader("b")))
	require.NoError(t, p.Upload(ctx, "reports/analytics/2024-07-01/site-traffic.csv", strings.NewReader("c")))

	t.Run("by prefix", func(t *testing.T) {
		paths, err := p.List(ctx, "reports/catalog/2024-07-01/")
		require.NoError(t, err)
		assert.Equal(t, []string{"reports/catalog/2024-07-01/dataset-counts.csv"}, paths)
	})

	t.Run("listed paths round trip through Download", func(t *testing.T) {
		paths, err := p.List(ctx, "reports/analytics/")
		require.NoError(t, err)
		require.Len(t, paths, 1)

		body, err := p.Download(ctx, paths[0])
		require.NoError(t, err)
		defer body.Close()
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "c", string(data))
	})

	t.Run("empty prefix returns everything", func(t *testing.T) {
		paths, err := p.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, paths, 3)
	})
}

func TestLocalFSPrefix(t *testing.T) {
	basePath := t.TempDir()
	p, err := NewLocalFSProvider(&ProviderConfig{
		Type:    ProviderTypeLocalFS,
		Prefix:  "team-a",
		LocalFS: &LocalFSConfig{BasePath: basePath, CreateDirs: true},
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Upload(ctx, "reports/catalog/2024-07-01/dataset-counts.csv", strings.NewReader("x")))

	// The prefix is applied under the base path
	_, err = os.Stat(filepath.Join(basePath, "team-a", "reports", "catalog", "2024-07-01", "dataset-counts.csv"))
	require.NoError(t, err)

	// List results stay relative to the prefix
	paths, listErr := p.List(ctx, "reports/")
	require.NoError(t, listErr)
	assert.Equal(t, []string{"reports/catalog/2024-07-01/dataset-counts.csv"}, paths)
}

func TestParseFileMode(t *testing.T) {
	mode, err := parseFileMode("0755")
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0755), mode)

	mode, err = parseFileMode("0600")
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0600), mode)

	_, err = parseFileMode("rwxr-xr-x")
	assert.Error(t, err)

	_, err = parseFileMode("0999")
	assert.Error(t, err)
}
