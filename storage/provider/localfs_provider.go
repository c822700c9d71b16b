package provider

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LocalFSProvider local filesystem storage provider implementation.
// Intended for development and tests; report paths map directly to
// files under the configured base path.
type LocalFSProvider struct {
	basePath    string
	prefix      string
	createDirs  bool
	permissions fs.FileMode
}

// NewLocalFSProvider creates a new local filesystem storage provider
func NewLocalFSProvider(config *ProviderConfig) (*LocalFSProvider, error) {
	if config.Type != ProviderTypeLocalFS {
		return nil, fmt.Errorf("invalid provider type: %s, expected: %s", config.Type, ProviderTypeLocalFS)
	}

	basePath := ""
	createDirs := true
	permissions := fs.FileMode(0755)

	if config.LocalFS != nil {
		basePath = config.LocalFS.BasePath
		createDirs = config.LocalFS.CreateDirs
		if config.LocalFS.Permissions != "" {
			if perm, err := parseFileMode(config.LocalFS.Permissions); err == nil {
				permissions = perm
			}
		}
	}

	if basePath == "" {
		basePath = "./datagov-reports" // default path
	}

	if createDirs {
		if err := os.MkdirAll(basePath, permissions); err != nil {
			return nil, fmt.Errorf("failed to create base directory %s: %w", basePath, err)
		}
	}

	return &LocalFSProvider{
		basePath:    basePath,
		prefix:      config.Prefix,
		createDirs:  createDirs,
		permissions: permissions,
	}, nil
}

// parseFileMode parses a file permission string like "0755"
func parseFileMode(perm string) (fs.FileMode, error) {
	if strings.HasPrefix(perm, "0") && len(perm) > 1 {
		mode, err := strconv.ParseUint(perm, 8, 32)
		if err != nil {
			return 0755, fmt.Errorf("invalid octal format: %s", perm)
		}
		return fs.FileMode(mode), nil
	}
	return 0755, fmt.Errorf("unsupported permission format: %s", perm)
}

// filePath maps a storage path to an absolute file path under basePath
func (l *LocalFSProvider) filePath(path string) string {
	if l.prefix != "" {
		prefix := strings.TrimSuffix(l.prefix, "/")
		path = prefix + "/" + strings.TrimPrefix(path, "/")
	}
	return filepath.Join(l.basePath, filepath.FromSlash(path))
}

// Upload implements ObjectStorageProvider interface
func (l *LocalFSProvider) Upload(ctx context.Context, path string, data io.Reader) error {
	fullPath := l.filePath(path)

	if l.createDirs {
		if err := os.MkdirAll(filepath.Dir(fullPath), l.permissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(fullPath), err)
		}
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	return nil
}

// Download implements ObjectStorageProvider interface
func (l *LocalFSProvider) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(l.filePath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", l.filePath(path), err)
	}
	return file, nil
}

// Delete implements ObjectStorageProvider interface
func (l *LocalFSProvider) Delete(ctx context.Context, path string) error {
	if err := os.Remove(l.filePath(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", l.filePath(path), err)
	}
	return nil
}

// Exists implements ObjectStorageProvider interface
func (l *LocalFSProvider) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(l.filePath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List implements ObjectStorageProvider interface.
// Returned paths are relative to the base path, slash separated, so
// they match the paths accepted by the other methods.
func (l *LocalFSProvider) List(ctx context.Context, prefix string) ([]string, error) {
	var objects []string

	searchRoot := l.basePath
	if l.prefix != "" {
		searchRoot = filepath.Join(l.basePath, filepath.FromSlash(l.prefix))
	}

	err := filepath.WalkDir(searchRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(searchRoot, path)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)
		if prefix == "" || strings.HasPrefix(relSlash, prefix) {
			objects = append(objects, relSlash)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files under %s: %w", searchRoot, err)
	}

	return objects, nil
}
