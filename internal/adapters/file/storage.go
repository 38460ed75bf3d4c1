package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/docmerge/pkg/domain"
)

// Storage implements ports.Storage using the local filesystem.
// It writes generated forms into a configured directory.
type Storage struct {
	BasePath string
}

// NewStorage creates a new Storage with the given base path.
// If basePath is empty, it defaults to "out".
func NewStorage(basePath string) *Storage {
	if basePath == "" {
		basePath = "out"
	}
	return &Storage{BasePath: basePath}
}

// Save writes the rendition atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Storage) Save(ctx context.Context, name string, format domain.Format, data []byte) (domain.StoredFile, error) {
	if name == "" {
		return domain.StoredFile{}, fmt.Errorf("file name cannot be empty")
	}
	if filepath.Base(name) != name {
		return domain.StoredFile{}, fmt.Errorf("file name %q must not contain a directory", name)
	}
	if err := ctx.Err(); err != nil {
		return domain.StoredFile{}, err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to ensure output directory: %w", err)
	}

	destPath := filepath.Join(s.BasePath, name)

	// 1. Create Temp File in the same directory so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+name+"-*")
	if err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	// 2. Write Data
	if _, err := tmpFile.Write(data); err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to write to temp file: %w", err)
	}

	// 3. Fsync
	if err := tmpFile.Sync(); err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Rename. Windows refuses to rename over an existing file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return domain.StoredFile{}, fmt.Errorf("failed to remove existing output for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return domain.StoredFile{Format: format, Path: destPath, FileName: name}, nil
}

// Load reads a stored file. Relative paths not found as given are resolved against BasePath.
func (s *Storage) Load(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !filepath.IsAbs(path) {
		data, err = os.ReadFile(filepath.Join(s.BasePath, path))
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	return data, nil
}

// List returns the names of all stored files.
func (s *Storage) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list outputs: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
