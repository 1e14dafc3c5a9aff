// Copyright 2025 Practical AI & ML
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package disk provides a filesystem-backed storage.FileStore.
//
// Files are stored under a single root directory with UUID-derived names, so
// uploads with colliding or hostile file names cannot overwrite each other
// or escape the root.
package disk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/practicalaiml/askdocs/storage"
)

// FileStore implements storage.FileStore on the local filesystem.
type FileStore struct {
	root   string
	logger *slog.Logger
}

var _ storage.FileStore = (*FileStore)(nil)

// NewFileStore creates a file store rooted at dir, creating it if needed.
//
// Returns storage.FileStore interface to enforce abstraction.
func NewFileStore(dir string) (storage.FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &FileStore{
		root:   dir,
		logger: slog.Default().With("component", "disk-filestore"),
	}, nil
}

// Save writes content to a new file named by a fresh UUID, keeping the
// original extension for content-type sniffing. Returns the path relative
// to the store root.
func (s *FileStore) Save(ctx context.Context, name string, content io.Reader) (string, int64, error) {
	ext := sanitizeExt(filepath.Ext(name))
	path := uuid.New().String() + ext
	absPath := filepath.Join(s.root, path)

	f, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
	}

	size, err := io.Copy(f, content)
	if err != nil {
		f.Close()
		os.Remove(absPath)
		return "", 0, fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(absPath)
		return "", 0, fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
	}

	s.logger.Debug("saved file", "name", name, "path", path, "size", size)
	return path, size, nil
}

// Open opens a previously saved file for reading.
func (s *FileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	absPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: file %s", storage.ErrNotFound, path)
		}
		return nil, err
	}
	return f, nil
}

// Delete removes a saved file.
func (s *FileStore) Delete(ctx context.Context, path string) error {
	absPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(absPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: file %s", storage.ErrNotFound, path)
		}
		return err
	}

	s.logger.Debug("deleted file", "path", path)
	return nil
}

// resolve joins path with the root and rejects paths that escape it.
func (s *FileStore) resolve(path string) (string, error) {
	cleaned := filepath.Clean(path)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: path %q", storage.ErrInvalidQuery, path)
	}
	return filepath.Join(s.root, cleaned), nil
}

// sanitizeExt keeps only short, plain extensions.
func sanitizeExt(ext string) string {
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return strings.ToLower(ext)
}
