package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrInvalidKey is returned for keys that would escape the store's namespace.
var ErrInvalidKey = errors.New("invalid blob key")

// PhotoKey returns the key for the index-th photo of a draft. Each draft gets
// its own "ad_<draftID>" namespace so concurrent drafts never collide.
func PhotoKey(draftID string, index int) string {
	return fmt.Sprintf("ad_%s/photo_%d.jpg", draftID, index)
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// FileStore writes blobs below a directory on the local filesystem.
type FileStore struct {
	dir string
}

// NewFileStore creates the base directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Put writes data under key and returns the file path.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filePath := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	// Write to a temporary file first so a failed write never leaves a
	// truncated photo behind.
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move blob into place: %w", err)
	}

	log.Debug().Str("path", filePath).Int("bytes", len(data)).Msg("stored blob")
	return filePath, nil
}
