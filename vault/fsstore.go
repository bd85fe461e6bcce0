package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FSStore persists framed payloads as individual files in a directory.
// Writes use the write-and-rename strategy so a crash mid-write never
// leaves a partially written payload under a valid handle.
type FSStore struct {
	dir string
}

var _ Store = (*FSStore)(nil)

// NewFSStore creates the directory if needed and returns a store over it.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fsstore: create dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// Put writes the framed bytes under a fresh unique handle. The key is
// advisory (it prefixes the filename for humans poking around the
// directory); uniqueness comes from the UUID.
func (s *FSStore) Put(ctx context.Context, key string, framed []byte, meta Metadata) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := sanitizeKey(key) + uuid.NewString() + ".fold"
	finalPath := filepath.Join(s.dir, name)
	tempPath := finalPath + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("fsstore: create temp file: %w", err)
	}
	if _, err := file.Write(framed); err != nil {
		file.Close()
		return "", fmt.Errorf("fsstore: write payload: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return "", fmt.Errorf("fsstore: sync payload: %w", err)
	}
	// Close before renaming; required for Windows compatibility.
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("fsstore: close temp file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", fmt.Errorf("fsstore: rename temp file: %w", err)
	}
	return Handle(name), nil
}

// Get reads the framed bytes for a handle.
func (s *FSStore) Get(ctx context.Context, handle Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := filepath.Base(string(handle)) // confine handles to the store dir
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("fsstore: read payload for handle %q: %w", handle, err)
	}
	return data, nil
}

// sanitizeKey reduces an arbitrary key to a short, filesystem-safe
// filename prefix.
func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= 32 {
			break
		}
	}
	if b.Len() > 0 {
		b.WriteByte('-')
	}
	return b.String()
}
