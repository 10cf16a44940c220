// Package filestore persists the session record as a JSON document on
// disk, the desktop stand-in for a browser's local storage.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/masterfulhomes/dashwise-go/session"
)

const recordFileName = "session.json"

// FileStore writes the session record to <dir>/session.json. Writes go
// through a temp file and rename so a crash mid-write leaves either the
// old record or the new one, never a torn file.
type FileStore struct {
	dir string
}

// New creates a file store rooted at dir, creating it if needed.
func New(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("filestore: dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Write replaces the stored record.
func (f *FileStore) Write(record *session.Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: marshal record: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, recordFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("filestore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("filestore: write record: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("filestore: chmod record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: replace record: %w", err)
	}
	return nil
}

// Read returns the stored record, or nil when no record exists.
func (f *FileStore) Read() (*session.Record, error) {
	data, err := os.ReadFile(f.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("filestore: read record: %w", err)
	}
	var record session.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("filestore: unmarshal record: %w", err)
	}
	return &record, nil
}

// Clear removes the stored record.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: clear record: %w", err)
	}
	return nil
}

func (f *FileStore) path() string {
	return filepath.Join(f.dir, recordFileName)
}

var _ session.Storage = (*FileStore)(nil)
