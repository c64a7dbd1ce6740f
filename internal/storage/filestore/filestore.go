// Package filestore provides a storage.Store that keeps one JSON document per room
// in a flat directory.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmynk/splitroom/internal/models"
	"github.com/mmynk/splitroom/internal/storage"
)

// Extension marks room documents; other files in the directory are ignored.
const Extension = ".rooom"

// Ensure FileStore implements storage.Store
var _ storage.Store = (*FileStore)(nil)

// FileStore implements storage.Store with one document per room.
// Saves are atomic: a document is written to a temp file and renamed over the old one.
type FileStore struct {
	dir string
}

// New creates a FileStore rooted at dir, creating the directory if it doesn't exist.
func New(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Close is a no-op; FileStore holds no open resources between calls.
func (s *FileStore) Close() error {
	return nil
}

// Path returns the document path for a room.
func (s *FileStore) Path(roomID string) string {
	return filepath.Join(s.dir, roomID+Extension)
}

// LoadAll reads every room document in the directory.
func (s *FileStore) LoadAll(ctx context.Context) (map[string]*models.Room, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}

	rooms := make(map[string]*models.Room)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != Extension {
			continue
		}
		roomID := strings.TrimSuffix(name, Extension)
		path := filepath.Join(s.dir, name)

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read room %q: %w", roomID, err)
		}
		room, err := storage.DecodeRoom(roomID, data)
		if err != nil {
			return nil, &storage.MalformedDocumentError{RoomID: roomID, Source: path, Err: err}
		}
		rooms[roomID] = room
	}

	return rooms, nil
}

// Save overwrites the room's document with the full room.
func (s *FileStore) Save(ctx context.Context, room *models.Room) error {
	if err := ctx.Err(); err != nil {
		return &storage.WriteError{RoomID: room.ID, Err: err}
	}
	if err := storage.ValidateRoomID(room.ID); err != nil {
		return &storage.WriteError{RoomID: room.ID, Err: err}
	}

	data, err := storage.EncodeRoom(room)
	if err != nil {
		return &storage.WriteError{RoomID: room.ID, Err: err}
	}
	if err := writeFileAtomic(s.Path(room.ID), data); err != nil {
		return &storage.WriteError{RoomID: room.ID, Err: err}
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place,
// so readers see either the old document or the new one.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}
