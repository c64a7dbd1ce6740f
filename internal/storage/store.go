// Package storage provides abstractions for persistent room storage.
package storage

import (
	"context"

	"github.com/mmynk/splitroom/internal/models"
)

// Store defines the interface for durable room storage.
// This abstraction allows swapping storage backends (files, SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	// LoadAll reads every stored room, keyed by room ID.
	// A single malformed room fails the whole load with a *MalformedDocumentError.
	LoadAll(ctx context.Context) (map[string]*models.Room, error)

	// Save persists the full room, replacing whatever was stored under room.ID.
	// Failures are reported as a *WriteError.
	Save(ctx context.Context, room *models.Room) error

	// Close releases any resources held by the store.
	Close() error
}
