// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitroom/internal/models"
	"github.com/mmynk/splitroom/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps the pragmas below in effect.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save replaces every row of the room inside a single database transaction.
func (s *SQLiteStore) Save(ctx context.Context, room *models.Room) error {
	if err := s.save(ctx, room); err != nil {
		return &storage.WriteError{RoomID: room.ID, Err: err}
	}
	return nil
}

func (s *SQLiteStore) save(ctx context.Context, room *models.Room) error {
	if err := storage.ValidateRoomID(room.ID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first, so the rewrite doesn't depend on cascades
	for _, table := range []string{"transaction_shares", "transactions", "room_users", "rooms"} {
		column := "room_id"
		if table == "rooms" {
			column = "id"
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+column+" = ?", room.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO rooms (id, name, updated_at) VALUES (?, ?, ?)",
		room.ID, room.Name, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}

	// Insert users
	for i, user := range room.Users {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO room_users (room_id, position, name) VALUES (?, ?, ?)",
			room.ID, i, user.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
	}

	// Insert transactions and their shares
	for i, t := range room.Transactions {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO transactions (room_id, id, position, created_at, payer, note) VALUES (?, ?, ?, ?, ?, ?)",
			room.ID, t.ID, i, t.CreatedAt.Format(time.RFC3339Nano), t.Payer, t.Note,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		for name, amount := range t.Participants {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO transaction_shares (room_id, transaction_id, name, amount, raw) VALUES (?, ?, ?, ?, ?)",
				room.ID, t.ID, name, amount, t.RawShares[name],
			)
			if err != nil {
				return fmt.Errorf("failed to insert share: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LoadAll retrieves every room, including users, transactions and shares.
func (s *SQLiteStore) LoadAll(ctx context.Context) (map[string]*models.Room, error) {
	rooms := make(map[string]*models.Room)

	// Get rooms
	err := s.query(ctx, "SELECT id, name FROM rooms", func(rows *sql.Rows) error {
		room := &models.Room{}
		if err := rows.Scan(&room.ID, &room.Name); err != nil {
			return err
		}
		rooms[room.ID] = room
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}

	// Get users
	err = s.query(ctx, "SELECT room_id, name FROM room_users ORDER BY room_id, position", func(rows *sql.Rows) error {
		var roomID, name string
		if err := rows.Scan(&roomID, &name); err != nil {
			return err
		}
		if room, ok := rooms[roomID]; ok {
			room.Users = append(room.Users, models.User{Name: name})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	// Get transactions
	type txKey struct{ roomID, id string }
	index := make(map[txKey]int)
	err = s.query(ctx,
		"SELECT room_id, id, created_at, payer, note FROM transactions ORDER BY room_id, position",
		func(rows *sql.Rows) error {
			var roomID, createdAt string
			t := models.Transaction{
				Participants: map[string]float64{},
				RawShares:    map[string]string{},
			}
			if err := rows.Scan(&roomID, &t.ID, &createdAt, &t.Payer, &t.Note); err != nil {
				return err
			}
			room, ok := rooms[roomID]
			if !ok {
				return nil
			}
			ts, err := time.Parse(time.RFC3339Nano, createdAt)
			if err != nil {
				return &storage.MalformedDocumentError{RoomID: roomID, Source: s.source(), Err: fmt.Errorf("transaction %s: %w", t.ID, err)}
			}
			t.CreatedAt = ts
			index[txKey{roomID, t.ID}] = len(room.Transactions)
			room.Transactions = append(room.Transactions, t)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	// Get shares
	err = s.query(ctx, "SELECT room_id, transaction_id, name, amount, raw FROM transaction_shares", func(rows *sql.Rows) error {
		var roomID, txID, name, raw string
		var amount float64
		if err := rows.Scan(&roomID, &txID, &name, &amount, &raw); err != nil {
			return err
		}
		i, ok := index[txKey{roomID, txID}]
		if !ok {
			return nil
		}
		t := rooms[roomID].Transactions[i]
		t.Participants[name] = amount
		t.RawShares[name] = raw
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}

	for id, room := range rooms {
		if err := storage.ValidateRoom(room); err != nil {
			return nil, &storage.MalformedDocumentError{RoomID: id, Source: s.source(), Err: err}
		}
	}

	return rooms, nil
}

// query runs a statement and hands each row to scan. Rows are fully consumed
// and closed before returning, which the single-connection pool requires.
func (s *SQLiteStore) query(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) source() string {
	return "sqlite:" + s.path
}
