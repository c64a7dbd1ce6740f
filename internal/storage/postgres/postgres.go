// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmynk/splitroom/internal/models"
	"github.com/mmynk/splitroom/internal/storage"
)

// Ensure PostgresStore implements storage.Store
var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store using a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database and runs migrations.
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	store, err := New(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing pool and runs migrations on it.
func New(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Save replaces every row of the room inside a single database transaction.
func (s *PostgresStore) Save(ctx context.Context, room *models.Room) error {
	if err := s.save(ctx, room); err != nil {
		return &storage.WriteError{RoomID: room.ID, Err: err}
	}
	return nil
}

func (s *PostgresStore) save(ctx context.Context, room *models.Room) error {
	if err := storage.ValidateRoomID(room.ID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Cascades remove users, transactions and shares
	if _, err := tx.Exec(ctx, "DELETE FROM rooms WHERE id = $1", room.ID); err != nil {
		return fmt.Errorf("failed to clear room: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue("INSERT INTO rooms (id, name, updated_at) VALUES ($1, $2, NOW())", room.ID, room.Name)
	for i, user := range room.Users {
		batch.Queue("INSERT INTO room_users (room_id, position, name) VALUES ($1, $2, $3)",
			room.ID, i, user.Name)
	}
	for i, t := range room.Transactions {
		batch.Queue(`INSERT INTO transactions (room_id, id, position, created_at, payer, note)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			room.ID, t.ID, i, t.CreatedAt, t.Payer, t.Note)
		for name, amount := range t.Participants {
			batch.Queue(`INSERT INTO transaction_shares (room_id, transaction_id, name, amount, raw)
				VALUES ($1, $2, $3, $4, $5)`,
				room.ID, t.ID, name, amount, t.RawShares[name])
		}
	}

	results := tx.SendBatch(ctx, batch)
	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert room rows: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to insert room rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadAll retrieves every room, including users, transactions and shares.
func (s *PostgresStore) LoadAll(ctx context.Context) (map[string]*models.Room, error) {
	rooms := make(map[string]*models.Room)

	err := s.query(ctx, "SELECT id, name FROM rooms", func(rows pgx.Rows) error {
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

	err = s.query(ctx, "SELECT room_id, name FROM room_users ORDER BY room_id, position", func(rows pgx.Rows) error {
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

	type txKey struct{ roomID, id string }
	index := make(map[txKey]int)
	err = s.query(ctx,
		"SELECT room_id, id, created_at, payer, note FROM transactions ORDER BY room_id, position",
		func(rows pgx.Rows) error {
			var roomID string
			var createdAt time.Time
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
			t.CreatedAt = createdAt
			index[txKey{roomID, t.ID}] = len(room.Transactions)
			room.Transactions = append(room.Transactions, t)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	err = s.query(ctx, "SELECT room_id, transaction_id, name, amount, raw FROM transaction_shares", func(rows pgx.Rows) error {
		var roomID, txID, name, raw string
		var amount float64
		if err := rows.Scan(&roomID, &txID, &name, &amount, &raw); err != nil {
			return err
		}
		if i, ok := index[txKey{roomID, txID}]; ok {
			t := rooms[roomID].Transactions[i]
			t.Participants[name] = amount
			t.RawShares[name] = raw
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}

	for id, room := range rooms {
		if err := storage.ValidateRoom(room); err != nil {
			return nil, &storage.MalformedDocumentError{RoomID: id, Source: "postgres", Err: err}
		}
	}

	return rooms, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, scan func(pgx.Rows) error) error {
	rows, err := s.pool.Query(ctx, query)
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
