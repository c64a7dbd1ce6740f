package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema mirrors the SQLite layout; positions keep display order within a room.
const schema = `
CREATE TABLE IF NOT EXISTS rooms (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS room_users (
    room_id TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (room_id, name)
);

CREATE TABLE IF NOT EXISTS transactions (
    room_id TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    payer TEXT NOT NULL,
    note TEXT NOT NULL,
    PRIMARY KEY (room_id, id)
);

CREATE TABLE IF NOT EXISTS transaction_shares (
    room_id TEXT NOT NULL,
    transaction_id TEXT NOT NULL,
    name TEXT NOT NULL,
    amount DOUBLE PRECISION NOT NULL,
    raw TEXT NOT NULL,
    PRIMARY KEY (room_id, transaction_id, name),
    FOREIGN KEY (room_id, transaction_id) REFERENCES transactions(room_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_room_users_room_id ON room_users(room_id);
CREATE INDEX IF NOT EXISTS idx_transactions_room_id ON transactions(room_id);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
