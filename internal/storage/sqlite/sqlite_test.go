package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/mmynk/splitroom/internal/models"
	"github.com/mmynk/splitroom/internal/storage"
)

func testRoom(id string) *models.Room {
	return &models.Room{
		ID:    id,
		Name:  "Майский трип",
		Users: []models.User{{Name: "Sultan"}, {Name: "Ilya"}, {Name: "Pavel"}},
		Transactions: []models.Transaction{
			{
				ID:           "tx-1",
				CreatedAt:    time.Date(2024, 5, 3, 18, 42, 0, 0, time.UTC),
				Payer:        "Pavel",
				Participants: map[string]float64{"Pavel": 700, "Ilya": 700, "Sultan": 700},
				RawShares:    map[string]string{"Pavel": "2100 / 3", "Ilya": "700", "Sultan": "700"},
				Note:         "Такси Нальчик->Пятигорск",
			},
			{
				ID:           "tx-2",
				CreatedAt:    time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC),
				Payer:        "Ilya",
				Participants: map[string]float64{"Ilya": 12.5, "Sultan": 0},
				RawShares:    map[string]string{"Ilya": "25 / 2", "Sultan": "0"},
				Note:         "",
			},
		},
	}
}

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("LoadAll on empty database", func(t *testing.T) {
		rooms, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if len(rooms) != 0 {
			t.Errorf("expected no rooms, got %d", len(rooms))
		}
	})

	t.Run("Save then LoadAll reproduces the room", func(t *testing.T) {
		original := testRoom("may")
		if err := store.Save(ctx, original); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		rooms, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if !reflect.DeepEqual(original, rooms["may"]) {
			t.Errorf("round trip mismatch:\n got  %+v\n want %+v", rooms["may"], original)
		}
	})

	t.Run("Save keeps user and transaction order", func(t *testing.T) {
		room := testRoom("order")
		room.Transactions[0], room.Transactions[1] = room.Transactions[1], room.Transactions[0]
		if err := store.Save(ctx, room); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		rooms, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		got := rooms["order"]
		if names := got.UserNames(); !slices.Equal(names, []string{"Sultan", "Ilya", "Pavel"}) {
			t.Errorf("expected users in declared order, got %v", names)
		}
		if got.Transactions[0].ID != "tx-2" || got.Transactions[1].ID != "tx-1" {
			t.Errorf("expected transactions [tx-2 tx-1], got [%s %s]", got.Transactions[0].ID, got.Transactions[1].ID)
		}
	})

	t.Run("Save replaces previous rows", func(t *testing.T) {
		room := testRoom("may")
		room.Name = "Renamed"
		room.Transactions = room.Transactions[:1]
		if err := store.Save(ctx, room); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		rooms, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if rooms["may"].Name != "Renamed" {
			t.Errorf("expected name 'Renamed', got %q", rooms["may"].Name)
		}
		if len(rooms["may"].Transactions) != 1 {
			t.Errorf("expected 1 transaction, got %d", len(rooms["may"].Transactions))
		}
		if len(rooms) != 2 {
			t.Errorf("expected 2 rooms, got %d", len(rooms))
		}
	})

	t.Run("Save rejects duplicate users and keeps old state", func(t *testing.T) {
		room := testRoom("may")
		room.Users = append(room.Users, models.User{Name: "Ilya"})

		if err := store.Save(ctx, room); !errors.Is(err, storage.ErrWriteFailed) {
			t.Fatalf("expected ErrWriteFailed, got %v", err)
		}

		rooms, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if rooms["may"].Name != "Renamed" {
			t.Errorf("expected previous state to survive, got name %q", rooms["may"].Name)
		}
	})

	t.Run("Save rejects invalid room id", func(t *testing.T) {
		if err := store.Save(ctx, testRoom("")); !errors.Is(err, storage.ErrWriteFailed) {
			t.Errorf("expected ErrWriteFailed, got %v", err)
		}
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "splitroom.db")
	ctx := context.Background()

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Save(ctx, testRoom("may")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	rooms, err := reopened.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if !reflect.DeepEqual(testRoom("may"), rooms["may"]) {
		t.Errorf("reopened room mismatch: %+v", rooms["may"])
	}
}

func TestSQLiteStore_MalformedRows(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Save(ctx, testRoom("may")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.db.ExecContext(ctx, "UPDATE transactions SET created_at = 'yesterday' WHERE id = 'tx-1'"); err != nil {
		t.Fatalf("failed to corrupt row: %v", err)
	}

	_, err = store.LoadAll(ctx)
	if !errors.Is(err, storage.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}

	var malformed *storage.MalformedDocumentError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedDocumentError, got %T", err)
	}
	if malformed.RoomID != "may" {
		t.Errorf("expected room id 'may', got %q", malformed.RoomID)
	}
}
