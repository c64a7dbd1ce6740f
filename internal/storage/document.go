package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitroom/internal/models"
)

// roomDocument is the persisted form of a room.
// Field names match documents written by earlier versions of the tracker.
type roomDocument struct {
	Name         string                `json:"name"`
	Transactions []transactionDocument `json:"transactions"`
	Users        []userDocument        `json:"users"`
}

type transactionDocument struct {
	ID           string             `json:"id,omitempty"`
	Date         time.Time          `json:"date"`
	Payer        string             `json:"payer"`
	Participants map[string]float64 `json:"participants"`
	UserDebts    map[string]string  `json:"user_debts"`
	Commentary   string             `json:"commentary"`
}

type userDocument struct {
	Name string `json:"name"`
}

// EncodeRoom serializes a room into its document form.
func EncodeRoom(room *models.Room) ([]byte, error) {
	doc := roomDocument{
		Name:         room.Name,
		Transactions: make([]transactionDocument, len(room.Transactions)),
		Users:        make([]userDocument, len(room.Users)),
	}
	for i, tx := range room.Transactions {
		doc.Transactions[i] = transactionDocument{
			ID:           tx.ID,
			Date:         tx.CreatedAt,
			Payer:        tx.Payer,
			Participants: tx.Participants,
			UserDebts:    tx.RawShares,
			Commentary:   tx.Note,
		}
	}
	for i, u := range room.Users {
		doc.Users[i] = userDocument{Name: u.Name}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode room %q: %w", room.ID, err)
	}
	return data, nil
}

// DecodeRoom parses a room document. Transactions stored without an ID get one
// derived from the room id, position and date, so every load assigns the same ID.
// The returned error is the cause only; callers wrap it in a *MalformedDocumentError.
func DecodeRoom(roomID string, data []byte) (*models.Room, error) {
	var doc roomDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	room := &models.Room{
		ID:           roomID,
		Name:         doc.Name,
		Users:        make([]models.User, len(doc.Users)),
		Transactions: make([]models.Transaction, len(doc.Transactions)),
	}
	for i, u := range doc.Users {
		room.Users[i] = models.User{Name: u.Name}
	}
	for i, td := range doc.Transactions {
		id := td.ID
		if id == "" {
			id = legacyTransactionID(roomID, i, td.Date)
		}
		room.Transactions[i] = models.Transaction{
			ID:           id,
			CreatedAt:    td.Date,
			Payer:        td.Payer,
			Participants: nonNil(td.Participants),
			RawShares:    nonNil(td.UserDebts),
			Note:         td.Commentary,
		}
	}

	if err := ValidateRoom(room); err != nil {
		return nil, err
	}
	return room, nil
}

// ValidateRoom checks the invariants every stored room must satisfy:
// unique non-empty user names, unique transaction IDs and well-formed transactions.
func ValidateRoom(room *models.Room) error {
	users := make(map[string]bool, len(room.Users))
	for _, u := range room.Users {
		if u.Name == "" {
			return fmt.Errorf("empty user name")
		}
		if users[u.Name] {
			return fmt.Errorf("duplicate user %q", u.Name)
		}
		users[u.Name] = true
	}

	ids := make(map[string]bool, len(room.Transactions))
	for i, tx := range room.Transactions {
		if tx.ID == "" {
			return fmt.Errorf("transaction %d: missing id", i)
		}
		if ids[tx.ID] {
			return fmt.Errorf("transaction %d: duplicate id %q", i, tx.ID)
		}
		ids[tx.ID] = true
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return nil
}

// legacyTransactionID derives a stable UUID for a transaction written without one.
func legacyTransactionID(roomID string, index int, date time.Time) string {
	name := "splitroom:" + roomID + "/" + strconv.Itoa(index) + "/" + date.Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func nonNil[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
