package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitroom/internal/models"
)

func TestDocumentRoundTrip(t *testing.T) {
	room := &models.Room{
		ID:    "may-trip",
		Name:  "Майский трип",
		Users: []models.User{{Name: "Ilya"}, {Name: "Sultan"}, {Name: "Pavel"}},
		Transactions: []models.Transaction{
			{
				ID:           "tx-1",
				CreatedAt:    time.Date(2024, 5, 3, 18, 42, 0, 0, time.UTC),
				Payer:        "Pavel",
				Participants: map[string]float64{"Pavel": 700, "Ilya": 700, "Sultan": 700},
				RawShares:    map[string]string{"Pavel": "2100 / 3", "Ilya": "700", "Sultan": "700"},
				Note:         "Такси Нальчик->Пятигорск",
			},
		},
	}

	data, err := EncodeRoom(room)
	require.NoError(t, err)

	decoded, err := DecodeRoom("may-trip", data)
	require.NoError(t, err)
	assert.Equal(t, room, decoded)
}

func TestDecodeRoom_LegacyDocument(t *testing.T) {
	// Documents written before transactions had IDs.
	data := []byte(`{
  "name": "Trip",
  "transactions": [
    {
      "date": "2024-05-01T12:30:00.123456+03:00",
      "payer": "Pavel",
      "participants": {"Pavel": 700.0, "Ilya": 700.0},
      "user_debts": {"Pavel": "700", "Ilya": "700"},
      "commentary": "Taxi"
    }
  ],
  "users": [{"name": "Ilya"}, {"name": "Pavel"}]
}`)

	room, err := DecodeRoom("trip", data)
	require.NoError(t, err)
	require.Len(t, room.Transactions, 1)

	tx := room.Transactions[0]
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "Pavel", tx.Payer)
	assert.Equal(t, "Taxi", tx.Note)
	assert.Equal(t, 1400.0, tx.Total())
	assert.Equal(t, []string{"Ilya", "Pavel"}, room.UserNames())
	assert.True(t, tx.CreatedAt.Equal(time.Date(2024, 5, 1, 9, 30, 0, 123456000, time.UTC)))
}

func TestDecodeRoom_LegacyIDsAreStable(t *testing.T) {
	data := []byte(`{
  "name": "Trip",
  "transactions": [
    {"date": "2024-05-01T12:30:00+03:00", "payer": "A", "participants": {"A": 1}, "user_debts": {"A": "1"}, "commentary": ""},
    {"date": "2024-05-01T12:30:00+03:00", "payer": "A", "participants": {"A": 2}, "user_debts": {"A": "2"}, "commentary": ""}
  ],
  "users": [{"name": "A"}]
}`)

	first, err := DecodeRoom("trip", data)
	require.NoError(t, err)
	second, err := DecodeRoom("trip", data)
	require.NoError(t, err)

	require.Len(t, first.Transactions, 2)
	for i := range first.Transactions {
		assert.Equal(t, first.Transactions[i].ID, second.Transactions[i].ID)
	}
	// Same date, different position.
	assert.NotEqual(t, first.Transactions[0].ID, first.Transactions[1].ID)

	other, err := DecodeRoom("other", data)
	require.NoError(t, err)
	assert.NotEqual(t, first.Transactions[0].ID, other.Transactions[0].ID)
}

func TestDecodeRoom_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"name": `},
		{"wrong type", `{"name": 42}`},
		{"duplicate user", `{"name": "x", "users": [{"name": "A"}, {"name": "A"}], "transactions": []}`},
		{"empty user", `{"name": "x", "users": [{"name": ""}], "transactions": []}`},
		{"missing payer", `{"name": "x", "users": [{"name": "A"}], "transactions": [
			{"id": "1", "date": "2024-05-01T12:30:00Z", "payer": "", "participants": {}, "user_debts": {}, "commentary": ""}]}`},
		{"raw shares mismatch", `{"name": "x", "users": [{"name": "A"}], "transactions": [
			{"id": "1", "date": "2024-05-01T12:30:00Z", "payer": "A", "participants": {"A": 1}, "user_debts": {"B": "1"}, "commentary": ""}]}`},
		{"duplicate transaction id", `{"name": "x", "users": [{"name": "A"}], "transactions": [
			{"id": "1", "date": "2024-05-01T12:30:00Z", "payer": "A", "participants": {}, "user_debts": {}, "commentary": ""},
			{"id": "1", "date": "2024-05-01T12:30:00Z", "payer": "A", "participants": {}, "user_debts": {}, "commentary": ""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRoom("x", []byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestErrors_Unwrap(t *testing.T) {
	cause := assert.AnError

	malformed := error(&MalformedDocumentError{RoomID: "r", Source: "r.rooom", Err: cause})
	assert.ErrorIs(t, malformed, ErrMalformedDocument)
	assert.ErrorIs(t, malformed, cause)
	assert.Contains(t, malformed.Error(), `"r"`)

	write := error(&WriteError{RoomID: "r", Err: cause})
	assert.ErrorIs(t, write, ErrWriteFailed)
	assert.ErrorIs(t, write, cause)
}
