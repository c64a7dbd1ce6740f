package service

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/splitroom/internal/calculator"
	"github.com/mmynk/splitroom/internal/expr"
	"github.com/mmynk/splitroom/internal/models"
)

// Mutation names used in logs and metrics.
const (
	opCreate = "create"
	opAdd    = "add"
	opEdit   = "edit"
	opDelete = "delete"
)

// RoomHandle is a view of one room. It looks the room up on every call, so a
// handle resolved before the room was provisioned starts working once it is.
type RoomHandle struct {
	svc *RoomService
	id  string
}

// ID returns the room id the handle was resolved for.
func (h *RoomHandle) ID() string { return h.id }

// Exists reports whether the room has a backing record.
func (h *RoomHandle) Exists() bool {
	return h.svc.lookup(h.id) != nil
}

// Name returns the room's display name, or UnknownRoomName for a placeholder.
func (h *RoomHandle) Name() string {
	name := UnknownRoomName
	h.svc.read(h.id, func(room *models.Room) {
		if room != nil {
			name = room.Name
		}
	})
	return name
}

// ListUsers returns each room user with their balance, in the room's declared order.
func (h *RoomHandle) ListUsers() []models.UserBalance {
	var users []models.UserBalance
	h.svc.read(h.id, func(room *models.Room) {
		if room == nil {
			return
		}
		names := room.UserNames()
		balances := calculator.ComputeBalances(names, room.Transactions)
		users = make([]models.UserBalance, 0, len(names))
		for _, name := range names {
			users = append(users, models.UserBalance{Name: name, Balance: balances[name]})
		}
	})
	return users
}

// ListTransactions returns the room's transactions oldest first, formatted for display.
func (h *RoomHandle) ListTransactions() []models.TransactionView {
	var views []models.TransactionView
	h.svc.read(h.id, func(room *models.Room) {
		if room == nil {
			return
		}
		names := room.UserNames()
		views = make([]models.TransactionView, 0, len(room.Transactions))
		for i, t := range room.Transactions {
			views = append(views, models.TransactionView{
				Index:        i,
				ID:           t.ID,
				Date:         t.CreatedAt.In(h.svc.location).Format(DateLayout),
				Payer:        t.Payer,
				Participants: t.FormatShares(names),
				Note:         t.Note,
				Total:        t.Total(),
			})
		}
	})
	return views
}

// Transaction returns the raw inputs of a transaction for re-editing.
func (h *RoomHandle) Transaction(txID string) (models.TransactionForm, error) {
	var form models.TransactionForm
	var err error
	h.svc.read(h.id, func(room *models.Room) {
		if room == nil {
			err = roomNotFound(h.id)
			return
		}
		i := room.IndexOf(txID)
		if i < 0 {
			err = transactionNotFound(h.id, txID)
			return
		}
		form = room.Transactions[i].Form(room.UserNames())
	})
	return form, err
}

// TransactionIDAt returns the id of the transaction currently at index.
func (h *RoomHandle) TransactionIDAt(index int) (string, error) {
	var id string
	var err error
	h.svc.read(h.id, func(room *models.Room) {
		if room == nil {
			err = roomNotFound(h.id)
			return
		}
		if err = checkIndex(room, index); err != nil {
			return
		}
		id = room.Transactions[index].ID
	})
	return id, err
}

// DraftShares returns equal-split share expressions for sum across all room users.
func (h *RoomHandle) DraftShares(sum float64) map[string]string {
	var names []string
	h.svc.read(h.id, func(room *models.Room) {
		if room != nil {
			names = room.UserNames()
		}
	})
	return calculator.EqualShareExpressions(sum, names)
}

// Settlements returns transfers that would bring every balance to zero.
func (h *RoomHandle) Settlements() []calculator.DebtEdge {
	var edges []calculator.DebtEdge
	h.svc.read(h.id, func(room *models.Room) {
		if room == nil {
			return
		}
		edges = calculator.SuggestSettlements(calculator.ComputeBalances(room.UserNames(), room.Transactions))
	})
	return edges
}

// AddTransaction evaluates rawShares, appends a new transaction and persists the room.
// It returns the id of the new transaction.
func (h *RoomHandle) AddTransaction(ctx context.Context, payer string, rawShares map[string]string, note string) (string, error) {
	logger := h.svc.logger.With("room_id", h.id)
	logger.Info("AddTransaction request received", "payer", payer, "participants", len(rawShares))

	var txID string
	err := h.svc.mutate(ctx, opAdd, h.id, func(room *models.Room) error {
		t, err := h.svc.buildTransaction(room, payer, rawShares, note)
		if err != nil {
			return err
		}
		t.ID = uuid.New().String()
		room.Transactions = append(room.Transactions, t)
		txID = t.ID
		return nil
	})
	if err != nil {
		logger.Warn("AddTransaction failed", "error", err)
		return "", err
	}

	logger.Info("AddTransaction successful", "transaction_id", txID)
	return txID, nil
}

// EditTransaction replaces the transaction with the given id in place.
// The transaction keeps its id and position; its timestamp is renewed.
func (h *RoomHandle) EditTransaction(ctx context.Context, txID, payer string, rawShares map[string]string, note string) error {
	logger := h.svc.logger.With("room_id", h.id, "transaction_id", txID)
	logger.Info("EditTransaction request received", "payer", payer, "participants", len(rawShares))

	err := h.svc.mutate(ctx, opEdit, h.id, func(room *models.Room) error {
		i := room.IndexOf(txID)
		if i < 0 {
			return transactionNotFound(h.id, txID)
		}
		return h.svc.replaceAt(room, i, payer, rawShares, note)
	})
	if err != nil {
		logger.Warn("EditTransaction failed", "error", err)
		return err
	}

	logger.Info("EditTransaction successful")
	return nil
}

// EditTransactionAt replaces the transaction currently at index.
func (h *RoomHandle) EditTransactionAt(ctx context.Context, index int, payer string, rawShares map[string]string, note string) error {
	logger := h.svc.logger.With("room_id", h.id, "index", index)
	logger.Info("EditTransactionAt request received", "payer", payer, "participants", len(rawShares))

	err := h.svc.mutate(ctx, opEdit, h.id, func(room *models.Room) error {
		if err := checkIndex(room, index); err != nil {
			return err
		}
		return h.svc.replaceAt(room, index, payer, rawShares, note)
	})
	if err != nil {
		logger.Warn("EditTransactionAt failed", "error", err)
		return err
	}

	logger.Info("EditTransactionAt successful")
	return nil
}

// DeleteTransaction removes the transaction with the given id.
// Later transactions shift down one position; their ids are unchanged.
func (h *RoomHandle) DeleteTransaction(ctx context.Context, txID string) error {
	logger := h.svc.logger.With("room_id", h.id, "transaction_id", txID)
	logger.Info("DeleteTransaction request received")

	err := h.svc.mutate(ctx, opDelete, h.id, func(room *models.Room) error {
		i := room.IndexOf(txID)
		if i < 0 {
			return transactionNotFound(h.id, txID)
		}
		room.Transactions = slices.Delete(room.Transactions, i, i+1)
		return nil
	})
	if err != nil {
		logger.Warn("DeleteTransaction failed", "error", err)
		return err
	}

	logger.Info("DeleteTransaction successful")
	return nil
}

// DeleteTransactionAt removes the transaction currently at index.
func (h *RoomHandle) DeleteTransactionAt(ctx context.Context, index int) error {
	logger := h.svc.logger.With("room_id", h.id, "index", index)
	logger.Info("DeleteTransactionAt request received")

	err := h.svc.mutate(ctx, opDelete, h.id, func(room *models.Room) error {
		if err := checkIndex(room, index); err != nil {
			return err
		}
		room.Transactions = slices.Delete(room.Transactions, index, index+1)
		return nil
	})
	if err != nil {
		logger.Warn("DeleteTransactionAt failed", "error", err)
		return err
	}

	logger.Info("DeleteTransactionAt successful")
	return nil
}

func checkIndex(room *models.Room, index int) error {
	if index < 0 || index >= len(room.Transactions) {
		return &IndexOutOfRangeError{RoomID: room.ID, Index: index, Len: len(room.Transactions)}
	}
	return nil
}

// replaceAt rebuilds the transaction at i, keeping its id.
func (s *RoomService) replaceAt(room *models.Room, i int, payer string, rawShares map[string]string, note string) error {
	t, err := s.buildTransaction(room, payer, rawShares, note)
	if err != nil {
		return err
	}
	t.ID = room.Transactions[i].ID
	room.Transactions[i] = t
	return nil
}

// buildTransaction validates the request and evaluates every share expression.
func (s *RoomService) buildTransaction(room *models.Room, payer string, rawShares map[string]string, note string) (models.Transaction, error) {
	if strings.TrimSpace(payer) == "" {
		return models.Transaction{}, &ValidationError{RoomID: room.ID, Field: "payer", Message: "payer is required"}
	}
	if len(rawShares) == 0 {
		return models.Transaction{}, &ValidationError{RoomID: room.ID, Field: "shares", Message: "at least one share is required"}
	}
	if !s.allowOrphans && !room.HasUser(payer) {
		return models.Transaction{}, &ValidationError{RoomID: room.ID, Field: "payer", Message: "unknown user " + strconv.Quote(payer)}
	}

	t := models.Transaction{
		CreatedAt:    s.clock(),
		Payer:        payer,
		Participants: make(map[string]float64, len(rawShares)),
		RawShares:    make(map[string]string, len(rawShares)),
		Note:         note,
	}

	// Sorted so the first reported error does not depend on map order.
	for _, name := range slices.Sorted(maps.Keys(rawShares)) {
		raw := rawShares[name]
		if strings.TrimSpace(name) == "" {
			return models.Transaction{}, &ValidationError{RoomID: room.ID, Field: "shares", Message: "participant name must not be empty"}
		}
		if !s.allowOrphans && !room.HasUser(name) {
			return models.Transaction{}, &ValidationError{RoomID: room.ID, Field: "shares", Message: "unknown user " + strconv.Quote(name)}
		}
		share, err := expr.Eval(raw)
		if err != nil {
			return models.Transaction{}, &ShareExpressionError{RoomID: room.ID, User: name, Raw: raw, Err: err}
		}
		t.Participants[name] = share
		t.RawShares[name] = raw
	}

	return t, nil
}
