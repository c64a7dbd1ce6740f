package service

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomNotFound is returned when a mutation targets a room id with no backing record.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomExists is returned when provisioning a room id that is already taken.
	ErrRoomExists = errors.New("room already exists")

	// ErrTransactionNotFound is returned when no transaction has the requested id.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrIndexOutOfRange is returned when a transaction position is outside the list.
	ErrIndexOutOfRange = errors.New("transaction index out of range")

	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// IndexOutOfRangeError reports an edit or delete at a position outside the transaction list.
type IndexOutOfRangeError struct {
	RoomID string
	Index  int
	Len    int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("room %q: transaction index %d out of range [0, %d)", e.RoomID, e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }

// ShareExpressionError reports a share that is not a valid arithmetic expression.
// Err wraps expr.ErrInvalidExpression.
type ShareExpressionError struct {
	RoomID string
	User   string
	Raw    string
	Err    error
}

func (e *ShareExpressionError) Error() string {
	return fmt.Sprintf("room %q: invalid share for %q (%q): %v", e.RoomID, e.User, e.Raw, e.Err)
}

func (e *ShareExpressionError) Unwrap() error { return e.Err }

// ValidationError reports a rejected field of a request.
type ValidationError struct {
	RoomID  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.RoomID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("room %q: invalid %s: %s", e.RoomID, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func roomNotFound(roomID string) error {
	return fmt.Errorf("%w: %q", ErrRoomNotFound, roomID)
}

func transactionNotFound(roomID, txID string) error {
	return fmt.Errorf("room %q: %w: %q", roomID, ErrTransactionNotFound, txID)
}
