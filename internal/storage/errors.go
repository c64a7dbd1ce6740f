package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedDocument = errors.New("malformed room document")
	ErrWriteFailed       = errors.New("failed to write room")
)

// MalformedDocumentError reports a stored room that could not be parsed.
type MalformedDocumentError struct {
	RoomID string
	// Source names where the room came from (file path or table).
	Source string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed room document %q (%s): %v", e.RoomID, e.Source, e.Err)
}

func (e *MalformedDocumentError) Unwrap() []error {
	return []error{ErrMalformedDocument, e.Err}
}

// WriteError reports a failure to persist a room.
type WriteError struct {
	RoomID string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write room %q: %v", e.RoomID, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrWriteFailed, e.Err}
}

// ValidateRoomID checks that id can name a stored room.
// Room IDs become file names, so path separators and dot names are refused.
func ValidateRoomID(id string) error {
	switch {
	case id == "":
		return errors.New("room id is required")
	case id == "." || id == "..":
		return fmt.Errorf("room id %q is reserved", id)
	case strings.ContainsAny(id, `/\`+"\x00"):
		return fmt.Errorf("room id %q contains a path separator", id)
	}
	return nil
}
