// Package service holds the room ledger's mutation surface.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/mmynk/splitroom/internal/metrics"
	"github.com/mmynk/splitroom/internal/models"
	"github.com/mmynk/splitroom/internal/storage"
)

// UnknownRoomName is the display name of a placeholder handle.
const UnknownRoomName = "Unknown Room"

// DateLayout renders transaction timestamps in views.
const DateLayout = "2006-01-02 15:04"

// RoomService owns the in-memory rooms and keeps them in sync with the store.
type RoomService struct {
	store        storage.Store
	clock        func() time.Time
	location     *time.Location
	metrics      *metrics.Collector
	logger       *slog.Logger
	allowOrphans bool

	mu    sync.RWMutex
	rooms map[string]*roomState
}

// roomState guards one room; mu serializes every read and mutation of it.
type roomState struct {
	mu   sync.Mutex
	room *models.Room
}

// Option configures a RoomService.
type Option func(*RoomService)

// WithClock overrides the time source used to stamp transactions.
func WithClock(clock func() time.Time) Option {
	return func(s *RoomService) { s.clock = clock }
}

// WithLocation sets the zone transaction dates are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *RoomService) { s.location = loc }
}

// WithMetrics records mutations on the given collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *RoomService) { s.metrics = c }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *RoomService) { s.logger = logger }
}

// WithOrphanNames accepts payers and participants that are not room users.
func WithOrphanNames() Option {
	return func(s *RoomService) { s.allowOrphans = true }
}

// NewRoomService loads every room from store.
func NewRoomService(ctx context.Context, store storage.Store, opts ...Option) (*RoomService, error) {
	s := &RoomService{
		store:    store,
		clock:    time.Now,
		location: time.UTC,
		logger:   slog.Default(),
		rooms:    make(map[string]*roomState),
	}
	for _, opt := range opts {
		opt(s)
	}

	rooms, err := store.LoadAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load rooms", "error", err)
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}
	for id, room := range rooms {
		s.rooms[id] = &roomState{room: room}
	}
	s.metrics.SetRoomsLoaded(len(s.rooms))
	s.logger.Info("Rooms loaded", "count", len(s.rooms))

	return s, nil
}

// Resolve returns a handle for roomID. It never fails: an unknown id yields a
// placeholder whose reads are empty and whose mutations return ErrRoomNotFound.
func (s *RoomService) Resolve(roomID string) *RoomHandle {
	return &RoomHandle{svc: s, id: roomID}
}

// Rooms returns the ids of all loaded rooms, sorted.
func (s *RoomService) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.rooms))
}

// CreateRoom provisions a new room with the given users and persists it.
// An empty name defaults to the room id.
func (s *RoomService) CreateRoom(ctx context.Context, roomID, name string, users []string) (*RoomHandle, error) {
	s.logger.Info("CreateRoom request received", "room_id", roomID, "name", name, "users", users)

	room, err := newRoom(roomID, name, users)
	if err != nil {
		s.metrics.ObserveMutation(opCreate, err)
		s.logger.Warn("CreateRoom rejected", "room_id", roomID, "error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; ok {
		err := fmt.Errorf("%w: %q", ErrRoomExists, roomID)
		s.metrics.ObserveMutation(opCreate, err)
		return nil, err
	}

	if err := s.persist(ctx, opCreate, room); err != nil {
		s.metrics.ObserveMutation(opCreate, err)
		s.logger.Error("CreateRoom failed", "room_id", roomID, "error", err)
		return nil, err
	}

	s.rooms[roomID] = &roomState{room: room}
	s.metrics.ObserveMutation(opCreate, nil)
	s.metrics.SetRoomsLoaded(len(s.rooms))
	s.logger.Info("CreateRoom successful", "room_id", roomID, "users", len(room.Users))

	return s.Resolve(roomID), nil
}

func newRoom(roomID, name string, users []string) (*models.Room, error) {
	if err := storage.ValidateRoomID(roomID); err != nil {
		return nil, &ValidationError{Field: "room_id", Message: err.Error()}
	}
	if name == "" {
		name = roomID
	}
	if len(users) == 0 {
		return nil, &ValidationError{RoomID: roomID, Field: "users", Message: "at least one user is required"}
	}

	room := &models.Room{ID: roomID, Name: name}
	for _, user := range users {
		if user == "" {
			return nil, &ValidationError{RoomID: roomID, Field: "users", Message: "user name must not be empty"}
		}
		if room.HasUser(user) {
			return nil, &ValidationError{RoomID: roomID, Field: "users", Message: fmt.Sprintf("duplicate user %q", user)}
		}
		room.Users = append(room.Users, models.User{Name: user})
	}
	return room, nil
}

// lookup returns the state for roomID, or nil.
func (s *RoomService) lookup(roomID string) *roomState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

// persist writes room to the store and records the write latency.
func (s *RoomService) persist(ctx context.Context, op string, room *models.Room) error {
	start := time.Now()
	err := s.store.Save(ctx, room)
	s.metrics.ObservePersist(op, time.Since(start))
	return err
}

// mutate applies fn to a copy of the room, persists the copy and swaps it in.
// On any error the in-memory room is left untouched.
func (s *RoomService) mutate(ctx context.Context, op, roomID string, fn func(room *models.Room) error) (err error) {
	defer func() { s.metrics.ObserveMutation(op, err) }()

	state := s.lookup(roomID)
	if state == nil {
		return roomNotFound(roomID)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	next := state.room.Clone()
	if err := fn(next); err != nil {
		return err
	}

	if err := s.persist(ctx, op, next); err != nil {
		s.logger.Error("Failed to persist room", "op", op, "room_id", roomID, "error", err)
		return err
	}

	state.room = next
	return nil
}

// read runs fn against the current room under its lock. fn receives nil for unknown rooms.
func (s *RoomService) read(roomID string, fn func(room *models.Room)) {
	state := s.lookup(roomID)
	if state == nil {
		fn(nil)
		return
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	fn(state.room)
}
