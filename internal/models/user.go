package models

// User represents a room member.
//
// Users are created out-of-band together with their room and are immutable
// afterwards: there is no rename or removal.
type User struct {
	// Name is the display name of the user. It is the primary key within a room.
	Name string
}

// UserBalance represents one user's net position in a room.
type UserBalance struct {
	Name string

	// Balance is the sum of the user's shares minus the totals the user paid.
	// Positive = owes the room, Negative = is owed by the room.
	Balance float64
}
