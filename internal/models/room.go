package models

import "slices"

// Room represents an isolated ledger shared by a group of users.
type Room struct {
	// ID is the unique identifier of the room. It also names the room's document.
	ID string

	// Name is the human-readable room title.
	Name string

	// Users is the list of room members. Insertion order is display order.
	Users []User

	// Transactions is the ordered transaction history, oldest first.
	Transactions []Transaction
}

// UserNames returns the member names in display order.
func (r *Room) UserNames() []string {
	names := make([]string, len(r.Users))
	for i, u := range r.Users {
		names[i] = u.Name
	}
	return names
}

// HasUser reports whether name is a room member.
func (r *Room) HasUser(name string) bool {
	return slices.ContainsFunc(r.Users, func(u User) bool { return u.Name == name })
}

// IndexOf returns the position of the transaction with the given ID, or -1.
func (r *Room) IndexOf(txID string) int {
	return slices.IndexFunc(r.Transactions, func(t Transaction) bool { return t.ID == txID })
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	c := &Room{
		ID:           r.ID,
		Name:         r.Name,
		Users:        slices.Clone(r.Users),
		Transactions: make([]Transaction, len(r.Transactions)),
	}
	for i, t := range r.Transactions {
		c.Transactions[i] = t.Clone()
	}
	return c
}
