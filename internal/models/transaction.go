package models

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents one expense event in a room.
type Transaction struct {
	// ID is the stable identifier of the transaction (UUID format).
	// It is assigned on creation and survives edits and deletes of other transactions.
	ID string

	// CreatedAt is the time the transaction was last saved.
	CreatedAt time.Time

	// Payer is the name of the user who covered the cost.
	Payer string

	// Participants maps a user name to the amount that user owes for this transaction.
	Participants map[string]float64

	// RawShares maps a user name to the expression the share was entered as
	// (e.g. "700" or "2100 / 3"). Keys always match Participants.
	RawShares map[string]string

	// Note is free-text commentary.
	Note string
}

// Total returns the sum of all participant shares.
func (t Transaction) Total() float64 {
	total := decimal.Zero
	for _, share := range t.Participants {
		total = total.Add(decimal.NewFromFloat(share))
	}
	return total.InexactFloat64()
}

// Validate checks the structural invariants of a transaction.
func (t Transaction) Validate() error {
	if t.Payer == "" {
		return errors.New("payer is required")
	}
	if len(t.Participants) != len(t.RawShares) {
		return fmt.Errorf("participants and raw shares differ in size: %d != %d",
			len(t.Participants), len(t.RawShares))
	}
	for name := range t.Participants {
		if _, ok := t.RawShares[name]; !ok {
			return fmt.Errorf("participant %q has no raw share", name)
		}
	}
	return nil
}

// Clone returns a deep copy of the transaction.
func (t Transaction) Clone() Transaction {
	t.Participants = maps.Clone(t.Participants)
	t.RawShares = maps.Clone(t.RawShares)
	return t
}

// FormatShares renders the participant shares as "name: value" pairs joined by " | ".
// Names listed in order come first, in that order; any other names follow alphabetically.
func (t Transaction) FormatShares(order []string) string {
	names := orderedKeys(t.Participants, order)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+FormatAmount(t.Participants[name]))
	}
	return strings.Join(parts, " | ")
}

// FormatAmount renders an amount with the shortest representation that round-trips.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// orderedKeys returns the keys of m ordered by their position in order,
// with keys missing from order appended in sorted order.
func orderedKeys[V any](m map[string]V, order []string) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, name := range order {
		if _, ok := m[name]; ok && !seen[name] {
			keys = append(keys, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range m {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

// TransactionView is a transaction formatted for display.
type TransactionView struct {
	// Index is the transaction's current position in the room (oldest first).
	Index int

	ID           string
	Date         string
	Payer        string
	Participants string
	Note         string
	Total        float64
}

// RawShare is one user's share as it was entered.
type RawShare struct {
	Name string
	Raw  string
}

// TransactionForm holds the raw inputs of a transaction so it can be re-edited.
type TransactionForm struct {
	ID        string
	Payer     string
	Note      string
	RawShares []RawShare
}

// Form returns the re-edit projection of the transaction, shares in the given user order.
func (t Transaction) Form(order []string) TransactionForm {
	names := orderedKeys(t.RawShares, order)
	shares := make([]RawShare, 0, len(names))
	for _, name := range names {
		shares = append(shares, RawShare{Name: name, Raw: t.RawShares[name]})
	}
	return TransactionForm{
		ID:        t.ID,
		Payer:     t.Payer,
		Note:      t.Note,
		RawShares: shares,
	}
}
