// Package models defines the core domain models for splitroom.
//
// # Models
//
//   - Room: an isolated ledger shared by a fixed list of users
//   - User: a room member, identified by display name
//   - Transaction: one expense event (payer plus per-user shares)
//
// Derived projections (never persisted):
//   - UserBalance: a user's net position within a room
//   - TransactionView: a transaction formatted for display
//   - TransactionForm: a transaction's raw inputs, for re-editing
//
// # Design Principles
//
// 1. **Names as keys**: users are identified by their display name within a room
// 2. **Stable transaction IDs**: positions shift on delete, IDs never do
// 3. **Raw input is kept**: every share keeps the expression it was entered as
// 4. **Value semantics**: Clone returns deep copies so callers never alias room state
package models
