package ledger

import (
	"github.com/dvloznov/ledger/internal/domain"
)

// Snapshotter provides a point-in-time copy of stored transactions.
type Snapshotter interface {
	// Snapshot returns copies of all transactions in insertion order.
	Snapshot() []domain.Transaction
}

// Repository is the authoritative, concurrency-safe transaction collection.
// Absence and presence are reported through boolean returns, never errors.
type Repository interface {
	Snapshotter

	// Add stores tx only if no transaction with tx.ID exists.
	Add(tx domain.Transaction) bool

	// Remove deletes the transaction with the given id.
	Remove(id int) bool

	// Get returns a copy of the transaction with the given id.
	Get(id int) (domain.Transaction, bool)

	// SetCategory replaces the category of one transaction.
	SetCategory(id int, category string) bool

	// RenameCategory moves every transaction in category from (case-insensitive)
	// to category to and returns how many were changed.
	RenameCategory(from, to string) int

	// Len returns the number of stored transactions.
	Len() int
}
