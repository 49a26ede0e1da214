package inmemory

import (
	"sort"
	"strings"
	"sync"

	"github.com/dvloznov/ledger/internal/domain"
	"github.com/dvloznov/ledger/internal/ledger"
)

type entry struct {
	tx  domain.Transaction
	seq uint64
}

// Store is an in-memory implementation of ledger.Repository.
// It is safe for concurrent use. Data lives only as long as the process.
type Store struct {
	mu      sync.RWMutex
	entries map[int]entry
	nextSeq uint64
}

// NewStore creates an empty transaction store.
func NewStore() *Store {
	return &Store{
		entries: make(map[int]entry),
	}
}

// Add implements the Repository interface.
func (s *Store) Add(tx domain.Transaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[tx.ID]; exists {
		return false
	}

	s.nextSeq++
	s.entries[tx.ID] = entry{tx: tx, seq: s.nextSeq}
	return true
}

// Remove implements the Repository interface.
func (s *Store) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; !exists {
		return false
	}
	delete(s.entries, id)
	return true
}

// Get implements the Repository interface.
func (s *Store) Get(id int) (domain.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[id]
	return e.tx, exists
}

// Snapshot implements the Repository interface.
// The returned slice is owned by the caller.
func (s *Store) Snapshot() []domain.Transaction {
	s.mu.RLock()
	ordered := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		ordered = append(ordered, e)
	}
	s.mu.RUnlock()

	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].seq < ordered[j].seq
	})

	result := make([]domain.Transaction, len(ordered))
	for i, e := range ordered {
		result[i] = e.tx
	}
	return result
}

// SetCategory implements the Repository interface.
func (s *Store) SetCategory(id int, category string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[id]
	if !exists {
		return false
	}
	e.tx.Category = normalizeCategory(category)
	s.entries[id] = e
	return true
}

// RenameCategory implements the Repository interface.
func (s *Store) RenameCategory(from, to string) int {
	from = strings.TrimSpace(from)
	to = normalizeCategory(to)

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for id, e := range s.entries {
		if strings.EqualFold(e.tx.Category, from) {
			e.tx.Category = to
			s.entries[id] = e
			changed++
		}
	}
	return changed
}

// Len implements the Repository interface.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func normalizeCategory(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return domain.DefaultCategory
}

// Ensure Store implements Repository interface.
var _ ledger.Repository = (*Store)(nil)
