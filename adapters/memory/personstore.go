// Package memory provides in-memory implementations of the store ports.
package memory

import (
	"cmp"
	"context"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/artpar/jsonview/domain/person"
	"github.com/artpar/jsonview/ports"
)

// PersonStore is an in-memory implementation of ports.PersonStore.
type PersonStore struct {
	mu     sync.RWMutex
	people map[string]person.Person // by ID
}

// NewPersonStore creates a new in-memory person store.
func NewPersonStore() *PersonStore {
	return &PersonStore{people: make(map[string]person.Person)}
}

// Get retrieves a person by ID.
func (s *PersonStore) Get(ctx context.Context, id string) (person.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[id]
	if !ok {
		return person.Person{}, ports.ErrNotFound
	}
	return p, nil
}

// Create stores a new person.
func (s *PersonStore) Create(ctx context.Context, p person.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.people[p.ID]; exists {
		return ports.ErrDuplicate
	}
	s.people[p.ID] = p
	return nil
}

// List yields a page of people ordered by creation time, then ID.
// The page is taken when iteration starts.
func (s *PersonStore) List(ctx context.Context, limit, offset int) iter.Seq2[person.Person, error] {
	return func(yield func(person.Person, error) bool) {
		s.mu.RLock()
		all := slices.SortedFunc(maps.Values(s.people), func(a, b person.Person) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		s.mu.RUnlock()

		start := min(max(offset, 0), len(all))
		page := all[start:]
		if limit > 0 && limit < len(page) {
			page = page[:limit]
		}

		for _, p := range page {
			if err := ctx.Err(); err != nil {
				yield(person.Person{}, err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

// Count returns the total number of people.
func (s *PersonStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.people)), nil
}

// Ensure interface compliance.
var _ ports.PersonStore = (*PersonStore)(nil)
