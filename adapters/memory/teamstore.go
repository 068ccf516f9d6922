package memory

import (
	"context"
	"sync"

	"github.com/artpar/jsonview/domain/person"
	"github.com/artpar/jsonview/ports"
)

// TeamStore is an in-memory implementation of ports.TeamStore.
type TeamStore struct {
	mu    sync.RWMutex
	teams map[string]person.Team
}

// NewTeamStore creates a new in-memory team store.
func NewTeamStore() *TeamStore {
	return &TeamStore{teams: make(map[string]person.Team)}
}

// Get retrieves a team by ID.
func (s *TeamStore) Get(ctx context.Context, id string) (person.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return person.Team{}, ports.ErrNotFound
	}
	return t, nil
}

// Create stores a new team.
func (s *TeamStore) Create(ctx context.Context, t person.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.teams[t.ID]; exists {
		return ports.ErrDuplicate
	}
	s.teams[t.ID] = t
	return nil
}

// GetMany returns the known teams among ids, in the order of ids.
func (s *TeamStore) GetMany(ctx context.Context, ids []string) ([]person.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	teams := make([]person.Team, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if t, ok := s.teams[id]; ok {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

// Ensure interface compliance.
var _ ports.TeamStore = (*TeamStore)(nil)
