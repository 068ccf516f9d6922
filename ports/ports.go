// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/artpar/jsonview/domain/person"
)

// ErrNotFound is returned by stores when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by stores when an entity already exists.
var ErrDuplicate = errors.New("already exists")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// PersonStore persists people.
type PersonStore interface {
	// Get retrieves a person by ID.
	Get(ctx context.Context, id string) (person.Person, error)

	// Create stores a new person.
	Create(ctx context.Context, p person.Person) error

	// List yields people ordered by creation time, then ID.
	// The sequence is lazy and may only be ranged over once.
	List(ctx context.Context, limit, offset int) iter.Seq2[person.Person, error]

	// Count returns the total number of people.
	Count(ctx context.Context) (int64, error)
}

// TeamStore persists teams.
type TeamStore interface {
	// Get retrieves a team by ID.
	Get(ctx context.Context, id string) (person.Team, error)

	// Create stores a new team.
	Create(ctx context.Context, t person.Team) error

	// GetMany returns the teams with the given IDs. Unknown IDs are skipped.
	GetMany(ctx context.Context, ids []string) ([]person.Team, error)
}
