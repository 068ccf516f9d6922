// Package idgen provides resource ID generators.
package idgen

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/artpar/jsonview/ports"
	"github.com/google/uuid"
)

// Generator kinds accepted by New.
const (
	KindUUID   = "uuid"
	KindUUIDv7 = "uuidv7"
)

// New returns the generator of the given kind. An empty kind is KindUUID.
func New(kind string) (ports.IDGenerator, error) {
	switch kind {
	case "", KindUUID:
		return UUID{}, nil
	case KindUUIDv7:
		return UUIDv7{}, nil
	default:
		return nil, fmt.Errorf("unknown id generator %q", kind)
	}
}

// UUID generates random (version 4) UUIDs.
type UUID struct{}

// New generates a new UUID v4.
func (UUID) New() string {
	return uuid.New().String()
}

// UUIDv7 generates time-ordered (version 7) UUIDs, which keep insertion
// order when used as sort keys.
type UUIDv7 struct{}

// New generates a new UUID v7, falling back to v4 if the clock source fails.
func (UUIDv7) New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Sequential generates prefixed sequential IDs (for testing).
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Reset restarts the sequence.
func (s *Sequential) Reset() {
	s.counter.Store(0)
}

// Ensure interface compliance.
var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = UUIDv7{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
