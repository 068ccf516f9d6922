package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/artpar/jsonview/domain/person"
	"github.com/artpar/jsonview/ports"
)

// PersonStore implements ports.PersonStore using SQLite.
type PersonStore struct {
	db *DB
}

// NewPersonStore creates a new SQLite person store.
func NewPersonStore(db *DB) *PersonStore {
	return &PersonStore{db: db}
}

// Get retrieves a person by ID.
func (s *PersonStore) Get(ctx context.Context, id string) (person.Person, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, team_id, created_at
		FROM people
		WHERE id = ?
	`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return person.Person{}, ports.ErrNotFound
	}
	return p, err
}

// Create stores a new person.
func (s *PersonStore) Create(ctx context.Context, p person.Person) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO people (id, name, email, team_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, nullString(p.Email), nullString(p.TeamID), p.CreatedAt.UTC())
	if isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// List yields a page of people. The query runs when iteration starts and
// rows are streamed from the open cursor.
func (s *PersonStore) List(ctx context.Context, limit, offset int) iter.Seq2[person.Person, error] {
	return func(yield func(person.Person, error) bool) {
		n := limit
		if n <= 0 {
			n = -1
		}
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, email, team_id, created_at
			FROM people
			ORDER BY created_at, id
			LIMIT ? OFFSET ?
		`, n, max(offset, 0))
		if err != nil {
			yield(person.Person{}, fmt.Errorf("query people: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPerson(rows)
			if err != nil {
				yield(person.Person{}, fmt.Errorf("scan person: %w", err))
				return
			}
			if !yield(p, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(person.Person{}, fmt.Errorf("iterate people: %w", err))
		}
	}
}

// Count returns the total number of people.
func (s *PersonStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM people").Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (person.Person, error) {
	var (
		p      person.Person
		email  sql.NullString
		teamID sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &email, &teamID, &p.CreatedAt); err != nil {
		return person.Person{}, err
	}
	p.Email = email.String
	p.TeamID = teamID.String
	return p, nil
}

// TeamStore implements ports.TeamStore using SQLite.
type TeamStore struct {
	db *DB
}

// NewTeamStore creates a new SQLite team store.
func NewTeamStore(db *DB) *TeamStore {
	return &TeamStore{db: db}
}

// Get retrieves a team by ID.
func (s *TeamStore) Get(ctx context.Context, id string) (person.Team, error) {
	var t person.Team
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM teams WHERE id = ?", id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return person.Team{}, ports.ErrNotFound
	}
	return t, err
}

// Create stores a new team.
func (s *TeamStore) Create(ctx context.Context, t person.Team) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO teams (id, name) VALUES (?, ?)", t.ID, t.Name)
	if isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// GetMany returns the known teams among ids, in the order of ids.
func (s *TeamStore) GetMany(ctx context.Context, ids []string) ([]person.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM teams WHERE id IN (?"+strings.Repeat(", ?", len(ids)-1)+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]person.Team, len(ids))
	for rows.Next() {
		var t person.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	teams := make([]person.Team, 0, len(byID))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			teams = append(teams, t)
			delete(byID, id)
		}
	}
	return teams, nil
}

// Ensure interface compliance.
var (
	_ ports.PersonStore = (*PersonStore)(nil)
	_ ports.TeamStore   = (*TeamStore)(nil)
)
