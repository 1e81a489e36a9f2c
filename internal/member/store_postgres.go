package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"membergate/pkg/platform/sentinel"
)

// Schema creates the members table. Applied by deploy tooling and by
// integration tests. The unique index on phone_number is the backstop behind
// the racy duplicate pre-check.
const Schema = `
CREATE TABLE IF NOT EXISTS members (
	user_id TEXT PRIMARY KEY,
	member_id TEXT NOT NULL UNIQUE,
	phone_number TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	gender TEXT NOT NULL,
	surname TEXT NOT NULL,
	first_name TEXT NOT NULL,
	full_name TEXT NOT NULL,
	city TEXT NOT NULL,
	date_of_birth TEXT NOT NULL,
	organization TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore persists members in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed member store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save persists a new member. Unique violations on phone or user map to
// sentinel.ErrConflict.
func (s *PostgresStore) Save(ctx context.Context, m Member) error {
	query := `
		INSERT INTO members (
			user_id, member_id, phone_number, title, gender, surname,
			first_name, full_name, city, date_of_birth, organization, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.UserID, m.MemberID, m.PhoneNumber, m.Title, m.Gender, m.Surname,
		m.FirstName, m.FullName, m.City, m.DateOfBirth, m.Organization, m.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("save member: %w: %w", sentinel.ErrConflict, err)
		}
		return fmt.Errorf("save member: %w", err)
	}
	return nil
}

// ExistsByPhone reports whether the phone number is already registered.
func (s *PostgresStore) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM members WHERE phone_number = $1)`, phone,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check phone exists: %w", err)
	}
	return exists, nil
}

// FindByUserID returns the member keyed by user ID.
func (s *PostgresStore) FindByUserID(ctx context.Context, userID string) (Member, error) {
	query := `
		SELECT user_id, member_id, phone_number, title, gender, surname,
			first_name, full_name, city, date_of_birth, organization, created_at
		FROM members WHERE user_id = $1
	`
	var m Member
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&m.UserID, &m.MemberID, &m.PhoneNumber, &m.Title, &m.Gender, &m.Surname,
		&m.FirstName, &m.FullName, &m.City, &m.DateOfBirth, &m.Organization, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, fmt.Errorf("find member %s: %w", userID, sentinel.ErrNotFound)
		}
		return Member{}, fmt.Errorf("find member: %w", err)
	}
	return m, nil
}
