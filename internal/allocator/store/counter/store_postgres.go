package counter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"membergate/pkg/platform/sentinel"
)

// Schema creates the single-row counter table. Applied by deploy tooling and
// by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS member_counter (
	id INT PRIMARY KEY,
	count BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// counterID pins the well-known counter row. One global sequence shared by
// all categories.
const counterID = 1

// PostgresStore persists the shared counter in PostgreSQL. Each Increment is
// one serializable transaction: read (absent row reads as 0), write count+1,
// commit. A serialization abort surfaces as sentinel.ErrConflict and leaves
// no partial effect, so the allocator can retry the whole attempt.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed counter store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Increment applies one atomic +1 and returns the new count.
func (s *PostgresStore) Increment(ctx context.Context) (int64, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return 0, fmt.Errorf("begin counter tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var count int64
	err = tx.QueryRow(ctx, `SELECT count FROM member_counter WHERE id = $1 FOR UPDATE`, counterID).Scan(&count)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		count = 0
	case err != nil:
		return 0, conflictOr(err, "read counter")
	}

	next := count + 1
	if count == 0 {
		// First allocation ever may race another first allocation; the
		// primary key turns that race into a conflict for the retry loop.
		_, err = tx.Exec(ctx,
			`INSERT INTO member_counter (id, count) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET count = EXCLUDED.count, updated_at = now()`,
			counterID, next)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE member_counter SET count = $2, updated_at = now() WHERE id = $1`,
			counterID, next)
	}
	if err != nil {
		return 0, conflictOr(err, "write counter")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, conflictOr(err, "commit counter tx")
	}
	return next, nil
}

// conflictOr maps retryable SQLSTATEs (serialization failure, deadlock,
// unique violation on the first-row race) to sentinel.ErrConflict.
func conflictOr(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return fmt.Errorf("%s: %w: %w", op, sentinel.ErrConflict, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
