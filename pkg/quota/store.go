// Package quota enforces the per-user daily call budget on derived-input
// runs. Counts live in sqlite keyed by (user, UTC day); rows are never
// deleted here, retention is an external concern.
package quota

import (
	"context"
	"database/sql"
	"fmt"

	"go.mau.fi/util/dbutil"
)

const schema = `
CREATE TABLE IF NOT EXISTS radar_usage (
	user_id TEXT NOT NULL,
	day     TEXT NOT NULL,
	count   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, day)
);
`

// Store persists daily usage records.
type Store struct {
	db *dbutil.Database
}

// NewStore wraps the database and ensures the usage table exists.
func NewStore(ctx context.Context, db *dbutil.Database) (*Store, error) {
	if _, err := db.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating usage table: %w", err)
	}
	return &Store{db: db}, nil
}

// IncrementAndGet bumps the day's counter for a user and returns the
// post-increment count. The upsert is a single conditional write, so two
// concurrent calls for the same (user, day) can never under- or over-count.
func (s *Store) IncrementAndGet(ctx context.Context, userID, day string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`INSERT INTO radar_usage (user_id, day, count)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, day)
		 DO UPDATE SET count = radar_usage.count + 1
		 RETURNING count`,
		userID, day,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("incrementing usage for %s/%s: %w", userID, day, err)
	}
	return count, nil
}

// Count returns the stored count for a (user, day), zero when absent.
func (s *Store) Count(ctx context.Context, userID, day string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT count FROM radar_usage WHERE user_id=$1 AND day=$2`,
		userID, day,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading usage for %s/%s: %w", userID, day, err)
	}
	return count, nil
}

// Rows returns the number of stored usage rows. Test helper.
func (s *Store) Rows(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM radar_usage`).Scan(&n)
	return n, err
}
