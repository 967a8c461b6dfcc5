// internal/history/postgres.go
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS hearing_sessions (
	id          UUID PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	seed        BIGINT NOT NULL,
	ladder_size INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS threshold_points (
	session_id   UUID NOT NULL REFERENCES hearing_sessions(id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	frequency_hz DOUBLE PRECISION NOT NULL,
	detected     BOOLEAN NOT NULL,
	ladder_index INTEGER,
	amplitude    DOUBLE PRECISION NOT NULL,
	power        DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (session_id, position)
);

CREATE INDEX IF NOT EXISTS idx_hearing_sessions_finished_at ON hearing_sessions(finished_at DESC);
`

// PostgresStore implements Store for PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to url, checks the connection and applies the schema.
func Open(ctx context.Context, url string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Save inserts a session and its points in one transaction.
func (s *PostgresStore) Save(ctx context.Context, sess *Session) error {
	if err := validate(sess); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO hearing_sessions (id, started_at, finished_at, seed, ladder_size)
		VALUES ($1, $2, $3, $4, $5)`,
		sess.ID,
		sess.StartedAt,
		sess.FinishedAt,
		seedToDB(sess.Seed),
		sess.LadderSize)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO threshold_points (session_id, position, frequency_hz, detected, ladder_index, amplitude, power)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("prepare points: %w", err)
	}
	defer stmt.Close()

	for i, p := range sess.Points {
		var idx sql.NullInt64
		if p.LadderIndex != nil {
			idx = sql.NullInt64{Int64: int64(*p.LadderIndex), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, sess.ID, i, p.FrequencyHz, p.Detected, idx, p.Amplitude, p.Power); err != nil {
			return fmt.Errorf("insert point %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// List returns the most recent sessions first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	query := `
		SELECT s.id, s.started_at, s.finished_at, s.seed,
		       COUNT(p.position), COUNT(p.position) FILTER (WHERE p.detected)
		FROM hearing_sessions s
		LEFT JOIN threshold_points p ON p.session_id = s.id
		GROUP BY s.id
		ORDER BY s.finished_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var seed int64
		if err := rows.Scan(&sum.ID, &sum.StartedAt, &sum.FinishedAt, &seed, &sum.Frequencies, &sum.Detected); err != nil {
			return nil, err
		}
		sum.Seed = seedFromDB(seed)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get loads one session with its points in generation order.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	var sess Session
	var seed int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, seed, ladder_size
		FROM hearing_sessions
		WHERE id = $1`, id).Scan(
		&sess.ID,
		&sess.StartedAt,
		&sess.FinishedAt,
		&seed,
		&sess.LadderSize)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	sess.Seed = seedFromDB(seed)

	rows, err := s.db.QueryContext(ctx, `
		SELECT frequency_hz, detected, ladder_index, amplitude, power
		FROM threshold_points
		WHERE session_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p Point
		var idx sql.NullInt64
		if err := rows.Scan(&p.FrequencyHz, &p.Detected, &idx, &p.Amplitude, &p.Power); err != nil {
			return nil, err
		}
		if idx.Valid {
			k := int(idx.Int64)
			p.LadderIndex = &k
		}
		sess.Points = append(sess.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &sess, nil
}
