// internal/history/history.go
// Package history keeps finished sessions so thresholds can be compared
// across runs.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrEmptySession = errors.New("session has no points")
	ErrInvalidLimit = errors.New("limit must be positive")
	ErrNilSession   = errors.New("session is nil")
)

// Point is one frequency of a stored session.
// LadderIndex is nil when the listener never heard the tone.
type Point struct {
	FrequencyHz float64
	Detected    bool
	LadderIndex *int
	Amplitude   float64
	Power       float64
}

// Session is a stored test.
type Session struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Seed       uint64
	LadderSize int
	Points     []Point
}

// Summary is one line of the history listing.
type Summary struct {
	ID          uuid.UUID
	StartedAt   time.Time
	FinishedAt  time.Time
	Seed        uint64
	Frequencies int
	Detected    int
}

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, s *Session) error
	List(ctx context.Context, limit int) ([]Summary, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
}

func validate(s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	if len(s.Points) == 0 {
		return ErrEmptySession
	}
	return nil
}

// seeds are stored bit-for-bit in a signed BIGINT
func seedToDB(seed uint64) int64 { return int64(seed) }
func seedFromDB(v int64) uint64 { return uint64(v) }
