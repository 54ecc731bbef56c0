// internal/store/store.go
//
// Round history for the Simon Says service.
// Each state transition reported by the game engine (advance, fail, reset)
// is recorded as a Round so clients can inspect recent play.
//
// Implementations:
//   - memory: capped slice guarded by an RWMutex (HISTORY_DSN=memory).
//   - sqlite: database/sql + go-sqlite3 with embedded migrations (any other DSN).

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/simonsays/internal/game"
)

// ErrInvalidLimit is returned by Recent for limits outside 1..MaxLimit.
var ErrInvalidLimit = errors.New("limit must be between 1 and 100")

// MaxLimit bounds a single Recent call.
const MaxLimit = 100

// Round is one recorded transition.
type Round struct {
	ID          string         `json:"id"`
	Kind        game.EventKind `json:"kind"`
	Level       int            `json:"level"`       // level the round was played at
	GuessLength int            `json:"guessLength"` // 0 for resets
	HighScore   int            `json:"highScore"`   // high score after the round
	At          time.Time      `json:"at"`
}

// Store persists rounds for the lifetime of the process.
type Store interface {
	// Record appends a round.
	Record(ctx context.Context, r Round) error

	// Recent returns up to limit rounds, newest first.
	Recent(ctx context.Context, limit int) ([]Round, error)

	Close() error
}

// MemoryDSN selects the in-memory store in Open.
const MemoryDSN = "memory"

// Open returns the memory store for MemoryDSN and a SQLite store otherwise.
func Open(ctx context.Context, dsn string) (Store, error) {
	if dsn == MemoryDSN {
		return NewMemoryStore(DefaultCapacity), nil
	}
	return OpenSQLite(ctx, dsn)
}

// RoundFromEvent converts a game event into a Round with a fresh ID.
func RoundFromEvent(ev game.Event) Round {
	return Round{
		ID:          uuid.NewString(),
		Kind:        ev.Kind,
		Level:       ev.Level,
		GuessLength: len(ev.Guess),
		HighScore:   ev.State.HighScore,
		At:          ev.At.UTC(),
	}
}

// Recorder returns a game.Listener that records every event in st.
// Failures are logged; play is never interrupted by history errors.
func Recorder(st Store) game.Listener {
	return func(ev game.Event) {
		r := RoundFromEvent(ev)
		if err := st.Record(context.Background(), r); err != nil {
			log.Error().Err(err).Str("kind", string(r.Kind)).Int("level", r.Level).Msg("record round")
		}
	}
}

func checkLimit(limit int) error {
	if limit < 1 || limit > MaxLimit {
		return ErrInvalidLimit
	}
	return nil
}
