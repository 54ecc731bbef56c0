// internal/game/engine.go
//
// Simon Says engine: one shared game record behind a mutex.
// Responsibilities:
//   - Hold level, target sequence and high score for the whole process.
//   - Validate and apply guesses (non-empty, exact length, exact order).
//   - Reset to level 1 on demand or after a wrong guess, keeping the high score.
//   - Notify listeners of every transition.
//
// Notes:
//   - Every operation is read-decide-write atomic under g.mu.
//   - Mutations hold g.emitMu from before the change until their listeners
//     return, so listeners see transitions in the order they happened.
//   - Listeners run after g.mu is released, in registration order. They may
//     call State but must not call Reset or Submit.
//   - Lock order is emitMu then mu.
package game

import (
	"slices"
	"sync"
	"time"
)

// Option configures a Game.
type Option func(*Game)

// WithSource sets the random source used to build sequences.
func WithSource(src Source) Option {
	return func(g *Game) { g.src = src }
}

// WithListener registers a listener for state transitions.
func WithListener(l Listener) Option {
	return func(g *Game) {
		if l != nil {
			g.listeners = append(g.listeners, l)
		}
	}
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// Game owns the shared state. The zero value is not usable; call New.
type Game struct {
	emitMu    sync.Mutex // serializes transitions with their delivery
	mu        sync.Mutex
	state     State
	src       Source
	listeners []Listener
	now       func() time.Time
}

// New builds a game at level 1 with a fresh one-color sequence and no high score.
// Without WithSource a crypto-seeded PCG source is used.
func New(opts ...Option) (*Game, error) {
	g := &Game{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	if g.src == nil {
		src, err := NewSource(0)
		if err != nil {
			return nil, err
		}
		g.src = src
	}
	g.state = State{Level: 1, Sequence: Generate(g.src, 1)}
	return g, nil
}

// State returns a copy of the current state.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.clone()
}

// Snapshot calls fn with the current state. No transition is delivered to
// listeners while fn runs, and every earlier transition already has been.
func (g *Game) Snapshot(fn func(State)) {
	g.emitMu.Lock()
	defer g.emitMu.Unlock()
	fn(g.State())
}

// Reset returns the game to level 1 with a new sequence. The high score is kept.
func (g *Game) Reset() State {
	g.emitMu.Lock()
	defer g.emitMu.Unlock()

	g.mu.Lock()
	ev := Event{Kind: EventReset, Level: g.state.Level}
	g.restart()
	ev.State = g.state.clone()
	ev.At = g.now()
	g.mu.Unlock()

	out := ev.State.clone()
	g.emit(ev)
	return out
}

// Submit checks guess against the target sequence.
//
// Outcomes:
//   - empty guess → *ValidationError, state untouched.
//   - wrong length → *ValidationError naming the current level, state untouched.
//   - match → high score raised to the cleared level if higher, level+1, new sequence.
//   - mismatch → ErrIncorrectSequence together with the reset state.
func (g *Game) Submit(guess []Color) (State, error) {
	if len(guess) == 0 {
		return g.State(), ErrSequenceRequired
	}

	g.emitMu.Lock()
	defer g.emitMu.Unlock()

	g.mu.Lock()
	if len(guess) != g.state.Level {
		s := g.state.clone()
		g.mu.Unlock()
		return s, &ValidationError{Want: s.Level}
	}

	ev := Event{Level: g.state.Level, Guess: append([]Color(nil), guess...)}
	var err error
	if slices.Equal(guess, g.state.Sequence) {
		if g.state.Level > g.state.HighScore {
			g.state.HighScore = g.state.Level
		}
		g.state.Level++
		g.state.Sequence = Generate(g.src, g.state.Level)
		ev.Kind = EventAdvance
	} else {
		g.restart()
		ev.Kind = EventFail
		err = ErrIncorrectSequence
	}
	ev.State = g.state.clone()
	ev.At = g.now()
	g.mu.Unlock()

	out := ev.State.clone()
	g.emit(ev)
	return out, err
}

// restart must be called with g.mu held.
func (g *Game) restart() {
	g.state.Level = 1
	g.state.Sequence = Generate(g.src, 1)
}

func (g *Game) emit(ev Event) {
	for _, l := range g.listeners {
		l(ev)
	}
}
