// internal/game/types.go
//
// Core type definitions for the Simon Says engine.
// Defines:
//   - Color: one step of a sequence.
//   - State: the level/sequence/high score record shared by every client.
//   - Event: change notification emitted after a mutating operation.

package game

import "time"

// Color is a single step in a Simon Says sequence.
type Color string

const (
	Red    Color = "red"
	Yellow Color = "yellow"
	Green  Color = "green"
	Blue   Color = "blue"
)

// Palette is the fixed alphabet sequences are drawn from, in draw-index order.
var Palette = [...]Color{Red, Yellow, Green, Blue}

// State is the game record. Values returned by Game are copies; mutating them
// has no effect on the game.
type State struct {
	Level     int     `json:"level"`     // Current round; also the required sequence length.
	Sequence  []Color `json:"sequence"`  // Target the player must repeat.
	HighScore int     `json:"highScore"` // Highest level ever cleared.
}

func (s State) clone() State {
	s.Sequence = append([]Color(nil), s.Sequence...)
	return s
}

// EventKind names the transition that produced an Event.
type EventKind string

const (
	EventReset   EventKind = "reset"   // explicit ResetState
	EventAdvance EventKind = "advance" // correct guess, level cleared
	EventFail    EventKind = "fail"    // wrong guess, back to level 1
)

// Event describes one state transition.
type Event struct {
	Kind  EventKind
	Level int     // Level the transition started from.
	Guess []Color // Submitted sequence; nil for resets.
	State State   // State after the transition.
	At    time.Time
}

// Listener receives events after the game lock has been released.
type Listener func(Event)
