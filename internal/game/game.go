// Package game implements the authoritative per-tick simulations. A Game
// is owned and stepped exclusively by the host; the guest only ever holds
// serialized snapshots of it.
package game

import "fmt"

// Direction is a single discrete control intent.
type Direction string

const (
	DirNone  Direction = ""
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// ParseDirection maps a wire direction string onto a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirUp, DirDown, DirLeft, DirRight:
		return Direction(s), true
	}
	return DirNone, false
}

func (d Direction) opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	}
	return DirNone
}

// Slot identifies one of the two players inside a simulation. The host
// always occupies SlotHost.
type Slot int

const (
	SlotHost Slot = iota
	SlotGuest
)

// Game is one authoritative simulation. Queue only stages input; nothing
// moves until Step, which advances the world exactly one tick and reports
// whether a game-ending condition fired. Snapshot/Restore carry the full
// world as JSON so the guest cache can be replaced wholesale.
type Game interface {
	Name() string

	// Queue stages the latest control input for a player. It never
	// mutates the world; staged input is consumed by the next Step.
	Queue(slot Slot, dir Direction)

	// Step advances the simulation one tick and returns true when the
	// game reached a terminal state. A terminal Step commits nothing.
	Step() bool

	// Scores returns the current score per player. Scores never decrease
	// while a round is running.
	Scores() (host, guest int)

	Snapshot() ([]byte, error)
	Restore(world []byte) error

	// Reset prepares a fresh round after terminal or between points,
	// keeping match scores.
	Reset()
}

// New constructs a simulation by name with its default tuning.
func New(name string) (Game, error) {
	switch name {
	case "pong":
		return NewPong(DefaultPongConfig()), nil
	case "snake":
		return NewSnake(DefaultSnakeConfig()), nil
	}
	return nil, fmt.Errorf("unknown game %q", name)
}
