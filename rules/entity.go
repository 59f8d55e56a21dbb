package rules

import (
	"time"

	"github.com/nmurphy101/arena/grid"
)

// Kind tags the entity variants.
type Kind string

// Entity kinds.
const (
	KindSnake  Kind = "snake"
	KindTail   Kind = "tail"
	KindFood   Kind = "food"
	KindPortal Kind = "portal"
)

// State is the display state of an entity.
type State string

// Entity states. Dead is terminal, the entity is removed at the end of the
// tick it died in.
const (
	StateSpawning State = "spawning"
	StateAlive    State = "alive"
	StateDead     State = "dead"
)

// Entity is anything registered in the world. Interact is called on the
// entity that was run into, with the snake that moved into it.
type Entity interface {
	base() *Base
	Kind() Kind
	Interact(w *World, mover *Snake)
}

// Base carries the state shared by every entity.
type Base struct {
	ID       string
	State    State
	Pos      grid.Point
	Prev     grid.Point
	Dir      Direction
	Killable bool
}

func newBase(id string, p grid.Point) Base {
	return Base{
		ID:    id,
		State: StateSpawning,
		Pos:   p,
		Prev:  p,
	}
}

func (b *Base) base() *Base { return b }

// Alive reports whether the entity takes part in the simulation.
func (b *Base) Alive() bool { return b.State == StateAlive }

// Death records when and why a snake died.
type Death struct {
	Turn  int64  `json:"turn"`
	Cause string `json:"cause"`
}

// ready reports whether a cooldown started at last has elapsed at now.
func ready(now, last, cooldown time.Duration) bool {
	return now-last >= cooldown
}
