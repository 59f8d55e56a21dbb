package rules

import (
	"fmt"
	"time"

	"github.com/nmurphy101/arena/grid"
)

// Snake is a player or AI controlled head dragging an ordered tail. Tail[0]
// sits right behind the head, new segments are appended at the back.
type Snake struct {
	Base
	Name   string
	Player bool
	Color  string
	Speed  float64
	Score  int
	Tail   []*TailSegment

	SightRange int
	Lines      [numDirections]SightLine
	Brain      *DecisionBox
	Death      *Death

	lastMove  time.Duration
	requested *Direction
	next      Direction
	target    Entity
}

// Kind implements Entity.
func (s *Snake) Kind() Kind { return KindSnake }

// Length counts the head and every tail segment.
func (s *Snake) Length() int { return 1 + len(s.Tail) }

// Interact kills a killable snake that ran into this head.
func (s *Snake) Interact(w *World, mover *Snake) {
	if mover.Killable {
		w.kill(mover, DeathCauseHeadToHeadCollision)
	}
}

// moveInterval is the time between two moves at the snake's speed.
func (s *Snake) moveInterval(base time.Duration) time.Duration {
	return time.Duration(float64(base) / s.Speed)
}

// step moves the head to p and drags every segment into the cell its
// predecessor just left.
func (s *Snake) step(g *grid.Grid, p grid.Point) {
	s.Prev = s.Pos
	g.Move(s.Pos, p)
	s.Pos = p

	lead := s.Prev
	for _, seg := range s.Tail {
		seg.Prev = seg.Pos
		if !seg.Pos.Equal(lead) {
			g.Move(seg.Pos, lead)
			seg.Pos = lead
		}
		seg.Dir = s.Dir
		lead = seg.Prev
	}
}

// grow appends n segments. Each new segment starts on the previous cell of
// the segment in front of it, stacked until the chain unfolds.
func (s *Snake) grow(w *World, n int) {
	for i := 0; i < n; i++ {
		at := s.Prev
		if len(s.Tail) > 0 {
			at = s.Tail[len(s.Tail)-1].Prev
		}
		seg := &TailSegment{
			Base:  newBase(w.newID(), at),
			Owner: s,
			Index: len(s.Tail),
		}
		seg.State = StateAlive
		seg.Dir = s.Dir
		seg.Killable = true
		w.Grid.Occupy(at)
		s.Tail = append(s.Tail, seg)
	}
}

func (s *Snake) String() string {
	return fmt.Sprintf("%s(%s)@%s", s.Name, s.ID, s.Pos)
}

// TailSegment is one body cell of a snake. It never outlives its owner.
type TailSegment struct {
	Base
	Owner *Snake
	Index int
}

// Kind implements Entity.
func (t *TailSegment) Kind() Kind { return KindTail }

// Interact kills a killable mover, except the owner running into its own
// first segment.
func (t *TailSegment) Interact(w *World, mover *Snake) {
	owner := t.mustOwn()
	if owner == mover {
		if t.Index == 0 || !mover.Killable {
			return
		}
		w.kill(mover, DeathCauseSnakeSelfCollision)
		return
	}
	if mover.Killable {
		w.kill(mover, DeathCauseSnakeCollision)
	}
}

func (t *TailSegment) mustOwn() *Snake {
	if t.Owner == nil {
		panic(fmt.Sprintf("rules: tail segment %s has no owner", t.ID))
	}
	if t.Index >= len(t.Owner.Tail) || t.Owner.Tail[t.Index] != t {
		panic(fmt.Sprintf("rules: tail segment %s is not link %d of %s", t.ID, t.Index, t.Owner.ID))
	}
	return t.Owner
}
