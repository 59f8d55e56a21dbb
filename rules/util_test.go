package rules

import (
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/grid"
	"github.com/stretchr/testify/require"
)

// testArena is a w x h cell arena where every snake moves once per tick.
func testArena(w, h int) config.Arena {
	cfg := config.Default()
	cfg.ScreenWidth = w * 16
	cfg.ScreenHeight = h * 16
	cfg.CellSize = 16
	cfg.TickRate = 10
	cfg.BaseMoveInterval = 100 * time.Millisecond
	cfg.StartLength = 0
	cfg.Teleporters = false
	cfg.Difficulty = 0
	cfg.Seed = 1
	return cfg
}

func newTestWorld(t *testing.T, w, h int) *World {
	world, err := newWorld("test", testArena(w, h))
	require.NoError(t, err)
	return world
}

// placeBody registers a snake whose head is cells[0] and whose tail follows
// the remaining cells in order.
func placeBody(w *World, name string, player bool, dir Direction, cells ...grid.Point) *Snake {
	s := w.placeSnake(name, player, cells[0], dir)
	for i, c := range cells[1:] {
		seg := &TailSegment{Base: newBase(w.newID(), c), Owner: s, Index: i}
		seg.State = StateAlive
		seg.Killable = true
		w.Grid.Occupy(c)
		s.Tail = append(s.Tail, seg)
	}
	if len(cells) > 1 {
		s.Prev = cells[1]
	}
	return s
}

// requireChain checks every segment sits on its predecessor's previous cell.
func requireChain(t *testing.T, s *Snake) {
	prev := s.Prev
	for i, seg := range s.Tail {
		require.Equal(t, prev, seg.Pos, "segment %d of %s\n%s", i, s.Name, spew.Sdump(s.Tail))
		prev = seg.Prev
	}
}

// requireOccupancy checks the grid counts exactly the living bodies.
func requireOccupancy(t *testing.T, w *World) {
	want := map[grid.Point]int{}
	for _, s := range w.Snakes {
		want[s.Pos]++
		for _, seg := range s.Tail {
			want[seg.Pos]++
		}
	}
	for y := 0; y < w.Grid.Height; y++ {
		for x := 0; x < w.Grid.Width; x++ {
			p := grid.Point{X: x, Y: y}
			n := w.Grid.Node(p)
			require.Equal(t, want[p], n.Occupants(), "occupants of %s", p)
			require.Equal(t, want[p] == 0, n.Walkable, "walkable %s", p)
		}
	}
}

func collect(w *World) *[]Event {
	var events []Event
	w.Events.OnAll(func(e Event) { events = append(events, e) })
	return &events
}

func kinds(events []Event) []EventKind {
	var out []EventKind
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}
