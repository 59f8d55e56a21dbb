package rules

import (
	"testing"

	"github.com/nmurphy101/arena/grid"
	"github.com/stretchr/testify/require"
)

func newAgent(t *testing.T, w *World, at grid.Point, dir Direction, difficulty int) *Snake {
	s := w.placeSnake("agent", false, at, dir)
	s.Brain.Difficulty = difficulty
	return s
}

func block(w *World, cells ...grid.Point) {
	for _, c := range cells {
		w.placeSnake("rock", true, c, DirUp)
	}
}

func TestDecideObstacleTieBreak(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 10, Y: 10}, DirRight, 0)
	w.placeFood(grid.Point{X: 14, Y: 10})
	block(w, grid.Point{X: 12, Y: 10})

	w.index()
	d, err := w.decide(s)
	require.NoError(t, err)
	require.False(t, s.Lines[DirRight].Open)
	require.False(t, s.Lines[DirLeft].Open, "reverse is always closed")
	require.Equal(t, DirUp, d)

	block(w, grid.Point{X: 10, Y: 8})
	w.index()
	d, err = w.decide(s)
	require.NoError(t, err)
	require.False(t, s.Lines[DirUp].Open)
	require.Equal(t, DirDown, d)
}

func TestScanTargetCellHeldByAnotherSnake(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 10, Y: 10}, DirRight, 0)
	w.placeFood(grid.Point{X: 13, Y: 10})
	block(w, grid.Point{X: 13, Y: 10})

	w.index()
	d, err := w.decide(s)
	require.NoError(t, err)
	require.False(t, s.Lines[DirRight].Open, "a snake on the food cell still blocks")
	require.Equal(t, DirUp, d)
}

func TestDecideOpenIntent(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 10, Y: 10}, DirUp, 0)
	w.placeFood(grid.Point{X: 13, Y: 12})

	w.index()
	d, err := w.decide(s)
	require.NoError(t, err)
	require.Equal(t, DirRight, d, "simple intent closes x first")

	s.Brain.Difficulty = 1
	d, err = w.decide(s)
	require.NoError(t, err)
	require.Equal(t, DirUp, d, "down reverses, the fallback is the first open cardinal")

	s.Dir = DirRight
	d, err = w.decide(s)
	require.NoError(t, err)
	require.Equal(t, DirDown, d, "situational intent closes y first")
}

func TestDecideWithoutTargetKeepsHeading(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 10, Y: 10}, DirLeft, 3)

	w.index()
	d, err := w.decide(s)
	require.NoError(t, err)
	require.Equal(t, DirLeft, d)
}

func TestDecideNeedsDecisionBox(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := w.placeSnake("p", true, grid.Point{X: 10, Y: 10}, DirLeft)
	w.index()
	_, err := w.decide(s)
	require.Error(t, err)
}

func TestScanEdgeClosesLines(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 1, Y: 10}, DirDown, 0)

	w.index()
	w.scan(s)
	require.False(t, s.Lines[DirLeft].Open)
	require.False(t, s.Lines[DirUp].Open, "reverse")
	require.True(t, s.Lines[DirRight].Open)
	require.True(t, s.Lines[DirDown].Open)
	require.Equal(t, grid.Point{X: 1, Y: 14}, s.Lines[DirDown].End)
}

func TestScanRecoveryPass(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 10, Y: 10}, DirRight, 0)
	block(w, grid.Point{X: 10, Y: 8}, grid.Point{X: 12, Y: 10}, grid.Point{X: 10, Y: 12})

	w.index()
	w.scan(s)
	require.True(t, s.Lines[DirUp].Open)
	require.True(t, s.Lines[DirRight].Open)
	require.True(t, s.Lines[DirDown].Open)
	require.False(t, s.Lines[DirLeft].Open)
	require.Equal(t, grid.Point{X: 11, Y: 10}, s.Lines[DirRight].End, "recovery looks one cell ahead")
	require.Equal(t, 4, s.SightRange, "sight range is restored")
}

func TestScanRecoveryRunsOnce(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 10, Y: 10}, DirRight, 0)
	block(w, grid.Point{X: 10, Y: 9}, grid.Point{X: 11, Y: 10}, grid.Point{X: 10, Y: 11})

	w.index()
	w.scan(s)
	for _, d := range Cardinals {
		require.False(t, s.Lines[d].Open, "%s", d)
	}
	require.Equal(t, DirRight, CheckIntent(s, DirRight))
	require.Equal(t, DirRight, CheckIntent(s, DirLeft), "a reverse intent keeps the heading")
}

func TestScanDiagonalVeto(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 10, Y: 10}, DirRight, 3)
	block(w, grid.Point{X: 9, Y: 9}, grid.Point{X: 11, Y: 9})

	w.index()
	w.scan(s)
	require.False(t, s.Lines[DirUpLeft].Open)
	require.False(t, s.Lines[DirUpRight].Open)
	require.False(t, s.Lines[DirUp].Open, "both flanks closed")
	require.True(t, s.Lines[DirRight].Open)
	require.True(t, s.Lines[DirDown].Open)

	s.Brain.Difficulty = 2
	w.scan(s)
	require.True(t, s.Lines[DirUp].Open, "veto needs the diagonal difficulty")
}

func TestScanSkipsOwnFirstSegment(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := placeBody(w, "agent", false, DirRight,
		grid.Point{X: 5, Y: 5}, grid.Point{X: 4, Y: 5}, grid.Point{X: 4, Y: 6}, grid.Point{X: 5, Y: 6})

	w.index()
	require.Nil(t, w.blockerAt(s, grid.Point{X: 4, Y: 5}))
	require.Nil(t, w.blockerAt(s, grid.Point{X: 5, Y: 5}))
	require.Equal(t, s.Tail[2], w.blockerAt(s, grid.Point{X: 5, Y: 6}))

	w.placeFood(grid.Point{X: 7, Y: 5})
	w.index()
	require.Nil(t, w.blockerAt(s, grid.Point{X: 7, Y: 5}), "food never blocks")
}

func TestScanPortalShortcut(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 2, Y: 10}, DirRight, 2)
	in, _ := w.placePortalPair(grid.Point{X: 4, Y: 10}, grid.Point{X: 17, Y: 3})
	w.placeFood(grid.Point{X: 18, Y: 3})

	w.index()
	d, err := w.decide(s)
	require.NoError(t, err)
	require.True(t, s.Lines[DirRight].Open)
	require.Equal(t, in, s.Brain.Secondary())
	require.Equal(t, DirRight, d, "situational intent heads for the portal")

	s.Brain.expire(w.Clock + s.Brain.Thresholds.SecondaryTimeout)
	require.Nil(t, s.Brain.Secondary())
}

func TestScanPortalBlocksBelowThreshold(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 2, Y: 10}, DirRight, 1)
	w.placePortalPair(grid.Point{X: 4, Y: 10}, grid.Point{X: 17, Y: 3})
	w.placeFood(grid.Point{X: 18, Y: 3})

	w.index()
	_, err := w.decide(s)
	require.NoError(t, err)
	require.False(t, s.Lines[DirRight].Open)
	require.Nil(t, s.Brain.Secondary())
}

func TestScanPortalLongWayRound(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 2, Y: 10}, DirRight, 2)
	w.placePortalPair(grid.Point{X: 4, Y: 10}, grid.Point{X: 17, Y: 3})
	w.placeFood(grid.Point{X: 8, Y: 10})

	w.index()
	_, err := w.decide(s)
	require.NoError(t, err)
	require.False(t, s.Lines[DirRight].Open)
	require.Nil(t, s.Brain.Secondary())
}

func TestPortalForgetsSecondary(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	in, out := w.placePortalPair(grid.Point{X: 4, Y: 10}, grid.Point{X: 17, Y: 3})
	s := newAgent(t, w, grid.Point{X: 3, Y: 10}, DirRight, 2)
	s.Brain.secondary = out
	s.Brain.deadline = w.Clock + s.Brain.Thresholds.SecondaryTimeout

	w.Clock += w.Config.TickInterval()
	s.step(w.Grid, in.Pos)
	require.True(t, in.teleport(w, s))
	require.Nil(t, s.Brain.Secondary())
}

func TestDecideAStar(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := newAgent(t, w, grid.Point{X: 2, Y: 5}, DirRight, 5)
	wall := []grid.Point{
		{X: 5, Y: 3}, {X: 5, Y: 4}, {X: 5, Y: 5}, {X: 5, Y: 6}, {X: 5, Y: 7},
	}
	placeBody(w, "wall", true, DirUp, wall...)
	food := w.placeFood(grid.Point{X: 8, Y: 5})

	w.index()
	d, err := w.decide(s)
	require.NoError(t, err)
	require.NotEqual(t, DirLeft, d)

	path := s.Brain.path
	require.Equal(t, food.Pos, path.Goal)
	require.NotEmpty(t, path.Cells)
	require.Equal(t, food.Pos, path.Cells[len(path.Cells)-1])
	for _, c := range path.Cells {
		for _, blocked := range wall {
			require.NotEqual(t, blocked, c)
		}
	}
}

func TestPathRecomputesWhenStale(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	var p Path
	head := grid.Point{X: 0, Y: 0}
	goal := grid.Point{X: 3, Y: 0}

	next, ok := p.next(w.Grid, head, goal)
	require.True(t, ok)
	require.Equal(t, grid.Point{X: 1, Y: 0}, next)
	require.Len(t, p.Cells, 3)

	next, ok = p.next(w.Grid, grid.Point{X: 1, Y: 0}, goal)
	require.True(t, ok)
	require.Equal(t, grid.Point{X: 2, Y: 0}, next)
	require.Len(t, p.Cells, 2, "consumed cells are dropped")

	w.Grid.Occupy(grid.Point{X: 2, Y: 0})
	next, ok = p.next(w.Grid, grid.Point{X: 1, Y: 0}, goal)
	require.True(t, ok)
	require.NotEqual(t, grid.Point{X: 2, Y: 0}, next)

	next, ok = p.next(w.Grid, grid.Point{X: 1, Y: 0}, grid.Point{X: 1, Y: 4})
	require.True(t, ok)
	require.Equal(t, grid.Point{X: 1, Y: 1}, next)
	require.Equal(t, grid.Point{X: 1, Y: 4}, p.Goal, "a new goal replaces the route")

	w.Grid.Occupy(grid.Point{X: 2, Y: 1})
	w.Grid.Occupy(grid.Point{X: 3, Y: 1})
	w.Grid.Occupy(grid.Point{X: 4, Y: 0})
	var fresh Path
	_, ok = fresh.next(w.Grid, grid.Point{X: 1, Y: 0}, goal)
	require.False(t, ok, "walled goal")
}

func TestCheckIntent(t *testing.T) {
	s := &Snake{}
	s.Dir = DirDown
	for i := range s.Lines {
		s.Lines[i] = SightLine{Dir: Direction(i), Open: true}
	}
	s.Lines[DirUp].Open = false

	require.Equal(t, DirLeft, CheckIntent(s, DirLeft))
	require.Equal(t, DirRight, CheckIntent(s, DirUp), "reverse intent falls back to the first open cardinal")

	s.Lines[DirLeft].Open = false
	s.Lines[DirRight].Open = false
	require.Equal(t, DirDown, CheckIntent(s, DirLeft))

	s.Lines[DirDown].Open = false
	require.Equal(t, DirLeft, CheckIntent(s, DirLeft), "nothing open keeps the intent")
}

func TestNearestFood(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	require.Nil(t, w.nearestFood(grid.Point{X: 0, Y: 0}))

	first := w.placeFood(grid.Point{X: 5, Y: 0})
	second := w.placeFood(grid.Point{X: 0, Y: 5})
	near := w.placeFood(grid.Point{X: 2, Y: 2})
	require.Equal(t, near, w.nearestFood(grid.Point{X: 0, Y: 0}))

	near.State = StateDead
	require.Equal(t, first, w.nearestFood(grid.Point{X: 0, Y: 0}), "ties go to the first registered")

	first.State = StateDead
	require.Equal(t, second, w.nearestFood(grid.Point{X: 0, Y: 0}))
}
