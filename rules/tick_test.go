package rules

import (
	"testing"

	"github.com/nmurphy101/arena/grid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestTickPlayerIgnoresReverse(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	s := w.placeSnake("p", true, grid.Point{X: 10, Y: 10}, DirRight)

	require.NoError(t, w.Tick(Input{s.ID: DirLeft}))
	require.Equal(t, DirRight, s.Dir)
	require.Equal(t, grid.Point{X: 11, Y: 10}, s.Pos)

	require.NoError(t, w.Tick(Input{s.ID: DirDown}))
	require.Equal(t, DirDown, s.Dir)
	require.Equal(t, grid.Point{X: 11, Y: 11}, s.Pos)
}

func TestTickNeverReverses(t *testing.T) {
	for _, difficulty := range []int{0, 1, 3, 5} {
		cfg := testArena(30, 20)
		cfg.AISnakes = 6
		cfg.Food = 4
		cfg.StartLength = 3
		cfg.Teleporters = true
		cfg.Difficulty = difficulty
		cfg.RespawnAI = true
		cfg.Seed = 42

		w, err := NewWorld("reverse", cfg)
		require.NoError(t, err)
		for i := 0; i < 300 && !w.Over(); i++ {
			before := map[string]Direction{}
			for _, s := range w.Snakes {
				before[s.ID] = s.Dir
			}
			require.NoError(t, w.Tick(nil))
			for _, s := range w.Snakes {
				if d, ok := before[s.ID]; ok {
					require.NotEqual(t, d.Opposite(), s.Dir, "difficulty %d turn %d snake %s", difficulty, w.Turn, s.Name)
				}
			}
			requireOccupancy(t, w)
		}
	}
}

func TestTickTailLag(t *testing.T) {
	w := newTestWorld(t, 40, 10)
	s := w.placeSnake("p", true, grid.Point{X: 1, Y: 5}, DirRight)
	for _, x := range []int{3, 5, 6, 9, 12} {
		w.placeFood(grid.Point{X: x, Y: 5})
	}

	for i := 0; i < 20; i++ {
		require.NoError(t, w.Tick(nil))
		require.True(t, s.Alive())
		requireChain(t, s)
		requireOccupancy(t, w)
		require.Equal(t, 1+s.Score, s.Length())
	}
	require.True(t, s.Length() >= 6)

	seen := map[grid.Point]bool{s.Pos: true}
	for _, seg := range s.Tail {
		require.False(t, seen[seg.Pos], "unfolded tail should not stack")
		seen[seg.Pos] = true
	}
}

func TestTickWallCollision(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	events := collect(w)
	s := w.placeSnake("p", true, grid.Point{X: 0, Y: 4}, DirLeft)

	require.NoError(t, w.Tick(nil))
	require.False(t, s.Alive())
	require.Equal(t, DeathCauseWallCollision, s.Death.Cause)
	require.Equal(t, int64(1), s.Death.Turn)
	require.Empty(t, w.Snakes)
	require.True(t, w.Grid.Walkable(grid.Point{X: 0, Y: 4}))
	require.Contains(t, kinds(*events), EventDeath)
}

func TestTickNonKillableStaysAtEdge(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	w.Config.PlayerKillable = false
	s := w.placeSnake("p", true, grid.Point{X: 9, Y: 4}, DirRight)

	require.NoError(t, w.Tick(nil))
	require.True(t, s.Alive())
	require.Equal(t, grid.Point{X: 9, Y: 4}, s.Pos)
	requireOccupancy(t, w)
}

func TestTickNonKillableTurnAtEdgeKeepsHeading(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	w.Config.PlayerKillable = false
	s := placeBody(w, "p", true, DirRight,
		grid.Point{X: 9, Y: 9}, grid.Point{X: 8, Y: 9}, grid.Point{X: 7, Y: 9})
	neck := s.Prev

	require.NoError(t, w.Tick(Input{s.ID: DirDown}))
	require.Equal(t, grid.Point{X: 9, Y: 9}, s.Pos)
	require.Equal(t, DirRight, s.Dir, "a blocked turn is not travelled")

	require.NoError(t, w.Tick(Input{s.ID: DirLeft}))
	require.NotEqual(t, neck, s.Pos, "head went back into its neck")
	require.Equal(t, DirRight, s.Dir)

	require.NoError(t, w.Tick(Input{s.ID: DirUp}))
	require.Equal(t, grid.Point{X: 9, Y: 8}, s.Pos)
	require.Equal(t, DirUp, s.Dir)
	require.True(t, s.Alive())
	requireChain(t, s)
	requireOccupancy(t, w)
}

func TestTickHeadCollision(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	a := w.placeSnake("a", true, grid.Point{X: 2, Y: 2}, DirRight)
	b := w.placeSnake("b", true, grid.Point{X: 4, Y: 2}, DirLeft)

	require.NoError(t, w.Tick(nil))
	require.True(t, a.Alive())
	require.False(t, b.Alive())
	require.Equal(t, DeathCauseHeadToHeadCollision, b.Death.Cause)
	requireOccupancy(t, w)
}

func TestTickTailCollision(t *testing.T) {
	w := newTestWorld(t, 12, 12)
	a := w.placeSnake("a", true, grid.Point{X: 4, Y: 2}, DirDown)
	placeBody(w, "b", true, DirRight,
		grid.Point{X: 6, Y: 3}, grid.Point{X: 5, Y: 3}, grid.Point{X: 4, Y: 3}, grid.Point{X: 3, Y: 3})

	require.NoError(t, w.Tick(nil))
	require.False(t, a.Alive())
	require.Equal(t, DeathCauseSnakeCollision, a.Death.Cause)
	require.Len(t, w.Snakes, 1)
	requireOccupancy(t, w)
}

func TestTickSelfCollision(t *testing.T) {
	w := newTestWorld(t, 12, 12)
	s := placeBody(w, "loop", true, DirUp,
		grid.Point{X: 5, Y: 5},
		grid.Point{X: 5, Y: 6},
		grid.Point{X: 6, Y: 6},
		grid.Point{X: 6, Y: 5},
		grid.Point{X: 6, Y: 4},
		grid.Point{X: 5, Y: 4},
		grid.Point{X: 4, Y: 4},
	)

	require.NoError(t, w.Tick(nil))
	require.False(t, s.Alive())
	require.Equal(t, DeathCauseSnakeSelfCollision, s.Death.Cause)
	requireOccupancy(t, w)
}

func TestFirstTailSegmentIsHarmless(t *testing.T) {
	w := newTestWorld(t, 12, 12)
	s := placeBody(w, "s", true, DirRight,
		grid.Point{X: 5, Y: 5}, grid.Point{X: 4, Y: 5}, grid.Point{X: 3, Y: 5})

	s.Tail[0].Interact(w, s)
	require.True(t, s.Alive())

	s.Tail[1].Interact(w, s)
	require.False(t, s.Alive())
	require.Equal(t, DeathCauseSnakeSelfCollision, s.Death.Cause)
}

func TestOrphanTailSegmentPanics(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	s := w.placeSnake("s", true, grid.Point{X: 1, Y: 1}, DirRight)
	seg := &TailSegment{Base: newBase("orphan", grid.Point{X: 2, Y: 2})}
	require.Panics(t, func() { seg.Interact(w, s) })
}

func TestTickFoodPickup(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	w.Config.FoodGrowth = 2
	w.Config.FoodPoints = 3
	s := w.placeSnake("p", true, grid.Point{X: 2, Y: 2}, DirRight)
	f := w.placeFood(grid.Point{X: 3, Y: 2})
	w.flush()
	events := collect(w)

	require.NoError(t, w.Tick(nil))
	require.Equal(t, 3, s.Score)
	require.Equal(t, 3, s.Length())
	require.Equal(t, StateDead, f.State)
	require.Len(t, w.Food, 1)
	require.NotEqual(t, f.ID, w.Food[0].ID)
	require.True(t, w.Food[0].Alive())
	require.True(t, w.Grid.Walkable(w.Food[0].Pos), "food respawns on a free cell")
	require.NotEqual(t, s.Pos, w.Food[0].Pos)
	require.Equal(t, 2, w.Grid.Node(grid.Point{X: 2, Y: 2}).Occupants(), "new segments stack")
	require.Equal(t, []EventKind{EventPickup, EventSpawn}, kinds(*events))
	requireOccupancy(t, w)
}

func TestTickPortalTeleport(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	events := collect(w)
	in, out := w.placePortalPair(grid.Point{X: 5, Y: 5}, grid.Point{X: 15, Y: 10})
	a := w.placeSnake("a", true, grid.Point{X: 4, Y: 5}, DirRight)

	require.NoError(t, w.Tick(nil))
	require.Equal(t, grid.Point{X: 16, Y: 10}, a.Pos)
	require.False(t, in.Ready(w.Clock))
	require.False(t, out.Ready(w.Clock))
	require.Contains(t, kinds(*events), EventPortal)
	requireOccupancy(t, w)

	b := w.placeSnake("b", true, grid.Point{X: 14, Y: 10}, DirRight)
	require.NoError(t, w.Tick(nil))
	require.Equal(t, grid.Point{X: 15, Y: 10}, b.Pos, "entry inside the cooldown is a no-op")
	require.Equal(t, grid.Point{X: 17, Y: 10}, a.Pos)

	require.True(t, in.Ready(w.Clock+w.Config.PortalCooldown))
}

func TestTickPortalDestinationOffGrid(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	w.placePortalPair(grid.Point{X: 5, Y: 5}, grid.Point{X: 19, Y: 10})
	a := w.placeSnake("a", true, grid.Point{X: 4, Y: 5}, DirRight)

	require.NoError(t, w.Tick(nil))
	require.Equal(t, grid.Point{X: 5, Y: 5}, a.Pos)
	require.True(t, a.Alive())
}

func TestTickSpeed(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	w.Config.PlayerSpeed = 0.5
	s := w.placeSnake("slow", true, grid.Point{X: 1, Y: 1}, DirRight)

	require.NoError(t, w.Tick(nil))
	require.Equal(t, grid.Point{X: 1, Y: 1}, s.Pos)
	require.NoError(t, w.Tick(nil))
	require.Equal(t, grid.Point{X: 2, Y: 1}, s.Pos)
}

func TestReapRespawnsAI(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	w.Config.RespawnAI = true
	s := w.placeSnake("ai", false, grid.Point{X: 0, Y: 0}, DirUp)
	p := w.placeSnake("p", true, grid.Point{X: 5, Y: 5}, DirUp)

	w.kill(s, DeathCauseWallCollision)
	w.kill(p, DeathCauseWallCollision)
	w.reap()
	require.Len(t, w.Snakes, 1, "players are not respawned")
	require.NotEqual(t, s.ID, w.Snakes[0].ID)
	require.False(t, w.Snakes[0].Player)
	require.Equal(t, "ai-1", w.Snakes[0].Name)
	requireOccupancy(t, w)
}

func TestTickFailsWithoutDecisionBox(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	s := w.placeSnake("ai", false, grid.Point{X: 5, Y: 5}, DirUp)
	s.Brain = nil

	require.Error(t, w.Tick(nil))
}

func TestSpawnExhausted(t *testing.T) {
	w := newTestWorld(t, 2, 1)
	w.Config.SpawnRetries = 20
	w.placeSnake("a", true, grid.Point{X: 0, Y: 0}, DirUp)
	w.placeFood(grid.Point{X: 1, Y: 0})

	_, err := w.spawnFood()
	require.Error(t, err)
	require.Equal(t, ErrSpawnExhausted, errors.Cause(err))

	w.Food[0].State = StateDead
	w.Grid.Occupy(grid.Point{X: 1, Y: 0})
	w.reap()
	require.Equal(t, 1, w.foodDebt, "respawn is retried on the next tick")
}

func TestGameOver(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	events := collect(w)
	w.placeSnake("a", false, grid.Point{X: 1, Y: 1}, DirUp)
	w.placeSnake("b", false, grid.Point{X: 5, Y: 5}, DirUp)
	require.False(t, w.Over())

	w.GameOver()
	require.True(t, w.Over())
	require.Empty(t, w.AliveSnakes())
	require.Contains(t, kinds(*events), EventGameOver)
	for _, sc := range w.Scores() {
		require.Equal(t, DeathCauseGameOver, sc.Cause)
		require.Equal(t, "test", sc.GameID)
	}
}

func TestMaxTurns(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	w.Config.MaxTurns = 2
	w.Config.PlayerKillable = false
	w.placeSnake("a", true, grid.Point{X: 1, Y: 1}, DirUp)
	w.placeSnake("b", true, grid.Point{X: 5, Y: 5}, DirDown)

	require.NoError(t, w.Tick(nil))
	require.False(t, w.Over())
	require.NoError(t, w.Tick(nil))
	require.True(t, w.Over())
}
