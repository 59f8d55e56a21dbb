package testsuite

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/require"
)

func game(id, status string) *rules.Game {
	cfg := config.Default()
	cfg.Seed = 7
	return &rules.Game{
		ID:      id,
		Status:  status,
		Mode:    rules.ModeFor(cfg),
		Config:  cfg,
		Created: time.Now().UTC().Truncate(time.Second),
	}
}

func frame(turn int64) *rules.Frame {
	return &rules.Frame{Turn: turn}
}

func turns(frames []*rules.Frame) []int64 {
	out := []int64{}
	for _, f := range frames {
		out = append(out, f.Turn)
	}
	return out
}

// lockSteps runs lock and unlock calls against one key in order, checking
// each outcome.
type lockStep struct {
	unlock bool
	token  string
	want   error
}

func runLockSteps(t *testing.T, s controller.Store, key string, steps []lockStep) {
	ctx := context.Background()
	for i, st := range steps {
		var err error
		if st.unlock {
			err = s.Unlock(ctx, key, st.token)
		} else {
			_, err = s.Lock(ctx, key, st.token)
		}
		require.Equal(t, st.want, errors.Cause(err), "step %d", i)
	}
}

func testStoreLock(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	held, err := s.Lock(ctx, key, "")
	require.NoError(t, err)
	require.NotEmpty(t, held)

	renewed, err := s.Lock(ctx, key, held)
	require.NoError(t, err)
	require.Equal(t, held, renewed)

	runLockSteps(t, s, key, []lockStep{
		{token: "other", want: controller.ErrIsLocked},
		{unlock: true, token: "", want: controller.ErrIsLocked},
		{unlock: true, token: held},
		{token: "other"},
		{unlock: true, token: "other"},
	})

	require.NoError(t, s.Unlock(ctx, key+"-never-locked", ""))
}

func testStoreLockExpiry(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	// Every lock is born expired.
	controller.LockExpiry = -10 * time.Second
	defer func() { controller.LockExpiry = 1 * time.Second }()

	held, err := s.Lock(ctx, key, "")
	require.NoError(t, err)
	require.NotEmpty(t, held)

	renewed, err := s.Lock(ctx, key, held)
	require.NoError(t, err)
	require.Equal(t, held, renewed)

	runLockSteps(t, s, key, []lockStep{
		{unlock: true, token: "stranger"},
		{token: ""},
		{token: "stranger"},
		{unlock: true, token: ""},
	})
}

func testStoreGameStatus(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, game(key, rules.GameStatusStopped), nil))
	_, err := s.PopGameID(ctx)
	require.Equal(t, controller.ErrNotFound, errors.Cause(err), "stopped games are not queued")

	require.NoError(t, s.SetGameStatus(ctx, key, rules.GameStatusRunning))
	g, err := s.GetGame(ctx, key)
	require.NoError(t, err)
	require.Equal(t, rules.GameStatusRunning, g.Status)

	id, err := s.PopGameID(ctx)
	require.NoError(t, err)
	require.Equal(t, key, id)

	require.NoError(t, s.SetGameStatus(ctx, key, rules.GameStatusError))
	_, err = s.PopGameID(ctx)
	require.Error(t, err, "failed games leave the queue")

	err = s.SetGameStatus(ctx, key+"-missing", rules.GameStatusRunning)
	require.Equal(t, controller.ErrNotFound, errors.Cause(err))
}

func testStoreGames(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	want := game(key, rules.GameStatusRunning)
	require.NoError(t, s.CreateGame(ctx, want, nil))

	g, err := s.GetGame(ctx, key)
	require.NoError(t, err)
	require.Equal(t, key, g.ID)
	require.Equal(t, want.Mode, g.Mode)
	require.Equal(t, want.Config, g.Config)
	require.True(t, want.Created.Equal(g.Created))

	_, err = s.GetGame(ctx, key+"-missing")
	require.Equal(t, controller.ErrNotFound, errors.Cause(err))

	id, err := s.PopGameID(ctx)
	require.NoError(t, err)
	require.Equal(t, key, id)

	// A worker holds it now.
	_, err = s.Lock(ctx, key, "")
	require.NoError(t, err)
	_, err = s.PopGameID(ctx)
	require.Equal(t, controller.ErrNotFound, errors.Cause(err))
}

func testStoreGameFrames(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	// Create with the initial frame.
	err := s.CreateGame(ctx, game(key, rules.GameStatusRunning), []*rules.Frame{frame(0)})
	require.Nil(t, err)

	// Read game frames, too high offset.
	frames, err := s.ListGameFrames(ctx, key, 10, 100)
	require.Nil(t, err)
	require.Equal(t, 0, len(frames))

	// Push the next frames.
	for turn := int64(1); turn < 5; turn++ {
		require.Nil(t, s.PushGameFrame(ctx, key, frame(turn)))
	}

	// Read from the start.
	frames, err = s.ListGameFrames(ctx, key, 2, 0)
	require.Nil(t, err)
	require.Equal(t, []int64{0, 1}, turns(frames))

	frames, err = s.ListGameFrames(ctx, key, 0, 3)
	require.Nil(t, err)
	require.Equal(t, []int64{3, 4}, turns(frames))

	// Negative offset reads back from the last frame.
	frames, err = s.ListGameFrames(ctx, key, 1, -1)
	require.Nil(t, err)
	require.Equal(t, []int64{4}, turns(frames))

	frames, err = s.ListGameFrames(ctx, key, 2, -2)
	require.Nil(t, err)
	require.Equal(t, []int64{3, 2}, turns(frames))

	// Read game frames that don't exist.
	frames, err = s.ListGameFrames(ctx, key+"-missing", 1, 0)
	require.Equal(t, controller.ErrNotFound, errors.Cause(err))
	require.Equal(t, 0, len(frames))
}

func testStoreFrameSequence(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()

	// Initial frames must start at turn zero.
	err := s.CreateGame(ctx, game(key, rules.GameStatusRunning), []*rules.Frame{frame(1)})
	require.Equal(t, controller.ErrInvalidSequence, errors.Cause(err))

	err = s.CreateGame(ctx, game(key, rules.GameStatusRunning), []*rules.Frame{frame(0), frame(1)})
	require.Nil(t, err)

	// Gaps and repeats are refused.
	err = s.PushGameFrame(ctx, key, frame(3))
	require.Equal(t, controller.ErrInvalidSequence, errors.Cause(err))
	err = s.PushGameFrame(ctx, key, frame(1))
	require.Equal(t, controller.ErrInvalidSequence, errors.Cause(err))

	require.Nil(t, s.PushGameFrame(ctx, key, frame(2)))

	frames, err := s.ListGameFrames(ctx, key, 0, 0)
	require.Nil(t, err)
	require.Equal(t, []int64{0, 1, 2}, turns(frames))

	// Frames for a missing game.
	err = s.PushGameFrame(ctx, key+"-missing", frame(0))
	require.Equal(t, controller.ErrNotFound, errors.Cause(err))
}

func testStoreLeaderboard(t *testing.T, s controller.Store) {
	ctx := context.Background()

	scores, err := s.Leaderboard(ctx, 10)
	require.Nil(t, err)
	require.Empty(t, scores)

	require.Nil(t, s.SaveScores(ctx, []rules.Score{
		{GameID: "a", SnakeID: "a1", Name: "ai-1", Points: 3, Length: 4},
		{GameID: "a", SnakeID: "a2", Name: "ai-2", Points: 1, Length: 2},
	}))
	require.Nil(t, s.SaveScores(ctx, []rules.Score{
		{GameID: "b", SnakeID: "b1", Name: "player-1", Player: true, Points: 5, Length: 6, Cause: rules.DeathCauseWallCollision},
	}))

	scores, err = s.Leaderboard(ctx, 2)
	require.Nil(t, err)
	require.Len(t, scores, 2)
	require.Equal(t, "b1", scores[0].SnakeID)
	require.Equal(t, rules.DeathCauseWallCollision, scores[0].Cause)
	require.True(t, scores[0].Player)
	require.Equal(t, "a1", scores[1].SnakeID)

	scores, err = s.Leaderboard(ctx, 0)
	require.Nil(t, err)
	require.Len(t, scores, 3)
	require.Equal(t, "a2", scores[2].SnakeID)
}

func testStoreConcurrentWriters(t *testing.T, s controller.Store) {
	key := uuid.NewV4().String()
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, game(key, rules.GameStatusRunning), nil))

	const workers = 20
	var winners uint32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Lock(ctx, key, ""); err == nil {
				atomic.AddUint32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, uint32(1), winners)
}

// Suite runs the shared Store behaviour checks against s, calling pretest
// before each one to clear the backend.
func Suite(t *testing.T, s controller.Store, pretest func()) {
	s = controller.InstrumentStore(s)
	t.Run("Lock", func(t *testing.T) { pretest(); testStoreLock(t, s) })
	t.Run("LockExpiry", func(t *testing.T) { pretest(); testStoreLockExpiry(t, s) })
	t.Run("Games", func(t *testing.T) { pretest(); testStoreGames(t, s) })
	t.Run("GameStatus", func(t *testing.T) { pretest(); testStoreGameStatus(t, s) })
	t.Run("GameFrames", func(t *testing.T) { pretest(); testStoreGameFrames(t, s) })
	t.Run("FrameSequence", func(t *testing.T) { pretest(); testStoreFrameSequence(t, s) })
	t.Run("Leaderboard", func(t *testing.T) { pretest(); testStoreLeaderboard(t, s) })
	t.Run("ConcurrentWriters", func(t *testing.T) { pretest(); testStoreConcurrentWriters(t, s) })
}
