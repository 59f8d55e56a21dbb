package controller

import (
	"context"
	"testing"

	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testArena() config.Arena {
	cfg := config.Default()
	cfg.Seed = 3
	return cfg
}

func TestController_Lock(t *testing.T) {
	ctx := context.Background()
	ctrl := New(InMemStore())

	// Lock key (game doesn't need to exist).
	tok, err := ctrl.Lock(ctx, "test")
	require.Nil(t, err)

	// Lock again (without token).
	_, err = ctrl.Lock(ctx, "test")
	require.NotNil(t, err)

	// Lock again (with token).
	ctx = ContextWithLockToken(ctx, tok)
	_, err = ctrl.Lock(ctx, "test")
	require.Nil(t, err)

	// Unlock (with token).
	err = ctrl.Unlock(ctx, "test")
	require.Nil(t, err)
}

func TestController_Games(t *testing.T) {
	ctx := context.Background()
	ctrl := New(InMemStore())

	game, err := ctrl.Create(ctx, testArena())
	require.Nil(t, err)
	require.Equal(t, rules.GameStatusStopped, game.Status)

	// Stopped games are not queued.
	_, err = ctrl.Pop(ctx)
	require.Equal(t, ErrNotFound, errors.Cause(err))

	require.Nil(t, ctrl.Start(ctx, game.ID))
	// Starting twice is harmless.
	require.Nil(t, ctrl.Start(ctx, game.ID))

	// Should pop above game.
	id, err := ctrl.Pop(ctx)
	require.Nil(t, err)
	require.Equal(t, game.ID, id)

	// Should get above game with its first frame.
	st, err := ctrl.Status(ctx, id)
	require.Nil(t, err)
	require.Equal(t, rules.GameStatusRunning, st.Game.Status)
	require.NotNil(t, st.LastFrame)
	require.Equal(t, int64(0), st.LastFrame.Turn)
	require.Len(t, st.LastFrame.Snakes, testArena().AISnakes)

	_, err = ctrl.Status(ctx, "missing")
	require.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestController_AddFrameNeedsLock(t *testing.T) {
	ctx := context.Background()
	ctrl := New(InMemStore())

	game, err := ctrl.Create(ctx, testArena())
	require.Nil(t, err)

	// Someone else holds the game.
	_, err = ctrl.Store.Lock(ctx, game.ID, "other")
	require.Nil(t, err)
	err = ctrl.AddFrame(ContextWithLockToken(ctx, "mine"), game.ID, &rules.Frame{Turn: 1})
	require.Equal(t, ErrIsLocked, errors.Cause(err))

	lctx := ContextWithLockToken(ctx, "other")
	require.Nil(t, ctrl.AddFrame(lctx, game.ID, &rules.Frame{Turn: 1}))

	frames, err := ctrl.Frames(ctx, game.ID, 0, 0)
	require.Nil(t, err)
	require.Len(t, frames, 2)
}

func TestController_EndGame(t *testing.T) {
	ctx := context.Background()
	ctrl := New(InMemStore())

	game, err := ctrl.Create(ctx, testArena())
	require.Nil(t, err)
	require.Nil(t, ctrl.Start(ctx, game.ID))

	tok, err := ctrl.Lock(ctx, game.ID)
	require.Nil(t, err)
	lctx := ContextWithLockToken(ctx, tok)

	scores := []rules.Score{{GameID: game.ID, SnakeID: "s", Name: "ai-1", Points: 2}}
	require.Nil(t, ctrl.EndGame(lctx, game.ID, rules.GameStatusComplete, scores))

	board, err := ctrl.Leaderboard(ctx, 10)
	require.Nil(t, err)
	require.Equal(t, scores, board)

	err = ctrl.Start(ctx, game.ID)
	require.Equal(t, ErrFinished, errors.Cause(err))
}

func TestController_CreateInvalid(t *testing.T) {
	cfg := testArena()
	cfg.CellSize = 3
	_, err := New(InMemStore()).Create(context.Background(), cfg)
	require.Equal(t, config.ErrConfiguration, errors.Cause(err))
}
