package worker

import (
	"context"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func lockedContext(t *testing.T, ctrl *controller.Server, id string) context.Context {
	ctx := context.Background()
	tok, err := ctrl.Lock(ctx, id)
	require.NoError(t, err)
	return controller.ContextWithLockToken(ctx, tok)
}

func TestRunner_NoGame(t *testing.T) {
	err := Runner(context.Background(), controller.New(controller.InMemStore()), "missing")
	require.Equal(t, controller.ErrNotFound, errors.Cause(err))
}

// A game picked up halfway continues exactly where the last worker stopped.
func TestRunner_Resumes(t *testing.T) {
	ctrl := controller.New(controller.InMemStore())
	game := startGame(t, ctrl, fastArena())
	ctx := lockedContext(t, ctrl, game.ID)

	world, err := rules.Resume(game, 0)
	require.NoError(t, err)
	for world.Turn < 5 && !world.Over() {
		require.NoError(t, world.Tick(nil))
		require.NoError(t, ctrl.AddFrame(ctx, game.ID, world.Frame()))
	}

	require.NoError(t, Runner(ctx, ctrl, game.ID))

	frames, err := ctrl.Frames(ctx, game.ID, 0, 0)
	require.NoError(t, err)
	last := frames[len(frames)-1]
	require.Equal(t, int64(len(frames)-1), last.Turn)

	replay, err := rules.Resume(game, last.Turn)
	require.NoError(t, err)
	require.Equal(t, replay.Frame(), last, spew.Sdump(last))
}

func TestRunner_FirstFrameMissing(t *testing.T) {
	ctrl := controller.New(controller.InMemStore())
	cfg := fastArena()
	cfg.MaxTurns = 3
	game, _, err := rules.CreateInitialGame(cfg)
	require.NoError(t, err)
	game.Status = rules.GameStatusRunning
	require.NoError(t, ctrl.Store.CreateGame(context.Background(), game, nil))

	ctx := lockedContext(t, ctrl, game.ID)
	require.NoError(t, Runner(ctx, ctrl, game.ID))

	frames, err := ctrl.Frames(ctx, game.ID, 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(0), frames[0].Turn)
	require.True(t, len(frames) <= 4)
	require.Equal(t, int64(len(frames)-1), frames[len(frames)-1].Turn)
}

func TestRunner_InvalidConfigEndsInError(t *testing.T) {
	ctrl := controller.New(controller.InMemStore())
	game := startGame(t, ctrl, fastArena())

	broken, err := ctrl.Store.GetGame(context.Background(), game.ID)
	require.NoError(t, err)
	broken.Config.TickRate = 0
	require.NoError(t, ctrl.Store.CreateGame(context.Background(), broken, []*rules.Frame{{Turn: 0}}))

	ctx := lockedContext(t, ctrl, game.ID)
	err = Runner(ctx, ctrl, game.ID)
	require.Error(t, err)

	st, err := ctrl.Status(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, rules.GameStatusError, st.Game.Status)
}

func TestRunner_Cancelled(t *testing.T) {
	ctrl := controller.New(controller.InMemStore())
	cfg := fastArena()
	cfg.TickRate = 1
	cfg.MaxTurns = 0
	game := startGame(t, ctrl, cfg)

	ctx, cancel := context.WithTimeout(lockedContext(t, ctrl, game.ID), 50*time.Millisecond)
	defer cancel()
	err := Runner(ctx, ctrl, game.ID)
	require.Error(t, err)

	st, err := ctrl.Status(context.Background(), game.ID)
	require.NoError(t, err)
	require.Equal(t, rules.GameStatusRunning, st.Game.Status)
}
