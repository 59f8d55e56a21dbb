// Package controller provides the API available to workers to write games. It
// also provides the internal API for creating, starting and watching games.
package controller

import (
	"context"

	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrFinished is returned when starting a game that already ended.
var ErrFinished = errors.New("controller: game is finished")

type contextKey int

const tokenKey contextKey = 1

// ContextWithLockToken attaches a lock token to ctx.
func ContextWithLockToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// ContextGetLockToken returns the lock token held by ctx, if any.
func ContextGetLockToken(ctx context.Context) string {
	if s, ok := ctx.Value(tokenKey).(string); ok {
		return s
	}
	return ""
}

// New will initialize a new Server.
func New(store Store) *Server {
	return &Server{Store: store}
}

// Server is the game service in front of a Store.
type Server struct {
	Store Store
}

// Status is a game together with its newest frame.
type Status struct {
	Game      *rules.Game  `json:"game"`
	LastFrame *rules.Frame `json:"lastFrame"`
}

// Lock should lock a specific game using the token in ctx. No writes to the
// game should happen as long as the lock is valid. The game being locked does
// not need to exist.
func (s *Server) Lock(ctx context.Context, id string) (string, error) {
	return s.Store.Lock(ctx, id, ContextGetLockToken(ctx))
}

// Unlock should unlock a game, if already unlocked a valid lock token must be
// present
func (s *Server) Unlock(ctx context.Context, id string) error {
	return s.Store.Unlock(ctx, id, ContextGetLockToken(ctx))
}

// Pop should pop a game that is unlocked and running from the queue. It can
// be subject to race conditions where it is locked immediately after, this is
// expected.
func (s *Server) Pop(ctx context.Context) (string, error) {
	return s.Store.PopGameID(ctx)
}

// Create builds a stopped game from cfg and stores it with its first frame.
func (s *Server) Create(ctx context.Context, cfg config.Arena) (*rules.Game, error) {
	game, frame, err := rules.CreateInitialGame(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Store.CreateGame(ctx, game, []*rules.Frame{frame}); err != nil {
		return nil, errors.Wrap(err, "create game")
	}
	log.WithFields(log.Fields{
		"GameID": game.ID,
		"Mode":   game.Mode,
		"Seed":   game.Config.Seed,
	}).Info("game created")
	return game, nil
}

// Start queues a stopped game for the workers. Starting a running game does
// nothing.
func (s *Server) Start(ctx context.Context, id string) error {
	game, err := s.Store.GetGame(ctx, id)
	if err != nil {
		return err
	}
	switch game.Status {
	case rules.GameStatusRunning:
		return nil
	case rules.GameStatusComplete, rules.GameStatusError:
		return errors.Wrapf(ErrFinished, "game %s is %s", id, game.Status)
	}
	if err := s.Store.SetGameStatus(ctx, id, rules.GameStatusRunning); err != nil {
		return err
	}
	log.WithField("GameID", id).Info("game started")
	return nil
}

// Status should fetch the game state and its newest frame.
func (s *Server) Status(ctx context.Context, id string) (*Status, error) {
	game, err := s.Store.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	frames, err := s.Store.ListGameFrames(ctx, id, 1, -1)
	if err != nil {
		return nil, err
	}
	st := &Status{Game: game}
	if len(frames) > 0 {
		st.LastFrame = frames[0]
	}
	return st, nil
}

// Frames lists stored frames, see Store.ListGameFrames.
func (s *Server) Frames(ctx context.Context, id string, limit, offset int) ([]*rules.Frame, error) {
	return s.Store.ListGameFrames(ctx, id, limit, offset)
}

// Leaderboard returns the best limit scores.
func (s *Server) Leaderboard(ctx context.Context, limit int) ([]rules.Score, error) {
	return s.Store.Leaderboard(ctx, limit)
}

// AddFrame appends a frame, the caller must hold the game lock.
func (s *Server) AddFrame(ctx context.Context, id string, f *rules.Frame) error {
	if _, err := s.Lock(ctx, id); err != nil {
		return err
	}
	return s.Store.PushGameFrame(ctx, id, f)
}

// EndGame records the final scores and moves the game to status. The caller
// must hold the game lock.
func (s *Server) EndGame(ctx context.Context, id, status string, scores []rules.Score) error {
	if _, err := s.Lock(ctx, id); err != nil {
		return err
	}
	if len(scores) > 0 {
		if err := s.Store.SaveScores(ctx, scores); err != nil {
			return errors.Wrap(err, "save scores")
		}
	}
	return s.Store.SetGameStatus(ctx, id, status)
}
