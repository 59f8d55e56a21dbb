package controller

import (
	"context"
	"sync"
	"time"

	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
)

var (
	// LockExpiry is the time after which a lock will expire.
	LockExpiry = 1 * time.Second
	// ErrNotFound is thrown when a game is not found.
	ErrNotFound = errors.New("controller: game not found")
	// ErrIsLocked is returned when a game is locked.
	ErrIsLocked = errors.New("controller: game is locked")
	// ErrInvalidSequence is returned when a frame does not follow the last
	// stored turn.
	ErrInvalidSequence = errors.New("controller: invalid frame sequence")
)

// Store is the interface to the backend store.
type Store interface {
	// Lock will lock a specific game, returning a token that must be used to
	// write frames to the game.
	Lock(ctx context.Context, key, token string) (string, error)
	// Unlock will unlock a game if it is locked and the token used to lock it
	// is correct.
	Unlock(ctx context.Context, key, token string) error
	// PopGameID returns a running game that is unlocked.
	PopGameID(context.Context) (string, error)
	// SetGameStatus is used to set a specific game status. This operation
	// should be atomic.
	SetGameStatus(c context.Context, id, status string) error
	// CreateGame will insert a game with the initial game frames.
	CreateGame(context.Context, *rules.Game, []*rules.Frame) error
	// PushGameFrame appends a frame. Its turn must be one past the last
	// stored turn, or zero for the first frame.
	PushGameFrame(c context.Context, id string, f *rules.Frame) error
	// ListGameFrames will list frames by an offset and limit, a negative
	// offset counts back from the last frame.
	ListGameFrames(c context.Context, id string, limit, offset int) ([]*rules.Frame, error)
	// GetGame will fetch the game.
	GetGame(context.Context, string) (*rules.Game, error)
	// SaveScores adds finished snakes to the leaderboard.
	SaveScores(context.Context, []rules.Score) error
	// Leaderboard returns the best limit scores.
	Leaderboard(c context.Context, limit int) ([]rules.Score, error)
}

// InMemStore returns an in memory implementation of the Store interface.
func InMemStore() Store {
	in := &inmem{}
	in.reset()
	return in
}

type inmem struct {
	games  map[string]*rules.Game
	frames map[string][]*rules.Frame
	locks  LockTable
	scores []rules.Score
	lock   sync.Mutex
}

func (in *inmem) reset() {
	in.lock.Lock()
	defer in.lock.Unlock()

	in.games = map[string]*rules.Game{}
	in.frames = map[string][]*rules.Frame{}
	in.locks.Reset()
	in.scores = nil
}

func (in *inmem) Lock(ctx context.Context, key, token string) (string, error) {
	return in.locks.Lock(key, token)
}

func (in *inmem) Unlock(ctx context.Context, key, token string) error {
	return in.locks.Unlock(key, token)
}

func (in *inmem) PopGameID(ctx context.Context) (string, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	for id, g := range in.games {
		if g.Status == rules.GameStatusRunning && !in.locks.Locked(id) {
			return id, nil
		}
	}
	return "", ErrNotFound
}

func (in *inmem) SetGameStatus(ctx context.Context, id, status string) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	g, ok := in.games[id]
	if !ok {
		return ErrNotFound
	}
	g.Status = status
	return nil
}

func (in *inmem) CreateGame(ctx context.Context, g *rules.Game, frames []*rules.Frame) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	if err := CheckSequence(-1, frames...); err != nil {
		return err
	}
	cp := *g
	in.games[g.ID] = &cp
	in.frames[g.ID] = append([]*rules.Frame(nil), frames...)
	return nil
}

func (in *inmem) PushGameFrame(ctx context.Context, id string, f *rules.Frame) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	if _, ok := in.games[id]; !ok {
		return ErrNotFound
	}
	if err := CheckSequence(lastTurn(in.frames[id]), f); err != nil {
		return err
	}
	in.frames[id] = append(in.frames[id], f)
	return nil
}

func (in *inmem) ListGameFrames(ctx context.Context, id string, limit, offset int) ([]*rules.Frame, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	if _, ok := in.games[id]; !ok {
		return nil, ErrNotFound
	}
	return Window(in.frames[id], limit, offset), nil
}

func (in *inmem) GetGame(ctx context.Context, id string) (*rules.Game, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	if g, ok := in.games[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (in *inmem) SaveScores(ctx context.Context, scores []rules.Score) error {
	in.lock.Lock()
	defer in.lock.Unlock()

	in.scores = append(in.scores, scores...)
	rules.SortScores(in.scores)
	return nil
}

func (in *inmem) Leaderboard(ctx context.Context, limit int) ([]rules.Score, error) {
	in.lock.Lock()
	defer in.lock.Unlock()

	if limit <= 0 || limit > len(in.scores) {
		limit = len(in.scores)
	}
	return append([]rules.Score(nil), in.scores[:limit]...), nil
}

// CheckSequence verifies frames continue from the last stored turn, which
// is -1 when nothing has been stored.
func CheckSequence(last int64, frames ...*rules.Frame) error {
	for _, f := range frames {
		last++
		if f.Turn != last {
			return errors.Wrapf(ErrInvalidSequence, "got turn %d, want %d", f.Turn, last)
		}
	}
	return nil
}

func lastTurn(frames []*rules.Frame) int64 {
	if len(frames) == 0 {
		return -1
	}
	return frames[len(frames)-1].Turn
}

// Window applies limit and offset to frames ordered by turn. A negative
// offset selects from the end, newest first, with -1 the last frame.
func Window(frames []*rules.Frame, limit, offset int) []*rules.Frame {
	if offset < 0 {
		rev := make([]*rules.Frame, len(frames))
		for i, f := range frames {
			rev[len(frames)-1-i] = f
		}
		frames = rev
		offset = -offset - 1
	}
	if offset >= len(frames) {
		return nil
	}
	frames = frames[offset:]
	if limit > 0 && limit < len(frames) {
		frames = frames[:limit]
	}
	return append([]*rules.Frame(nil), frames...)
}

// TopScores sorts scores and keeps the best limit of them.
func TopScores(scores []rules.Score, limit int) []rules.Score {
	rules.SortScores(scores)
	if limit > 0 && limit < len(scores) {
		scores = scores[:limit]
	}
	return scores
}
