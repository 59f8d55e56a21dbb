// Package filestore keeps every game in its own append-only file, one JSON
// record per line.
package filestore

import (
	"context"
	"os/user"
	"path"
	"sync"

	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/rules"
	log "github.com/sirupsen/logrus"
)

const leaderboardID = "leaderboard"

func defaultDir() string {
	home := "."
	if u, err := user.Current(); err == nil {
		home = u.HomeDir
	}
	return path.Join(home, ".arena", "games")
}

// NewFileStore returns a Store writing <id>.arena files under directory,
// ~/.arena/games when empty.
func NewFileStore(directory string) controller.Store {
	if directory == "" {
		directory = defaultDir()
	}
	return &fileStore{dir: directory, cache: map[string]*cached{}}
}

// cached is a game loaded from or written to disk. w is opened on the first
// write.
type cached struct {
	gameArchive
	w writer
}

// fileStore serves reads from memory and appends every write to the game
// file. Games stay cached until they finish, so PopGameID only considers
// games this process wrote or read since startup.
type fileStore struct {
	dir   string
	locks controller.LockTable

	mu    sync.Mutex
	cache map[string]*cached
}

func (fs *fileStore) Lock(ctx context.Context, key, token string) (string, error) {
	return fs.locks.Lock(key, token)
}

func (fs *fileStore) Unlock(ctx context.Context, key, token string) error {
	return fs.locks.Unlock(key, token)
}

func (fs *fileStore) PopGameID(ctx context.Context) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for id, c := range fs.cache {
		if c.game.Status == rules.GameStatusRunning && !fs.locks.Locked(id) {
			return id, nil
		}
	}
	return "", controller.ErrNotFound
}

func (fs *fileStore) CreateGame(ctx context.Context, g *rules.Game, frames []*rules.Frame) error {
	if err := controller.CheckSequence(-1, frames...); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	w, err := openFileWriter(fs.dir, g.ID, true)
	if err != nil {
		return err
	}
	if err := writeGame(w, g); err != nil {
		w.Close()
		return err
	}

	game := *g
	c := &cached{gameArchive: gameArchive{game: &game, frames: []*rules.Frame{}}, w: w}
	fs.cache[g.ID] = c
	return fs.appendFrames(c, frames...)
}

func (fs *fileStore) SetGameStatus(ctx context.Context, id, status string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	c, err := fs.load(id)
	if err != nil {
		return err
	}
	w, err := fs.writer(c)
	if err != nil {
		return err
	}
	if err := writeStatus(w, status); err != nil {
		return err
	}
	c.game.Status = status

	if status == rules.GameStatusComplete || status == rules.GameStatusError {
		fs.evict(id)
	}
	return nil
}

func (fs *fileStore) PushGameFrame(ctx context.Context, id string, f *rules.Frame) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	c, err := fs.load(id)
	if err != nil {
		return err
	}
	last := int64(-1)
	if n := len(c.frames); n > 0 {
		last = c.frames[n-1].Turn
	}
	if err := controller.CheckSequence(last, f); err != nil {
		return err
	}
	return fs.appendFrames(c, f)
}

func (fs *fileStore) ListGameFrames(ctx context.Context, id string, limit, offset int) ([]*rules.Frame, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	c, err := fs.load(id)
	if err != nil {
		return nil, err
	}
	return controller.Window(c.frames, limit, offset), nil
}

func (fs *fileStore) GetGame(ctx context.Context, id string) (*rules.Game, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	c, err := fs.load(id)
	if err != nil {
		return nil, err
	}
	g := *c.game
	return &g, nil
}

// SaveScores appends to leaderboard.arena.
func (fs *fileStore) SaveScores(ctx context.Context, scores []rules.Score) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	w, err := openFileWriter(fs.dir, leaderboardID, false)
	if err != nil {
		return err
	}
	defer w.Close()

	for _, s := range scores {
		if err := writeScore(w, s); err != nil {
			return err
		}
	}
	return nil
}

func (fs *fileStore) Leaderboard(ctx context.Context, limit int) ([]rules.Score, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	scores, err := readScores(fs.dir)
	if err != nil {
		return nil, err
	}
	return controller.TopScores(scores, limit), nil
}

// load returns the cached game, reading its file on a miss.
func (fs *fileStore) load(id string) (*cached, error) {
	if c, ok := fs.cache[id]; ok {
		return c, nil
	}
	archive, err := readArchive(fs.dir, id)
	if err != nil {
		return nil, err
	}
	c := &cached{gameArchive: *archive}
	fs.cache[id] = c
	return c, nil
}

func (fs *fileStore) writer(c *cached) (writer, error) {
	if c.w == nil {
		w, err := openFileWriter(fs.dir, c.game.ID, false)
		if err != nil {
			return nil, err
		}
		c.w = w
	}
	return c.w, nil
}

func (fs *fileStore) appendFrames(c *cached, frames ...*rules.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	w, err := fs.writer(c)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if err := writeFrame(w, f); err != nil {
			return err
		}
		c.frames = append(c.frames, f)
	}
	return nil
}

// evict drops a finished game from memory and closes its file.
func (fs *fileStore) evict(id string) {
	c, ok := fs.cache[id]
	if !ok {
		return
	}
	delete(fs.cache, id)
	if c.w == nil {
		return
	}
	if err := c.w.Close(); err != nil {
		log.WithError(err).WithField("GameID", id).Error("closing game file")
	}
}

func getFilePath(directory string, id string) string {
	return path.Join(directory, id) + ".arena"
}
