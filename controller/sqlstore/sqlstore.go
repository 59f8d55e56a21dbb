// Package sqlstore implements controller.Store on postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS arena_locks (
	name       TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS arena_games (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	game       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS arena_games_status ON arena_games (status);
CREATE TABLE IF NOT EXISTS arena_frames (
	game_id TEXT NOT NULL REFERENCES arena_games (id) ON DELETE CASCADE,
	turn    BIGINT NOT NULL,
	frame   JSONB NOT NULL,
	PRIMARY KEY (game_id, turn)
);
CREATE TABLE IF NOT EXISTS arena_scores (
	game_id  TEXT NOT NULL,
	snake_id TEXT NOT NULL,
	name     TEXT NOT NULL,
	points   INTEGER NOT NULL,
	length   INTEGER NOT NULL,
	score    JSONB NOT NULL,
	PRIMARY KEY (game_id, snake_id)
);
`

// tables in dependency order, for tests that need a clean database.
var tables = []string{"arena_scores", "arena_frames", "arena_games", "arena_locks"}

const (
	// The lock row is taken over when the caller holds it or it expired.
	// No row comes back when somebody else holds it.
	lockQuery = `
INSERT INTO arena_locks (name, token, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE
	SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
	WHERE arena_locks.token = EXCLUDED.token OR arena_locks.expires_at < $4
RETURNING token`

	unlockQuery = `
DELETE FROM arena_locks WHERE name = $1 AND (token = $2 OR expires_at < $3)`

	heldQuery = `
SELECT token FROM arena_locks WHERE name = $1 AND expires_at >= $2`

	popQuery = `
SELECT g.id FROM arena_games g
WHERE g.status = $1 AND NOT EXISTS (
	SELECT 1 FROM arena_locks l WHERE l.name = g.id AND l.expires_at > $2
)
ORDER BY g.created_at
LIMIT 1`

	upsertGameQuery = `
INSERT INTO arena_games (id, status, game) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, game = EXCLUDED.game`

	lastTurnQuery = `
SELECT COALESCE(MAX(turn), -1) FROM arena_frames WHERE game_id = $1`

	upsertScoreQuery = `
INSERT INTO arena_scores (game_id, snake_id, name, points, length, score)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (game_id, snake_id) DO UPDATE SET
	name = EXCLUDED.name, points = EXCLUDED.points,
	length = EXCLUDED.length, score = EXCLUDED.score`

	leaderboardQuery = `
SELECT score FROM arena_scores
ORDER BY points DESC, length DESC, name ASC
LIMIT $1`
)

// Store is a postgres backed controller.Store.
type Store struct {
	db *sql.DB
}

// NewSQLStore connects to the database at url and creates the arena tables
// when they are missing.
func NewSQLStore(url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// transact runs fn in a transaction, committing when it returns nil.
func (s *Store) transact(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		p := recover()
		if p == nil && err == nil {
			err = errors.Wrap(tx.Commit(), "commit")
			return
		}
		if rErr := tx.Rollback(); rErr != nil {
			log.WithError(rErr).Error("rollback failed")
		}
		if p != nil {
			panic(p)
		}
	}()
	return fn(tx)
}

// Lock takes or renews the lock on key. An empty token asks for a new one.
func (s *Store) Lock(ctx context.Context, key, token string) (string, error) {
	if token == "" {
		token = uuid.NewV4().String()
	}
	now := time.Now()

	var got string
	err := s.db.QueryRowContext(ctx, lockQuery, key, token, now.Add(controller.LockExpiry), now).Scan(&got)
	switch {
	case err == sql.ErrNoRows:
		return "", controller.ErrIsLocked
	case err != nil:
		return "", errors.Wrapf(err, "lock %s", key)
	}
	return got, nil
}

// Unlock releases key when token holds it. Unlocking a free key is a no-op.
func (s *Store) Unlock(ctx context.Context, key, token string) error {
	now := time.Now()
	return s.transact(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, unlockQuery, key, token, now)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n > 0 {
			return err
		}

		var holder string
		switch err := tx.QueryRowContext(ctx, heldQuery, key, now).Scan(&holder); {
		case err == sql.ErrNoRows:
			return nil
		case err != nil:
			return err
		}
		return controller.ErrIsLocked
	})
}

// PopGameID returns the oldest running game nobody holds a lock on.
func (s *Store) PopGameID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, popQuery, rules.GameStatusRunning, time.Now()).Scan(&id)
	if err == sql.ErrNoRows {
		return "", controller.ErrNotFound
	}
	return id, err
}

// SetGameStatus moves a game to status.
func (s *Store) SetGameStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE arena_games SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return errors.Wrapf(err, "set status of %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return controller.ErrNotFound
	}
	return nil
}

// CreateGame stores g with its first frames, replacing any earlier copy.
func (s *Store) CreateGame(ctx context.Context, g *rules.Game, frames []*rules.Frame) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.transact(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertGameQuery, g.ID, g.Status, data); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM arena_frames WHERE game_id = $1`, g.ID); err != nil {
			return err
		}
		return insertFrames(ctx, tx, g.ID, frames)
	})
}

func insertFrames(ctx context.Context, tx *sql.Tx, id string, frames []*rules.Frame) error {
	var last int64
	if err := tx.QueryRowContext(ctx, lastTurnQuery, id).Scan(&last); err != nil {
		return err
	}
	if err := controller.CheckSequence(last, frames...); err != nil {
		return err
	}
	for _, f := range frames {
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO arena_frames (game_id, turn, frame) VALUES ($1, $2, $3)`,
			id, f.Turn, data); err != nil {
			return errors.Wrapf(err, "insert turn %d", f.Turn)
		}
	}
	return nil
}

// PushGameFrame appends f to the frames of game id.
func (s *Store) PushGameFrame(ctx context.Context, id string, f *rules.Frame) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		// The row lock orders concurrent pushes to one game.
		var found string
		err := tx.QueryRowContext(ctx, `SELECT id FROM arena_games WHERE id = $1 FOR UPDATE`, id).Scan(&found)
		if err == sql.ErrNoRows {
			return controller.ErrNotFound
		}
		if err != nil {
			return err
		}
		return insertFrames(ctx, tx, id, []*rules.Frame{f})
	})
}

// ListGameFrames lists the frames of game id, see controller.Window for the
// meaning of limit and offset.
func (s *Store) ListGameFrames(ctx context.Context, id string, limit, offset int) ([]*rules.Frame, error) {
	if _, err := s.GetGame(ctx, id); err != nil {
		return nil, err
	}

	order := "ASC"
	if offset < 0 {
		order = "DESC"
		offset = -offset - 1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT frame FROM arena_frames WHERE game_id = $1 ORDER BY turn `+order+` LIMIT $2 OFFSET $3`,
		id, nullLimit(limit), offset)
	if err != nil {
		return nil, errors.Wrapf(err, "list frames of %s", id)
	}

	var frames []*rules.Frame
	err = eachRow(rows, func(data []byte) error {
		f := &rules.Frame{}
		frames = append(frames, f)
		return json.Unmarshal(data, f)
	})
	return frames, err
}

// GetGame fetches game id with its current status.
func (s *Store) GetGame(ctx context.Context, id string) (*rules.Game, error) {
	var (
		status string
		data   []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT status, game FROM arena_games WHERE id = $1`, id).Scan(&status, &data)
	if err == sql.ErrNoRows {
		return nil, controller.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get game %s", id)
	}

	g := &rules.Game{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, errors.Wrapf(err, "decode game %s", id)
	}
	g.Status = status
	return g, nil
}

// SaveScores upserts one leaderboard row per snake and game.
func (s *Store) SaveScores(ctx context.Context, scores []rules.Score) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		for _, sc := range scores {
			data, err := json.Marshal(sc)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, upsertScoreQuery,
				sc.GameID, sc.SnakeID, sc.Name, sc.Points, sc.Length, data); err != nil {
				return errors.Wrapf(err, "save score of %s", sc.SnakeID)
			}
		}
		return nil
	})
}

// Leaderboard returns the best limit scores, all of them when limit <= 0.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]rules.Score, error) {
	rows, err := s.db.QueryContext(ctx, leaderboardQuery, nullLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "leaderboard")
	}

	scores := []rules.Score{}
	err = eachRow(rows, func(data []byte) error {
		var sc rules.Score
		if err := json.Unmarshal(data, &sc); err != nil {
			return err
		}
		scores = append(scores, sc)
		return nil
	})
	return scores, err
}

// nullLimit turns a non-positive limit into LIMIT NULL, which is no limit.
func nullLimit(limit int) interface{} {
	if limit > 0 {
		return limit
	}
	return nil
}

// eachRow calls fn with the single json column of every row.
func eachRow(rows *sql.Rows, fn func([]byte) error) error {
	defer rows.Close()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return err
		}
	}
	return rows.Err()
}
