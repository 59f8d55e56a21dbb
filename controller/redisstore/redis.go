// Package redisstore implements controller.Store on top of redis. Lock and
// frame writes run as lua scripts so they stay atomic across workers.
package redisstore

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis"
	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

const (
	runningKey     = "games:running"
	leaderboardKey = "leaderboard"
)

func gameKey(id string) string   { return "game:" + id }
func statusKey(id string) string { return "game:" + id + ":status" }
func framesKey(id string) string { return "game:" + id + ":frames" }
func turnKey(id string) string   { return "game:" + id + ":turn" }
func lockKey(key string) string  { return "lock:" + key }

// lockScript takes or refreshes a lock. It returns the token, or 0 when the
// lock belongs to someone else.
var lockScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur and cur ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[2]) > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
else
	redis.call("DEL", KEYS[1])
end
return ARGV[1]
`)

// unlockScript returns 0 when the lock belongs to someone else.
var unlockScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then
	return 1
end
if cur ~= ARGV[1] then
	return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

// pushScript appends a frame when its turn follows the last stored one.
// Returns -2 for a missing game and -1 for a bad sequence.
var pushScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -2
end
local last = tonumber(redis.call("GET", KEYS[3]) or "-1")
if tonumber(ARGV[1]) ~= last + 1 then
	return -1
end
redis.call("RPUSH", KEYS[2], ARGV[2])
redis.call("SET", KEYS[3], ARGV[1])
return 1
`)

// Store is a redis backed controller.Store.
type Store struct {
	client *redis.Client
}

// NewStore will create a new instance of an underlying redis client, so it should not be re-created across "threads"
// - connectURL see: github.com/go-redis/redis/options.go for URL specifics
// The underlying redis client will be immediately tested for connectivity, so don't call this until you know redis can connect.
func NewStore(connectURL string) (*Store, error) {
	o, err := redis.ParseURL(connectURL)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse redis URL")
	}

	client := redis.NewClient(o)

	// Validate it's connected
	err = client.Ping().Err()
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect")
	}

	return &Store{client: client}, nil
}

// Close closes the underlying client.
func (rs *Store) Close() error {
	return rs.client.Close()
}

// Lock will lock a specific game, returning a token that must be used to
// write frames to the game.
func (rs *Store) Lock(ctx context.Context, key, token string) (string, error) {
	if token == "" {
		token = uuid.NewV4().String()
	}
	ms := int64(controller.LockExpiry / time.Millisecond)
	res, err := lockScript.Run(rs.client, []string{lockKey(key)}, token, strconv.FormatInt(ms, 10)).Result()
	if err != nil {
		return "", errors.Wrap(err, "lock")
	}
	if got, ok := res.(string); ok && got == token {
		return token, nil
	}
	return "", controller.ErrIsLocked
}

// Unlock will unlock a game if it is locked and the token used to lock it
// is correct.
func (rs *Store) Unlock(ctx context.Context, key, token string) error {
	res, err := unlockScript.Run(rs.client, []string{lockKey(key)}, token).Result()
	if err != nil {
		return errors.Wrap(err, "unlock")
	}
	if n, ok := res.(int64); ok && n == 0 {
		return controller.ErrIsLocked
	}
	return nil
}

// PopGameID returns a running game that is unlocked. Workers call this
// method through the controller to find games to process.
func (rs *Store) PopGameID(ctx context.Context) (string, error) {
	ids, err := rs.client.SMembers(runningKey).Result()
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		n, err := rs.client.Exists(lockKey(id)).Result()
		if err != nil {
			return "", err
		}
		if n == 0 {
			return id, nil
		}
	}
	return "", controller.ErrNotFound
}

// SetGameStatus is used to set a specific game status.
func (rs *Store) SetGameStatus(c context.Context, id, status string) error {
	if err := rs.requireGame(id); err != nil {
		return err
	}
	_, err := rs.client.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Set(statusKey(id), status, 0)
		if status == rules.GameStatusRunning {
			pipe.SAdd(runningKey, id)
		} else {
			pipe.SRem(runningKey, id)
		}
		return nil
	})
	return err
}

// CreateGame will insert a game with the initial game frames, replacing any
// game with the same id.
func (rs *Store) CreateGame(c context.Context, g *rules.Game, frames []*rules.Frame) error {
	if err := controller.CheckSequence(-1, frames...); err != nil {
		return err
	}
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	encoded := make([]interface{}, 0, len(frames))
	for _, f := range frames {
		b, err := json.Marshal(f)
		if err != nil {
			return err
		}
		encoded = append(encoded, b)
	}

	_, err = rs.client.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Set(gameKey(g.ID), data, 0)
		pipe.Set(statusKey(g.ID), g.Status, 0)
		pipe.Del(framesKey(g.ID), turnKey(g.ID))
		if len(encoded) > 0 {
			pipe.RPush(framesKey(g.ID), encoded...)
			pipe.Set(turnKey(g.ID), len(encoded)-1, 0)
		}
		if g.Status == rules.GameStatusRunning {
			pipe.SAdd(runningKey, g.ID)
		} else {
			pipe.SRem(runningKey, g.ID)
		}
		return nil
	})
	return err
}

// PushGameFrame will push a game frame onto the list of frames.
func (rs *Store) PushGameFrame(c context.Context, id string, f *rules.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	res, err := pushScript.Run(rs.client,
		[]string{gameKey(id), framesKey(id), turnKey(id)},
		strconv.FormatInt(f.Turn, 10), string(data),
	).Result()
	if err != nil {
		return errors.Wrap(err, "push frame")
	}
	switch n, _ := res.(int64); n {
	case -2:
		return controller.ErrNotFound
	case -1:
		return errors.Wrapf(controller.ErrInvalidSequence, "turn %d", f.Turn)
	}
	return nil
}

// ListGameFrames will list frames by an offset and limit, it supports
// negative offset.
func (rs *Store) ListGameFrames(c context.Context, id string, limit, offset int) ([]*rules.Frame, error) {
	if err := rs.requireGame(id); err != nil {
		return nil, err
	}
	raw, err := rs.client.LRange(framesKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	frames := make([]*rules.Frame, 0, len(raw))
	for _, r := range raw {
		f := &rules.Frame{}
		if err := json.Unmarshal([]byte(r), f); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return controller.Window(frames, limit, offset), nil
}

// GetGame will fetch the game.
func (rs *Store) GetGame(c context.Context, id string) (*rules.Game, error) {
	data, err := rs.client.Get(gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, controller.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g := &rules.Game{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, err
	}
	status, err := rs.client.Get(statusKey(id)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if status != "" {
		g.Status = status
	}
	return g, nil
}

// SaveScores adds the scores to the leaderboard sorted set.
func (rs *Store) SaveScores(c context.Context, scores []rules.Score) error {
	members := make([]redis.Z, 0, len(scores))
	for _, s := range scores {
		b, err := json.Marshal(s)
		if err != nil {
			return err
		}
		members = append(members, redis.Z{Score: float64(s.Points), Member: string(b)})
	}
	if len(members) == 0 {
		return nil
	}
	return rs.client.ZAdd(leaderboardKey, members...).Err()
}

// Leaderboard returns the best limit scores.
func (rs *Store) Leaderboard(c context.Context, limit int) ([]rules.Score, error) {
	raw, err := rs.client.ZRevRange(leaderboardKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	scores := make([]rules.Score, 0, len(raw))
	for _, r := range raw {
		var s rules.Score
		if err := json.Unmarshal([]byte(r), &s); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return controller.TopScores(scores, limit), nil
}

func (rs *Store) requireGame(id string) error {
	n, err := rs.client.Exists(gameKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return controller.ErrNotFound
	}
	return nil
}
