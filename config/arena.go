// Package config holds the arena settings read once at game start, plus a
// handful of engine tuning knobs read from the environment.
package config

import (
	"io/ioutil"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// CellMultiple is the granularity every cell size must respect.
const CellMultiple = 4

// ErrConfiguration is the cause of every fatal configuration problem.
var ErrConfiguration = errors.New("config: invalid configuration")

// DecisionBox holds the difficulty thresholds of the AI decision engine. A
// feature is used when the arena difficulty is at least its threshold.
type DecisionBox struct {
	SituationalDifficulty int           `json:"situationalDifficulty" yaml:"situational_difficulty"`
	PortalDifficulty      int           `json:"portalDifficulty" yaml:"portal_difficulty"`
	DiagonalDifficulty    int           `json:"diagonalDifficulty" yaml:"diagonal_difficulty"`
	AStarDifficulty       int           `json:"astarDifficulty" yaml:"astar_difficulty"`
	SecondaryTimeout      time.Duration `json:"secondaryTimeout" yaml:"secondary_timeout"`
}

// Arena is the immutable snapshot of everything a game needs to start.
type Arena struct {
	ScreenWidth  int `json:"screenWidth" yaml:"screen_width"`
	ScreenHeight int `json:"screenHeight" yaml:"screen_height"`
	CellSize     int `json:"cellSize" yaml:"cell_size"`

	Players  int `json:"players" yaml:"players"`
	AISnakes int `json:"aiSnakes" yaml:"ai_snakes"`

	Food       int `json:"food" yaml:"food"`
	FoodGrowth int `json:"foodGrowth" yaml:"food_growth"`
	FoodPoints int `json:"foodPoints" yaml:"food_points"`

	Teleporters    bool          `json:"teleporters" yaml:"teleporters"`
	PortalPairs    int           `json:"portalPairs" yaml:"portal_pairs"`
	PortalCooldown time.Duration `json:"portalCooldown" yaml:"portal_cooldown"`

	TickRate         int           `json:"tickRate" yaml:"tick_rate"`
	BaseMoveInterval time.Duration `json:"baseMoveInterval" yaml:"base_move_interval"`
	PlayerSpeed      float64       `json:"playerSpeed" yaml:"player_speed"`
	AISpeed          float64       `json:"aiSpeed" yaml:"ai_speed"`

	Difficulty    int `json:"difficulty" yaml:"difficulty"`
	SightRange    int `json:"sightRange" yaml:"sight_range"`
	MinSightRange int `json:"minSightRange" yaml:"min_sight_range"`
	StartLength   int `json:"startLength" yaml:"start_length"`

	PlayerKillable bool `json:"playerKillable" yaml:"player_killable"`
	AIKillable     bool `json:"aiKillable" yaml:"ai_killable"`
	RespawnAI      bool `json:"respawnAI" yaml:"respawn_ai"`

	SpawnRetries int   `json:"spawnRetries" yaml:"spawn_retries"`
	MaxTurns     int   `json:"maxTurns" yaml:"max_turns"`
	Seed         int64 `json:"seed" yaml:"seed"`

	Decision DecisionBox `json:"decision" yaml:"decision"`
}

// Default returns the stock arena.
func Default() Arena {
	return Arena{
		ScreenWidth:  640,
		ScreenHeight: 480,
		CellSize:     16,

		Players:  0,
		AISnakes: 4,

		Food:       3,
		FoodGrowth: 1,
		FoodPoints: 1,

		Teleporters:    true,
		PortalPairs:    1,
		PortalCooldown: 2 * time.Second,

		TickRate:         30,
		BaseMoveInterval: 100 * time.Millisecond,
		PlayerSpeed:      1,
		AISpeed:          1,

		Difficulty:    3,
		SightRange:    4,
		MinSightRange: 1,
		StartLength:   2,

		PlayerKillable: true,
		AIKillable:     true,
		RespawnAI:      false,

		SpawnRetries: 1000,
		MaxTurns:     10000,

		Decision: DecisionBox{
			SituationalDifficulty: 1,
			PortalDifficulty:      2,
			DiagonalDifficulty:    3,
			AStarDifficulty:       5,
			SecondaryTimeout:      3 * time.Second,
		},
	}
}

// TickInterval is the simulated time between two ticks.
func (a Arena) TickInterval() time.Duration {
	if a.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(a.TickRate)
}

// Validate reports the first fatal problem with the arena.
func (a Arena) Validate() error {
	switch {
	case a.CellSize <= 0 || a.CellSize%CellMultiple != 0:
		return errors.Wrapf(ErrConfiguration, "cell size %d must be a positive multiple of %d", a.CellSize, CellMultiple)
	case a.ScreenWidth < a.CellSize || a.ScreenHeight < a.CellSize:
		return errors.Wrapf(ErrConfiguration, "screen %dx%d smaller than a cell", a.ScreenWidth, a.ScreenHeight)
	case a.Food <= 0:
		return errors.Wrap(ErrConfiguration, "food count must be positive")
	case a.FoodGrowth < 0 || a.FoodPoints < 0:
		return errors.Wrap(ErrConfiguration, "food growth and points cannot be negative")
	case a.Players < 0 || a.AISnakes < 0 || a.Players+a.AISnakes == 0:
		return errors.Wrap(ErrConfiguration, "at least one snake is required")
	case a.TickRate <= 0:
		return errors.Wrap(ErrConfiguration, "tick rate must be positive")
	case a.BaseMoveInterval <= 0:
		return errors.Wrap(ErrConfiguration, "base move interval must be positive")
	case a.PlayerSpeed <= 0 || a.AISpeed <= 0:
		return errors.Wrap(ErrConfiguration, "speed modifiers must be positive")
	case a.MinSightRange <= 0 || a.SightRange < a.MinSightRange:
		return errors.Wrapf(ErrConfiguration, "sight range %d must be at least the minimum %d (>0)", a.SightRange, a.MinSightRange)
	case a.StartLength < 0:
		return errors.Wrap(ErrConfiguration, "start length cannot be negative")
	case a.SpawnRetries <= 0:
		return errors.Wrap(ErrConfiguration, "spawn retries must be positive")
	case a.Teleporters && a.PortalPairs <= 0:
		return errors.Wrap(ErrConfiguration, "teleporters enabled without portal pairs")
	}
	cells := (a.ScreenWidth / a.CellSize) * (a.ScreenHeight / a.CellSize)
	need := a.Food + (a.Players+a.AISnakes)*(1+a.StartLength)
	if a.Teleporters {
		need += 2 * a.PortalPairs
	}
	if need > cells {
		return errors.Wrapf(ErrConfiguration, "%d entities do not fit in %d cells", need, cells)
	}
	return nil
}

// Load builds an arena from the defaults, an optional YAML file and the
// environment, in that order, and validates the result.
func Load(path string) (Arena, error) {
	a := Default()
	if path != "" {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return a, errors.Wrapf(err, "reading arena config %s", path)
		}
		if err := yaml.Unmarshal(data, &a); err != nil {
			return a, errors.Wrapf(ErrConfiguration, "parsing %s: %v", path, err)
		}
	}
	a = FromEnv(a)
	return a, a.Validate()
}

// FromEnv applies ARENA_* environment overrides on top of a.
func FromEnv(a Arena) Arena {
	a.ScreenWidth = getEnvInt("ARENA_SCREEN_WIDTH", a.ScreenWidth)
	a.ScreenHeight = getEnvInt("ARENA_SCREEN_HEIGHT", a.ScreenHeight)
	a.CellSize = getEnvInt("ARENA_CELL_SIZE", a.CellSize)
	a.Players = getEnvInt("ARENA_PLAYERS", a.Players)
	a.AISnakes = getEnvInt("ARENA_AI_SNAKES", a.AISnakes)
	a.Food = getEnvInt("ARENA_FOOD", a.Food)
	a.Teleporters = getEnvBool("ARENA_TELEPORTERS", a.Teleporters)
	a.TickRate = getEnvInt("ARENA_TICK_RATE", a.TickRate)
	a.PlayerSpeed = getEnvFloat("ARENA_PLAYER_SPEED", a.PlayerSpeed)
	a.AISpeed = getEnvFloat("ARENA_AI_SPEED", a.AISpeed)
	a.Difficulty = getEnvInt("ARENA_DIFFICULTY", a.Difficulty)
	a.PlayerKillable = getEnvBool("ARENA_PLAYER_KILLABLE", a.PlayerKillable)
	a.AIKillable = getEnvBool("ARENA_AI_KILLABLE", a.AIKillable)
	a.MaxTurns = getEnvInt("ARENA_MAX_TURNS", a.MaxTurns)
	return a
}

// LoadEnvFile loads the first .env file found, environment variables only
// otherwise.
func LoadEnvFile(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			log.WithField("path", p).Info("loaded environment file")
			loadTuning()
			return
		}
	}
	log.Debug("no .env file found, using environment variables only")
}
