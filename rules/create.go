package rules

import (
	"time"

	"github.com/nmurphy101/arena/config"
	uuid "github.com/satori/go.uuid"
)

// GameMode represents the mode the game is running in
type GameMode string

const (
	// GameModeSinglePlayer ends the game when the player snakes are dead, or
	// the only snake when there are no players
	GameModeSinglePlayer GameMode = "single-player"
	// GameModeMultiPlayer runs until there is zero or one snakes left alive
	GameModeMultiPlayer GameMode = "multi-player"
)

// Game is the stored description of one arena run. Its world is rebuilt
// from Config, which always carries the seed.
type Game struct {
	ID      string       `json:"id"`
	Status  string       `json:"status"`
	Mode    GameMode     `json:"mode"`
	Config  config.Arena `json:"config"`
	Created time.Time    `json:"created"`
}

// ModeFor derives the game mode from an arena config.
func ModeFor(cfg config.Arena) GameMode {
	if cfg.Players > 0 || cfg.Players+cfg.AISnakes == 1 {
		return GameModeSinglePlayer
	}
	return GameModeMultiPlayer
}

// CreateInitialGame validates cfg, fixes its seed and returns the stopped
// game together with its first frame.
func CreateInitialGame(cfg config.Arena) (*Game, *Frame, error) {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	game := &Game{
		ID:      uuid.NewV4().String(),
		Status:  GameStatusStopped,
		Mode:    ModeFor(cfg),
		Config:  cfg,
		Created: time.Now().UTC(),
	}
	w, err := NewWorld(game.ID, cfg)
	if err != nil {
		return nil, nil, err
	}
	return game, w.Frame(), nil
}

// Resume rebuilds the world of game and fast-forwards it to turn. Worlds
// are deterministic for an id and seed, so the result matches the stored
// frames.
func Resume(game *Game, turn int64) (*World, error) {
	w, err := NewWorld(game.ID, game.Config)
	if err != nil {
		return nil, err
	}
	for w.Turn < turn && !w.Over() {
		if err := w.Tick(nil); err != nil {
			return nil, err
		}
	}
	return w, nil
}
