package rules

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/grid"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

// Input maps a player snake id to the direction requested this tick.
type Input map[string]Direction

// World owns the grid and every entity of one game. It is not safe for
// concurrent use, Tick does its own fan-out internally.
type World struct {
	ID     string
	Config config.Arena
	Grid   *grid.Grid
	Turn   int64
	Clock  time.Duration

	Snakes  []*Snake
	Food    []*Food
	Portals []*Portal
	Events  *Dispatcher

	rng       *rand.Rand
	namespace uuid.UUID
	seq       int
	colors    int
	aiCount   int
	foodDebt  int
	over      bool

	cells   map[grid.Point][]Entity
	pending []Event
	last    []Event
	dead    []*Snake
	results []Score
}

// NewWorld validates cfg and populates a fresh world: players, AI snakes,
// portal pairs and food, in that order. The same id and seed always give
// the same world.
func NewWorld(id string, cfg config.Arena) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w, err := newWorld(id, cfg)
	if err != nil {
		return nil, err
	}
	if err := w.populate(); err != nil {
		return nil, err
	}
	w.flush()
	log.WithFields(log.Fields{
		"GameID":  id,
		"Width":   w.Grid.Width,
		"Height":  w.Grid.Height,
		"Snakes":  len(w.Snakes),
		"Food":    len(w.Food),
		"Portals": len(w.Portals),
	}).Info("world created")
	return w, nil
}

// newWorld builds an empty world on a fresh grid.
func newWorld(id string, cfg config.Arena) (*World, error) {
	g, err := grid.New(cfg.ScreenWidth, cfg.ScreenHeight, cfg.CellSize)
	if err != nil {
		return nil, err
	}
	return &World{
		ID:        id,
		Config:    cfg,
		Grid:      g,
		Events:    NewDispatcher(),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		namespace: uuid.NewV5(uuid.NamespaceOID, id),
	}, nil
}

// newID derives entity ids from the world id so replays are stable.
func (w *World) newID() string {
	w.seq++
	return uuid.NewV5(w.namespace, strconv.Itoa(w.seq)).String()
}

// Mode reports how the end of the game is decided.
func (w *World) Mode() GameMode {
	return ModeFor(w.Config)
}

// AliveSnakes returns the snakes still in play.
func (w *World) AliveSnakes() []*Snake {
	var alive []*Snake
	for _, s := range w.Snakes {
		if s.Alive() {
			alive = append(alive, s)
		}
	}
	return alive
}

// Snake looks a snake up by id.
func (w *World) Snake(id string) *Snake {
	for _, s := range w.Snakes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Over reports whether the game has ended.
func (w *World) Over() bool {
	if w.over {
		return true
	}
	if w.Config.MaxTurns > 0 && w.Turn >= int64(w.Config.MaxTurns) {
		return true
	}
	return CheckForGameOver(w.Mode(), w.Frame())
}

// GameOver kills every living snake and ends the game.
func (w *World) GameOver() {
	for _, s := range w.Snakes {
		w.kill(s, DeathCauseGameOver)
	}
	w.over = true
	w.emit(Event{Kind: EventGameOver})
	w.flush()
}

func (w *World) kill(s *Snake, cause string) {
	if !s.Alive() {
		return
	}
	s.State = StateDead
	for _, t := range s.Tail {
		t.State = StateDead
	}
	s.Death = &Death{Turn: w.Turn, Cause: cause}
	w.results = append(w.results, s.score())
	w.emit(Event{
		Kind:     EventDeath,
		EntityID: s.ID,
		Entity:   KindSnake,
		Cell:     s.Pos,
		Cause:    cause,
	})
	log.WithFields(log.Fields{
		"GameID": w.ID,
		"Turn":   w.Turn,
		"Snake":  s.Name,
		"Cause":  cause,
		"Score":  s.Score,
	}).Info("snake died")
}

func (w *World) emit(e Event) {
	e.Turn = w.Turn
	w.pending = append(w.pending, e)
}

// flush hands the events of the current tick to the dispatcher.
func (w *World) flush() {
	for _, e := range w.pending {
		w.Events.Emit(e)
	}
	w.last = w.pending
	w.pending = nil
}

// index snapshots which living entities sit on which cell. Perception reads
// it while agents decide concurrently.
func (w *World) index() {
	w.cells = make(map[grid.Point][]Entity, len(w.Snakes)*4+len(w.Food)+len(w.Portals))
	add := func(e Entity) {
		p := e.base().Pos
		w.cells[p] = append(w.cells[p], e)
	}
	for _, s := range w.Snakes {
		if !s.Alive() {
			continue
		}
		add(s)
		for _, t := range s.Tail {
			add(t)
		}
	}
	for _, f := range w.Food {
		if f.Alive() {
			add(f)
		}
	}
	for _, p := range w.Portals {
		if p.Alive() {
			add(p)
		}
	}
}
