package rules

import (
	"fmt"

	"github.com/nmurphy101/arena/grid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrSpawnExhausted means no free cell was found within the retry budget.
var ErrSpawnExhausted = errors.New("rules: no free cell to spawn on")

func (w *World) populate() error {
	for i := 0; i < w.Config.Players; i++ {
		if _, err := w.spawnSnake(true); err != nil {
			return errors.Wrapf(err, "spawning player %d", i+1)
		}
	}
	for i := 0; i < w.Config.AISnakes; i++ {
		if _, err := w.spawnSnake(false); err != nil {
			return errors.Wrapf(err, "spawning ai snake %d", i+1)
		}
	}
	if w.Config.Teleporters {
		for i := 0; i < w.Config.PortalPairs; i++ {
			if err := w.spawnPortals(); err != nil {
				return errors.Wrapf(err, "spawning portal pair %d", i+1)
			}
		}
	}
	for i := 0; i < w.Config.Food; i++ {
		if _, err := w.spawnFood(); err != nil {
			return errors.Wrapf(err, "spawning food %d", i+1)
		}
	}
	return nil
}

// free reports whether nothing living occupies p.
func (w *World) free(p grid.Point) bool {
	if !w.Grid.Walkable(p) {
		return false
	}
	for _, f := range w.Food {
		if f.Alive() && f.Pos.Equal(p) {
			return false
		}
	}
	for _, portal := range w.Portals {
		if portal.Alive() && portal.Pos.Equal(p) {
			return false
		}
	}
	return true
}

// freeCell probes random cells until one is free or the retries run out.
func (w *World) freeCell() (grid.Point, error) {
	for i := 0; i < w.Config.SpawnRetries; i++ {
		p := grid.Point{X: w.rng.Intn(w.Grid.Width), Y: w.rng.Intn(w.Grid.Height)}
		if w.free(p) {
			return p, nil
		}
	}
	log.WithFields(log.Fields{
		"GameID":  w.ID,
		"Turn":    w.Turn,
		"Retries": w.Config.SpawnRetries,
	}).Warn("spawn attempts exhausted")
	return grid.Point{}, errors.Wrapf(ErrSpawnExhausted, "%d attempts", w.Config.SpawnRetries)
}

func (w *World) spawnSnake(player bool) (*Snake, error) {
	p, err := w.freeCell()
	if err != nil {
		return nil, err
	}
	dir := Cardinals[w.rng.Intn(len(Cardinals))]
	var name string
	if player {
		name = fmt.Sprintf("player-%d", w.countPlayers()+1)
	} else {
		w.aiCount++
		name = fmt.Sprintf("ai-%d", w.aiCount)
	}
	return w.placeSnake(name, player, p, dir), nil
}

func (w *World) countPlayers() int {
	n := 0
	for _, s := range w.Snakes {
		if s.Player {
			n++
		}
	}
	for _, s := range w.dead {
		if s.Player {
			n++
		}
	}
	return n
}

// placeSnake registers a snake on p with its starting tail stacked under
// the head.
func (w *World) placeSnake(name string, player bool, p grid.Point, dir Direction) *Snake {
	cfg := w.Config
	s := &Snake{
		Base:       newBase(w.newID(), p),
		Name:       name,
		Player:     player,
		Color:      w.nextColor(),
		SightRange: cfg.SightRange,
		lastMove:   w.Clock,
	}
	s.Dir = dir
	if player {
		s.Speed = cfg.PlayerSpeed
		s.Killable = cfg.PlayerKillable
	} else {
		s.Speed = cfg.AISpeed
		s.Killable = cfg.AIKillable
		s.Brain = newDecisionBox(cfg)
	}
	w.Grid.Occupy(p)
	s.grow(w, cfg.StartLength)
	s.State = StateAlive
	w.Snakes = append(w.Snakes, s)
	w.emit(Event{Kind: EventSpawn, EntityID: s.ID, Entity: KindSnake, Cell: p})
	return s
}

func (w *World) spawnFood() (*Food, error) {
	p, err := w.freeCell()
	if err != nil {
		return nil, err
	}
	return w.placeFood(p), nil
}

func (w *World) placeFood(p grid.Point) *Food {
	f := &Food{
		Base:   newBase(w.newID(), p),
		Growth: w.Config.FoodGrowth,
		Points: w.Config.FoodPoints,
	}
	f.State = StateAlive
	w.Food = append(w.Food, f)
	w.emit(Event{Kind: EventSpawn, EntityID: f.ID, Entity: KindFood, Cell: p})
	return f
}

func (w *World) spawnPortals() error {
	a, err := w.freeCell()
	if err != nil {
		return err
	}
	first := w.placePortal(a)
	b, err := w.freeCell()
	if err != nil {
		first.State = StateDead
		return err
	}
	second := w.placePortal(b)
	first.Pair, second.Pair = second, first
	return nil
}

func (w *World) placePortal(p grid.Point) *Portal {
	portal := &Portal{
		Base:     newBase(w.newID(), p),
		Cooldown: w.Config.PortalCooldown,
	}
	portal.State = StateAlive
	w.Portals = append(w.Portals, portal)
	w.emit(Event{Kind: EventSpawn, EntityID: portal.ID, Entity: KindPortal, Cell: p})
	return portal
}

// placePortalPair links two portals placed on a and b.
func (w *World) placePortalPair(a, b grid.Point) (*Portal, *Portal) {
	first, second := w.placePortal(a), w.placePortal(b)
	first.Pair, second.Pair = second, first
	return first, second
}
