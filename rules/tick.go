package rules

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Tick advances the world by one tick. AI snakes that are due to move decide
// concurrently against the state at the start of the tick, then every due
// snake moves and collides in registry order. Dead entities are removed and
// eaten food replaced before Tick returns.
func (w *World) Tick(input Input) error {
	w.Turn++
	w.Clock += w.Config.TickInterval()
	w.index()

	var movers []*Snake
	for _, s := range w.Snakes {
		if !s.Alive() {
			continue
		}
		if d, ok := input[s.ID]; ok && s.Player && d.Cardinal() {
			req := d
			s.requested = &req
		}
		if w.Clock-s.lastMove >= s.moveInterval(w.Config.BaseMoveInterval) {
			movers = append(movers, s)
		}
	}

	var g errgroup.Group
	for _, s := range movers {
		if s.Player {
			continue
		}
		s := s
		g.Go(func() error {
			d, err := w.decide(s)
			if err != nil {
				return err
			}
			s.next = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrapf(err, "turn %d", w.Turn)
	}

	for _, s := range movers {
		if !s.Alive() {
			continue
		}
		if s.Player {
			s.next = s.playerDirection()
		}
		w.move(s)
	}

	w.reap()
	w.flush()

	log.WithFields(log.Fields{
		"GameID": w.ID,
		"Turn":   w.Turn,
		"Moved":  len(movers),
		"Events": len(w.last),
	}).Debug("tick")
	return nil
}

// playerDirection applies the pending request unless it would reverse.
func (s *Snake) playerDirection() Direction {
	req := s.requested
	s.requested = nil
	if req == nil || *req == s.Dir.Opposite() {
		return s.Dir
	}
	return *req
}

func (w *World) move(s *Snake) {
	s.lastMove = w.Clock
	dx, dy := s.next.Delta()
	dest := s.Pos.Add(dx, dy)
	if !w.Grid.Contains(dest) {
		// Dir stays the last heading actually travelled.
		if s.Killable {
			w.kill(s, DeathCauseWallCollision)
		}
		return
	}
	s.Dir = s.next
	s.step(w.Grid, dest)
	w.collide(s, true)
}

// collide lets everything on the mover's new cell interact with it: heads,
// then tails, then food, then portals. A teleport is followed by one more
// round on the destination without portals.
func (w *World) collide(s *Snake, portals bool) {
	for _, o := range w.Snakes {
		if o != s && o.Alive() && o.Pos.Equal(s.Pos) {
			o.Interact(w, s)
			if !s.Alive() {
				return
			}
		}
	}
	for _, o := range w.Snakes {
		if !o.Alive() {
			continue
		}
		for _, t := range o.Tail {
			if t.Pos.Equal(s.Pos) {
				t.Interact(w, s)
				if !s.Alive() {
					return
				}
			}
		}
	}
	for _, f := range w.Food {
		if f.Alive() && f.Pos.Equal(s.Pos) {
			f.Interact(w, s)
		}
	}
	if !portals {
		return
	}
	for _, p := range w.Portals {
		if p.Alive() && p.Pos.Equal(s.Pos) {
			if p.teleport(w, s) {
				w.collide(s, false)
			}
			return
		}
	}
}

// reap removes the dead from the registry and the grid, then respawns AI
// snakes and food. Food that cannot be placed is retried next tick.
func (w *World) reap() {
	respawn := 0
	alive := w.Snakes[:0]
	for _, s := range w.Snakes {
		if s.Alive() {
			alive = append(alive, s)
			continue
		}
		w.Grid.Vacate(s.Pos)
		for _, t := range s.Tail {
			w.Grid.Vacate(t.Pos)
		}
		w.dead = append(w.dead, s)
		if w.Config.RespawnAI && !s.Player && !w.over {
			respawn++
		}
	}
	for i := len(alive); i < len(w.Snakes); i++ {
		w.Snakes[i] = nil
	}
	w.Snakes = alive

	food := w.Food[:0]
	for _, f := range w.Food {
		if f.Alive() {
			food = append(food, f)
			continue
		}
		w.foodDebt++
	}
	for i := len(food); i < len(w.Food); i++ {
		w.Food[i] = nil
	}
	w.Food = food

	for ; respawn > 0; respawn-- {
		if _, err := w.spawnSnake(false); err != nil {
			log.WithError(err).WithField("GameID", w.ID).Warn("ai respawn skipped")
			break
		}
	}
	for w.foodDebt > 0 {
		if _, err := w.spawnFood(); err != nil {
			log.WithError(err).WithField("GameID", w.ID).Warn("food respawn deferred")
			break
		}
		w.foodDebt--
	}
}
