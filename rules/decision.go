package rules

import (
	"time"

	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/grid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DecisionBox is the per-agent policy: which behaviours the difficulty
// unlocks, plus scratch state carried between decisions.
type DecisionBox struct {
	Thresholds config.DecisionBox
	Difficulty int
	MinSight   int

	secondary Entity
	deadline  time.Duration
	path      Path
}

func newDecisionBox(cfg config.Arena) *DecisionBox {
	return &DecisionBox{
		Thresholds: cfg.Decision,
		Difficulty: cfg.Difficulty,
		MinSight:   cfg.MinSightRange,
	}
}

// Secondary returns the active secondary target, if any.
func (b *DecisionBox) Secondary() Entity {
	return b.secondary
}

func (b *DecisionBox) expire(now time.Duration) {
	if b.secondary == nil {
		return
	}
	if now >= b.deadline || !b.secondary.base().Alive() {
		b.secondary = nil
	}
}

// forget drops the secondary target when it is one of the given entities.
func (b *DecisionBox) forget(entities ...Entity) {
	for _, e := range entities {
		if b.secondary == e {
			b.secondary = nil
			b.path.reset()
			return
		}
	}
}

func (b *DecisionBox) unlocked(threshold int) bool {
	return b.Difficulty >= threshold
}

// decide runs perception and picks the direction s commits to this tick.
// It only touches s and its decision box.
func (w *World) decide(s *Snake) (Direction, error) {
	b := s.Brain
	if b == nil {
		return s.Dir, errors.Errorf("rules: snake %s has no decision box", s.ID)
	}
	s.target = w.nearestFood(s.Pos)
	b.expire(w.Clock)
	w.scan(s)

	intent := s.Dir
	switch {
	case s.target == nil:
	case b.unlocked(b.Thresholds.AStarDifficulty):
		intent = w.astarIntent(s)
	case b.unlocked(b.Thresholds.SituationalDifficulty):
		intent = situationalIntent(s)
	default:
		intent = simpleIntent(s, s.target.base().Pos)
	}
	dir := CheckIntent(s, intent)

	log.WithFields(log.Fields{
		"GameID": w.ID,
		"Turn":   w.Turn,
		"Snake":  s.ID,
		"Intent": intent,
		"Dir":    dir,
	}).Debug("decision")
	return dir, nil
}

// CheckIntent turns an intent into a direction s can take: the intent when
// its line is open, else the first open cardinal that is not a reverse,
// else the intent itself unless that would reverse.
func CheckIntent(s *Snake, intent Direction) Direction {
	reverse := s.Dir.Opposite()
	if intent != reverse && s.Lines[intent].Open {
		return intent
	}
	for _, d := range Cardinals {
		if d != reverse && s.Lines[d].Open {
			return d
		}
	}
	if intent == reverse {
		return s.Dir
	}
	return intent
}

// simpleIntent closes the horizontal gap first.
func simpleIntent(s *Snake, target grid.Point) Direction {
	switch {
	case target.X > s.Pos.X:
		return DirRight
	case target.X < s.Pos.X:
		return DirLeft
	case target.Y > s.Pos.Y:
		return DirDown
	case target.Y < s.Pos.Y:
		return DirUp
	}
	return s.Dir
}

// situationalIntent closes the vertical gap first and heads for the
// secondary target while it is active.
func situationalIntent(s *Snake) Direction {
	target := s.target.base().Pos
	if sec := s.Brain.secondary; sec != nil {
		target = sec.base().Pos
	}
	switch {
	case target.Y > s.Pos.Y:
		return DirDown
	case target.Y < s.Pos.Y:
		return DirUp
	case target.X > s.Pos.X:
		return DirRight
	case target.X < s.Pos.X:
		return DirLeft
	}
	return s.Dir
}

func (w *World) astarIntent(s *Snake) Direction {
	b := s.Brain
	goal := s.target.base().Pos
	if b.secondary != nil {
		goal = b.secondary.base().Pos
	}
	if next, ok := b.path.next(w.Grid, s.Pos, goal); ok {
		if d, ok := directionTo(s.Pos, next); ok {
			return d
		}
	}
	if b.unlocked(b.Thresholds.SituationalDifficulty) {
		return situationalIntent(s)
	}
	return simpleIntent(s, s.target.base().Pos)
}

// nearestFood returns the closest living food, ties going to the first
// registered.
func (w *World) nearestFood(from grid.Point) Entity {
	var best *Food
	bestDist := 0.0
	for _, f := range w.Food {
		if !f.Alive() {
			continue
		}
		d := from.Distance(f.Pos)
		if best == nil || d < bestDist {
			best, bestDist = f, d
		}
	}
	if best == nil {
		return nil
	}
	return best
}
