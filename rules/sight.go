package rules

import "github.com/nmurphy101/arena/grid"

// SightLine is one of the eight rays an agent looks along.
type SightLine struct {
	Dir  Direction  `json:"dir"`
	Open bool       `json:"open"`
	End  grid.Point `json:"end"`
}

// scan recomputes every sight line of s. If no cardinal line survives a full
// pass one more pass runs at the minimum range, then the range is restored.
func (w *World) scan(s *Snake) {
	w.scanPass(s, s.SightRange)
	if w.anyCardinalOpen(s) || s.SightRange <= s.Brain.MinSight {
		return
	}
	w.scanPass(s, s.Brain.MinSight)
}

func (w *World) anyCardinalOpen(s *Snake) bool {
	for _, d := range Cardinals {
		if s.Lines[d].Open {
			return true
		}
	}
	return false
}

func (w *World) scanPass(s *Snake, rng int) {
	for i := range s.Lines {
		d := Direction(i)
		dx, dy := d.Delta()
		s.Lines[i] = SightLine{Dir: d, Open: true, End: s.Pos.Add(dx*rng, dy*rng)}
	}
	s.Lines[s.Dir.Opposite()].Open = false

	for i := range s.Lines {
		if s.Lines[i].Open {
			s.Lines[i].Open = w.scanLine(s, Direction(i), rng)
		}
	}

	b := s.Brain
	if b.Difficulty >= b.Thresholds.DiagonalDifficulty && rng > b.MinSight {
		for _, d := range Cardinals {
			left, right := d.Flanks()
			if !s.Lines[left].Open && !s.Lines[right].Open {
				s.Lines[d].Open = false
			}
		}
	}
}

// scanLine walks a ray cell by cell and reports whether it stays open.
func (w *World) scanLine(s *Snake, d Direction, rng int) bool {
	dx, dy := d.Delta()
	b := s.Brain
	for step := 1; step <= rng; step++ {
		c := s.Pos.Add(dx*step, dy*step)
		if !w.Grid.Contains(c) {
			return false
		}
		blocker := w.blockerAt(s, c)
		if blocker == nil {
			if w.holdsGoal(s, c) {
				return true
			}
			continue
		}
		if p, ok := blocker.(*Portal); ok && w.portalShortcut(s, p) {
			b.secondary = p
			b.deadline = w.Clock + b.Thresholds.SecondaryTimeout
			return true
		}
		return false
	}
	return true
}

// holdsGoal reports whether c is the cell of the target or the active
// secondary target of s.
func (w *World) holdsGoal(s *Snake, c grid.Point) bool {
	if s.target != nil && s.target.base().Pos.Equal(c) {
		return true
	}
	if s.Brain == nil {
		return false
	}
	sec := s.Brain.secondary
	return sec != nil && sec.base().Pos.Equal(c)
}

// blockerAt returns the first living entity on c that obstructs s. Food,
// s itself, its first tail segment and its secondary target are ignored.
func (w *World) blockerAt(s *Snake, c grid.Point) Entity {
	for _, e := range w.cells[c] {
		if s.Brain != nil && e == s.Brain.secondary {
			continue
		}
		switch v := e.(type) {
		case *Food:
			continue
		case *Snake:
			if v == s {
				continue
			}
		case *TailSegment:
			if v.Owner == s && v.Index == 0 {
				continue
			}
		}
		return e
	}
	return nil
}

// portalShortcut reports whether going through p gets s to its target
// faster than the direct route.
func (w *World) portalShortcut(s *Snake, p *Portal) bool {
	b := s.Brain
	if s.target == nil || p.Pair == nil || b.Difficulty < b.Thresholds.PortalDifficulty {
		return false
	}
	if !p.Ready(w.Clock) {
		return false
	}
	target := s.target.base().Pos
	direct := s.Pos.Distance(target)
	via := s.Pos.Distance(p.Pos) + p.Pair.Pos.Distance(target)
	return via < direct
}
