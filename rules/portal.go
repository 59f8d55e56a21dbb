package rules

import "time"

// Portal moves a snake next to its pair. Both ends share one cooldown.
type Portal struct {
	Base
	Pair     *Portal
	Cooldown time.Duration

	lastUsed time.Duration
	used     bool
}

// Kind implements Entity.
func (p *Portal) Kind() Kind { return KindPortal }

// Ready reports whether the portal can be entered at now.
func (p *Portal) Ready(now time.Duration) bool {
	return !p.used || ready(now, p.lastUsed, p.Cooldown)
}

// Interact relocates the mover to the cell next to the pair on its side of
// travel. Entering during the cooldown does nothing.
func (p *Portal) Interact(w *World, mover *Snake) {
	p.teleport(w, mover)
}

// teleport reports whether the mover was relocated.
func (p *Portal) teleport(w *World, mover *Snake) bool {
	if !p.Alive() || p.Pair == nil || !p.Ready(w.Clock) {
		return false
	}
	dx, dy := mover.Dir.Delta()
	dest := p.Pair.Pos.Add(dx, dy)
	if !w.Grid.Contains(dest) {
		return false
	}

	w.Grid.Move(mover.Pos, dest)
	mover.Pos = dest
	p.stamp(w.Clock)
	p.Pair.stamp(w.Clock)
	if mover.Brain != nil {
		mover.Brain.forget(p, p.Pair)
	}
	w.emit(Event{
		Kind:     EventPortal,
		EntityID: mover.ID,
		Entity:   KindSnake,
		Cell:     dest,
	})
	return true
}

func (p *Portal) stamp(now time.Duration) {
	p.lastUsed = now
	p.used = true
}
