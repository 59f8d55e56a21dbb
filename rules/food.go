package rules

// Food grows whoever eats it and is replaced at the end of the tick.
type Food struct {
	Base
	Growth int
	Points int
}

// Kind implements Entity.
func (f *Food) Kind() Kind { return KindFood }

// Interact feeds the mover.
func (f *Food) Interact(w *World, mover *Snake) {
	if !f.Alive() {
		return
	}
	mover.grow(w, f.Growth)
	mover.Score += f.Points
	f.State = StateDead
	w.emit(Event{
		Kind:     EventPickup,
		EntityID: mover.ID,
		Entity:   KindSnake,
		Cell:     f.Pos,
	})
}
