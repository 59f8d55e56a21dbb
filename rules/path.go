package rules

import (
	"github.com/nmurphy101/arena/grid"
	"github.com/nmurphy101/arena/pathfind"
)

// Path is an agent's cached route, consumed one cell at a time.
type Path struct {
	Goal  grid.Point
	Cells []grid.Point
}

// next returns the cell to step into from head on the way to goal,
// searching again when the cache is exhausted, aimed elsewhere or stale.
func (p *Path) next(w pathfind.Walker, head, goal grid.Point) (grid.Point, bool) {
	for len(p.Cells) > 0 && p.Cells[0].Equal(head) {
		p.Cells = p.Cells[1:]
	}
	if p.stale(w, head, goal) {
		p.Goal = goal
		p.Cells = pathfind.FindPath(w, head, goal)
	}
	if len(p.Cells) == 0 {
		return head, false
	}
	return p.Cells[0], true
}

func (p *Path) stale(w pathfind.Walker, head, goal grid.Point) bool {
	if len(p.Cells) == 0 || !p.Goal.Equal(goal) {
		return true
	}
	first := p.Cells[0]
	if !first.Adjacent(head) {
		return true
	}
	return !first.Equal(goal) && !w.Walkable(first)
}

func (p *Path) reset() {
	p.Cells = nil
}
