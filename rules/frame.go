package rules

import (
	"github.com/nmurphy101/arena/grid"
)

// Joint tells a renderer which sprite fits a body cell.
type Joint string

// Joint hints. Corners are named after the two neighbours they connect.
const (
	JointHead       Joint = "head"
	JointHorizontal Joint = "horizontal"
	JointVertical   Joint = "vertical"
	JointUpRight    Joint = "up-right"
	JointRightDown  Joint = "right-down"
	JointDownLeft   Joint = "down-left"
	JointLeftUp     Joint = "left-up"
	JointTip        Joint = "tip"
)

// Segment is one drawn body cell.
type Segment struct {
	X      int   `json:"x"`
	Y      int   `json:"y"`
	PixelX int   `json:"pixelX"`
	PixelY int   `json:"pixelY"`
	Joint  Joint `json:"joint"`
}

// SnakeView is a snake as seen by presentation and persistence.
type SnakeView struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Player bool      `json:"player"`
	Color  string    `json:"color"`
	State  State     `json:"state"`
	Dir    Direction `json:"dir"`
	Score  int       `json:"score"`
	Length int       `json:"length"`
	Death  *Death    `json:"death,omitempty"`
	Body   []Segment `json:"body,omitempty"`
}

// Head returns the first body cell.
func (s SnakeView) Head() (Segment, bool) {
	if len(s.Body) == 0 {
		return Segment{}, false
	}
	return s.Body[0], true
}

// EntityView is a food or portal as seen by presentation.
type EntityView struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	State  State  `json:"state"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	PixelX int    `json:"pixelX"`
	PixelY int    `json:"pixelY"`
	Pair   string `json:"pair,omitempty"`
}

// Frame is the observable state after a tick.
type Frame struct {
	Turn    int64        `json:"turn"`
	Snakes  []SnakeView  `json:"snakes"`
	Food    []EntityView `json:"food"`
	Portals []EntityView `json:"portals"`
	Events  []Event      `json:"events,omitempty"`
}

// AliveSnakes returns the snakes without a death.
func (f *Frame) AliveSnakes() []SnakeView {
	var alive []SnakeView
	for _, s := range f.Snakes {
		if s.Death == nil {
			alive = append(alive, s)
		}
	}
	return alive
}

// Snake looks a snake up by id.
func (f *Frame) Snake(id string) (SnakeView, bool) {
	for _, s := range f.Snakes {
		if s.ID == id {
			return s, true
		}
	}
	return SnakeView{}, false
}

// Frame snapshots the world. Snakes that died this turn keep their body so
// the death can be drawn; older deaths are listed without one.
func (w *World) Frame() *Frame {
	f := &Frame{
		Turn:   w.Turn,
		Events: append([]Event(nil), w.last...),
	}
	for _, s := range w.Snakes {
		f.Snakes = append(f.Snakes, w.snakeView(s, true))
	}
	for _, s := range w.dead {
		withBody := s.Death != nil && s.Death.Turn == w.Turn
		f.Snakes = append(f.Snakes, w.snakeView(s, withBody))
	}
	for _, food := range w.Food {
		f.Food = append(f.Food, w.entityView(&food.Base, KindFood, ""))
	}
	for _, p := range w.Portals {
		if !p.Alive() {
			continue
		}
		pair := ""
		if p.Pair != nil {
			pair = p.Pair.ID
		}
		f.Portals = append(f.Portals, w.entityView(&p.Base, KindPortal, pair))
	}
	return f
}

func (w *World) snakeView(s *Snake, withBody bool) SnakeView {
	v := SnakeView{
		ID:     s.ID,
		Name:   s.Name,
		Player: s.Player,
		Color:  s.Color,
		State:  s.State,
		Dir:    s.Dir,
		Score:  s.Score,
		Length: s.Length(),
	}
	if s.Death != nil {
		d := *s.Death
		v.Death = &d
	}
	if !withBody {
		return v
	}
	v.Body = append(v.Body, w.segment(s.Pos, JointHead))
	for i, t := range s.Tail {
		v.Body = append(v.Body, w.segment(t.Pos, jointOf(s, i)))
	}
	return v
}

func (w *World) segment(p grid.Point, j Joint) Segment {
	px, py := w.Grid.WorldPos(p)
	return Segment{X: p.X, Y: p.Y, PixelX: px, PixelY: py, Joint: j}
}

func (w *World) entityView(b *Base, kind Kind, pair string) EntityView {
	px, py := w.Grid.WorldPos(b.Pos)
	return EntityView{
		ID:     b.ID,
		Kind:   kind,
		State:  b.State,
		X:      b.Pos.X,
		Y:      b.Pos.Y,
		PixelX: px,
		PixelY: py,
		Pair:   pair,
	}
}

// jointOf picks the sprite of tail segment i from the cells in front of and
// behind it. Stacked or teleported neighbours are ignored.
func jointOf(s *Snake, i int) Joint {
	if i == len(s.Tail)-1 {
		return JointTip
	}
	pos := s.Tail[i].Pos
	front := s.Pos
	if i > 0 {
		front = s.Tail[i-1].Pos
	}
	back := s.Tail[i+1].Pos

	a, okA := directionTo(pos, front)
	b, okB := directionTo(pos, back)
	switch {
	case okA && okB:
		return corner(a, b)
	case okA:
		return straight(a)
	case okB:
		return straight(b)
	}
	return straight(s.Dir)
}

func straight(d Direction) Joint {
	if d == DirLeft || d == DirRight {
		return JointHorizontal
	}
	return JointVertical
}

func corner(a, b Direction) Joint {
	if a == b.Opposite() {
		return straight(a)
	}
	has := func(d Direction) bool { return a == d || b == d }
	switch {
	case has(DirUp) && has(DirRight):
		return JointUpRight
	case has(DirRight) && has(DirDown):
		return JointRightDown
	case has(DirDown) && has(DirLeft):
		return JointDownLeft
	}
	return JointLeftUp
}
