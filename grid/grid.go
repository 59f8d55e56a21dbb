// Package grid holds the walkability map of the arena. Cells are addressed
// either by grid coordinate or by world (pixel) position.
package grid

import (
	"fmt"

	"github.com/pkg/errors"
)

// CellMultiple is the granularity every cell size must respect.
const CellMultiple = 4

// ErrInvalidDimensions is returned when the grid cannot be built from the
// screen and cell sizes given.
var ErrInvalidDimensions = errors.New("grid: invalid dimensions")

// Node is a single cell of the grid.
type Node struct {
	X        int
	Y        int
	Walkable bool

	occupants int
}

// Point returns the cell coordinate of the node.
func (n *Node) Point() Point { return Point{X: n.X, Y: n.Y} }

// Occupants is the number of blocking entities registered on the node.
func (n *Node) Occupants() int { return n.occupants }

// Grid is a dense 2D grid, index = y*Width + x.
type Grid struct {
	Width    int
	Height   int
	CellSize int

	nodes []Node
}

// New allocates a grid sized floor(screen / cellSize) in both axes.
func New(screenWidth, screenHeight, cellSize int) (*Grid, error) {
	if cellSize <= 0 || cellSize%CellMultiple != 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions,
			"cell size %d must be a positive multiple of %d", cellSize, CellMultiple)
	}
	w, h := screenWidth/cellSize, screenHeight/cellSize
	if w <= 0 || h <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions,
			"screen %dx%d is smaller than one %d cell", screenWidth, screenHeight, cellSize)
	}
	g := &Grid{
		Width:    w,
		Height:   h,
		CellSize: cellSize,
		nodes:    make([]Node, w*h),
	}
	g.Reset()
	return g, nil
}

// Reset makes every node walkable and clears occupancy.
func (g *Grid) Reset() {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			g.nodes[y*g.Width+x] = Node{X: x, Y: y, Walkable: true}
		}
	}
}

// Contains reports whether p lies inside the grid.
func (g *Grid) Contains(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Node returns the node at p. Looking outside the grid is a programming
// error, callers must check Contains first.
func (g *Grid) Node(p Point) *Node {
	if !g.Contains(p) {
		panic(fmt.Sprintf("grid: node %s out of bounds %dx%d", p, g.Width, g.Height))
	}
	return &g.nodes[p.Y*g.Width+p.X]
}

// NodeAt returns the node under a world (pixel) position.
func (g *Grid) NodeAt(worldX, worldY int) *Node {
	if worldX < 0 || worldY < 0 {
		panic(fmt.Sprintf("grid: world position (%d, %d) out of bounds", worldX, worldY))
	}
	return g.Node(Point{X: worldX / g.CellSize, Y: worldY / g.CellSize})
}

// WorldPos converts a cell to the pixel position of its top left corner.
func (g *Grid) WorldPos(p Point) (int, int) {
	return p.X * g.CellSize, p.Y * g.CellSize
}

// Walkable reports whether p is inside the grid and free of blockers.
func (g *Grid) Walkable(p Point) bool {
	if !g.Contains(p) {
		return false
	}
	return g.Node(p).Walkable
}

// SetWalkable forces the walkable flag of a cell.
func (g *Grid) SetWalkable(p Point, walkable bool) {
	g.Node(p).Walkable = walkable
}

// Occupy registers a blocking entity on p.
func (g *Grid) Occupy(p Point) {
	n := g.Node(p)
	n.occupants++
	n.Walkable = false
}

// Vacate removes a blocking entity from p. The cell becomes walkable once
// the last occupant left.
func (g *Grid) Vacate(p Point) {
	n := g.Node(p)
	if n.occupants > 0 {
		n.occupants--
	}
	if n.occupants == 0 {
		n.Walkable = true
	}
}

// Move shifts one occupant from one cell to another.
func (g *Grid) Move(from, to Point) {
	if from.Equal(to) {
		return
	}
	g.Vacate(from)
	g.Occupy(to)
}
