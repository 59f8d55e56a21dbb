package rules

import (
	"encoding/json"

	"github.com/nmurphy101/arena/grid"
	"github.com/pkg/errors"
)

// Direction is one of the four cardinal or four diagonal headings. Diagonals
// are only ever used by sight lines, never for movement.
type Direction int

// Directions, in sight line iteration order. The cardinal order Up, Right,
// Down, Left is also the fallback order of CheckIntent.
const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
	DirUpRight
	DirDownRight
	DirDownLeft
	DirUpLeft

	numDirections = 8
)

// Cardinals are the movement directions in fallback order.
var Cardinals = [...]Direction{DirUp, DirRight, DirDown, DirLeft}

var directionNames = [numDirections]string{
	"up", "right", "down", "left", "up-right", "down-right", "down-left", "up-left",
}

var directionDeltas = [numDirections]grid.Point{
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
	{X: 1, Y: -1},
	{X: 1, Y: 1},
	{X: -1, Y: 1},
	{X: -1, Y: -1},
}

// Delta is the cell offset of one step in the direction.
func (d Direction) Delta() (int, int) {
	p := directionDeltas[d]
	return p.X, p.Y
}

// Cardinal reports whether d can be used for movement.
func (d Direction) Cardinal() bool {
	return d >= DirUp && d <= DirLeft
}

// Valid reports whether d is one of the eight directions.
func (d Direction) Valid() bool {
	return d >= 0 && d < numDirections
}

// Opposite returns the 180 degree reverse.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	case DirUpRight:
		return DirDownLeft
	case DirDownLeft:
		return DirUpRight
	case DirDownRight:
		return DirUpLeft
	}
	return DirDownRight
}

// Flanks returns the two diagonals adjacent to a cardinal direction.
func (d Direction) Flanks() (Direction, Direction) {
	switch d {
	case DirUp:
		return DirUpLeft, DirUpRight
	case DirRight:
		return DirUpRight, DirDownRight
	case DirDown:
		return DirDownRight, DirDownLeft
	}
	return DirDownLeft, DirUpLeft
}

func (d Direction) String() string {
	if !d.Valid() {
		return "invalid"
	}
	return directionNames[d]
}

// ParseDirection maps "up", "right", ... to a Direction.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return DirUp, errors.Errorf("rules: unknown direction %q", s)
}

// MarshalJSON encodes the direction by name.
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a direction name.
func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// directionTo returns the cardinal step from one cell to an adjacent one.
func directionTo(from, to grid.Point) (Direction, bool) {
	for _, d := range Cardinals {
		dx, dy := d.Delta()
		if from.Add(dx, dy).Equal(to) {
			return d, true
		}
	}
	return DirUp, false
}
