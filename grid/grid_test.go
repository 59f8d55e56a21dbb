package grid

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNewDimensions(t *testing.T) {
	g, err := New(640, 480, 16)
	require.NoError(t, err)
	require.Equal(t, 40, g.Width)
	require.Equal(t, 30, g.Height)

	g, err = New(650, 490, 16)
	require.NoError(t, err)
	require.Equal(t, 40, g.Width, "dimensions are floored")
	require.Equal(t, 30, g.Height)
}

func TestNewInvalidCellSize(t *testing.T) {
	for _, size := range []int{0, -4, 6, 10} {
		_, err := New(640, 480, size)
		require.Error(t, err)
		require.Equal(t, ErrInvalidDimensions, errors.Cause(err))
	}
	_, err := New(8, 8, 16)
	require.Equal(t, ErrInvalidDimensions, errors.Cause(err))
}

func TestNodeAt(t *testing.T) {
	g, err := New(64, 64, 8)
	require.NoError(t, err)

	n := g.NodeAt(17, 9)
	require.Equal(t, Point{X: 2, Y: 1}, n.Point())

	x, y := g.WorldPos(Point{X: 3, Y: 5})
	require.Equal(t, 24, x)
	require.Equal(t, 40, y)
}

func TestNodeOutOfBoundsPanics(t *testing.T) {
	g, err := New(64, 64, 8)
	require.NoError(t, err)

	require.Panics(t, func() { g.Node(Point{X: 8, Y: 0}) })
	require.Panics(t, func() { g.NodeAt(-1, 0) })
	require.False(t, g.Walkable(Point{X: -1, Y: 3}))
}

func TestOccupancy(t *testing.T) {
	g, err := New(64, 64, 8)
	require.NoError(t, err)
	p := Point{X: 1, Y: 1}

	g.Occupy(p)
	g.Occupy(p)
	require.False(t, g.Walkable(p))

	g.Vacate(p)
	require.False(t, g.Walkable(p), "second occupant still blocks")
	g.Vacate(p)
	require.True(t, g.Walkable(p))

	g.Vacate(p)
	require.Equal(t, 0, g.Node(p).Occupants())

	g.Occupy(p)
	g.Move(p, Point{X: 2, Y: 1})
	require.True(t, g.Walkable(p))
	require.False(t, g.Walkable(Point{X: 2, Y: 1}))

	g.Reset()
	require.True(t, g.Walkable(Point{X: 2, Y: 1}))
}
