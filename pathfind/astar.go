// Package pathfind finds shortest 4-connected routes across the arena grid.
package pathfind

import (
	"container/heap"

	"github.com/nmurphy101/arena/grid"
)

// Walker is the view of the grid the search needs.
type Walker interface {
	Contains(p grid.Point) bool
	Walkable(p grid.Point) bool
}

// neighborOffsets is the expansion order, no diagonal steps.
var neighborOffsets = [...]grid.Point{
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
}

type pathNode struct {
	point  grid.Point
	g      int
	h      int
	f      int
	seq    int
	index  int
	parent *pathNode
}

// pathQueue orders by f, then by insertion sequence.
type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool {
	if pq[i].f == pq[j].f {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].f < pq[j].f
}

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x interface{}) {
	item := x.(*pathNode)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// FindPath returns the cells from start (exclusive) to goal (inclusive). The
// start cell is allowed to be blocked since it is usually the searching
// agent's own head. An empty path means the goal is unreachable.
func FindPath(w Walker, start, goal grid.Point) []grid.Point {
	if !w.Contains(start) || !w.Contains(goal) || start.Equal(goal) {
		return nil
	}
	if !w.Walkable(goal) {
		return nil
	}

	seq := 0
	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{point: start, h: start.Manhattan(goal), f: start.Manhattan(goal)})
	gScore := map[grid.Point]int{start: 0}
	closed := map[grid.Point]struct{}{}

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if _, seen := closed[current.point]; seen {
			continue
		}
		closed[current.point] = struct{}{}
		if current.point.Equal(goal) {
			return reconstructPath(current)
		}

		for _, delta := range neighborOffsets {
			next := current.point.Add(delta.X, delta.Y)
			if !w.Walkable(next) {
				continue
			}
			if _, seen := closed[next]; seen {
				continue
			}
			tentativeG := current.g + 1
			if prev, ok := gScore[next]; ok && tentativeG >= prev {
				continue
			}
			gScore[next] = tentativeG
			seq++
			h := next.Manhattan(goal)
			heap.Push(open, &pathNode{
				point:  next,
				g:      tentativeG,
				h:      h,
				f:      tentativeG + h,
				seq:    seq,
				parent: current,
			})
		}
	}
	return nil
}

func reconstructPath(end *pathNode) []grid.Point {
	var path []grid.Point
	for node := end; node.parent != nil; node = node.parent {
		path = append(path, node.point)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}
