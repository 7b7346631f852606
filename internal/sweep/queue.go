package sweep

import (
	gomath "math"

	"github.com/Faultbox/viewmap/pkg/math"
)

// endpoint is one end of a segment waiting in the event queue.
type endpoint struct {
	p     math.Vec2
	seg   *segment
	start bool
}

// queue orders endpoints left to right, then bottom to top, with ends
// before starts at the same point. Coordinates closer than eps compare
// equal.
type queue struct {
	items []endpoint
	eps   float64
}

func (q *queue) Len() int {
	return len(q.items)
}

func (q *queue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if c := compare(a.p, b.p, q.eps); c != 0 {
		return c < 0
	}
	return !a.start && b.start
}

func (q *queue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *queue) Push(x any) {
	q.items = append(q.items, x.(endpoint))
}

func (q *queue) Pop() any {
	old := q.items
	x := old[len(old)-1]
	q.items = old[:len(old)-1]
	return x
}

// compare orders points lexicographically with tolerance eps.
func compare(a, b math.Vec2, eps float64) int {
	if gomath.Abs(a.X-b.X) > eps {
		if a.X < b.X {
			return -1
		}
		return 1
	}
	if gomath.Abs(a.Y-b.Y) > eps {
		if a.Y < b.Y {
			return -1
		}
		return 1
	}
	return 0
}
