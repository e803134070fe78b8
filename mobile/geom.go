package mobile

import (
	"math"

	"golang.org/x/mobile/event/touch"
)

// Point is a single active contact in viewport coordinates.
type Point struct {
	X, Y float32
}

func FromTouch(e touch.Event) Point { return Point{X: e.X, Y: e.Y} }

// Distance returns the euclidean distance between the first two points.
// 0 means not measurable (fewer than two points or non finite coordinates),
// never a valid pinch distance.
func Distance(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	d := dist(points[0], points[1])
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}

func TouchDistance(e1, e2 touch.Event) float64 {
	return dist(FromTouch(e1), FromTouch(e2))
}

func dist(p1, p2 Point) float64 {
	x := float64(p1.X - p2.X)
	y := float64(p1.Y - p2.Y)
	return math.Sqrt(x*x + y*y)
}
