// Package geom holds the planar primitives used by the purge pipeline:
// points, cubic Bézier segments, and the arc-length flattener.
package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Point is a position in user space.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point   { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point   { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Mul(f float64) Point { return Point{p.X * f, p.Y * f} }
func (p Point) Hypot() float64      { return math.Hypot(p.X, p.Y) }

// Lerp interpolates linearly between p (t = 0) and q (t = 1).
func (p Point) Lerp(q Point, t float64) Point { return p.Add(q.Sub(p).Mul(t)) }

// Equal reports whether p and q have identical coordinates.
func (p Point) Equal(q Point) bool { return p.X == q.X && p.Y == q.Y }

// Orb converts p into an orb.Point.
func (p Point) Orb() orb.Point { return orb.Point{p.X, p.Y} }

// FromOrb converts an orb.Point into a Point.
func FromOrb(p orb.Point) Point { return Point{X: p[0], Y: p[1]} }

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}
