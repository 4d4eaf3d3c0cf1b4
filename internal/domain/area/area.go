// Package area estimates the enclosed area of polygon approximations.
package area

import (
	"math"

	"github.com/paulmach/orb"
)

// Shoelace returns the unsigned area of the polygon r using the shoelace
// formula, wrapping from the last point back to the first. Polygons with
// fewer than two points have zero area. The result is exact only for simple
// (non self-intersecting) polygons.
func Shoelace(r orb.Ring) float64 {
	if len(r) < 2 {
		return 0
	}
	sum := 0.0
	prev := r[len(r)-1]
	for _, cur := range r {
		sum += (prev[0] + cur[0]) * (prev[1] - cur[1])
		prev = cur
	}
	return math.Abs(sum / 2)
}
