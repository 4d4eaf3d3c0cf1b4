package geom

// Flattening parameters.
const (
	// LengthTolerance is the absolute tolerance used to estimate the total
	// arc length of a curve.
	LengthTolerance = 0.03

	// inversionDivisor scales the arc-length inversion tolerance with the
	// curve length: tolerance = length / inversionDivisor.
	inversionDivisor = 300.0

	// degenerateLength is the arc length at or below which a curve is
	// treated as a single point.
	degenerateLength = 1e-9
)

// Flatten approximates c by n points spaced evenly by arc length. The i-th
// point (i = 1..n) sits at i/n of the curve's length, so the last point is
// the curve's end. Values of n below 1 are treated as 1.
//
// When the curve has (near) zero length every point collapses onto P0 and
// degenerate is true.
func Flatten(c CubicBez, n int) (pts []Point, degenerate bool) {
	if n < 1 {
		n = 1
	}
	pts = make([]Point, 0, n)

	total := c.Length(1, LengthTolerance)
	if total <= degenerateLength {
		for i := 0; i < n; i++ {
			pts = append(pts, c.P0)
		}
		return pts, true
	}

	tolerance := total / inversionDivisor
	for i := 1; i <= n; i++ {
		target := float64(i) / float64(n) * total
		pts = append(pts, c.Eval(c.TAtLength(target, total, tolerance)))
	}
	return pts, false
}
