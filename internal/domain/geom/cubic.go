package geom

import "math"

// Numeric limits for arc-length integration and inversion.
const (
	maxSimpsonIntervals = 4096
	maxBisections       = 64
)

// CubicBez is a cubic Bézier segment from P0 to P3 with control points P1 and P2.
type CubicBez struct {
	P0 Point
	P1 Point
	P2 Point
	P3 Point
}

// Eval returns the point on the curve at parameter t.
func (c CubicBez) Eval(t float64) Point {
	mt := 1.0 - t
	a := c.P0.Mul(mt * mt * mt)
	b := c.P1.Mul(mt * mt * 3.0)
	d := c.P2.Mul(mt * 3.0)
	e := c.P3
	return a.Add(b.Add(d.Add(e.Mul(t)).Mul(t)).Mul(t))
}

// Deriv returns the first derivative B'(t).
func (c CubicBez) Deriv(t float64) Point {
	mt := 1.0 - t
	d01 := c.P1.Sub(c.P0).Mul(3 * mt * mt)
	d12 := c.P2.Sub(c.P1).Mul(6 * mt * t)
	d23 := c.P3.Sub(c.P2).Mul(3 * t * t)
	return d01.Add(d12).Add(d23)
}

func (c CubicBez) speed(t float64) float64 {
	return c.Deriv(t).Hypot()
}

// Length returns the arc length of the curve between parameters 0 and t,
// integrated with Simpson's rule until two successive estimates differ by
// no more than tolerance.
func (c CubicBez) Length(t, tolerance float64) float64 {
	if t <= 0 {
		return 0
	}
	return simpson(c.speed, 0, math.Min(t, 1), tolerance)
}

// TAtLength returns the parameter at which the arc length measured from P0
// equals target, to within tolerance. total is the length of the whole
// curve. The search bisects downward from t = 1.
func (c CubicBez) TAtLength(target, total, tolerance float64) float64 {
	if target <= 0 {
		return 0
	}
	if target >= total {
		return 1
	}
	t, step := 1.0, 1.0
	diff := total - target
	for i := 0; i < maxBisections && math.Abs(diff) > tolerance; i++ {
		step /= 2
		if diff < 0 {
			t += step
		} else {
			t -= step
		}
		diff = c.Length(t, tolerance) - target
	}
	return t
}

// QuadToCubic degree-elevates the quadratic Bézier (p0, q, p2) and returns
// the two control points of the equivalent cubic.
func QuadToCubic(p0, q, p2 Point) (Point, Point) {
	return p0.Lerp(q, 2.0/3.0), p2.Lerp(q, 2.0/3.0)
}

// simpson integrates f over [a, b], doubling the number of intervals until
// the estimate settles within tolerance or maxSimpsonIntervals is reached.
func simpson(f func(float64) float64, a, b, tolerance float64) float64 {
	n := 2
	h := (b - a) / 2
	ends := f(a) + f(b)
	odd := f(a + h)
	even := 0.0
	est := h / 3 * (ends + 4*odd + 2*even)
	prev := 2 * est
	for n < maxSimpsonIntervals && math.Abs(est-prev) > tolerance {
		n *= 2
		h /= 2
		even += odd
		odd = 0
		for i := 1; i < n; i += 2 {
			odd += f(a + float64(i)*h)
		}
		prev = est
		est = h / 3 * (ends + 4*odd + 2*even)
	}
	return est
}
