// Package contour splits compound paths into independent contours and
// builds the polygon approximation of each one.
package contour

import (
	"fmt"

	"github.com/okian/despeckle/internal/domain/geom"
	"github.com/okian/despeckle/internal/domain/path"
	"github.com/paulmach/orb"
)

// Contour is one sub-shape of a compound path. Commands always starts with a
// MoveTo and may or may not end with a Close.
type Contour struct {
	Index    int
	Commands path.Path
}

// Closed reports whether the contour ends with an explicit Close.
func (c Contour) Closed() bool {
	return c.Commands.Closed()
}

// ClosedPath returns the contour's original commands with a Close appended
// when the contour is not already closed.
func (c Contour) ClosedPath() path.Path {
	if c.Closed() || len(c.Commands) == 0 {
		return c.Commands
	}
	out := make(path.Path, len(c.Commands), len(c.Commands)+1)
	copy(out, c.Commands)
	return append(out, path.ClosePath())
}

// Stats describes the curves met while approximating a contour.
type Stats struct {
	Curves     int
	Degenerate int
}

// Split breaks p into contours. A contour ends at every Close and at every
// MoveTo that follows drawing commands. Close commands with nothing to close
// are skipped, so "Z Z" never yields an empty contour. A subpath that starts
// without a MoveTo (drawing after a Close) gets one synthesized at the pen
// position.
func Split(p path.Path) []Contour {
	var (
		out        []Contour
		cur        path.Path
		pen, start geom.Point
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, Contour{Index: len(out), Commands: cur})
			cur = nil
		}
	}
	for _, cmd := range p {
		switch cmd.Kind {
		case path.MoveTo:
			flush()
			cur = path.Path{cmd}
			pen, start = cmd.End, cmd.End
		case path.Close:
			if len(cur) > 0 {
				cur = append(cur, cmd)
				flush()
			}
			pen = start
		default:
			if len(cur) == 0 {
				cur = path.Path{path.Move(pen)}
				start = pen
			}
			cur = append(cur, cmd)
			pen = cmd.End
		}
	}
	flush()
	return out
}

// Approximate builds the polygon approximation of c. MoveTo and LineTo
// points pass through, each CubeTo is flattened into segments arc-length
// samples followed by its exact end point, and the ring is closed by
// repeating the first point when the last one differs from it.
func Approximate(c Contour, segments int) (orb.Ring, Stats, error) {
	var st Stats
	if len(c.Commands) == 0 {
		return nil, st, fmt.Errorf("%w: contour %d has no commands", path.ErrMalformedPath, c.Index)
	}

	ring := make(orb.Ring, 0, len(c.Commands)+1)
	var pen geom.Point
	for i, cmd := range c.Commands {
		switch cmd.Kind {
		case path.MoveTo, path.LineTo:
			ring = append(ring, cmd.End.Orb())
			pen = cmd.End
		case path.CubeTo:
			st.Curves++
			pts, degenerate := geom.Flatten(geom.CubicBez{P0: pen, P1: cmd.C1, P2: cmd.C2, P3: cmd.End}, segments)
			if degenerate {
				st.Degenerate++
			}
			for _, pt := range pts {
				ring = append(ring, pt.Orb())
			}
			if end := cmd.End.Orb(); ring[len(ring)-1] != end {
				ring = append(ring, end)
			}
			pen = cmd.End
		case path.Close:
		default:
			return nil, st, &path.UnsupportedCommandError{Command: cmd.Kind.String(), Offset: i}
		}
	}

	if len(ring) == 0 {
		return ring, st, nil
	}
	if first, last := ring[0], ring[len(ring)-1]; first[0] != last[0] || first[1] != last[1] {
		ring = append(ring, first)
	}
	return ring, st, nil
}
