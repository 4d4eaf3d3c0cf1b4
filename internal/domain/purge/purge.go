// Package purge removes small contours from compound paths.
//
// A path is split into contours, each contour is flattened into a polygon
// and scored by its area, and the contours whose area reaches the threshold
// are serialized back from their original commands.
package purge

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/despeckle/internal/domain/area"
	"github.com/okian/despeckle/internal/domain/contour"
	"github.com/okian/despeckle/internal/domain/path"
	"github.com/paulmach/orb"
)

// Defaults for the filter options.
const (
	DefaultArea     = 10.0
	DefaultSegments = 4
)

// Filter decides which contours of a path survive. A Filter holds no mutable
// state and is safe for concurrent use.
type Filter struct {
	area     float64
	segments int
	debug    bool
}

// Result is the outcome of filtering one path.
type Result struct {
	// Data is the serialized path of the surviving contours. It is empty
	// when Remove is set.
	Data string

	// Remove reports that no contour survived and the owning node should
	// be deleted.
	Remove bool

	Kept             int
	Dropped          int
	DegenerateCurves int

	// Contours holds one entry per contour in debug mode and is nil
	// otherwise.
	Contours []Diagnostic
}

// Diagnostic describes how a single contour was scored.
type Diagnostic struct {
	Index   int
	Area    float64
	Kept    bool
	Polygon orb.Ring
	// Overlay is the polygon approximation as path data.
	Overlay string
}

// New creates a Filter with the default threshold and segment count,
// overridden by opts.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{
		area:     DefaultArea,
		segments: DefaultSegments,
	}
	for _, opt := range opts {
		opt(f)
	}
	if math.IsNaN(f.area) || f.area < 0 {
		return nil, fmt.Errorf("%w: area must be a non-negative number, got %v", ErrInvalidOptions, f.area)
	}
	if f.segments < 1 {
		return nil, fmt.Errorf("%w: segments must be at least 1, got %d", ErrInvalidOptions, f.segments)
	}
	return f, nil
}

// Area returns the configured threshold.
func (f *Filter) Area() float64 { return f.area }

// Segments returns the configured number of samples per curve.
func (f *Filter) Segments() int { return f.segments }

// Debug reports whether diagnostics are collected.
func (f *Filter) Debug() bool { return f.debug }

// FilterString parses d and filters it.
func (f *Filter) FilterString(d string) (Result, error) {
	p, err := path.Parse(d)
	if err != nil {
		return Result{}, err
	}
	return f.Filter(p)
}

// Filter keeps every contour of p whose estimated area is at least the
// threshold. Kept contours are written back from their original commands,
// each closed with Z, in their original order. If nothing is kept the
// result asks for removal instead of returning empty path data.
//
// An unsupported command anywhere in p fails the whole path.
func (f *Filter) Filter(p path.Path) (Result, error) {
	var (
		res Result
		sb  strings.Builder
	)
	for _, c := range contour.Split(p) {
		ring, st, err := contour.Approximate(c, f.segments)
		switch {
		case errors.Is(err, path.ErrMalformedPath):
			res.Dropped++
			continue
		case err != nil:
			return Result{}, err
		}
		res.DegenerateCurves += st.Degenerate

		score := area.Shoelace(ring)
		keep := score >= f.area
		if keep {
			if res.Kept > 0 {
				sb.WriteByte(' ')
			}
			c.ClosedPath().AppendTo(&sb)
			res.Kept++
		} else {
			res.Dropped++
		}

		if f.debug {
			res.Contours = append(res.Contours, Diagnostic{
				Index:   c.Index,
				Area:    score,
				Kept:    keep,
				Polygon: ring,
				Overlay: overlay(ring),
			})
		}
	}

	if res.Kept == 0 {
		res.Remove = true
		return res, nil
	}
	res.Data = sb.String()
	return res, nil
}

// overlay renders a polygon approximation as closed path data in the
// "M x,y L x,y ... Z" form.
func overlay(r orb.Ring) string {
	if len(r) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, pt := range r {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(strconv.FormatFloat(pt[0], 'f', -1, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(pt[1], 'f', -1, 64))
	}
	sb.WriteString(" Z")
	return sb.String()
}
