// Package overlay draws the polygon approximations of filtered contours into
// a PNG image, so that the keep/drop decisions can be inspected visually.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

const (
	defaultSize = 512
	margin      = 8
)

// ErrNoShapes is returned when there is nothing to draw.
var ErrNoShapes = errors.New("overlay: no shapes to draw")

// Shape is one polygon approximation and the decision taken for it.
type Shape struct {
	Ring orb.Ring
	Kept bool
}

// Renderer rasterizes shapes.
type Renderer struct {
	size    int
	kept    color.Color
	dropped color.Color
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		size:    defaultSize,
		kept:    color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xc0},
		dropped: color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Image draws shapes scaled to fit the configured size on a white
// background. Kept shapes are drawn first so that dropped speckles stay
// visible on top of them.
func (r *Renderer) Image(shapes []Shape) (*image.RGBA, error) {
	var (
		bound orb.Bound
		found bool
	)
	for _, s := range shapes {
		if len(s.Ring) == 0 {
			continue
		}
		if !found {
			bound, found = s.Ring.Bound(), true
			continue
		}
		bound = bound.Union(s.Ring.Bound())
	}
	if !found {
		return nil, ErrNoShapes
	}

	w, h := bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1]
	scale := float64(r.size-2*margin) / math.Max(math.Max(w, h), 1e-9)
	iw := int(math.Ceil(w*scale-1e-9)) + 2*margin
	ih := int(math.Ceil(h*scale-1e-9)) + 2*margin

	img := image.NewRGBA(image.Rect(0, 0, iw, ih))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	z := vector.NewRasterizer(iw, ih)
	project := func(p orb.Point) (float32, float32) {
		return float32((p[0]-bound.Min[0])*scale + margin), float32((p[1]-bound.Min[1])*scale + margin)
	}
	for _, pass := range []bool{true, false} {
		src := image.NewUniform(r.dropped)
		if pass {
			src = image.NewUniform(r.kept)
		}
		for _, s := range shapes {
			if s.Kept != pass || len(s.Ring) < 3 {
				continue
			}
			z.Reset(iw, ih)
			z.MoveTo(project(s.Ring[0]))
			for _, p := range s.Ring[1:] {
				z.LineTo(project(p))
			}
			z.ClosePath()
			z.Draw(img, img.Bounds(), src, image.Point{})
		}
	}
	return img, nil
}

// Render encodes the image of shapes to w as PNG.
func (r *Renderer) Render(w io.Writer, shapes []Shape) error {
	img, err := r.Image(shapes)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("overlay: encode png: %w", err)
	}
	return nil
}
