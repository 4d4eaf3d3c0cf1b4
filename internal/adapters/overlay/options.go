package overlay

import "image/color"

// Option applies a configuration option to a Renderer.
type Option func(*Renderer)

// WithSize sets the length in pixels of the longer side of the image.
func WithSize(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.size = px
		}
	}
}

// WithColors sets the fill colours of kept and dropped contours.
func WithColors(kept, dropped color.Color) Option {
	return func(r *Renderer) {
		if kept != nil {
			r.kept = kept
		}
		if dropped != nil {
			r.dropped = dropped
		}
	}
}
