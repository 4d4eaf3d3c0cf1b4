package purge

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithArea sets the minimum enclosed area a contour needs to be kept.
func WithArea(area float64) Option {
	return func(f *Filter) {
		f.area = area
	}
}

// WithSegments sets the number of arc-length samples taken per curve.
func WithSegments(segments int) Option {
	return func(f *Filter) {
		f.segments = segments
	}
}

// WithDebug makes the filter report a Diagnostic for every contour.
func WithDebug(debug bool) Option {
	return func(f *Filter) {
		f.debug = debug
	}
}
