package dedupe

type config struct {
	capacity int
}

// Option applies a configuration option to a Set.
type Option func(*config)

// WithCapacity pre-sizes the set for the expected number of keys.
// Non-positive values leave the set to grow on demand.
func WithCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}
