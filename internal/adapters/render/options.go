package render

// Option configures a Renderer.
type Option func(*Renderer)

// WithMaxSide scales the output so its longer side is n pixels.
func WithMaxSide(n int) Option {
	return func(r *Renderer) {
		long := max(r.width, r.height)
		if n > 0 && long > 0 {
			r.scale = float64(n) / float64(long)
		}
	}
}
