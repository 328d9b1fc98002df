package dedupe

// Option applies a configuration option to the in-memory replayer.
type Option func(*inMemoryReplayer)

// WithMaxSize sets the maximum number of attempts kept for replay.
// maxSize <= 0 keeps every attempt.
func WithMaxSize(maxSize int) Option {
	return func(r *inMemoryReplayer) {
		r.maxSize = maxSize
	}
}
