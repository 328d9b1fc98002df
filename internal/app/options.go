package service

import (
	"time"

	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCanvas sets the canvas size. The reference point defaults to its centre.
func WithCanvas(width, height int) Option {
	return func(s *Service) {
		if width > 0 && height > 0 {
			s.canvasWidth, s.canvasHeight = width, height
		}
	}
}

// WithReference places the point every gesture must enclose.
func WithReference(p geometry.Point) Option {
	return func(s *Service) {
		if p.IsFinite() {
			s.reference = &p
		}
	}
}

// WithMinPoints sets the shortest path that is scored.
func WithMinPoints(n int) Option {
	return func(s *Service) {
		s.minPoints = n
	}
}

// WithMaxPathPoints caps the points accepted per attempt.
func WithMaxPathPoints(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPathPoints = n
		}
	}
}

// WithSessionTTL sets how long an idle session lives.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithWorkerCount sets the number of leaderboard workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the publication queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many attempts are remembered for replay.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithOverlaySize sets the longer side of overlay PNGs.
func WithOverlaySize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.overlaySize = n
		}
	}
}

// WithClock replaces time.Now for sessions and attempts.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
