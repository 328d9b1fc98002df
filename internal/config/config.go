// Package config defines service configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file named by
// ENSO_CONFIG, then ENSO_* environment variables.
package config

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/okian/enso/internal/domain/geometry"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CanvasWidth and CanvasHeight size the drawing canvas in pixels.
	CanvasWidth  int `koanf:"canvas_width"`
	CanvasHeight int `koanf:"canvas_height"`

	// ReferenceX and ReferenceY place the red dot. Unset means canvas centre.
	ReferenceX *float64 `koanf:"reference_x"`
	ReferenceY *float64 `koanf:"reference_y"`

	// MinPoints is the shortest path that is scored. Never below 3.
	MinPoints int `koanf:"min_points"`

	// MaxPathPoints caps the points accepted per attempt.
	MaxPathPoints int `koanf:"max_path_points"`

	// SessionTTLSeconds is the idle time after which a session expires.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// MaxSessions bounds the number of live sessions.
	MaxSessions int `koanf:"max_sessions"`

	// DedupeSize bounds the attempts remembered for idempotent replay.
	DedupeSize int `koanf:"dedupe_size"`

	// QueueSize bounds pending leaderboard publications.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of leaderboard workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// OverlaySize is the longer side of overlay PNGs. 0 keeps canvas size.
	OverlaySize int `koanf:"overlay_size"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLabels are constant labels attached to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsLatencyBuckets overrides the millisecond latency histogram buckets.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`

	// MetricsRecordAttempts toggles the per-attempt outcome and score metrics.
	MetricsRecordAttempts bool `koanf:"metrics_record_attempts"`

	// MetricsRefreshSeconds is how often polled gauges are refreshed.
	MetricsRefreshSeconds int `koanf:"metrics_refresh_seconds"`
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		CanvasWidth:         800,
		CanvasHeight:        600,
		MinPoints:           3,
		MaxPathPoints:       20_000,
		SessionTTLSeconds:   1800,
		MaxSessions:         10_000,
		DedupeSize:          50_000,
		QueueSize:           4096,
		WorkerCount:         runtime.NumCPU(),
		MaxLeaderboardLimit: 100,
		OverlaySize:         0,

		MetricsNamespace:      "enso",
		MetricsSubsystem:      "game",
		MetricsRecordAttempts: true,
		MetricsRefreshSeconds: 10,
	}
}

// Reference returns the configured reference point, defaulting each unset
// coordinate to the canvas centre.
func (c *Config) Reference() geometry.Point {
	ref := geometry.Pt(float64(c.CanvasWidth)/2, float64(c.CanvasHeight)/2)
	if c.ReferenceX != nil {
		ref.X = *c.ReferenceX
	}
	if c.ReferenceY != nil {
		ref.Y = *c.ReferenceY
	}
	return ref
}

// SessionTTL returns SessionTTLSeconds as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// MetricsRefresh returns MetricsRefreshSeconds as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshSeconds) * time.Second
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("unknown log_level %q", c.LogLevel)
	}
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.CanvasWidth < 1 || c.CanvasHeight < 1:
		return invalid("canvas size must be positive, got %dx%d", c.CanvasWidth, c.CanvasHeight)
	case c.MinPoints < 3:
		return invalid("min_points must be at least 3, got %d", c.MinPoints)
	case c.MaxPathPoints < c.MinPoints:
		return invalid("max_path_points (%d) must be >= min_points (%d)", c.MaxPathPoints, c.MinPoints)
	case c.SessionTTLSeconds < 1:
		return invalid("session_ttl_seconds must be positive")
	case c.MaxSessions < 1:
		return invalid("max_sessions must be positive")
	case c.QueueSize < 1:
		return invalid("queue_size must be positive")
	case c.WorkerCount < 1:
		return invalid("worker_count must be positive")
	case c.MaxLeaderboardLimit < 1:
		return invalid("max_leaderboard_limit must be positive")
	case c.OverlaySize < 0:
		return invalid("overlay_size must not be negative")
	case !metricName.MatchString(c.MetricsNamespace):
		return invalid("metrics_namespace %q is not a metric name", c.MetricsNamespace)
	case c.MetricsSubsystem != "" && !metricName.MatchString(c.MetricsSubsystem):
		return invalid("metrics_subsystem %q is not a metric name", c.MetricsSubsystem)
	case c.MetricsRefreshSeconds < 1:
		return invalid("metrics_refresh_seconds must be positive")
	}
	for name := range c.MetricsLabels {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return invalid("metrics_labels key %q is not a label name", name)
		}
	}
	for i := 1; i < len(c.MetricsLatencyBuckets); i++ {
		if c.MetricsLatencyBuckets[i] <= c.MetricsLatencyBuckets[i-1] {
			return invalid("metrics_latency_buckets must be strictly increasing")
		}
	}
	if ref := c.Reference(); !ref.IsFinite() || math.IsNaN(ref.X+ref.Y) {
		return invalid("reference point must be finite")
	}
	return nil
}
