// Package gestureload drives a running enso server with synthetic players
// and checks that the leaderboard orders them by drawing quality.
package gestureload

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/enso/internal/domain/geometry"
)

// minPoints keeps wobble frequencies from aliasing onto the centroid.
const minPoints = 16

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid load config")

// Config holds configuration for a load run.
type Config struct {
	BaseURL            string        // Base URL of the service
	Sessions           int           // Number of synthetic players
	AttemptsPerSession int           // Gestures submitted per player
	Points             int           // Points per gesture
	Radius             float64       // Circle radius in canvas pixels
	MaxNoise           float64       // Wobble amplitude of the noisiest player, as a fraction of Radius
	Workers            int           // Concurrent HTTP workers
	Timeout            time.Duration // HTTP request timeout
	Settle             time.Duration // How long to wait for the leaderboard to catch up
	MaxLimit           int           // Largest leaderboard page the server accepts
	Seed               uint64        // Seed for wobble phases and frequencies
	Verbose            bool          // Log every submission
}

// DefaultConfig returns the configuration used by the CLI defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:            "http://localhost:9080",
		Sessions:           50,
		AttemptsPerSession: 3,
		Points:             120,
		Radius:             150,
		MaxNoise:           0.15,
		Workers:            8,
		Timeout:            10 * time.Second,
		Settle:             10 * time.Second,
		MaxLimit:           100,
		Seed:               1,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is empty", ErrInvalidConfig)
	case c.Sessions < 1:
		return fmt.Errorf("%w: sessions must be positive", ErrInvalidConfig)
	case c.AttemptsPerSession < 1:
		return fmt.Errorf("%w: attempts must be positive", ErrInvalidConfig)
	case c.Points < minPoints:
		return fmt.Errorf("%w: points must be at least %d", ErrInvalidConfig, minPoints)
	case c.Radius <= 0:
		return fmt.Errorf("%w: radius must be positive", ErrInvalidConfig)
	case c.MaxNoise < 0 || c.MaxNoise >= 1:
		return fmt.Errorf("%w: max noise must be in [0, 1)", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.MaxLimit < 1:
		return fmt.Errorf("%w: max limit must be positive", ErrInvalidConfig)
	}
	return nil
}

// Player is one synthetic session and the gestures it will draw.
type Player struct {
	Name      string
	SessionID string
	Noise     float64
	Reference geometry.Point
	Gestures  []Gesture
}

// Gesture is one attempt submission.
type Gesture struct {
	AttemptID string           `json:"attempt_id"`
	Points    []geometry.Point `json:"points"`

	freq  int
	phase float64
}

// Entry is a leaderboard row as served by /leaderboard and /rank.
type Entry struct {
	Rank      int     `json:"rank"`
	SessionID string  `json:"session_id"`
	Player    string  `json:"player"`
	Score     float64 `json:"score"`
	Percent   int     `json:"percent"`
}

// Stats holds run statistics.
type Stats struct {
	SessionsCreated    int
	AttemptsSubmitted  int
	AttemptsScored     int
	AttemptsFailed     int
	RankingsRetrieved  int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
