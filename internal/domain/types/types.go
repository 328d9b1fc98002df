// Package types contains read shapes shared by the service and the HTTP layer.
package types

import (
	"math"

	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/scoring"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank      int     `json:"rank"`
	SessionID string  `json:"session_id"`
	Player    string  `json:"player"`
	Score     float64 `json:"score"`
	Percent   int     `json:"percent"`
}

// SessionView is the public state of a session.
type SessionView struct {
	SessionID string         `json:"session_id"`
	Player    string         `json:"player"`
	BestScore float64        `json:"best_score"`
	Percent   int            `json:"best_percent"`
	Attempts  int            `json:"attempts"`
	Reference geometry.Point `json:"reference"`
}

// Percent rounds a score half up, the way scores are displayed.
func Percent(score float64) int {
	return int(math.Floor(score + 0.5))
}

// AttemptResult is the answer to a submitted gesture.
type AttemptResult struct {
	AttemptID   string             `json:"attempt_id"`
	Outcome     scoring.Outcome    `json:"outcome"`
	Score       float64            `json:"score"`
	Percent     int                `json:"percent"`
	Fit         *scoring.FitCircle `json:"fit,omitempty"`
	Points      int                `json:"points"`
	Message     string             `json:"message,omitempty"`
	BestScore   float64            `json:"best_score"`
	BestPercent int                `json:"best_percent"`
	Improved    bool               `json:"improved"`
	Duplicate   bool               `json:"duplicate"`
}

// NewAttemptResult flattens a verdict and the session best it led to.
func NewAttemptResult(attemptID string, v scoring.Verdict, best float64, improved bool) AttemptResult {
	return AttemptResult{
		AttemptID:   attemptID,
		Outcome:     v.Outcome,
		Score:       v.Score,
		Percent:     v.Percent(),
		Fit:         v.Fit,
		Points:      v.Points,
		Message:     v.Message,
		BestScore:   best,
		BestPercent: Percent(best),
		Improved:    improved,
	}
}
