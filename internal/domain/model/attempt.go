// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/scoring"
)

// ErrInvalidPublication is returned by Publication.Validate.
var ErrInvalidPublication = errors.New("invalid publication")

// Attempt is one judged gesture.
type Attempt struct {
	ID        string
	SessionID string
	Path      geometry.Path // owned by the attempt; never mutated after judging
	Verdict   scoring.Verdict
	Best      float64 // session best after this attempt
	Improved  bool
	At        time.Time
}

// Publication carries an improved session best to the leaderboard.
type Publication struct {
	SessionID string
	Player    string
	AttemptID string
	Score     float64
	Points    int
	At        time.Time
}

// Validate rejects publications the leaderboard must not store.
func (p Publication) Validate() error {
	switch {
	case strings.TrimSpace(p.SessionID) == "":
		return errors.Join(ErrInvalidPublication, errors.New("missing session id"))
	case math.IsNaN(p.Score) || p.Score < 0 || p.Score > 100:
		return errors.Join(ErrInvalidPublication, errors.New("score out of range"))
	}
	return nil
}

// PublicationFor builds the publication for an attempt that improved the
// session best.
func PublicationFor(a Attempt, player string) Publication {
	return Publication{
		SessionID: a.SessionID,
		Player:    player,
		AttemptID: a.ID,
		Score:     a.Best,
		Points:    a.Verdict.Points,
		At:        a.At,
	}
}
