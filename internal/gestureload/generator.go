package gestureload

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/enso/internal/domain/geometry"
)

const (
	minWobbleFreq = 3
	maxWobbleFreq = 7
	// attemptNoiseStep grows the wobble of each later attempt so the first
	// attempt is always a player's best.
	attemptNoiseStep = 0.25
)

// noiseFor spreads noise linearly from 0 for the first player to maxNoise
// for the last.
func noiseFor(i, players int, maxNoise float64) float64 {
	if players < 2 {
		return 0
	}
	return maxNoise * float64(i) / float64(players-1)
}

// noisyCircle samples n points on a circle whose radius wobbles by
// amplitude*r with the given frequency and phase. freq must be at least 2
// so the centroid stays at center.
func noisyCircle(center geometry.Point, r, amplitude float64, n, freq int, phase float64) []geometry.Point {
	pts := make([]geometry.Point, n)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(n)
		rr := r * (1 + amplitude*math.Sin(float64(freq)*t+phase))
		pts[i] = geometry.Pt(center.X+rr*math.Cos(t), center.Y+rr*math.Sin(t))
	}
	return pts
}

// expectedScore is the score of a noisyCircle sampled without aliasing.
func expectedScore(amplitude float64) float64 {
	return math.Max(0, 100-1250*amplitude*amplitude)
}

// planPlayers builds the players and the shape of their gestures. Points
// are drawn by drawGestures once the session reference is known.
func planPlayers(cfg Config) []*Player {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	players := make([]*Player, cfg.Sessions)
	for i := range players {
		p := &Player{
			Name:     fmt.Sprintf("load-%03d", i),
			Noise:    noiseFor(i, cfg.Sessions, cfg.MaxNoise),
			Gestures: make([]Gesture, cfg.AttemptsPerSession),
		}
		for j := range p.Gestures {
			p.Gestures[j] = Gesture{
				AttemptID: uuid.NewString(),
				freq:      minWobbleFreq + rng.IntN(maxWobbleFreq-minWobbleFreq+1),
				phase:     rng.Float64() * 2 * math.Pi,
			}
		}
		players[i] = p
	}
	return players
}

// attemptNoise is the wobble amplitude of the j-th attempt of p.
func (p *Player) attemptNoise(j int) float64 {
	return p.Noise * (1 + attemptNoiseStep*float64(j))
}

// drawGestures samples every gesture of p around its reference point.
func drawGestures(cfg Config, p *Player) {
	for j := range p.Gestures {
		g := &p.Gestures[j]
		g.Points = noisyCircle(p.Reference, cfg.Radius, p.attemptNoise(j), cfg.Points, g.freq, g.phase)
	}
}
