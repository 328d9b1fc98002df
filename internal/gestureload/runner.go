package gestureload

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/enso/pkg/logger"
)

const (
	settlePoll       = 100 * time.Millisecond
	percentMultiplier = 100
)

// Run executes the complete load run against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("gestureload")
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting enso gesture load",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("attempts", cfg.AttemptsPerSession),
		logger.Int("workers", cfg.Workers),
		logger.Float64("maxNoise", cfg.MaxNoise),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	players := planPlayers(cfg)
	if err := createSessions(ctx, cfg, client, players, stats); err != nil {
		return stats, fmt.Errorf("session creation failed: %w", err)
	}
	best, err := submitGestures(ctx, cfg, client, players, stats, log)
	if err != nil {
		return stats, fmt.Errorf("gesture submission failed: %w", err)
	}

	log.Info(ctx, "waiting for the leaderboard to settle")
	rankings, err := waitForRankings(ctx, cfg, client, players, best)
	if err != nil {
		return stats, fmt.Errorf("ranking retrieval failed: %w", err)
	}
	stats.RankingsRetrieved = len(rankings)

	leaderboard, err := client.TopN(ctx, min(cfg.Sessions, cfg.MaxLimit))
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(leaderboard)

	if err := verifyResults(players, rankings, best, leaderboard); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func createSessions(ctx context.Context, cfg Config, client *HTTPClient, players []*Player, stats *Stats) error {
	var created atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, p := range players {
		g.Go(func() error {
			v, err := client.CreateSession(gctx, p.Name)
			if err != nil {
				return err
			}
			p.SessionID, p.Reference = v.SessionID, v.Reference
			drawGestures(cfg, p)
			created.Add(1)
			return nil
		})
	}
	err := g.Wait()
	stats.SessionsCreated = int(created.Load())
	return err
}

// submitGestures posts every gesture, one player per worker so a player's
// attempts stay ordered. It returns the best score reported per player.
func submitGestures(ctx context.Context, cfg Config, client *HTTPClient, players []*Player, stats *Stats, log logger.Logger) ([]float64, error) {
	var submitted, scored, failed atomic.Int64
	best := make([]float64, len(players))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, p := range players {
		g.Go(func() error {
			for _, gesture := range p.Gestures {
				res, err := client.Submit(gctx, p.SessionID, gesture)
				submitted.Add(1)
				if err != nil {
					failed.Add(1)
					return err
				}
				if res.Outcome == "scored" {
					scored.Add(1)
				}
				best[i] = res.BestScore
				if cfg.Verbose {
					log.Debug(gctx, "attempt submitted",
						logger.String("player", p.Name),
						logger.String("outcome", res.Outcome),
						logger.Float64("score", res.Score),
					)
				}
			}
			return nil
		})
	}
	err := g.Wait()
	stats.AttemptsSubmitted = int(submitted.Load())
	stats.AttemptsScored = int(scored.Load())
	stats.AttemptsFailed = int(failed.Load())
	return best, err
}

// waitForRankings polls /rank for every player until each reports the best
// score seen at submission or cfg.Settle elapses.
func waitForRankings(ctx context.Context, cfg Config, client *HTTPClient, players []*Player, best []float64) ([]Entry, error) {
	deadline := time.Now().Add(cfg.Settle)
	for {
		rankings, err := retrieveRankings(ctx, cfg, client, players)
		if err == nil && settled(rankings, best) {
			return rankings, nil
		}
		if time.Now().After(deadline) {
			if err == nil {
				err = errors.New("leaderboard did not reach the submitted best scores")
			}
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(settlePoll):
		}
	}
}

func retrieveRankings(ctx context.Context, cfg Config, client *HTTPClient, players []*Player) ([]Entry, error) {
	rankings := make([]Entry, len(players))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, p := range players {
		g.Go(func() error {
			e, err := client.Rank(gctx, p.SessionID)
			if err != nil {
				return err
			}
			rankings[i] = e
			return nil
		})
	}
	return rankings, g.Wait()
}

func settled(rankings []Entry, best []float64) bool {
	for i, e := range rankings {
		if !closeEnough(e.Score, best[i]) {
			return false
		}
	}
	return true
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var scoredRate, attemptsPerSecond float64
	if stats.AttemptsSubmitted > 0 {
		scoredRate = float64(stats.AttemptsScored) / float64(stats.AttemptsSubmitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		attemptsPerSecond = float64(stats.AttemptsSubmitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("sessionsCreated", stats.SessionsCreated),
		logger.Int("attemptsSubmitted", stats.AttemptsSubmitted),
		logger.Int("attemptsScored", stats.AttemptsScored),
		logger.Int("attemptsFailed", stats.AttemptsFailed),
		logger.Int("rankingsRetrieved", stats.RankingsRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("scoredRate", scoredRate),
		logger.Float64("attemptsPerSecond", attemptsPerSecond),
	)
}
