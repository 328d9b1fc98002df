package gestureload

import (
	"fmt"
	"math"
)

// scoreTolerance absorbs the leaderboard's fixed-point rounding.
const scoreTolerance = 1e-6

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= scoreTolerance
}

// verifyResults checks that the leaderboard agrees with what was drawn:
// players are ordered by noise, so ranks must not decrease and scores must
// not increase from one player to the next.
func verifyResults(players []*Player, rankings []Entry, best []float64, leaderboard []Entry) error {
	if len(rankings) == 0 {
		return fmt.Errorf("no rankings to verify")
	}
	if len(rankings) != len(players) || len(best) != len(players) {
		return fmt.Errorf("have %d rankings and %d scores for %d players", len(rankings), len(best), len(players))
	}
	for i, e := range rankings {
		if e.SessionID != players[i].SessionID {
			return fmt.Errorf("rank for %s returned session %s", players[i].SessionID, e.SessionID)
		}
		if !closeEnough(e.Score, best[i]) {
			return fmt.Errorf("%s: leaderboard score %.6f, best reported %.6f", players[i].Name, e.Score, best[i])
		}
		want := expectedScore(players[i].Noise)
		if math.Abs(e.Score-want) > 0.5 {
			return fmt.Errorf("%s: score %.3f, expected about %.3f for noise %.3f", players[i].Name, e.Score, want, players[i].Noise)
		}
		if i == 0 {
			continue
		}
		prev := rankings[i-1]
		if e.Score > prev.Score+scoreTolerance {
			return fmt.Errorf("%s (noise %.3f) outscored %s (noise %.3f)",
				players[i].Name, players[i].Noise, players[i-1].Name, players[i-1].Noise)
		}
		if e.Rank < prev.Rank {
			return fmt.Errorf("%s ranked %d above %s at %d", players[i].Name, e.Rank, players[i-1].Name, prev.Rank)
		}
	}
	return verifyLeaderboardSorted(leaderboard)
}

// verifyLeaderboardSorted checks descending scores with dense ranks.
func verifyLeaderboardSorted(leaderboard []Entry) error {
	if len(leaderboard) == 0 {
		return fmt.Errorf("empty leaderboard")
	}
	if leaderboard[0].Rank != 1 {
		return fmt.Errorf("leaderboard starts at rank %d", leaderboard[0].Rank)
	}
	for i := 1; i < len(leaderboard); i++ {
		prev, cur := leaderboard[i-1], leaderboard[i]
		if cur.Score > prev.Score {
			return fmt.Errorf("leaderboard not sorted: entry %d has higher score than entry %d", i, i-1)
		}
		switch {
		case cur.Score == prev.Score && cur.Rank != prev.Rank:
			return fmt.Errorf("tied entries %d and %d have ranks %d and %d", i-1, i, prev.Rank, cur.Rank)
		case cur.Score < prev.Score && cur.Rank != prev.Rank+1:
			return fmt.Errorf("entry %d has rank %d after rank %d", i, cur.Rank, prev.Rank)
		}
	}
	return nil
}
