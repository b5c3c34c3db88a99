// Package momentum derives a bounded scoring-trend signal and a
// timeout suggestion from the current set's log window. It is a pure
// read-only observer: it never touches the state machine's mutation
// path and may run concurrently with other reads over a consistent
// snapshot.
package momentum

import (
	"fmt"

	"github.com/okravets/volleyball-match-service/internal/model"
)

// Trend buckets the momentum score for display.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// Suggestion is the analyzer's timeout advice. Triggers are evaluated
// independently; a later trigger may overwrite the reason but never
// suppress the flag.
type Suggestion struct {
	ShouldTimeout bool   `json:"should_timeout"`
	Reason        string `json:"reason,omitempty"`
}

// Result is the full analyzer output. Score is clamped to [-100, 100],
// positive when the tracked team carries the momentum.
type Result struct {
	Score      int        `json:"score"`
	Trend      Trend      `json:"trend"`
	Suggestion Suggestion `json:"suggestion"`
}

const (
	opponentRunThreshold = 3
	errorChainThreshold  = 2
	gapScoreFloor        = 20
	gapRunThreshold      = 2
	gapMargin            = 2
	scoreWindow          = 5
	trendBand            = 10
)

// Analyze scans the set's log backward from the most recent event. A
// timeout entry stops every scan: timeouts reset momentum accounting.
// dismissedAtTotalScore suppresses a suggestion the caller already
// dismissed until the total point count moves again, so an identical
// reason does not re-trigger on every re-render.
func Analyze(recent []model.StatLog, current model.Score, serving model.Team, dismissedAtTotalScore *int) Result {
	_ = serving // serve state does not weigh into the current heuristics

	run := opponentRun(recent)
	chain := errorChain(recent)

	var suggestion Suggestion
	if run >= opponentRunThreshold {
		suggestion = Suggestion{ShouldTimeout: true, Reason: fmt.Sprintf("Opponent Run (%d-0)", run)}
	}
	if chain >= errorChainThreshold {
		suggestion = Suggestion{ShouldTimeout: true, Reason: fmt.Sprintf("Consecutive Errors (%d)", chain)}
	}
	if current.Opponent >= gapScoreFloor && run >= gapRunThreshold && current.Opponent-current.MyTeam >= gapMargin {
		suggestion = Suggestion{ShouldTimeout: true, Reason: "Gap Widening"}
	}
	if dismissedAtTotalScore != nil && *dismissedAtTotalScore == current.Total() {
		suggestion = Suggestion{}
	}

	score := momentumScore(recent)
	trend := TrendStable
	switch {
	case score > trendBand:
		trend = TrendRising
	case score < -trendBand:
		trend = TrendFalling
	}
	return Result{Score: score, Trend: trend, Suggestion: suggestion}
}

// opponentRun counts consecutive opponent-won points since the last
// point the tracked team won. Only the momentum-terminal types are scan
// events; other decided points (pass errors, drops) pass through
// without counting or breaking the run.
func opponentRun(recent []model.StatLog) int {
	run := 0
	for i := len(recent) - 1; i >= 0; i-- {
		e := recent[i]
		if e.Type == model.StatTimeout {
			break
		}
		if !e.Type.IsMomentumTerminal() {
			continue
		}
		winner, terminal := e.Type.PointWinner(e.Team)
		if !terminal {
			continue
		}
		if winner != model.TeamOpponent {
			break
		}
		run++
	}
	return run
}

// errorChain counts the trailing unforced errors by the tracked team.
// A momentum-terminal point that is not such an error ends the tail, in
// particular the opponent scoring through their own earned skill rather
// than a gifted error; events outside the scan window pass through.
func errorChain(recent []model.StatLog) int {
	chain := 0
	for i := len(recent) - 1; i >= 0; i-- {
		e := recent[i]
		if e.Type == model.StatTimeout {
			break
		}
		if e.Team == model.TeamMy && e.Type.IsUnforcedError() {
			chain++
			continue
		}
		if e.Type.IsMomentumTerminal() {
			break
		}
	}
	return chain
}

// momentumScore weighs the last five decided points by recency:
// the k-th most recent point contributes 20-2k, signed toward its
// winner, clamped to [-100, 100].
func momentumScore(recent []model.StatLog) int {
	score := 0
	counted := 0
	for i := len(recent) - 1; i >= 0 && counted < scoreWindow; i-- {
		e := recent[i]
		if e.Type == model.StatTimeout {
			break
		}
		if !e.Type.IsMomentumTerminal() {
			continue
		}
		winner, terminal := e.Type.PointWinner(e.Team)
		if !terminal {
			continue
		}
		weight := 20 - 2*counted
		if winner == model.TeamMy {
			score += weight
		} else {
			score -= weight
		}
		counted++
	}
	if score > 100 {
		score = 100
	}
	if score < -100 {
		score = -100
	}
	return score
}
