// Package rules evaluates volleyball win conditions. Every function is
// pure: scores in, facts out, no state. Callers clamp scores to >= 0
// before invoking; inputs are assumed valid.
package rules

import (
	"fmt"

	"github.com/okravets/volleyball-match-service/internal/model"
)

// sideFinished reports whether a side with teamScore points has won the
// set against otherScore under cfg. The cap short-circuits the win-by
// requirement: reaching the cap while strictly ahead ends the set.
func sideFinished(teamScore, otherScore int, cfg model.SetConfig) bool {
	if teamScore >= cfg.TargetScore && teamScore >= otherScore+cfg.WinBy {
		return true
	}
	return cfg.Cap > 0 && teamScore >= cfg.Cap && teamScore > otherScore
}

// IsSetFinished reports whether either side has won the set.
func IsSetFinished(score model.Score, cfg model.SetConfig) bool {
	return sideFinished(score.MyTeam, score.Opponent, cfg) ||
		sideFinished(score.Opponent, score.MyTeam, cfg)
}

// SetWinner returns the side that has won the set, if any.
func SetWinner(score model.Score, cfg model.SetConfig) (model.Team, bool) {
	if sideFinished(score.MyTeam, score.Opponent, cfg) {
		return model.TeamMy, true
	}
	if sideFinished(score.Opponent, score.MyTeam, cfg) {
		return model.TeamOpponent, true
	}
	return "", false
}

// IsSetPoint reports whether the side holding teamScore is one point
// away from winning the set: true iff scoring one more point would make
// the set finished for that side. Both sides can hold set point at once
// only when tied one short of target with win-by 1.
func IsSetPoint(teamScore, otherScore int, cfg model.SetConfig) bool {
	return sideFinished(teamScore+1, otherScore, cfg)
}

// IsMatchPoint reports whether a side's set point would also decide the
// match given how many sets it has already won.
func IsMatchPoint(setPointForTeam bool, setsWonByTeam, totalSets int) bool {
	return setPointForTeam && setsWonByTeam+1 == (totalSets+1)/2
}

// MustWinByMessage returns a deuce indicator once both sides are within
// one point of target but the required margin is not yet open.
func MustWinByMessage(score model.Score, cfg model.SetConfig) (string, bool) {
	diff := score.MyTeam - score.Opponent
	if diff < 0 {
		diff = -diff
	}
	if score.MyTeam >= cfg.TargetScore-1 && score.Opponent >= cfg.TargetScore-1 && diff < cfg.WinBy {
		return fmt.Sprintf("Win by %d", cfg.WinBy), true
	}
	return "", false
}
