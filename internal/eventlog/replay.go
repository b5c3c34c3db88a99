package eventlog

import (
	"github.com/okravets/volleyball-match-service/internal/model"

	"github.com/okravets/volleyball-match-service/internal/rotation"
)

// DeriveScore folds a set's events into its score: terminal events add
// a point for their winner, point adjustments overwrite with the score
// they recorded. This fold is the single source of truth the cached
// score projection must agree with.
func DeriveScore(entries []model.StatLog, setNumber int) model.Score {
	var score model.Score
	for _, e := range entries {
		if e.SetNumber != setNumber {
			continue
		}
		if e.Type == model.StatPointAdjust {
			if e.Metadata != nil && e.Metadata.ScoreAfter != nil {
				score = *e.Metadata.ScoreAfter
			}
			continue
		}
		if winner, ok := e.Type.PointWinner(e.Team); ok {
			score = score.WithPoint(winner)
		}
	}
	return score
}

// DeriveRotation replays a set's rotation and substitution events on
// top of the set's initial lineup. Substitutions that were rejected at
// record time never made it into the log, so replay cannot fail; a
// malformed entry is skipped rather than guessed at.
func DeriveRotation(entries []model.StatLog, setNumber int, initial model.Rotation) model.Rotation {
	current := rotation.Cascade(initial)
	for _, e := range entries {
		if e.SetNumber != setNumber || e.Metadata == nil {
			continue
		}
		switch e.Type {
		case model.StatRotation:
			if e.Metadata.Direction != "" {
				current = rotation.Rotate(e.Metadata.Direction, current)
			}
		case model.StatSubstitution:
			next, _, err := rotation.Substitute(current, e.Metadata.Position, e.Metadata.SubIn, e.Metadata.IsLibero)
			if err == nil {
				current = next
			}
		}
	}
	return current
}

// DeriveServing folds terminal events to find who serves next: the
// winner of the last decided point, starting from the set's first
// server.
func DeriveServing(entries []model.StatLog, setNumber int, firstServer model.Team) model.Team {
	serving := firstServer
	for _, e := range entries {
		if e.SetNumber != setNumber {
			continue
		}
		if winner, ok := e.Type.PointWinner(e.Team); ok {
			serving = winner
		}
	}
	return serving
}

// DeriveRallyPhase reports whether the set's last play event left the
// ball live. Administrative entries do not move the phase.
func DeriveRallyPhase(entries []model.StatLog, setNumber int) model.RallyPhase {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.SetNumber != setNumber || e.Type.IsAdministrative() {
			continue
		}
		if e.Type.StartsRally() {
			return model.RallyInPlay
		}
		return model.RallyPreServe
	}
	return model.RallyPreServe
}

// CountType returns how many entries of the given type a side recorded
// in a set, used to rebuild timeout and substitution allowances.
func CountType(entries []model.StatLog, setNumber int, team model.Team, statType model.StatType) int {
	n := 0
	for _, e := range entries {
		if e.SetNumber != setNumber || e.Team != team || e.Type != statType {
			continue
		}
		if statType == model.StatSubstitution && e.Metadata != nil && (e.Metadata.IsAssignment || e.Metadata.IsLibero) {
			// Initial assignments and libero replacements are not
			// charged against the substitution allowance.
			continue
		}
		n++
	}
	return n
}
