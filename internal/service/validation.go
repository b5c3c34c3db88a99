package service

import (
	"fmt"

	"github.com/okravets/volleyball-match-service/internal/model"
	"github.com/okravets/volleyball-match-service/internal/repository"
)

func normalizePage(p repository.Page) repository.Page {
	limit := p.Limit
	offset := p.Offset
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

// validateMatchConfig checks the structural invariants of a match
// configuration: at least one set, win conditions per set with
// cap >= target and win-by >= 1, non-negative allowances.
func validateMatchConfig(c model.MatchConfig) []FieldError {
	var ferrs []FieldError
	if c.TotalSets < 1 {
		ferrs = append(ferrs, FieldError{Field: "config.total_sets", Message: "must be >= 1"})
	}
	if len(c.Sets) == 0 {
		ferrs = append(ferrs, FieldError{Field: "config.sets", Message: "must contain at least one set"})
	}
	for i, set := range c.Sets {
		if set.TargetScore < 1 {
			ferrs = append(ferrs, FieldError{Field: fmt.Sprintf("config.sets[%d].target_score", i), Message: "must be >= 1"})
		}
		if set.WinBy < 1 {
			ferrs = append(ferrs, FieldError{Field: fmt.Sprintf("config.sets[%d].win_by", i), Message: "must be >= 1"})
		}
		if set.Cap < set.TargetScore {
			ferrs = append(ferrs, FieldError{Field: fmt.Sprintf("config.sets[%d].cap", i), Message: "must be >= target_score"})
		}
	}
	if c.TimeoutsPerSet < 0 {
		ferrs = append(ferrs, FieldError{Field: "config.timeouts_per_set", Message: "must be >= 0"})
	}
	if c.SubsPerSet < 0 {
		ferrs = append(ferrs, FieldError{Field: "config.subs_per_set", Message: "must be >= 0"})
	}
	return ferrs
}

// validateLineup rejects duplicate players across positions and, when a
// roster is supplied, players the roster does not know. An empty lineup
// is fine; slots are assigned later.
func validateLineup(lineup model.Rotation, roster []model.Player) []FieldError {
	var ferrs []FieldError
	if len(lineup) != 0 && len(lineup) != 6 {
		return append(ferrs, FieldError{Field: "lineup", Message: "must have exactly 6 positions"})
	}
	known := make(map[model.PlayerID]bool, len(roster))
	for _, p := range roster {
		known[p.ID] = true
	}
	seen := make(map[model.PlayerID]int, len(lineup))
	for _, slot := range lineup {
		if slot.PlayerID == "" {
			continue
		}
		if prev, dup := seen[slot.PlayerID]; dup {
			ferrs = append(ferrs, FieldError{
				Field:   fmt.Sprintf("lineup[%d].player_id", slot.Position),
				Message: fmt.Sprintf("player already assigned to position %d", prev),
			})
			continue
		}
		seen[slot.PlayerID] = slot.Position
		if len(roster) > 0 && !known[slot.PlayerID] {
			ferrs = append(ferrs, FieldError{
				Field:   fmt.Sprintf("lineup[%d].player_id", slot.Position),
				Message: "player is not on the roster",
			})
		}
	}
	return ferrs
}
