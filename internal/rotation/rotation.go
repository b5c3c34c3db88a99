// Package rotation owns the six-position lineup mechanics: cyclic
// rotation, substitutions, set-to-set cascade, and libero legality
// facts. Mutations that would corrupt the lineup (duplicate player,
// bad position index) are rejected here, before they can reach the
// event log; libero placement is only ever reported, never blocked.
package rotation

import (
	"errors"

	"github.com/okravets/volleyball-match-service/internal/model"
)

const positions = 6

// Front-row positions where a libero may not legally stand.
var frontRow = [...]int{2, 3, 4}

var (
	// ErrInvalidPosition rejects position indexes outside 1..6.
	ErrInvalidPosition = errors.New("position must be between 1 and 6")
	// ErrPlayerAlreadyAssigned rejects a substitution that would place
	// the same player in two positions at once.
	ErrPlayerAlreadyAssigned = errors.New("player already assigned to another position")
)

// Empty returns a lineup with six unoccupied slots.
func Empty() model.Rotation {
	r := make(model.Rotation, positions)
	for i := range r {
		r[i] = model.LineupPosition{Position: i + 1}
	}
	return r
}

// Cascade copies the previous set's rotation as the starting lineup for
// a new set. The copy is taken once, at initialization; later edits to
// either set never leak into the other.
func Cascade(previous model.Rotation) model.Rotation {
	if len(previous) != positions {
		return Empty()
	}
	return previous.Clone()
}

// Rotate shifts all six occupants one position cyclically. Forward is
// the standard serve rotation: the player at position N moves to N-1,
// with position 1 wrapping to 6. Backward is the inverse.
func Rotate(direction model.RotateDirection, r model.Rotation) model.Rotation {
	if len(r) != positions {
		return Cascade(r)
	}
	out := make(model.Rotation, positions)
	for i := 0; i < positions; i++ {
		var src int
		if direction == model.RotateBackward {
			src = (i + positions - 1) % positions
		} else {
			src = (i + 1) % positions
		}
		out[i] = r[src]
		out[i].Position = i + 1
	}
	return out
}

// AdjustStarting shifts the starting lineup without any rally having
// been played, used once when the opponent serves first so stored
// positions match where players legally stand relative to the server.
// Callers do not log this as a mid-rally rotation event.
func AdjustStarting(direction model.RotateDirection, r model.Rotation) model.Rotation {
	return Rotate(direction, r)
}

// Swap describes the outcome of a substitution: who came in, who went
// out, and whether it was a libero entering for a back-row player
// (a presentation hint for highlighting, not a distinct rule).
type Swap struct {
	SubIn    model.PlayerID
	SubOut   model.PlayerID
	AutoSwap bool
}

// Substitute replaces the occupant of a 1-based position with incoming.
// A player already holding a different position must be cleared first;
// assigning them again is an invariant violation and is rejected.
func Substitute(r model.Rotation, position int, incoming model.PlayerID, isLibero bool) (model.Rotation, Swap, error) {
	if position < 1 || position > positions {
		return r, Swap{}, ErrInvalidPosition
	}
	if len(r) != positions {
		r = Cascade(r)
	}
	if held, ok := r.PositionOf(incoming); ok && held != position {
		return r, Swap{}, ErrPlayerAlreadyAssigned
	}
	out := r.Clone()
	slot := &out[position-1]
	swap := Swap{
		SubIn:    incoming,
		SubOut:   slot.PlayerID,
		AutoSwap: isLibero && !isFrontRow(position) && slot.PlayerID != "",
	}
	slot.PlayerID = incoming
	slot.IsLibero = isLibero
	return out, swap, nil
}

// SetDesignatedSub records the bench player paired with a position for
// quick re-entry, without touching the on-court occupant.
func SetDesignatedSub(r model.Rotation, position int, sub model.PlayerID) (model.Rotation, error) {
	if position < 1 || position > positions {
		return r, ErrInvalidPosition
	}
	if len(r) != positions {
		r = Cascade(r)
	}
	out := r.Clone()
	out[position-1].DesignatedSubID = sub
	return out, nil
}

// IllegalLibero names the slot where a libero stands in the front row.
type IllegalLibero struct {
	Position int            `json:"position"`
	PlayerID model.PlayerID `json:"player_id"`
}

// DetectIllegalLibero surfaces a libero (by slot flag or membership in
// the persistent libero set) occupying a front-row position. This runs
// after every rotation or substitution; the match continues regardless,
// the caller only alerts on the returned fact.
func DetectIllegalLibero(r model.Rotation, liberoIDs map[model.PlayerID]bool) (IllegalLibero, bool) {
	for _, pos := range frontRow {
		if pos > len(r) {
			continue
		}
		slot := r[pos-1]
		if slot.PlayerID == "" {
			continue
		}
		if slot.IsLibero || liberoIDs[slot.PlayerID] {
			return IllegalLibero{Position: slot.Position, PlayerID: slot.PlayerID}, true
		}
	}
	return IllegalLibero{}, false
}

func isFrontRow(position int) bool {
	for _, p := range frontRow {
		if p == position {
			return true
		}
	}
	return false
}
