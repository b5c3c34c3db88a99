// Package eventlog keeps the flat play-by-play timeline that every
// other view is derived from. The log is append-only; undo pops the
// tail and the state machine rebuilds its projections with the fold
// functions below instead of reversing deltas, so log and score can
// never drift apart.
package eventlog

import (
	"time"

	"github.com/google/uuid"

	"github.com/okravets/volleyball-match-service/internal/model"
)

// Log is the ordered history of one match.
type Log struct {
	entries []model.StatLog
	now     func() time.Time
}

// New returns an empty log.
func New() *Log {
	return &Log{now: time.Now}
}

// Restore rebuilds a log from persisted entries, used when resuming a
// saved match for editing.
func Restore(entries []model.StatLog) *Log {
	l := New()
	l.entries = append(l.entries, entries...)
	return l
}

// Append assigns a unique id and timestamp and stores the entry. The
// caller supplies ScoreSnapshot as the score prior to the event's
// effect; Append never recomputes it.
func (l *Log) Append(entry model.StatLog) model.StatLog {
	entry.ID = uuid.NewString()
	entry.Timestamp = l.now().UnixMilli()
	l.entries = append(l.entries, entry)
	return entry
}

// UndoLast removes and returns the most recent entry of the flat
// timeline, administrative or not.
func (l *Log) UndoLast() (model.StatLog, bool) {
	if len(l.entries) == 0 {
		return model.StatLog{}, false
	}
	last := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return last, true
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Entries returns a copy of the full timeline in append order.
func (l *Log) Entries() []model.StatLog {
	out := make([]model.StatLog, len(l.entries))
	copy(out, l.entries)
	return out
}

// CurrentRally returns the trailing contiguous run of the given set's
// events that share the last event's score snapshot, in chronological
// order. A differing snapshot means a point has been scored since, so
// the run before it belongs to a previous rally. Administrative entries
// are part of the rally narrative and are included.
func (l *Log) CurrentRally(setNumber int) []model.StatLog {
	var set []model.StatLog
	for _, e := range l.entries {
		if e.SetNumber == setNumber {
			set = append(set, e)
		}
	}
	if len(set) == 0 {
		return nil
	}
	snapshot := set[len(set)-1].ScoreSnapshot
	start := len(set) - 1
	for start > 0 && set[start-1].ScoreSnapshot == snapshot {
		start--
	}
	return set[start:]
}

// EntryUpdate is the whitelist of fields a historical entry may take on
// after the fact. Identity fields (id, type, set number, snapshot) are
// frozen so a correction can never rewrite historical scoring.
type EntryUpdate struct {
	PlayerID       *model.PlayerID
	AssistPlayerID *model.PlayerID
	Team           *model.Team
	Notes          *string
}

// Edit applies an in-place attribution correction to the entry with the
// given id, preserving log order and snapshots. It reports whether the
// entry was found.
func (l *Log) Edit(id string, update EntryUpdate) bool {
	for i := range l.entries {
		if l.entries[i].ID != id {
			continue
		}
		e := &l.entries[i]
		if update.PlayerID != nil {
			e.PlayerID = *update.PlayerID
		}
		if update.AssistPlayerID != nil {
			e.AssistPlayerID = *update.AssistPlayerID
		}
		if update.Team != nil && update.Team.Valid() {
			// Reassigning the acting team of a point-producing entry
			// would flip the point's winner on the next replay; only
			// non-terminal entries may move between teams.
			if _, terminal := e.Type.PointWinner(e.Team); !terminal {
				e.Team = *update.Team
			}
		}
		if update.Notes != nil {
			if e.Metadata == nil {
				e.Metadata = &model.StatMetadata{}
			}
			e.Metadata.Notes = *update.Notes
		}
		return true
	}
	return false
}
