package match

import (
	"github.com/okravets/volleyball-match-service/internal/eventlog"
	"github.com/okravets/volleyball-match-service/internal/model"
	"github.com/okravets/volleyball-match-service/internal/rotation"
	"github.com/okravets/volleyball-match-service/internal/rules"
)

// StatInput is a record-stat command. Players carries the UI selection
// in order: for attack and block types, two selections mean
// [assist, primary]; a single selection is the primary only.
type StatInput struct {
	Type    model.StatType
	Team    model.Team
	Players []model.PlayerID
	Notes   string
}

// StatOutcome reports the facts a caller reacts to after a stat lands.
// The state machine never auto-advances on SetFinished; the caller
// decides what flow to show next.
type StatOutcome struct {
	Event         model.StatLog `json:"event"`
	PointWinner   model.Team    `json:"point_winner,omitempty"`
	PointScored   bool          `json:"point_scored"`
	Score         model.Score   `json:"score"`
	SetFinished   bool          `json:"set_finished"`
	MatchFinished bool          `json:"match_finished"`
	SetPointMy    bool          `json:"set_point_my"`
	SetPointOpp   bool          `json:"set_point_opponent"`
	MatchPointMy  bool          `json:"match_point_my"`
	MatchPointOpp bool          `json:"match_point_opponent"`
	DeuceMessage  string        `json:"deuce_message,omitempty"`
}

// RecordStat applies a play event: appends it with the prior score as
// snapshot, awards the point for terminal types (errors to the other
// side, scorers to the actor), flips serve to the winner, and moves the
// rally phase. Rejected commands return ok=false and change nothing.
func (m *Match) RecordStat(in StatInput) (StatOutcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalized || !in.Type.Valid() || in.Type.IsAdministrative() || !in.Team.Valid() {
		return StatOutcome{}, false
	}
	if m.currentSetFinished() {
		return StatOutcome{}, false
	}
	// Serve outcomes belong to the serving team, receive grades to the
	// receiving team; both need a first server chosen.
	if in.Type.IsServe() && (m.servingTeam == "" || in.Team != m.servingTeam) {
		return StatOutcome{}, false
	}
	if in.Type.IsReceive() && (m.servingTeam == "" || in.Team == m.servingTeam) {
		return StatOutcome{}, false
	}

	entry := model.StatLog{
		Type:          in.Type,
		Team:          in.Team,
		SetNumber:     m.currentSet,
		ScoreSnapshot: m.currentScore(),
	}
	switch {
	case len(in.Players) >= 2 && in.Type.AcceptsAssist():
		entry.AssistPlayerID = in.Players[0]
		entry.PlayerID = in.Players[1]
	case len(in.Players) >= 1:
		entry.PlayerID = in.Players[0]
	}
	if in.Notes != "" {
		entry.Metadata = &model.StatMetadata{Notes: in.Notes}
	}
	entry = m.events.Append(entry)

	out := StatOutcome{Event: entry}
	if winner, terminal := in.Type.PointWinner(in.Team); terminal {
		m.setCurrentScore(m.currentScore().WithPoint(winner))
		m.servingTeam = winner
		m.rallyPhase = model.RallyPreServe
		m.recomputeStanding()
		out.PointWinner = winner
		out.PointScored = true
	} else if in.Type.StartsRally() {
		m.rallyPhase = model.RallyInPlay
	}
	m.fillScoreFacts(&out)

	m.log.Debug().
		Str("stat", string(in.Type)).
		Str("team", string(in.Team)).
		Int("set", m.currentSet).
		Bool("point", out.PointScored).
		Msg("stat recorded")
	return out, true
}

// fillScoreFacts derives the notification facts from the post-command
// score so the caller never re-implements the rules engine.
func (m *Match) fillScoreFacts(out *StatOutcome) {
	cfg := m.config.SetConfigFor(m.currentSet)
	score := m.currentScore()
	out.Score = score
	out.SetFinished = rules.IsSetFinished(score, cfg)
	out.MatchFinished = m.matchDecided()
	if !out.SetFinished {
		out.SetPointMy = rules.IsSetPoint(score.MyTeam, score.Opponent, cfg)
		out.SetPointOpp = rules.IsSetPoint(score.Opponent, score.MyTeam, cfg)
		out.MatchPointMy = rules.IsMatchPoint(out.SetPointMy, m.setsWon.MyTeam, m.config.TotalSets)
		out.MatchPointOpp = rules.IsMatchPoint(out.SetPointOpp, m.setsWon.Opponent, m.config.TotalSets)
		if msg, ok := rules.MustWinByMessage(score, cfg); ok {
			out.DeuceMessage = msg
		}
	}
}

// adjustScore overwrites the current set's score and logs the override
// as a point adjustment carrying the resulting score, which is what the
// replay fold applies.
func (m *Match) adjustScore(team model.Team, next model.Score, notes string) {
	after := next
	m.events.Append(model.StatLog{
		Type:          model.StatPointAdjust,
		Team:          team,
		SetNumber:     m.currentSet,
		ScoreSnapshot: m.currentScore(),
		Metadata:      &model.StatMetadata{ScoreAfter: &after, Notes: notes},
	})
	m.setCurrentScore(next)
	m.recomputeStanding()
}

// IncrementScore adds a manual point for a side outside direct stat
// recording.
func (m *Match) IncrementScore(team model.Team) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized || !team.Valid() {
		return false
	}
	m.adjustScore(team, m.currentScore().WithPoint(team), "manual increment")
	return true
}

// DecrementScore removes a manual point; it is a no-op at zero.
func (m *Match) DecrementScore(team model.Team) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized || !team.Valid() {
		return false
	}
	current := m.currentScore()
	if current.ForTeam(team) <= 0 {
		return false
	}
	m.adjustScore(team, current.WithForTeam(team, current.ForTeam(team)-1), "manual decrement")
	return true
}

// SetScore overwrites one side's count, used for corrections.
func (m *Match) SetScore(team model.Team, value int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized || !team.Valid() || value < 0 {
		return false
	}
	m.adjustScore(team, m.currentScore().WithForTeam(team, value), "manual override")
	return true
}

// UseTimeout burns a timeout for the side if any remain and logs it.
func (m *Match) UseTimeout(team model.Team) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized || !team.Valid() || m.timeoutsRemaining.ForTeam(team) <= 0 {
		return false
	}
	m.events.Append(model.StatLog{
		Type:          model.StatTimeout,
		Team:          team,
		SetNumber:     m.currentSet,
		ScoreSnapshot: m.currentScore(),
	})
	m.timeoutsRemaining = m.timeoutsRemaining.WithForTeam(team, m.timeoutsRemaining.ForTeam(team)-1)
	return true
}

// Rotate shifts the tracked team's lineup and logs the rotation. The
// returned fact reports a libero left in the front row; the rotation
// stands either way.
func (m *Match) Rotate(direction model.RotateDirection) (*rotation.IllegalLibero, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized || (direction != model.RotateForward && direction != model.RotateBackward) {
		return nil, false
	}
	m.rotations[m.currentSet] = rotation.Rotate(direction, m.rotations[m.currentSet])
	m.events.Append(model.StatLog{
		Type:          model.StatRotation,
		Team:          model.TeamMy,
		SetNumber:     m.currentSet,
		ScoreSnapshot: m.currentScore(),
		Metadata:      &model.StatMetadata{Direction: direction},
	})
	return m.liberoFact(), true
}

// Substitute replaces the occupant of a position. Regular substitutions
// consume the per-set allowance; libero replacements do not. Duplicate
// assignment of a player is rejected with the rotation engine's error.
func (m *Match) Substitute(position int, player model.PlayerID, isLibero bool) (rotation.Swap, *rotation.IllegalLibero, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.substituteLocked(position, player, isLibero, false)
}

// AssignPosition seeds or edits a lineup slot without charging the
// substitution allowance, used while building the starting six.
func (m *Match) AssignPosition(position int, player model.PlayerID, isLibero bool) (rotation.Swap, *rotation.IllegalLibero, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.substituteLocked(position, player, isLibero, true)
}

func (m *Match) substituteLocked(position int, player model.PlayerID, isLibero bool, assignment bool) (rotation.Swap, *rotation.IllegalLibero, error) {
	if m.finalized {
		return rotation.Swap{}, nil, ErrFinalized
	}
	charged := !assignment && !isLibero
	if charged && m.subsRemaining.MyTeam <= 0 {
		return rotation.Swap{}, nil, ErrNoSubsRemaining
	}
	next, swap, err := rotation.Substitute(m.rotations[m.currentSet], position, player, isLibero)
	if err != nil {
		return rotation.Swap{}, nil, err
	}
	m.rotations[m.currentSet] = next
	if assignment {
		// Pre-rally assignments are part of the set's starting lineup
		// and must survive an undo replay, so they update the base too.
		if base, _, baseErr := rotation.Substitute(m.initialRotations[m.currentSet], position, player, isLibero); baseErr == nil {
			m.initialRotations[m.currentSet] = base
		}
	}
	if isLibero && player != "" {
		m.liberoIDs[player] = true
	}
	m.events.Append(model.StatLog{
		Type:          model.StatSubstitution,
		Team:          model.TeamMy,
		SetNumber:     m.currentSet,
		PlayerID:      player,
		ScoreSnapshot: m.currentScore(),
		Metadata: &model.StatMetadata{
			SubIn:        swap.SubIn,
			SubOut:       swap.SubOut,
			AutoSwap:     swap.AutoSwap,
			IsAssignment: assignment,
			IsLibero:     isLibero,
			Position:     position,
		},
	})
	if charged {
		m.subsRemaining.MyTeam--
	}
	return swap, m.liberoFact(), nil
}

// SetDesignatedSub pairs a bench player with a position for quick
// re-entry. Lineup metadata only; no event is logged.
func (m *Match) SetDesignatedSub(position int, sub model.PlayerID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized {
		return false
	}
	next, err := rotation.SetDesignatedSub(m.rotations[m.currentSet], position, sub)
	if err != nil {
		return false
	}
	m.rotations[m.currentSet] = next
	if base, baseErr := rotation.SetDesignatedSub(m.initialRotations[m.currentSet], position, sub); baseErr == nil {
		m.initialRotations[m.currentSet] = base
	}
	return true
}

func (m *Match) liberoFact() *rotation.IllegalLibero {
	if fact, found := rotation.DetectIllegalLibero(m.rotations[m.currentSet], m.liberoIDs); found {
		m.log.Warn().Int("position", fact.Position).Str("player", string(fact.PlayerID)).Msg("libero in front row")
		return &fact
	}
	return nil
}

// SelectFirstServer makes the explicit first-serve choice for the
// current set. It is only accepted before play starts and only once per
// set. Choosing the opponent shifts the starting lineup backward so
// stored positions match legal standing relative to serve order; that
// shift is not logged as a rotation event.
func (m *Match) SelectFirstServer(team model.Team) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectFirstServerLocked(team)
}

func (m *Match) selectFirstServerLocked(team model.Team) bool {
	if m.finalized || !team.Valid() {
		return false
	}
	if _, chosen := m.firstServer[m.currentSet]; chosen {
		return false
	}
	if m.currentScore().Total() != 0 {
		return false
	}
	m.firstServer[m.currentSet] = team
	m.servingTeam = team
	if team == model.TeamOpponent {
		adjusted := rotation.AdjustStarting(model.RotateBackward, m.rotations[m.currentSet])
		m.rotations[m.currentSet] = adjusted
		m.initialRotations[m.currentSet] = adjusted.Clone()
	}
	return true
}

// SuggestedFirstServer proposes the alternate of the previous set's
// first server for intermediate sets. Set 1 and the deciding set are
// explicit choices with no suggestion.
func (m *Match) SuggestedFirstServer() (model.Team, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentSet == 1 || m.currentSet == m.config.TotalSets {
		return "", false
	}
	prev, ok := m.firstServer[m.currentSet-1]
	if !ok {
		return "", false
	}
	return prev.Other(), true
}

// StartNextSet advances to the next set once the current one has a
// winner and the match is still open: fresh score, cascaded lineup,
// reset allowances, first server to be chosen.
func (m *Match) StartNextSet() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized || !m.currentSetFinished() || m.matchDecided() || m.currentSet >= m.config.TotalSets {
		return false
	}
	previous := m.rotations[m.currentSet]
	m.currentSet++
	m.scores = append(m.scores, model.Score{})
	cascaded := rotation.Cascade(previous)
	m.rotations[m.currentSet] = cascaded
	m.initialRotations[m.currentSet] = cascaded.Clone()
	m.resetAllowances()
	m.servingTeam = ""
	m.rallyPhase = model.RallyPreServe
	m.log.Info().Int("set", m.currentSet).Msg("set started")
	return true
}

// UndoLast pops the most recent history entry and replays the affected
// set's projections from what remains, which also rolls back any score,
// counter, serve, or rotation effect the entry had.
func (m *Match) UndoLast() (model.StatLog, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized {
		return model.StatLog{}, false
	}
	removed, ok := m.events.UndoLast()
	if !ok {
		return model.StatLog{}, false
	}
	m.rebuildSet(removed.SetNumber)
	return removed, true
}

// EditLogEntry applies a post-hoc attribution correction to a
// historical entry without altering order or snapshots.
func (m *Match) EditLogEntry(id string, update eventlog.EntryUpdate) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized {
		return false
	}
	return m.events.Edit(id, update)
}

// Finalize closes a decided match and hands back the read-only record
// for the persistence collaborator. Lineups are stored as each set's
// starting lineup, which together with the history reproduces every
// live rotation.
func (m *Match) Finalize() (model.MatchRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized || !m.matchDecided() {
		return model.MatchRecord{}, false
	}
	m.finalized = true

	result := model.ResultLoss
	if m.setsWon.MyTeam > m.setsWon.Opponent {
		result = model.ResultWin
	}
	scores := make([]model.Score, len(m.scores))
	copy(scores, m.scores)
	lineups := make(map[int]model.Rotation, len(m.initialRotations))
	for set, r := range m.initialRotations {
		lineups[set] = r.Clone()
	}
	m.log.Info().Str("result", string(result)).Msg("match finalized")
	return model.MatchRecord{
		ID:           m.id,
		SeasonID:     m.seasonID,
		EventID:      m.eventID,
		OpponentName: m.opponentName,
		Result:       result,
		SetsWon:      m.setsWon,
		Scores:       scores,
		History:      m.events.Entries(),
		Config:       m.config,
		Lineups:      lineups,
	}, true
}
