// Package match implements the live match aggregate: a single-writer
// state machine over set scores, rotations, timeouts, substitutions,
// and the play-by-play log. Commands validate through the rules and
// rotation engines, append to the event log, and keep the cached
// projections (scores, sets won, serving team, rally phase) consistent
// with a replay of the log. Guard failures are silent no-ops signalled
// by boolean returns; nothing in this package panics or throws on an
// illegal command, a coach keeps scoring uninterrupted.
package match

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/okravets/volleyball-match-service/internal/eventlog"
	"github.com/okravets/volleyball-match-service/internal/model"
	"github.com/okravets/volleyball-match-service/internal/rotation"
	"github.com/okravets/volleyball-match-service/internal/rules"
)

// Setup is everything the setup collaborator seeds a match with. The
// core never originates this data.
type Setup struct {
	ID            string
	MyTeamName    string
	OpponentName  string
	SeasonID      string
	EventID       string
	Config        model.MatchConfig
	InitialLineup model.Rotation
	LiberoIDs     []model.PlayerID
	// ServingTeam may pre-select the first server of set 1; it can
	// also be chosen later via SelectFirstServer.
	ServingTeam model.Team
}

// Match is the aggregate root. All exported methods serialize through
// a single mutex; reads hand out deep copies, never internal slices.
type Match struct {
	mu  sync.Mutex
	log zerolog.Logger

	id           string
	myTeamName   string
	opponentName string
	seasonID     string
	eventID      string
	config       model.MatchConfig

	currentSet int
	scores     []model.Score
	setsWon    model.Score
	setResults []model.SetResult

	events *eventlog.Log

	servingTeam model.Team
	rallyPhase  model.RallyPhase

	// rotations holds the live lineup per set; initialRotations holds
	// each set's lineup as it stood at set start and is the replay base
	// for undo.
	rotations        map[int]model.Rotation
	initialRotations map[int]model.Rotation

	timeoutsRemaining model.Score
	subsRemaining     model.Score

	liberoIDs   map[model.PlayerID]bool
	firstServer map[int]model.Team

	finalized bool
}

// New builds a match in set 1, pre-serve, with full timeout and
// substitution allowances.
func New(setup Setup, logger zerolog.Logger) *Match {
	id := setup.ID
	if id == "" {
		id = uuid.NewString()
	}
	lineup := rotation.Cascade(setup.InitialLineup)
	liberos := make(map[model.PlayerID]bool, len(setup.LiberoIDs))
	for _, p := range setup.LiberoIDs {
		if p != "" {
			liberos[p] = true
		}
	}
	m := &Match{
		log:              logger.With().Str("module", "match").Str("match_id", id).Logger(),
		id:               id,
		myTeamName:       setup.MyTeamName,
		opponentName:     setup.OpponentName,
		seasonID:         setup.SeasonID,
		eventID:          setup.EventID,
		config:           setup.Config,
		currentSet:       1,
		scores:           []model.Score{{}},
		events:           eventlog.New(),
		rallyPhase:       model.RallyPreServe,
		rotations:        map[int]model.Rotation{1: lineup},
		initialRotations: map[int]model.Rotation{1: lineup.Clone()},
		liberoIDs:        liberos,
		firstServer:      make(map[int]model.Team),
	}
	m.resetAllowances()
	if setup.ServingTeam.Valid() {
		m.selectFirstServerLocked(setup.ServingTeam)
	}
	return m
}

// Resume rebuilds a match from a persisted record so it can be edited
// further. Stored lineups are the set-start lineups; live rotations are
// re-derived by replaying the log on top of them.
func Resume(record model.MatchRecord, logger zerolog.Logger) *Match {
	m := New(Setup{
		ID:           record.ID,
		OpponentName: record.OpponentName,
		SeasonID:     record.SeasonID,
		EventID:      record.EventID,
		Config:       record.Config,
	}, logger)
	m.events = eventlog.Restore(record.History)
	if len(record.Scores) > 0 {
		m.currentSet = len(record.Scores)
		m.scores = make([]model.Score, len(record.Scores))
		copy(m.scores, record.Scores)
	}
	m.initialRotations = make(map[int]model.Rotation, len(record.Lineups))
	m.rotations = make(map[int]model.Rotation, len(record.Lineups))
	for set, lineup := range record.Lineups {
		m.initialRotations[set] = lineup.Clone()
	}
	entries := m.events.Entries()
	for set := 1; set <= m.currentSet; set++ {
		m.rotations[set] = eventlog.DeriveRotation(entries, set, m.initialRotations[set])
	}
	m.rebuildSet(m.currentSet)
	return m
}

// ID returns the match identifier.
func (m *Match) ID() string { return m.id }

// Snapshot returns a deep copy of the aggregate, safe to hold across
// later commands.
func (m *Match) Snapshot() model.MatchState {
	m.mu.Lock()
	defer m.mu.Unlock()

	scores := make([]model.Score, len(m.scores))
	copy(scores, m.scores)
	results := make([]model.SetResult, len(m.setResults))
	copy(results, m.setResults)
	rotations := make(map[int]model.Rotation, len(m.rotations))
	for set, r := range m.rotations {
		rotations[set] = r.Clone()
	}
	servers := make(map[int]model.Team, len(m.firstServer))
	for set, t := range m.firstServer {
		servers[set] = t
	}
	liberos := make([]model.PlayerID, 0, len(m.liberoIDs))
	for p := range m.liberoIDs {
		liberos = append(liberos, p)
	}

	return model.MatchState{
		ID:                m.id,
		MyTeamName:        m.myTeamName,
		OpponentName:      m.opponentName,
		Config:            m.config,
		CurrentSet:        m.currentSet,
		Scores:            scores,
		SetsWon:           m.setsWon,
		SetResults:        results,
		History:           m.events.Entries(),
		ServingTeam:       m.servingTeam,
		RallyPhase:        m.rallyPhase,
		CurrentRotation:   m.rotations[m.currentSet].Clone(),
		RotationsBySet:    rotations,
		TimeoutsRemaining: m.timeoutsRemaining,
		SubsRemaining:     m.subsRemaining,
		LiberoIDs:         liberos,
		FirstServerBySet:  servers,
		Finalized:         m.finalized,
	}
}

// CurrentRally returns the active set's trailing same-snapshot run.
func (m *Match) CurrentRally() []model.StatLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events.CurrentRally(m.currentSet)
}

// currentScore returns the active set's score.
func (m *Match) currentScore() model.Score {
	return m.scores[m.currentSet-1]
}

func (m *Match) setCurrentScore(s model.Score) {
	m.scores[m.currentSet-1] = s
}

// currentSetFinished reports whether the active set already has a
// winner; most commands are rejected in that window until the caller
// starts the next set or finalizes.
func (m *Match) currentSetFinished() bool {
	return rules.IsSetFinished(m.currentScore(), m.config.SetConfigFor(m.currentSet))
}

func (m *Match) resetAllowances() {
	m.timeoutsRemaining = model.Score{MyTeam: m.config.TimeoutsPerSet, Opponent: m.config.TimeoutsPerSet}
	m.subsRemaining = model.Score{MyTeam: m.config.SubsPerSet, Opponent: m.config.SubsPerSet}
}

// recomputeStanding rebuilds set results and sets won from the score
// projection. Finished sets always re-derive to the same result, so
// recorded SetResults stay immutable in effect.
func (m *Match) recomputeStanding() {
	m.setResults = m.setResults[:0]
	m.setsWon = model.Score{}
	for i, score := range m.scores {
		cfg := m.config.SetConfigFor(i + 1)
		if winner, ok := rules.SetWinner(score, cfg); ok {
			m.setResults = append(m.setResults, model.SetResult{SetNumber: i + 1, Score: score, Winner: winner})
			m.setsWon = m.setsWon.WithPoint(winner)
		}
	}
}

// rebuildSet re-derives every projection of one set from the log. This
// is the undo path: rather than reversing individual deltas, the set is
// replayed so score, rotation, counters, serving team, and rally phase
// cannot drift from history.
func (m *Match) rebuildSet(set int) {
	if set < 1 || set > len(m.scores) {
		m.recomputeStanding()
		return
	}
	entries := m.events.Entries()
	m.scores[set-1] = eventlog.DeriveScore(entries, set)
	m.rotations[set] = eventlog.DeriveRotation(entries, set, m.initialRotations[set])
	if set == m.currentSet {
		m.timeoutsRemaining = model.Score{
			MyTeam:   clampZero(m.config.TimeoutsPerSet - eventlog.CountType(entries, set, model.TeamMy, model.StatTimeout)),
			Opponent: clampZero(m.config.TimeoutsPerSet - eventlog.CountType(entries, set, model.TeamOpponent, model.StatTimeout)),
		}
		m.subsRemaining = model.Score{
			MyTeam:   clampZero(m.config.SubsPerSet - eventlog.CountType(entries, set, model.TeamMy, model.StatSubstitution)),
			Opponent: clampZero(m.config.SubsPerSet - eventlog.CountType(entries, set, model.TeamOpponent, model.StatSubstitution)),
		}
		m.servingTeam = eventlog.DeriveServing(entries, set, m.firstServer[set])
		m.rallyPhase = eventlog.DeriveRallyPhase(entries, set)
	}
	m.recomputeStanding()
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (m *Match) matchDecided() bool {
	need := m.config.SetsToWin()
	return m.setsWon.MyTeam >= need || m.setsWon.Opponent >= need
}
