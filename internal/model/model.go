// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes without behavior beyond
// enum classification; orchestration lives in the engine packages.
package model

import "time"

// Team identifies one of the two sides of a match, always from the
// tracked team's perspective.
type Team string

const (
	TeamMy       Team = "my_team"
	TeamOpponent Team = "opponent"
)

// Valid reports whether t is one of the two known sides.
func (t Team) Valid() bool { return t == TeamMy || t == TeamOpponent }

// Other returns the opposing side.
func (t Team) Other() Team {
	if t == TeamMy {
		return TeamOpponent
	}
	return TeamMy
}

// Score is a pair of point counts, also reused as the shape for
// per-team counters (sets won, timeouts remaining, subs remaining).
type Score struct {
	MyTeam   int `json:"my_team"`
	Opponent int `json:"opponent"`
}

// ForTeam returns the count belonging to the given side.
func (s Score) ForTeam(t Team) int {
	if t == TeamMy {
		return s.MyTeam
	}
	return s.Opponent
}

// WithPoint returns a copy with one point added for the given side.
func (s Score) WithPoint(t Team) Score {
	if t == TeamMy {
		s.MyTeam++
	} else {
		s.Opponent++
	}
	return s
}

// WithForTeam returns a copy with the given side's count replaced.
func (s Score) WithForTeam(t Team, value int) Score {
	if t == TeamMy {
		s.MyTeam = value
	} else {
		s.Opponent = value
	}
	return s
}

// Total is the combined point count, used to key suggestion dismissal.
func (s Score) Total() int { return s.MyTeam + s.Opponent }

// SetConfig describes the win condition of a single set.
// Cap short-circuits the win-by requirement (rally-cap rule).
type SetConfig struct {
	TargetScore int `json:"target_score" mapstructure:"target_score" validate:"min=1"`
	WinBy       int `json:"win_by" mapstructure:"win_by" validate:"min=1"`
	Cap         int `json:"cap" mapstructure:"cap" validate:"min=1,gtefield=TargetScore"`
}

// MatchConfig is immutable per match.
type MatchConfig struct {
	TotalSets      int         `json:"total_sets" validate:"min=1"`
	Sets           []SetConfig `json:"sets" validate:"min=1,dive"`
	TimeoutsPerSet int         `json:"timeouts_per_set" validate:"min=0"`
	SubsPerSet     int         `json:"subs_per_set" validate:"min=0"`
}

// SetConfigFor returns the config for a 1-based set number; the last
// entry is reused when the set index exceeds the configured list.
func (c MatchConfig) SetConfigFor(setNumber int) SetConfig {
	if len(c.Sets) == 0 {
		return SetConfig{TargetScore: 25, WinBy: 2, Cap: 27}
	}
	idx := setNumber - 1
	if idx >= len(c.Sets) {
		idx = len(c.Sets) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return c.Sets[idx]
}

// SetsToWin is the number of set wins that decides the match.
func (c MatchConfig) SetsToWin() int { return (c.TotalSets + 1) / 2 }

// PlayerID is an opaque roster reference. The core never resolves it;
// display names and jersey numbers are the caller's responsibility.
type PlayerID string

// Player is the roster entry supplied by the setup collaborator.
type Player struct {
	ID           PlayerID `json:"id"`
	Name         string   `json:"name"`
	JerseyNumber int      `json:"jersey_number"`
	Positions    []string `json:"positions,omitempty"`
}

// StatType is the closed set of recordable events.
type StatType string

const (
	// Serve outcomes.
	StatAce        StatType = "ace"
	StatServeGood  StatType = "serve_good"
	StatServeError StatType = "serve_error"

	// Receive quality, graded 3 (perfect) down to 0 (overpass lost).
	StatReceive3     StatType = "receive_3"
	StatReceive2     StatType = "receive_2"
	StatReceive1     StatType = "receive_1"
	StatReceive0     StatType = "receive_0"
	StatReceiveError StatType = "receive_error"

	// Attack outcomes.
	StatKill        StatType = "kill"
	StatAttackGood  StatType = "attack_good"
	StatAttackError StatType = "attack_error"

	// Defense.
	StatBlock    StatType = "block"
	StatDig      StatType = "dig"
	StatDigError StatType = "dig_error"

	// Faults.
	StatSetError  StatType = "set_error"
	StatPassError StatType = "pass_error"
	StatDrop      StatType = "drop"

	// Administrative entries.
	StatTimeout      StatType = "timeout"
	StatPointAdjust  StatType = "point_adjust"
	StatSubstitution StatType = "substitution"
	StatRotation     StatType = "rotation"
)

// Valid reports whether t belongs to the closed variant set.
func (t StatType) Valid() bool {
	switch t {
	case StatAce, StatServeGood, StatServeError,
		StatReceive3, StatReceive2, StatReceive1, StatReceive0, StatReceiveError,
		StatKill, StatAttackGood, StatAttackError,
		StatBlock, StatDig, StatDigError,
		StatSetError, StatPassError, StatDrop,
		StatTimeout, StatPointAdjust, StatSubstitution, StatRotation:
		return true
	}
	return false
}

// IsAdministrative reports whether t is bookkeeping rather than play.
func (t StatType) IsAdministrative() bool {
	switch t {
	case StatTimeout, StatPointAdjust, StatSubstitution, StatRotation:
		return true
	}
	return false
}

// IsServe reports whether t is a serve outcome.
func (t StatType) IsServe() bool {
	switch t {
	case StatAce, StatServeGood, StatServeError:
		return true
	}
	return false
}

// IsReceive reports whether t is a receive grade.
func (t StatType) IsReceive() bool {
	switch t {
	case StatReceive3, StatReceive2, StatReceive1, StatReceive0, StatReceiveError:
		return true
	}
	return false
}

// StartsRally reports whether recording t moves play from pre-serve
// into an open rally (the ball stayed in play).
func (t StatType) StartsRally() bool {
	switch t {
	case StatServeGood, StatReceive3, StatReceive2, StatReceive1:
		return true
	}
	return false
}

// PointWinner resolves which side a terminal event awards the point to:
// error types award the opposing team, scorer types the acting team.
// ok is false for non-terminal events.
func (t StatType) PointWinner(actor Team) (winner Team, ok bool) {
	switch t {
	case StatAce, StatKill, StatBlock:
		return actor, true
	case StatServeError, StatReceive0, StatReceiveError,
		StatAttackError, StatDigError,
		StatSetError, StatPassError, StatDrop:
		return actor.Other(), true
	}
	return "", false
}

// AcceptsAssist reports whether t supports two-player attribution
// (first selected player credited as assist, second as primary).
func (t StatType) AcceptsAssist() bool {
	switch t {
	case StatKill, StatAttackGood, StatAttackError, StatBlock:
		return true
	}
	return false
}

// IsMomentumTerminal reports whether t participates in the momentum
// analyzer's backward scan window.
func (t StatType) IsMomentumTerminal() bool {
	switch t {
	case StatAce, StatServeError, StatKill, StatAttackError,
		StatDigError, StatReceive0, StatBlock:
		return true
	}
	return false
}

// IsUnforcedError reports whether t counts toward the consecutive-error
// chain in momentum analysis.
func (t StatType) IsUnforcedError() bool {
	switch t {
	case StatServeError, StatAttackError, StatDigError,
		StatReceive0, StatSetError:
		return true
	}
	return false
}

// IsEarnedSkill reports whether t is a point earned by the actor's own
// play rather than conceded by the other side.
func (t StatType) IsEarnedSkill() bool {
	switch t {
	case StatKill, StatAce, StatBlock:
		return true
	}
	return false
}

// RotateDirection selects the cyclic shift applied to a rotation.
type RotateDirection string

const (
	RotateForward  RotateDirection = "forward"
	RotateBackward RotateDirection = "backward"
)

// StatMetadata carries the event-specific payload that makes
// administrative entries replayable from the log alone.
type StatMetadata struct {
	SubIn        PlayerID        `json:"sub_in,omitempty"`
	SubOut       PlayerID        `json:"sub_out,omitempty"`
	AutoSwap     bool            `json:"auto_swap,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	IsAssignment bool            `json:"is_assignment,omitempty"`
	IsLibero     bool            `json:"is_libero,omitempty"`
	Position     int             `json:"position,omitempty"`
	Direction    RotateDirection `json:"direction,omitempty"`
	ScoreAfter   *Score          `json:"score_after,omitempty"`
}

// StatLog is the atomic unit of match history. Entries are immutable
// once appended except through the explicit log edit operation, which
// never touches identity fields (id, type, set, snapshot).
type StatLog struct {
	ID             string        `json:"id"`
	Type           StatType      `json:"type"`
	Team           Team          `json:"team"`
	SetNumber      int           `json:"set_number"`
	PlayerID       PlayerID      `json:"player_id,omitempty"`
	AssistPlayerID PlayerID      `json:"assist_player_id,omitempty"`
	ScoreSnapshot  Score         `json:"score_snapshot"`
	Timestamp      int64         `json:"timestamp"`
	Metadata       *StatMetadata `json:"metadata,omitempty"`
}

// LineupPosition is one of the six court slots of a rotation.
type LineupPosition struct {
	Position        int      `json:"position"`
	PlayerID        PlayerID `json:"player_id,omitempty"`
	IsLibero        bool     `json:"is_libero,omitempty"`
	DesignatedSubID PlayerID `json:"designated_sub_id,omitempty"`
}

// Rotation is the assignment of players to positions 1..6, stored with
// index i holding position i+1.
type Rotation []LineupPosition

// Clone returns a value copy; set-to-set cascades must never share
// backing storage or later edits would rewrite history.
func (r Rotation) Clone() Rotation {
	if r == nil {
		return nil
	}
	out := make(Rotation, len(r))
	copy(out, r)
	return out
}

// PositionOf returns the 1-based position currently held by the player.
func (r Rotation) PositionOf(id PlayerID) (int, bool) {
	if id == "" {
		return 0, false
	}
	for _, slot := range r {
		if slot.PlayerID == id {
			return slot.Position, true
		}
	}
	return 0, false
}

// SetResult is the historical record of a completed set.
type SetResult struct {
	SetNumber int   `json:"set_number"`
	Score     Score `json:"score"`
	Winner    Team  `json:"winner"`
}

// RallyPhase is the two-state serve/rally cycle of the state machine.
type RallyPhase string

const (
	RallyPreServe RallyPhase = "pre_serve"
	RallyInPlay   RallyPhase = "in_rally"
)

// MatchState is a deep-copied snapshot of the aggregate, safe to read
// concurrently with in-flight commands.
type MatchState struct {
	ID                string           `json:"id"`
	MyTeamName        string           `json:"my_team_name"`
	OpponentName      string           `json:"opponent_name"`
	Config            MatchConfig      `json:"config"`
	CurrentSet        int              `json:"current_set"`
	Scores            []Score          `json:"scores"`
	SetsWon           Score            `json:"sets_won"`
	SetResults        []SetResult      `json:"set_results,omitempty"`
	History           []StatLog        `json:"history"`
	ServingTeam       Team             `json:"serving_team,omitempty"`
	RallyPhase        RallyPhase       `json:"rally_phase"`
	CurrentRotation   Rotation         `json:"current_rotation"`
	RotationsBySet    map[int]Rotation `json:"rotations_by_set"`
	TimeoutsRemaining Score            `json:"timeouts_remaining"`
	SubsRemaining     Score            `json:"subs_remaining"`
	LiberoIDs         []PlayerID       `json:"libero_ids,omitempty"`
	FirstServerBySet  map[int]Team     `json:"first_server_by_set,omitempty"`
	Finalized         bool             `json:"finalized"`
}

// MatchResult is the persisted outcome of a match record.
type MatchResult string

const (
	ResultWin       MatchResult = "win"
	ResultLoss      MatchResult = "loss"
	ResultScheduled MatchResult = "scheduled"
)

// MatchRecord is the persistence shape handed to the repository on
// schedule and finalize. The narrative field is attach-only storage;
// generating it is an external concern.
type MatchRecord struct {
	ID           string           `json:"id"`
	SeasonID     string           `json:"season_id,omitempty"`
	EventID      string           `json:"event_id,omitempty"`
	OpponentName string           `json:"opponent_name"`
	Date         time.Time        `json:"date"`
	Result       MatchResult      `json:"result"`
	SetsWon      Score            `json:"sets_won"`
	Scores       []Score          `json:"scores"`
	History      []StatLog        `json:"history"`
	Config       MatchConfig      `json:"config"`
	Lineups      map[int]Rotation `json:"lineups"`
	AINarrative  string           `json:"ai_narrative,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
