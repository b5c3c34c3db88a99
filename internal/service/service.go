// Package service holds business logic orchestration across the live
// match registry, the engines, and the repositories. Kept intentionally
// lean: use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/okravets/volleyball-match-service/internal/eventlog"
	"github.com/okravets/volleyball-match-service/internal/match"
	"github.com/okravets/volleyball-match-service/internal/model"
	"github.com/okravets/volleyball-match-service/internal/momentum"
	"github.com/okravets/volleyball-match-service/internal/repository"
	"github.com/okravets/volleyball-match-service/internal/rotation"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// ErrRejected marks a command a guard turned down: the match state did
// not allow it (no timeouts left, set already finished, match
// finalized). Expected during live play and never logged as a failure.
var ErrRejected = errors.New("command rejected")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// NewInvalidInputError builds an aggregated validation error if any field errors are present.
func NewInvalidInputError(fe []FieldError) error {
	if len(fe) == 0 { // protective case
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	if v, ok := err.(feIface); ok && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// CreateMatchInput is everything the setup collaborator provides when a
// match begins.
type CreateMatchInput struct {
	MyTeamName   string
	OpponentName string
	SeasonID     string
	EventID      string
	Config       model.MatchConfig
	Roster       []model.Player
	Lineup       model.Rotation
	LiberoIDs    []model.PlayerID
	ServingTeam  model.Team
}

// SubstitutionInput is a lineup change command.
type SubstitutionInput struct {
	Position     int
	PlayerID     model.PlayerID
	IsLibero     bool
	IsAssignment bool
}

// SubstitutionOutcome reports the applied swap and any libero fact.
type SubstitutionOutcome struct {
	Swap          rotation.Swap           `json:"swap"`
	IllegalLibero *rotation.IllegalLibero `json:"illegal_libero,omitempty"`
}

// MatchService defines the live-match use cases: one method per command
// of the state machine plus the derived read views and the persistence
// handoffs.
type MatchService interface {
	CreateMatch(ctx context.Context, in CreateMatchInput) (model.MatchState, error)
	ResumeMatch(ctx context.Context, id string) (model.MatchState, error)
	GetState(ctx context.Context, id string) (model.MatchState, error)

	RecordStat(ctx context.Context, id string, in match.StatInput) (match.StatOutcome, error)
	AdjustScore(ctx context.Context, id string, team model.Team, delta int) (model.Score, error)
	SetScore(ctx context.Context, id string, team model.Team, value int) (model.Score, error)
	UseTimeout(ctx context.Context, id string, team model.Team) (model.Score, error)
	Substitute(ctx context.Context, id string, in SubstitutionInput) (SubstitutionOutcome, error)
	SetDesignatedSub(ctx context.Context, id string, position int, sub model.PlayerID) error
	Rotate(ctx context.Context, id string, direction model.RotateDirection) (*rotation.IllegalLibero, error)
	SelectFirstServer(ctx context.Context, id string, team model.Team) error
	SuggestedFirstServer(ctx context.Context, id string) (model.Team, bool, error)
	StartNextSet(ctx context.Context, id string) (model.MatchState, error)
	UndoLast(ctx context.Context, id string) (model.MatchState, error)
	EditLogEntry(ctx context.Context, id string, entryID string, update eventlog.EntryUpdate) error

	CurrentRally(ctx context.Context, id string) ([]model.StatLog, error)
	Momentum(ctx context.Context, id string, dismissedAtTotalScore *int) (momentum.Result, error)

	Finalize(ctx context.Context, id string) (model.MatchRecord, error)
	AttachNarrative(ctx context.Context, id string, narrative string) error
	GetRecord(ctx context.Context, id string) (model.MatchRecord, error)
	ListRecords(ctx context.Context, p repository.Page) (repository.PageResult[model.MatchRecord], error)
}
