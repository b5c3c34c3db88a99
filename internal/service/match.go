package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/okravets/volleyball-match-service/internal/eventlog"
	"github.com/okravets/volleyball-match-service/internal/match"
	"github.com/okravets/volleyball-match-service/internal/model"
	"github.com/okravets/volleyball-match-service/internal/momentum"
	"github.com/okravets/volleyball-match-service/internal/repository"
	"github.com/okravets/volleyball-match-service/internal/rotation"
)

// matchService keeps live aggregates in memory and persists records
// through the repository. Command serialization is the aggregate's own
// mutex; the registry lock here only guards the map.
type matchService struct {
	records repository.MatchRepository
	tx      repository.TxManager
	log     zerolog.Logger

	mu   sync.RWMutex
	live map[string]*match.Match
}

// NewMatchService wires the live registry with its persistence
// collaborator.
func NewMatchService(records repository.MatchRepository, tx repository.TxManager, logger zerolog.Logger) MatchService {
	l := logger.With().Str("module", "service").Str("component", "match").Logger()
	return &matchService{
		records: records,
		tx:      tx,
		log:     l,
		live:    make(map[string]*match.Match),
	}
}

func (s *matchService) get(id string) (*match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.live[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (s *matchService) CreateMatch(ctx context.Context, in CreateMatchInput) (model.MatchState, error) {
	var ferrs []FieldError
	if strings.TrimSpace(in.MyTeamName) == "" {
		ferrs = append(ferrs, FieldError{Field: "my_team_name", Message: "must be set"})
	}
	if strings.TrimSpace(in.OpponentName) == "" {
		ferrs = append(ferrs, FieldError{Field: "opponent_name", Message: "must be set"})
	}
	ferrs = append(ferrs, validateMatchConfig(in.Config)...)
	ferrs = append(ferrs, validateLineup(in.Lineup, in.Roster)...)
	if in.ServingTeam != "" && !in.ServingTeam.Valid() {
		ferrs = append(ferrs, FieldError{Field: "serving_team", Message: "must be my_team or opponent"})
	}
	if err := NewInvalidInputError(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("match setup validation failed")
		return model.MatchState{}, err
	}

	m := match.New(match.Setup{
		MyTeamName:    strings.TrimSpace(in.MyTeamName),
		OpponentName:  strings.TrimSpace(in.OpponentName),
		SeasonID:      in.SeasonID,
		EventID:       in.EventID,
		Config:        in.Config,
		InitialLineup: in.Lineup,
		LiberoIDs:     in.LiberoIDs,
		ServingTeam:   in.ServingTeam,
	}, s.log)

	// Persist the scheduled record right away so the match shows up in
	// listings before it is played; Finalize upgrades it in place.
	scheduled := model.MatchRecord{
		ID:           m.ID(),
		SeasonID:     in.SeasonID,
		EventID:      in.EventID,
		OpponentName: strings.TrimSpace(in.OpponentName),
		Result:       model.ResultScheduled,
		Config:       in.Config,
	}
	if _, err := s.records.Create(ctx, scheduled); err != nil {
		return model.MatchState{}, err
	}

	s.mu.Lock()
	s.live[m.ID()] = m
	s.mu.Unlock()

	s.log.Info().Str("match_id", m.ID()).Str("opponent", in.OpponentName).Msg("match created")
	return m.Snapshot(), nil
}

// ResumeMatch loads a persisted record back into the live registry so
// it can be corrected or continued.
func (s *matchService) ResumeMatch(ctx context.Context, id string) (model.MatchState, error) {
	if m, err := s.get(id); err == nil {
		return m.Snapshot(), nil
	}
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return model.MatchState{}, err
	}
	m := match.Resume(rec, s.log)
	s.mu.Lock()
	s.live[m.ID()] = m
	s.mu.Unlock()
	return m.Snapshot(), nil
}

func (s *matchService) GetState(_ context.Context, id string) (model.MatchState, error) {
	m, err := s.get(id)
	if err != nil {
		return model.MatchState{}, err
	}
	return m.Snapshot(), nil
}

func (s *matchService) RecordStat(_ context.Context, id string, in match.StatInput) (match.StatOutcome, error) {
	m, err := s.get(id)
	if err != nil {
		return match.StatOutcome{}, err
	}
	if !in.Type.Valid() || in.Type.IsAdministrative() {
		return match.StatOutcome{}, NewInvalidInputError([]FieldError{{Field: "type", Message: "must be a recordable stat type"}})
	}
	if !in.Team.Valid() {
		return match.StatOutcome{}, NewInvalidInputError([]FieldError{{Field: "team", Message: "must be my_team or opponent"}})
	}
	out, ok := m.RecordStat(in)
	if !ok {
		return match.StatOutcome{}, ErrRejected
	}
	return out, nil
}

func (s *matchService) AdjustScore(_ context.Context, id string, team model.Team, delta int) (model.Score, error) {
	m, err := s.get(id)
	if err != nil {
		return model.Score{}, err
	}
	var ok bool
	switch delta {
	case 1:
		ok = m.IncrementScore(team)
	case -1:
		ok = m.DecrementScore(team)
	default:
		return model.Score{}, NewInvalidInputError([]FieldError{{Field: "delta", Message: "must be 1 or -1"}})
	}
	if !ok {
		return model.Score{}, ErrRejected
	}
	st := m.Snapshot()
	return st.Scores[st.CurrentSet-1], nil
}

func (s *matchService) SetScore(_ context.Context, id string, team model.Team, value int) (model.Score, error) {
	m, err := s.get(id)
	if err != nil {
		return model.Score{}, err
	}
	if value < 0 {
		return model.Score{}, NewInvalidInputError([]FieldError{{Field: "value", Message: "must be >= 0"}})
	}
	if !m.SetScore(team, value) {
		return model.Score{}, ErrRejected
	}
	st := m.Snapshot()
	return st.Scores[st.CurrentSet-1], nil
}

func (s *matchService) UseTimeout(_ context.Context, id string, team model.Team) (model.Score, error) {
	m, err := s.get(id)
	if err != nil {
		return model.Score{}, err
	}
	if !m.UseTimeout(team) {
		return model.Score{}, ErrRejected
	}
	return m.Snapshot().TimeoutsRemaining, nil
}

func (s *matchService) Substitute(_ context.Context, id string, in SubstitutionInput) (SubstitutionOutcome, error) {
	m, err := s.get(id)
	if err != nil {
		return SubstitutionOutcome{}, err
	}
	var swap rotation.Swap
	var fact *rotation.IllegalLibero
	if in.IsAssignment {
		swap, fact, err = m.AssignPosition(in.Position, in.PlayerID, in.IsLibero)
	} else {
		swap, fact, err = m.Substitute(in.Position, in.PlayerID, in.IsLibero)
	}
	switch {
	case err == nil:
	case errors.Is(err, rotation.ErrInvalidPosition):
		return SubstitutionOutcome{}, NewInvalidInputError([]FieldError{{Field: "position", Message: "must be between 1 and 6"}})
	case errors.Is(err, rotation.ErrPlayerAlreadyAssigned):
		return SubstitutionOutcome{}, NewInvalidInputError([]FieldError{{Field: "player_id", Message: "already assigned to another position"}})
	default:
		return SubstitutionOutcome{}, ErrRejected
	}
	return SubstitutionOutcome{Swap: swap, IllegalLibero: fact}, nil
}

func (s *matchService) SetDesignatedSub(_ context.Context, id string, position int, sub model.PlayerID) error {
	m, err := s.get(id)
	if err != nil {
		return err
	}
	if position < 1 || position > 6 {
		return NewInvalidInputError([]FieldError{{Field: "position", Message: "must be between 1 and 6"}})
	}
	if !m.SetDesignatedSub(position, sub) {
		return ErrRejected
	}
	return nil
}

func (s *matchService) Rotate(_ context.Context, id string, direction model.RotateDirection) (*rotation.IllegalLibero, error) {
	m, err := s.get(id)
	if err != nil {
		return nil, err
	}
	fact, ok := m.Rotate(direction)
	if !ok {
		return nil, ErrRejected
	}
	return fact, nil
}

func (s *matchService) SelectFirstServer(_ context.Context, id string, team model.Team) error {
	m, err := s.get(id)
	if err != nil {
		return err
	}
	if !team.Valid() {
		return NewInvalidInputError([]FieldError{{Field: "team", Message: "must be my_team or opponent"}})
	}
	if !m.SelectFirstServer(team) {
		return ErrRejected
	}
	return nil
}

func (s *matchService) SuggestedFirstServer(_ context.Context, id string) (model.Team, bool, error) {
	m, err := s.get(id)
	if err != nil {
		return "", false, err
	}
	team, ok := m.SuggestedFirstServer()
	return team, ok, nil
}

func (s *matchService) StartNextSet(_ context.Context, id string) (model.MatchState, error) {
	m, err := s.get(id)
	if err != nil {
		return model.MatchState{}, err
	}
	if !m.StartNextSet() {
		return model.MatchState{}, ErrRejected
	}
	return m.Snapshot(), nil
}

func (s *matchService) UndoLast(_ context.Context, id string) (model.MatchState, error) {
	m, err := s.get(id)
	if err != nil {
		return model.MatchState{}, err
	}
	if _, ok := m.UndoLast(); !ok {
		return model.MatchState{}, ErrRejected
	}
	return m.Snapshot(), nil
}

func (s *matchService) EditLogEntry(_ context.Context, id string, entryID string, update eventlog.EntryUpdate) error {
	m, err := s.get(id)
	if err != nil {
		return err
	}
	if entryID == "" {
		return NewInvalidInputError([]FieldError{{Field: "entry_id", Message: "must be set"}})
	}
	if !m.EditLogEntry(entryID, update) {
		return repository.ErrNotFound
	}
	return nil
}

func (s *matchService) CurrentRally(_ context.Context, id string) ([]model.StatLog, error) {
	m, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return m.CurrentRally(), nil
}

func (s *matchService) Momentum(_ context.Context, id string, dismissedAtTotalScore *int) (momentum.Result, error) {
	m, err := s.get(id)
	if err != nil {
		return momentum.Result{}, err
	}
	st := m.Snapshot()
	window := make([]model.StatLog, 0, len(st.History))
	for _, e := range st.History {
		if e.SetNumber == st.CurrentSet {
			window = append(window, e)
		}
	}
	current := st.Scores[st.CurrentSet-1]
	return momentum.Analyze(window, current, st.ServingTeam, dismissedAtTotalScore), nil
}

// Finalize closes a decided match, persists the record, and drops the
// aggregate from the live registry.
func (s *matchService) Finalize(ctx context.Context, id string) (model.MatchRecord, error) {
	m, err := s.get(id)
	if err != nil {
		return model.MatchRecord{}, err
	}
	rec, ok := m.Finalize()
	if !ok {
		return model.MatchRecord{}, ErrRejected
	}

	var saved model.MatchRecord
	if err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		existing, getErr := s.records.GetByID(txCtx, rec.ID)
		switch {
		case getErr == nil:
			// The scheduled row carries the match date; keep it.
			if rec.Date.IsZero() {
				rec.Date = existing.Date
			}
			updated, uerr := s.records.Update(txCtx, rec)
			if uerr != nil {
				return uerr
			}
			saved = updated
		case errors.Is(getErr, repository.ErrNotFound):
			created, cerr := s.records.Create(txCtx, rec)
			if cerr != nil {
				return cerr
			}
			saved = created
		default:
			return getErr
		}
		return nil
	}); err != nil {
		return model.MatchRecord{}, err
	}

	s.mu.Lock()
	delete(s.live, id)
	s.mu.Unlock()

	s.log.Info().Str("match_id", id).Str("result", string(saved.Result)).Msg("match finalized and persisted")
	return saved, nil
}

func (s *matchService) AttachNarrative(ctx context.Context, id string, narrative string) error {
	if strings.TrimSpace(narrative) == "" {
		return NewInvalidInputError([]FieldError{{Field: "narrative", Message: "must be set"}})
	}
	return s.records.AttachNarrative(ctx, id, narrative)
}

func (s *matchService) GetRecord(ctx context.Context, id string) (model.MatchRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *matchService) ListRecords(ctx context.Context, p repository.Page) (repository.PageResult[model.MatchRecord], error) {
	return s.records.List(ctx, normalizePage(p))
}

var _ MatchService = (*matchService)(nil)
