package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/okravets/volleyball-match-service/internal/eventlog"
	"github.com/okravets/volleyball-match-service/internal/handler"
	"github.com/okravets/volleyball-match-service/internal/match"
	"github.com/okravets/volleyball-match-service/internal/model"
	"github.com/okravets/volleyball-match-service/internal/momentum"
	"github.com/okravets/volleyball-match-service/internal/repository"
	"github.com/okravets/volleyball-match-service/internal/rotation"
	"github.com/okravets/volleyball-match-service/internal/service"
)

// stubPingerNoop satisfies handler.Pinger (health endpoints not focus here).
type stubPingerNoop struct{}

func (stubPingerNoop) Ping(ctx context.Context) error { return nil }

// fakeInvalid replicates aggregated validation error semantics.
type fakeInvalid struct{ fe []service.FieldError }

func (f *fakeInvalid) Error() string                { return service.ErrInvalidInput.Error() }
func (f *fakeInvalid) Unwrap() error                { return service.ErrInvalidInput }
func (f *fakeInvalid) Fields() []service.FieldError { return f.fe }

// stubMatchService lets each test script the outcome it needs. Unused
// methods fall through to zero values.
type stubMatchService struct {
	state    model.MatchState
	stateErr error

	statOut match.StatOutcome
	statErr error

	record    model.MatchRecord
	recordErr error

	momentum momentum.Result

	suggestion   model.Team
	suggestionOK bool

	lastStat      match.StatInput
	lastEdit      eventlog.EntryUpdate
	lastNarrative string
}

func (s *stubMatchService) CreateMatch(ctx context.Context, in service.CreateMatchInput) (model.MatchState, error) {
	return s.state, s.stateErr
}
func (s *stubMatchService) ResumeMatch(ctx context.Context, id string) (model.MatchState, error) {
	return s.state, s.stateErr
}
func (s *stubMatchService) GetState(ctx context.Context, id string) (model.MatchState, error) {
	return s.state, s.stateErr
}
func (s *stubMatchService) RecordStat(ctx context.Context, id string, in match.StatInput) (match.StatOutcome, error) {
	s.lastStat = in
	return s.statOut, s.statErr
}
func (s *stubMatchService) AdjustScore(ctx context.Context, id string, team model.Team, delta int) (model.Score, error) {
	return s.statOut.Score, s.statErr
}
func (s *stubMatchService) SetScore(ctx context.Context, id string, team model.Team, value int) (model.Score, error) {
	return s.statOut.Score, s.statErr
}
func (s *stubMatchService) UseTimeout(ctx context.Context, id string, team model.Team) (model.Score, error) {
	return s.statOut.Score, s.statErr
}
func (s *stubMatchService) Substitute(ctx context.Context, id string, in service.SubstitutionInput) (service.SubstitutionOutcome, error) {
	return service.SubstitutionOutcome{}, s.statErr
}
func (s *stubMatchService) SetDesignatedSub(ctx context.Context, id string, position int, sub model.PlayerID) error {
	return s.statErr
}
func (s *stubMatchService) Rotate(ctx context.Context, id string, direction model.RotateDirection) (*rotation.IllegalLibero, error) {
	return nil, s.statErr
}
func (s *stubMatchService) SelectFirstServer(ctx context.Context, id string, team model.Team) error {
	return s.statErr
}
func (s *stubMatchService) SuggestedFirstServer(ctx context.Context, id string) (model.Team, bool, error) {
	return s.suggestion, s.suggestionOK, s.statErr
}
func (s *stubMatchService) StartNextSet(ctx context.Context, id string) (model.MatchState, error) {
	return s.state, s.stateErr
}
func (s *stubMatchService) UndoLast(ctx context.Context, id string) (model.MatchState, error) {
	return s.state, s.stateErr
}
func (s *stubMatchService) EditLogEntry(ctx context.Context, id, entryID string, update eventlog.EntryUpdate) error {
	s.lastEdit = update
	return s.statErr
}
func (s *stubMatchService) CurrentRally(ctx context.Context, id string) ([]model.StatLog, error) {
	return s.state.History, s.stateErr
}
func (s *stubMatchService) Momentum(ctx context.Context, id string, dismissedAtTotalScore *int) (momentum.Result, error) {
	return s.momentum, s.statErr
}
func (s *stubMatchService) Finalize(ctx context.Context, id string) (model.MatchRecord, error) {
	return s.record, s.recordErr
}
func (s *stubMatchService) AttachNarrative(ctx context.Context, id, narrative string) error {
	s.lastNarrative = narrative
	return s.statErr
}
func (s *stubMatchService) GetRecord(ctx context.Context, id string) (model.MatchRecord, error) {
	return s.record, s.recordErr
}
func (s *stubMatchService) ListRecords(ctx context.Context, p repository.Page) (repository.PageResult[model.MatchRecord], error) {
	return repository.PageResult[model.MatchRecord]{}, s.recordErr
}

func newRouter(svc service.MatchService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, stubPingerNoop{}, svc)
	return r
}

func TestCreateMatch_Created(t *testing.T) {
	stub := &stubMatchService{state: model.MatchState{ID: "m1", CurrentSet: 1}}
	r := newRouter(stub)
	body, _ := json.Marshal(map[string]any{"my_team_name": "Us", "opponent_name": "Them"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/matches", bytes.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp model.MatchState
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.ID != "m1" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestCreateMatch_Invalid(t *testing.T) {
	stub := &stubMatchService{stateErr: &fakeInvalid{fe: []service.FieldError{{Field: "opponent_name", Message: "must be set"}}}}
	r := newRouter(stub)
	body, _ := json.Marshal(map[string]any{"my_team_name": "Us"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/matches", bytes.NewReader(body)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("opponent_name")) {
		t.Fatalf("field errors missing from body: %s", w.Body.String())
	}
}

func TestGetState_NotFound(t *testing.T) {
	stub := &stubMatchService{stateErr: repository.ErrNotFound}
	r := newRouter(stub)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matches/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRecordStat_OK(t *testing.T) {
	stub := &stubMatchService{statOut: match.StatOutcome{PointScored: true, PointWinner: model.TeamMy, Score: model.Score{MyTeam: 1}}}
	r := newRouter(stub)
	body, _ := json.Marshal(map[string]any{"type": "ace", "team": "my_team", "players": []string{"p1"}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/matches/m1/stats", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.lastStat.Type != model.StatAce || stub.lastStat.Team != model.TeamMy || len(stub.lastStat.Players) != 1 {
		t.Fatalf("service received %+v", stub.lastStat)
	}
}

func TestRecordStat_Rejected(t *testing.T) {
	stub := &stubMatchService{statErr: service.ErrRejected}
	r := newRouter(stub)
	body, _ := json.Marshal(map[string]any{"type": "ace", "team": "opponent"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/matches/m1/stats", bytes.NewReader(body)))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEditLogEntry_PatchesUpdate(t *testing.T) {
	stub := &stubMatchService{}
	r := newRouter(stub)
	body, _ := json.Marshal(map[string]any{"player_id": "p3", "notes": "fixed"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/matches/m1/log/e1", bytes.NewReader(body)))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if stub.lastEdit.PlayerID == nil || *stub.lastEdit.PlayerID != "p3" {
		t.Fatalf("update = %+v; player_id not forwarded", stub.lastEdit)
	}
	if stub.lastEdit.Team != nil {
		t.Fatalf("update = %+v; absent fields must stay nil", stub.lastEdit)
	}
}

func TestMomentum_DismissedQuery(t *testing.T) {
	stub := &stubMatchService{momentum: momentum.Result{Score: 40, Trend: momentum.TrendRising}}
	r := newRouter(stub)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matches/m1/momentum?dismissed_at=12", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matches/m1/momentum?dismissed_at=nope", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on a bad dismissal value, got %d", w.Code)
	}
}

func TestSuggestedFirstServer_NoSuggestion(t *testing.T) {
	stub := &stubMatchService{}
	r := newRouter(stub)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matches/m1/server/suggestion", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Suggestion *model.Team `json:"suggestion"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Suggestion != nil {
		t.Fatalf("body = %s; want null suggestion", w.Body.String())
	}
}

func TestFinalize_OK(t *testing.T) {
	stub := &stubMatchService{record: model.MatchRecord{ID: "m1", Result: model.ResultWin}}
	r := newRouter(stub)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/matches/m1/finalize", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var rec model.MatchRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil || rec.Result != model.ResultWin {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestAttachNarrative_NoContent(t *testing.T) {
	stub := &stubMatchService{}
	r := newRouter(stub)
	body, _ := json.Marshal(map[string]string{"narrative": "five-set thriller"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/matches/m1/narrative", bytes.NewReader(body)))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if stub.lastNarrative != "five-set thriller" {
		t.Fatalf("narrative = %q", stub.lastNarrative)
	}
}

func TestHealth_Live(t *testing.T) {
	r := newRouter(&stubMatchService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
