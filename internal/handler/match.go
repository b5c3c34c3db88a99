package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/okravets/volleyball-match-service/internal/eventlog"
	"github.com/okravets/volleyball-match-service/internal/match"
	"github.com/okravets/volleyball-match-service/internal/model"
	"github.com/okravets/volleyball-match-service/internal/repository"
	"github.com/okravets/volleyball-match-service/internal/service"
	"github.com/okravets/volleyball-match-service/pkg/response"
)

// MatchHandler translates HTTP requests into match service calls. All
// rules live below the service boundary; this layer is glue only.
type MatchHandler struct {
	svc service.MatchService
}

func NewMatchHandler(svc service.MatchService) *MatchHandler { return &MatchHandler{svc: svc} }

func (h *MatchHandler) Register(r *gin.RouterGroup) {
	m := r.Group("/matches")
	m.POST("", h.create)
	m.GET("", h.listRecords)
	m.GET("/:id", h.getState)
	m.GET("/:id/record", h.getRecord)
	m.POST("/:id/resume", h.resume)

	m.POST("/:id/stats", h.recordStat)
	m.POST("/:id/score/adjust", h.adjustScore)
	m.PUT("/:id/score", h.setScore)
	m.POST("/:id/timeouts", h.useTimeout)
	m.POST("/:id/substitutions", h.substitute)
	m.PUT("/:id/designated-sub", h.setDesignatedSub)
	m.POST("/:id/rotations", h.rotate)
	m.PUT("/:id/server", h.selectFirstServer)
	m.GET("/:id/server/suggestion", h.suggestedFirstServer)
	m.POST("/:id/sets/next", h.startNextSet)
	m.POST("/:id/undo", h.undoLast)
	m.PATCH("/:id/log/:entryId", h.editLogEntry)

	m.GET("/:id/rally", h.currentRally)
	m.GET("/:id/momentum", h.momentum)

	m.POST("/:id/finalize", h.finalize)
	m.PUT("/:id/narrative", h.attachNarrative)
}

type createMatchRequest struct {
	MyTeamName   string            `json:"my_team_name"`
	OpponentName string            `json:"opponent_name"`
	SeasonID     string            `json:"season_id"`
	EventID      string            `json:"event_id"`
	Config       model.MatchConfig `json:"config"`
	Roster       []model.Player    `json:"roster"`
	Lineup       model.Rotation    `json:"lineup"`
	LiberoIDs    []model.PlayerID  `json:"libero_ids"`
	ServingTeam  model.Team        `json:"serving_team"`
}

func (h *MatchHandler) create(c *gin.Context) {
	var req createMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	state, err := h.svc.CreateMatch(c.Request.Context(), service.CreateMatchInput{
		MyTeamName:   req.MyTeamName,
		OpponentName: req.OpponentName,
		SeasonID:     req.SeasonID,
		EventID:      req.EventID,
		Config:       req.Config,
		Roster:       req.Roster,
		Lineup:       req.Lineup,
		LiberoIDs:    req.LiberoIDs,
		ServingTeam:  req.ServingTeam,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, state)
}

func (h *MatchHandler) getState(c *gin.Context) {
	state, err := h.svc.GetState(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, state)
}

func (h *MatchHandler) getRecord(c *gin.Context) {
	rec, err := h.svc.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, rec)
}

func (h *MatchHandler) resume(c *gin.Context) {
	state, err := h.svc.ResumeMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, state)
}

func (h *MatchHandler) listRecords(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	res, err := h.svc.ListRecords(c.Request.Context(), repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"items": res.Items, "total": res.Total})
}

type recordStatRequest struct {
	Type    model.StatType   `json:"type"`
	Team    model.Team       `json:"team"`
	Players []model.PlayerID `json:"players"`
	Notes   string           `json:"notes"`
}

func (h *MatchHandler) recordStat(c *gin.Context) {
	var req recordStatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	out, err := h.svc.RecordStat(c.Request.Context(), c.Param("id"), match.StatInput{
		Type:    req.Type,
		Team:    req.Team,
		Players: req.Players,
		Notes:   req.Notes,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

type adjustScoreRequest struct {
	Team  model.Team `json:"team"`
	Delta int        `json:"delta"`
}

func (h *MatchHandler) adjustScore(c *gin.Context) {
	var req adjustScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	score, err := h.svc.AdjustScore(c.Request.Context(), c.Param("id"), req.Team, req.Delta)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, score)
}

type setScoreRequest struct {
	Team  model.Team `json:"team"`
	Value int        `json:"value"`
}

func (h *MatchHandler) setScore(c *gin.Context) {
	var req setScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	score, err := h.svc.SetScore(c.Request.Context(), c.Param("id"), req.Team, req.Value)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, score)
}

type teamRequest struct {
	Team model.Team `json:"team"`
}

func (h *MatchHandler) useTimeout(c *gin.Context) {
	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	remaining, err := h.svc.UseTimeout(c.Request.Context(), c.Param("id"), req.Team)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"timeouts_remaining": remaining})
}

type substitutionRequest struct {
	Position     int            `json:"position"`
	PlayerID     model.PlayerID `json:"player_id"`
	IsLibero     bool           `json:"is_libero"`
	IsAssignment bool           `json:"is_assignment"`
}

func (h *MatchHandler) substitute(c *gin.Context) {
	var req substitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	out, err := h.svc.Substitute(c.Request.Context(), c.Param("id"), service.SubstitutionInput{
		Position:     req.Position,
		PlayerID:     req.PlayerID,
		IsLibero:     req.IsLibero,
		IsAssignment: req.IsAssignment,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

type designatedSubRequest struct {
	Position int            `json:"position"`
	PlayerID model.PlayerID `json:"player_id"`
}

func (h *MatchHandler) setDesignatedSub(c *gin.Context) {
	var req designatedSubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	if err := h.svc.SetDesignatedSub(c.Request.Context(), c.Param("id"), req.Position, req.PlayerID); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type rotateRequest struct {
	Direction model.RotateDirection `json:"direction"`
}

func (h *MatchHandler) rotate(c *gin.Context) {
	var req rotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	fact, err := h.svc.Rotate(c.Request.Context(), c.Param("id"), req.Direction)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"illegal_libero": fact})
}

func (h *MatchHandler) selectFirstServer(c *gin.Context) {
	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	if err := h.svc.SelectFirstServer(c.Request.Context(), c.Param("id"), req.Team); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"serving_team": req.Team})
}

func (h *MatchHandler) suggestedFirstServer(c *gin.Context) {
	team, ok, err := h.svc.SuggestedFirstServer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if !ok {
		// Set 1 and the deciding set are explicit choices.
		response.WriteData(c, http.StatusOK, gin.H{"suggestion": nil})
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"suggestion": team})
}

func (h *MatchHandler) startNextSet(c *gin.Context) {
	state, err := h.svc.StartNextSet(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, state)
}

func (h *MatchHandler) undoLast(c *gin.Context) {
	state, err := h.svc.UndoLast(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, state)
}

type editLogEntryRequest struct {
	PlayerID       *model.PlayerID `json:"player_id"`
	AssistPlayerID *model.PlayerID `json:"assist_player_id"`
	Team           *model.Team     `json:"team"`
	Notes          *string         `json:"notes"`
}

func (h *MatchHandler) editLogEntry(c *gin.Context) {
	var req editLogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	err := h.svc.EditLogEntry(c.Request.Context(), c.Param("id"), c.Param("entryId"), eventlog.EntryUpdate{
		PlayerID:       req.PlayerID,
		AssistPlayerID: req.AssistPlayerID,
		Team:           req.Team,
		Notes:          req.Notes,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MatchHandler) currentRally(c *gin.Context) {
	rally, err := h.svc.CurrentRally(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"events": rally})
}

func (h *MatchHandler) momentum(c *gin.Context) {
	var dismissed *int
	if raw, set := c.GetQuery("dismissed_at"); set {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.WriteError(c, service.ErrInvalidInput)
			return
		}
		dismissed = &v
	}
	res, err := h.svc.Momentum(c.Request.Context(), c.Param("id"), dismissed)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *MatchHandler) finalize(c *gin.Context) {
	rec, err := h.svc.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, rec)
}

type narrativeRequest struct {
	Narrative string `json:"narrative"`
}

func (h *MatchHandler) attachNarrative(c *gin.Context) {
	var req narrativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	if err := h.svc.AttachNarrative(c.Request.Context(), c.Param("id"), req.Narrative); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
