package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/teamsync/internal/middleware"
	"github.com/lalith-99/teamsync/internal/service/channel"
	"github.com/lalith-99/teamsync/internal/service/team"
	"go.uber.org/zap"
)

type TeamHandler struct {
	teams    *team.Service
	channels *channel.Service
	logger   *zap.Logger
}

func NewTeamHandler(teams *team.Service, channels *channel.Service, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, channels: channels, logger: logger}
}

// teamRequest is the body of both create and update. On update the lists
// replace the stored ones entirely.
type teamRequest struct {
	OperatorUser   string   `json:"operator_user"`
	Name           string   `json:"name" binding:"required,max=64"`
	Description    string   `json:"description" binding:"max=200"`
	Administrators []string `json:"administrators"`
	Members        []string `json:"members"`
}

func (r teamRequest) input() team.Input {
	return team.Input{
		Name:           r.Name,
		Description:    r.Description,
		Administrators: r.Administrators,
		Members:        r.Members,
	}
}

// readQuery is the query string of reads and deletes.
type readQuery struct {
	OperatorUser string `form:"operator_user"`
}

// Create handles POST /v1/teams
func (h *TeamHandler) Create(c *gin.Context) {
	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}
	operator, err := middleware.ResolveOperator(c, req.OperatorUser)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	t, err := h.teams.Create(c.Request.Context(), operator, req.input())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

type listTeamsQuery struct {
	OperatorUser  string `form:"operator_user"`
	Sort          string `form:"sort"`
	Order         string `form:"order"`
	SearchKeyword string `form:"search_keyword"`
}

// List handles GET /v1/teams
func (h *TeamHandler) List(c *gin.Context) {
	var q listTeamsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}
	operator, err := middleware.ResolveOperator(c, q.OperatorUser)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	teams, err := h.teams.List(c.Request.Context(), operator, team.ListQuery{
		Sort:    q.Sort,
		Order:   q.Order,
		Keyword: q.SearchKeyword,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// Get handles GET /v1/teams/:id
func (h *TeamHandler) Get(c *gin.Context) {
	id, err := parseID(c, "team")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var q readQuery
	_ = c.ShouldBindQuery(&q)
	operator, err := middleware.ResolveOperator(c, q.OperatorUser)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	t, err := h.teams.Get(c.Request.Context(), id, operator)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Update handles PUT /v1/teams/:id
func (h *TeamHandler) Update(c *gin.Context) {
	id, err := parseID(c, "team")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}
	operator, err := middleware.ResolveOperator(c, req.OperatorUser)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	t, err := h.teams.Update(c.Request.Context(), id, operator, req.input())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /v1/teams/:id
func (h *TeamHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "team")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var q readQuery
	_ = c.ShouldBindQuery(&q)
	operator, err := middleware.ResolveOperator(c, q.OperatorUser)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if err := h.teams.Delete(c.Request.Context(), id, operator); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Channels handles GET /v1/teams/:id/channels
func (h *TeamHandler) Channels(c *gin.Context) {
	id, err := parseID(c, "team")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var q readQuery
	_ = c.ShouldBindQuery(&q)
	operator, err := middleware.ResolveOperator(c, q.OperatorUser)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	channels, err := h.channels.ListByTeam(c.Request.Context(), id, operator)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, channels)
}
