package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/apperr"
	"github.com/lalith-99/teamsync/internal/middleware"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/service/channel"
	"go.uber.org/zap"
)

type ChannelHandler struct {
	channels *channel.Service
	logger   *zap.Logger
}

func NewChannelHandler(channels *channel.Service, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{channels: channels, logger: logger}
}

// createChannelRequest is the body of POST /v1/channels. Members is
// ignored for the default scope and required for the limited one; a JSON
// null or absent list reads as "not supplied".
type createChannelRequest struct {
	OperatorUser string              `json:"operator_user"`
	TeamID       string              `json:"team_id" binding:"required,uuid"`
	Name         string              `json:"name" binding:"required,max=64"`
	Description  string              `json:"description" binding:"max=200"`
	MembersScope models.MembersScope `json:"members_scope"`
	Members      []string            `json:"members"`
}

func parseTeamID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperr.InvalidFields("invalid team_id", map[string]string{"team_id": "must be a UUID"})
	}
	return id, nil
}

// Create handles POST /v1/channels
func (h *ChannelHandler) Create(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}
	operator, err := middleware.ResolveOperator(c, req.OperatorUser)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	teamID, err := parseTeamID(req.TeamID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	ch, err := h.channels.Create(c.Request.Context(), operator, channel.CreateInput{
		TeamID:       teamID,
		Name:         req.Name,
		Description:  req.Description,
		MembersScope: req.MembersScope,
		Members:      req.Members,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

type updateChannelRequest struct {
	OperatorUser string   `json:"operator_user"`
	Name         string   `json:"name" binding:"required,max=64"`
	Description  string   `json:"description" binding:"max=200"`
	Members      []string `json:"members"`
}

// Update handles PUT /v1/channels/:id
func (h *ChannelHandler) Update(c *gin.Context) {
	id, err := parseID(c, "channel")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var req updateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, bindError(err))
		return
	}
	operator, err := middleware.ResolveOperator(c, req.OperatorUser)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	ch, err := h.channels.Update(c.Request.Context(), id, operator, channel.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Members:     req.Members,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// Get handles GET /v1/channels/:id
func (h *ChannelHandler) Get(c *gin.Context) {
	id, err := parseID(c, "channel")
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

	ch, err := h.channels.Get(c.Request.Context(), id, operator)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// Delete handles DELETE /v1/channels/:id
func (h *ChannelHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "channel")
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

	if err := h.channels.Delete(c.Request.Context(), id, operator); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
