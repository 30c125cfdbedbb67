package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lalith-99/teamsync/internal/middleware"
	"github.com/lalith-99/teamsync/internal/service/team"
	"github.com/lalith-99/teamsync/internal/ws"
	"go.uber.org/zap"
)

type EventsHandler struct {
	teams    *team.Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewEventsHandler(teams *team.Service, hub *ws.Hub, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		teams: teams,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// Stream handles GET /v1/teams/:id/events. The operator must be able to
// read the team at upgrade time; afterwards the hub drops the stream when a
// team update removes the operator.
func (h *EventsHandler) Stream(c *gin.Context) {
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
	if _, err := h.teams.Get(c.Request.Context(), id, operator); err != nil {
		writeError(c, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	log := h.logger.With(zap.String("team_id", id.String()), zap.String("operator", operator))
	client := ws.NewClient(conn, log)
	h.hub.Register(id, operator, client)
	log.Debug("event subscriber connected")

	client.Serve()

	h.hub.Unregister(id, client)
	client.Close()
	log.Debug("event subscriber disconnected")
}
