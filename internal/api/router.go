package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/teamsync/internal/middleware"
	"github.com/lalith-99/teamsync/internal/observ"
	"github.com/lalith-99/teamsync/internal/ratelimit"
	"github.com/lalith-99/teamsync/internal/service/channel"
	"github.com/lalith-99/teamsync/internal/service/team"
	"github.com/lalith-99/teamsync/internal/service/user"
	"github.com/lalith-99/teamsync/internal/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps is everything the router wires together. Optional fields: Limiter
// (no rate limiting), JWTSecret (no bearer auth), Gatherer (no /metrics),
// Health (always healthy).
type Deps struct {
	Users    *user.Service
	Teams    *team.Service
	Channels *channel.Service
	Hub      *ws.Hub

	Logger  *zap.Logger
	Metrics *observ.Metrics

	Limiter            ratelimit.Limiter
	RateLimitPerMinute int
	JWTSecret          string

	Gatherer prometheus.Gatherer
	Health   func(context.Context) error
}

func NewRouter(d Deps) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger, d.Metrics))

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/v1")
	v1.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limit := middleware.RateLimit(d.Limiter, d.RateLimitPerMinute, time.Minute, d.Metrics)

	users := NewUserHandler(d.Users, d.Logger)
	v1.POST("/users", limit, users.Register)

	protected := v1.Group("")
	if d.JWTSecret != "" {
		protected.Use(middleware.AuthMiddleware(d.JWTSecret))
	}
	protected.Use(limit)

	protected.GET("/users/:username", users.Get)

	teams := NewTeamHandler(d.Teams, d.Channels, d.Logger)
	protected.POST("/teams", teams.Create)
	protected.GET("/teams", teams.List)
	protected.GET("/teams/:id", teams.Get)
	protected.PUT("/teams/:id", teams.Update)
	protected.DELETE("/teams/:id", teams.Delete)
	protected.GET("/teams/:id/channels", teams.Channels)

	if d.Hub != nil {
		events := NewEventsHandler(d.Teams, d.Hub, d.Logger)
		protected.GET("/teams/:id/events", events.Stream)
	}

	channels := NewChannelHandler(d.Channels, d.Logger)
	protected.POST("/channels", channels.Create)
	protected.GET("/channels/:id", channels.Get)
	protected.PUT("/channels/:id", channels.Update)
	protected.DELETE("/channels/:id", channels.Delete)

	return r
}
