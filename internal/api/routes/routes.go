package routes

import (
	"net/http"

	"chat-realtime/internal/api/handlers"
	"chat-realtime/internal/api/middleware"
	"chat-realtime/internal/config"
	"chat-realtime/internal/metrics"
	"chat-realtime/internal/stats"
	"chat-realtime/internal/websocket"
	"chat-realtime/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP surface is built from.
// RateLimiter, LastSeen and Stats are optional.
type Dependencies struct {
	Config      *config.Config
	Hub         *websocket.Hub
	Metrics     *metrics.Metrics
	RateLimiter middleware.RateLimiter
	LastSeen    handlers.LastSeenReader
	Stats       stats.StatsService
	Logger      *logger.Logger
}

type Router struct {
	engine          *gin.Engine
	cfg             *config.Config
	metrics         *metrics.Metrics
	wsHandler       *handlers.WSHandler
	presenceHandler *handlers.PresenceHandler
	gameHandler     *handlers.GameHandler
	statsHandler    *stats.StatsHandler
	rateLimitMW     *middleware.RateLimitMiddleware
	authMW          *middleware.AuthMiddleware
}

func NewRouter(deps Dependencies) *Router {
	cfg := deps.Config
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(cfg.WebSocket.AllowedOrigins))
	engine.Use(middleware.LogApi(deps.Logger))
	if deps.Metrics != nil {
		engine.Use(deps.Metrics.Middleware())
	}

	r := &Router{
		engine:          engine,
		cfg:             cfg,
		metrics:         deps.Metrics,
		wsHandler:       handlers.NewWSHandler(deps.Hub, websocket.NewUpgrader(cfg.WebSocket.AllowedOrigins)),
		presenceHandler: handlers.NewPresenceHandler(deps.Hub.Registry(), deps.LastSeen, deps.Logger),
		gameHandler:     handlers.NewGameHandler(deps.Hub.Sessions()),
		authMW:          middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.WebSocket.AllowAnonymous),
	}
	if deps.Stats != nil {
		r.statsHandler = stats.NewStatsHandler(deps.Stats)
	}
	if deps.RateLimiter != nil {
		r.rateLimitMW = middleware.NewRateLimitMiddleware(deps.RateLimiter, deps.Logger)
	}
	return r
}

func (r *Router) rateLimit() gin.HandlerFunc {
	if r.rateLimitMW == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return r.rateLimitMW.RateLimit(r.cfg.RateLimit.Requests, r.cfg.RateLimit.Window)
}

func (r *Router) SetupRoutes() {
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	r.engine.GET("/health", health)
	r.engine.GET("/kaithhealthcheck", health)
	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	api := r.engine.Group("/api/v1")

	// WebSocket endpoint with authentication and rate limiting
	api.GET("/ws",
		r.authMW.RequireAuth(),
		r.rateLimit(),
		r.wsHandler.HandleWebSocket,
	)

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth(), r.rateLimit())
	{
		presence := auth.Group("/presence")
		{
			presence.GET("/online", r.presenceHandler.GetOnlineUsers)
			presence.GET("/users/:userId", r.presenceHandler.GetUserPresence)
		}

		games := auth.Group("/games")
		{
			games.GET("/sessions", r.gameHandler.ListSessions)
			games.GET("/sessions/:id", r.gameHandler.GetSession)
			if r.statsHandler != nil {
				games.GET("/stats/:userId", r.statsHandler.GetStats)
				games.GET("/history/:userId", r.statsHandler.GetRecentGames)
				games.GET("/leaderboard", r.statsHandler.GetLeaderboard)
				games.GET("/achievements/:userId", r.statsHandler.GetAchievements)
			}
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
