package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/handler"
	"github.com/prepdeck/prepdeck-backend/internal/middleware"
	"github.com/prepdeck/prepdeck-backend/internal/response"
	"github.com/prepdeck/prepdeck-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Player *handler.PlayerHandler
	WS     *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Event dispatch is chatty (one request per user action); cap it per
	// IP without throttling legitimate play.
	eventLimiter := middleware.NewRateLimiter(30, time.Second)

	// ─── Player Group (JWT) ────────────────────────────────────────────
	playerAPI := router.Group("/api/v1/player")
	playerAPI.Use(middleware.RequireUserJWT(authService))
	{
		playerAPI.POST("/sessions/:session_id/open", handlers.Player.Open)
		playerAPI.GET("/sessions/:session_id/state", handlers.Player.GetState)
		playerAPI.POST("/sessions/:session_id/events", eventLimiter.Middleware(), handlers.Player.DispatchEvent)
		playerAPI.POST("/sessions/:session_id/save", handlers.Player.Save)
		playerAPI.POST("/sessions/:session_id/grade", handlers.Player.Grade)
		playerAPI.DELETE("/sessions/:session_id", handlers.Player.Delete)
	}

	// ─── WebSocket Group (WS Auth via ?token=) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireUserWSAuth(authService))
	{
		ws.GET("/player/sessions/:session_id/timer", handlers.WS.TimerStream)
	}

	return router
}
