package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prepdeck/prepdeck-backend/internal/middleware"
	"github.com/prepdeck/prepdeck-backend/internal/service"
	ws "github.com/prepdeck/prepdeck-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams timer updates for open sessions.
type WSHandler struct {
	playerService *service.PlayerService
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(playerService *service.PlayerService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		playerService: playerService,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// TimerStream godoc
// WS /ws/v1/player/sessions/:session_id/timer
// Pushes one clock update per second so the client never free-runs its own
// timer and drifts from the server.
func (h *WSHandler) TimerStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel, err := h.playerService.Subscribe(sessionID, claims.UserID)
	if err != nil {
		ws.WriteError(conn, "session is not open")
		return
	}
	defer cancel()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Timer stream connected")

	// Reader goroutine: consumes pings and detects the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	var wasExpired bool
	for {
		select {
		case <-done:
			wsLog.Debug().Msg("Timer stream closed")
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			event := ws.EventTick
			if u.Expired && !wasExpired {
				event = ws.EventExpired
				wasExpired = true
			}
			resp := ws.TickResponse{
				Event:   event,
				Seconds: u.Seconds,
				Clock:   u.Clock,
				Expired: u.Expired,
				Paused:  u.Paused,
			}
			if err := ws.WriteTyped(conn, resp); err != nil {
				wsLog.Debug().Err(err).Msg("Timer write failed")
				return
			}
		}
	}
}
