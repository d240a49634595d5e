package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick    Event = "tick"
	EventExpired Event = "expired"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// TickResponse carries one clock update. EventExpired is sent instead of
// EventTick on the single countdown-to-overtime flip.
type TickResponse struct {
	Event   Event  `json:"event"`
	Seconds int    `json:"seconds"`
	Clock   string `json:"clock"`
	Expired bool   `json:"expired"`
	Paused  bool   `json:"paused"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
