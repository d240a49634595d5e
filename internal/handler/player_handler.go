package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prepdeck/prepdeck-backend/internal/engine"
	"github.com/prepdeck/prepdeck-backend/internal/middleware"
	"github.com/prepdeck/prepdeck-backend/internal/model"
	"github.com/prepdeck/prepdeck-backend/internal/response"
	"github.com/prepdeck/prepdeck-backend/internal/service"
	"github.com/prepdeck/prepdeck-backend/internal/validator"
)

// PlayerHandler handles the play-session endpoints.
type PlayerHandler struct {
	playerService *service.PlayerService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(playerService *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: playerService}
}

// Open godoc
// POST /api/v1/player/sessions/:session_id/open
// Hydrates the session into memory and starts its clock. Idempotent: a
// page reload re-opens the same running session.
func (h *PlayerHandler) Open(c *gin.Context) {
	claims, sessionID, ok := h.authAndID(c)
	if !ok {
		return
	}

	snap, err := h.playerService.Open(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failPlayer(c, err)
		return
	}

	response.Success(c, http.StatusOK, snap)
}

// GetState godoc
// GET /api/v1/player/sessions/:session_id/state
// Returns the full render state of an open session.
func (h *PlayerHandler) GetState(c *gin.Context) {
	claims, sessionID, ok := h.authAndID(c)
	if !ok {
		return
	}

	snap, err := h.playerService.State(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failPlayer(c, err)
		return
	}

	response.Success(c, http.StatusOK, snap)
}

// DispatchEvent godoc
// POST /api/v1/player/sessions/:session_id/events
// Applies one player event and returns the resulting snapshot.
func (h *PlayerHandler) DispatchEvent(c *gin.Context) {
	claims, sessionID, ok := h.authAndID(c)
	if !ok {
		return
	}

	var req model.EventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ev, ok := toEvent(&req)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	snap, out, err := h.playerService.ApplyEvent(c.Request.Context(), sessionID, claims.UserID, ev)
	if err != nil {
		failPlayer(c, err)
		return
	}

	body := gin.H{"state": snap}
	if out.Notice != engine.NoticeNone {
		body["notice"] = out.Notice.String()
	}
	response.Success(c, http.StatusOK, body)
}

// Save godoc
// POST /api/v1/player/sessions/:session_id/save
// Flushes the session to the database and closes it ("save & exit").
func (h *PlayerHandler) Save(c *gin.Context) {
	claims, sessionID, ok := h.authAndID(c)
	if !ok {
		return
	}

	if err := h.playerService.Save(c.Request.Context(), sessionID, claims.UserID); err != nil {
		failPlayer(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// Grade godoc
// POST /api/v1/player/sessions/:session_id/grade
// Finalizes the session and returns the grading summary.
func (h *PlayerHandler) Grade(c *gin.Context) {
	claims, sessionID, ok := h.authAndID(c)
	if !ok {
		return
	}

	summary, err := h.playerService.Grade(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failPlayer(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// Delete godoc
// DELETE /api/v1/player/sessions/:session_id
// Queues a study session for removal. Always returns 202 once enqueued;
// the purge itself is best effort.
func (h *PlayerHandler) Delete(c *gin.Context) {
	claims, sessionID, ok := h.authAndID(c)
	if !ok {
		return
	}

	if err := h.playerService.Delete(c.Request.Context(), sessionID, claims.UserID); err != nil {
		failPlayer(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"deleted": true})
}

func (h *PlayerHandler) authAndID(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, sessionID, true
}

// toEvent maps a validated request onto an engine event.
func toEvent(req *model.EventRequest) (engine.Event, bool) {
	switch req.Type {
	case "answer":
		if req.Order < 1 || req.AnswerID < 1 {
			return nil, false
		}
		return engine.Answer{Order: req.Order, AnswerID: req.AnswerID}, true
	case "goto":
		if req.Order < 1 {
			return nil, false
		}
		return engine.GoTo{Order: req.Order}, true
	case "next":
		return engine.Next{}, true
	case "previous":
		return engine.Previous{}, true
	case "toggle_mark":
		if req.Order < 1 {
			return nil, false
		}
		return engine.ToggleMark{Order: req.Order}, true
	case "section_review":
		return engine.SectionReview{}, true
	case "start_review":
		switch req.ReviewType {
		case "all":
			return engine.StartReview{Type: engine.ReviewAll}, true
		case "incomplete":
			return engine.StartReview{Type: engine.ReviewIncomplete}, true
		case "marked":
			return engine.StartReview{Type: engine.ReviewMarked}, true
		}
		return nil, false
	case "set_filter":
		switch req.Filter {
		case "", "none":
			return engine.SetFilter{Filter: engine.FilterNone}, true
		case "incomplete":
			return engine.SetFilter{Filter: engine.FilterIncomplete}, true
		case "marked":
			return engine.SetFilter{Filter: engine.FilterMarked}, true
		case "incorrect":
			return engine.SetFilter{Filter: engine.FilterIncorrect}, true
		}
		return nil, false
	case "toggle_pause":
		return engine.TogglePause{}, true
	}
	return nil, false
}

// failPlayer maps service and engine errors onto response codes.
func failPlayer(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrSessionFinished):
		response.Fail(c, http.StatusConflict, response.ErrSessionFinished)
	case errors.Is(err, service.ErrSessionNotOpen):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotOpen)
	case errors.Is(err, service.ErrGradeInFlight):
		response.Fail(c, http.StatusConflict, response.ErrGradeInFlight)
	case errors.Is(err, service.ErrStudyOnly):
		response.Fail(c, http.StatusBadRequest, response.ErrStudyOnly)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNotFound)
	case errors.Is(err, engine.ErrUnknownOrder):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	case errors.Is(err, engine.ErrUnknownAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownAnswer)
	case errors.Is(err, engine.ErrWrongMode):
		response.Fail(c, http.StatusBadRequest, response.ErrWrongMode)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
