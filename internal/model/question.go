package model

import (
	"github.com/google/uuid"
)

// AnswerOption is one selectable answer of a question. Weight > 0 marks the
// option as correct; Feedback is optional explanatory text shown in study
// sessions after answering.
type AnswerOption struct {
	ID       int64   `json:"id"`
	Text     string  `json:"text"`
	Weight   float64 `json:"weight"`
	Feedback string  `json:"feedback,omitempty"`
}

// SessionQuestion is one question row of a play session, combining the
// immutable question content with the user's saved per-question state.
type SessionQuestion struct {
	SessionID     uuid.UUID      `json:"session_id"`
	QuestionOrder int            `json:"question_order"`
	QuestionText  string         `json:"question_text"`
	Options       []AnswerOption `json:"options"`

	// Saved state, hydrated into the engine at session open.
	SelectedAnswerID int64 `json:"selected_answer_id"` // 0 = none
	Status           int   `json:"status"`             // 0 unseen, 1 incomplete, 2 complete
	Correct          int   `json:"correct"`            // 0 incorrect, 1 correct, 2 first-try correct
	Marked           bool  `json:"marked"`
}

// EventRequest is the payload for dispatching one player event.
type EventRequest struct {
	Type       string `json:"type" binding:"required,oneof=answer goto next previous toggle_mark section_review start_review set_filter toggle_pause"`
	Order      int    `json:"order" binding:"omitempty,min=1"`
	AnswerID   int64  `json:"answer_id" binding:"omitempty,min=1"`
	ReviewType string `json:"review_type" binding:"omitempty,oneof=all incomplete marked"`
	Filter     string `json:"filter" binding:"omitempty,oneof=none incomplete marked incorrect"`
}
