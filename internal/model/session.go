package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionMode distinguishes timed practice exams from untimed study sessions.
type SessionMode string

const (
	SessionModeExam  SessionMode = "EXAM"
	SessionModeStudy SessionMode = "STUDY"
)

// SessionStatus enumerates play session lifecycle states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusFinished   SessionStatus = "FINISHED"
)

// PlaySession represents one play-through of a fixed question set by one user.
//
// TimeRemaining follows the signed convention of the grading contract: for
// exam sessions a negative value means the countdown expired and counted up
// by that many seconds; for study sessions it is the non-negative elapsed
// time.
type PlaySession struct {
	ID             uuid.UUID     `json:"id"`
	UserID         int           `json:"user_id"`
	Mode           SessionMode   `json:"mode"`
	StudyUnit      string        `json:"study_unit"`
	TotalQuestions int           `json:"total_questions"`
	TimeRemaining  int           `json:"time_remaining"`
	RandomAnswers  bool          `json:"random_answers"`
	Status         SessionStatus `json:"status"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
}
