package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdeck/prepdeck-backend/internal/model"
)

// QuestionStateRow is one per-question state entry flushed back to the
// store on save and grade.
type QuestionStateRow struct {
	Order            int
	SelectedAnswerID int64
	Status           int
	Correct          int
	Marked           bool
}

// SessionRepository handles play session data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// GetByID retrieves one play session.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PlaySession, error) {
	s := &model.PlaySession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, mode, study_unit, total_questions, time_remaining,
		        random_answers, status, started_at, finished_at
		 FROM play_sessions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.Mode, &s.StudyUnit, &s.TotalQuestions, &s.TimeRemaining,
		&s.RandomAnswers, &s.Status, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SaveProgress flushes the full per-question state plus the timer value in
// one transaction. The session stays IN_PROGRESS.
func (r *SessionRepository) SaveProgress(ctx context.Context, sessionID uuid.UUID, timeRemaining int, rows []QuestionStateRow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE play_sessions SET time_remaining = $1 WHERE id = $2`,
		timeRemaining, sessionID,
	); err != nil {
		return err
	}

	if err := bulkUpsertStates(ctx, tx, sessionID, rows); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Finish persists the final state and marks the session FINISHED.
func (r *SessionRepository) Finish(ctx context.Context, sessionID uuid.UUID, timeRemaining int, rows []QuestionStateRow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE play_sessions
		 SET status = $1, time_remaining = $2, finished_at = $3
		 WHERE id = $4`,
		model.SessionStatusFinished, timeRemaining, time.Now(), sessionID,
	); err != nil {
		return err
	}

	if err := bulkUpsertStates(ctx, tx, sessionID, rows); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes a session and its question rows (cascade).
func (r *SessionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM play_sessions WHERE id = $1`, sessionID)
	return err
}

// bulkUpsertStates updates every question state row in one statement using
// UNNEST arrays.
func bulkUpsertStates(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, rows []QuestionStateRow) error {
	if len(rows) == 0 {
		return nil
	}

	n := len(rows)
	orders := make([]int, 0, n)
	answers := make([]int64, 0, n)
	statuses := make([]int, 0, n)
	corrects := make([]int, 0, n)
	marks := make([]bool, 0, n)
	for _, row := range rows {
		orders = append(orders, row.Order)
		answers = append(answers, row.SelectedAnswerID)
		statuses = append(statuses, row.Status)
		corrects = append(corrects, row.Correct)
		marks = append(marks, row.Marked)
	}

	query := `
		UPDATE session_questions AS q
		SET selected_answer_id = t.selected_answer_id,
		    status = t.status,
		    correct = t.correct,
		    marked = t.marked,
		    updated_at = NOW()
		FROM (
			SELECT
				u.question_order,
				u.selected_answer_id,
				u.status,
				u.correct,
				u.marked
			FROM UNNEST(
				$2::int[],
				$3::bigint[],
				$4::smallint[],
				$5::smallint[],
				$6::bool[]
			) AS u (question_order, selected_answer_id, status, correct, marked)
		) AS t
		WHERE q.session_id = $1
		  AND q.question_order = t.question_order
	`

	_, err := tx.Exec(ctx, query, sessionID, orders, answers, statuses, corrects, marks)
	return err
}
