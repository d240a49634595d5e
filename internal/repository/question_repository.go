package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdeck/prepdeck-backend/internal/model"
)

// QuestionRepository handles session question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListBySession retrieves all question rows of a session ordered by
// question_order, including the saved per-question state.
func (r *QuestionRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.SessionQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, question_order, question_text, options,
		        selected_answer_id, status, correct, marked
		 FROM session_questions
		 WHERE session_id = $1
		 ORDER BY question_order`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.SessionQuestion
	for rows.Next() {
		var q model.SessionQuestion
		var optionsRaw []byte
		if err := rows.Scan(&q.SessionID, &q.QuestionOrder, &q.QuestionText, &optionsRaw,
			&q.SelectedAnswerID, &q.Status, &q.Correct, &q.Marked); err != nil {
			return nil, err
		}
		// Malformed option rows degrade to an unanswerable question
		// instead of failing the whole session load.
		if err := json.Unmarshal(optionsRaw, &q.Options); err != nil {
			q.Options = nil
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
