package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdeck/prepdeck-backend/internal/config"
)

const (
	StateBatchSize    = 50
	StateBatchTimeout = 2 * time.Second
	StatePollTimeout  = 1 * time.Second
)

// AutosaveWorker consumes persist_states_queue and writes per-question
// state back to PostgreSQL in batches, so answering never blocks on the
// database.
type AutosaveWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "autosave_worker").Logger(),
	}
}

type statePayload struct {
	SessionID string `json:"session_id"`
	Order     int    `json:"order"`
	AnswerID  int64  `json:"answer_id"`
	Status    int    `json:"status"`
	Correct   int    `json:"correct"`
	Marked    bool   `json:"marked"`
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]*statePayload, 0, StateBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= StateBatchSize || time.Since(lastFlush) >= StateBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, StatePollTimeout, config.WorkerKey.PersistStatesQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p statePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *AutosaveWorker) flushSafe(ctx context.Context, batch []*statePayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpdateStates(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk state update failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).
					Str("session_id", p.SessionID).
					Int("order", p.Order).
					Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistStatesQueue, raw)
			}
		}
	}
}

// bulkUpdateStates writes the whole batch in one statement using UNNEST.
func (w *AutosaveWorker) bulkUpdateStates(ctx context.Context, batch []*statePayload) error {
	// Postgres does not define which row wins when UNNEST yields duplicate
	// join keys; collapse to the newest entry per question first.
	type key struct {
		session string
		order   int
	}
	latest := make(map[key]*statePayload, len(batch))
	keys := make([]key, 0, len(batch))
	for _, p := range batch {
		k := key{session: p.SessionID, order: p.Order}
		if _, seen := latest[k]; !seen {
			keys = append(keys, k)
		}
		latest[k] = p
	}

	n := len(keys)
	sessionIDs := make([]uuid.UUID, 0, n)
	orders := make([]int, 0, n)
	answers := make([]int64, 0, n)
	statuses := make([]int, 0, n)
	corrects := make([]int, 0, n)
	marks := make([]bool, 0, n)

	for _, k := range keys {
		p := latest[k]
		sID, err := uuid.Parse(p.SessionID)
		if err != nil {
			return err
		}
		sessionIDs = append(sessionIDs, sID)
		orders = append(orders, p.Order)
		answers = append(answers, p.AnswerID)
		statuses = append(statuses, p.Status)
		corrects = append(corrects, p.Correct)
		marks = append(marks, p.Marked)
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
				u.session_id,
				u.question_order,
				u.selected_answer_id,
				u.status,
				u.correct,
				u.marked
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::bigint[],
				$4::smallint[],
				$5::smallint[],
				$6::bool[]
			) AS u (session_id, question_order, selected_answer_id, status, correct, marked)
		) AS t
		WHERE q.session_id = t.session_id
		  AND q.question_order = t.question_order
	`

	_, err := w.pool.Exec(ctx, query, sessionIDs, orders, answers, statuses, corrects, marks)
	return err
}

func (w *AutosaveWorker) persistSingle(ctx context.Context, p *statePayload) error {
	sID, err := uuid.Parse(p.SessionID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`UPDATE session_questions
		 SET selected_answer_id = $1, status = $2, correct = $3, marked = $4, updated_at = NOW()
		 WHERE session_id = $5 AND question_order = $6`,
		p.AnswerID, p.Status, p.Correct, p.Marked, sID, p.Order,
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistStatesQueue).Result()
		if err != nil {
			break
		}

		var p statePayload
		if err := json.Unmarshal([]byte(result), &p); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistSingle(ctx, &p); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistStatesQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
