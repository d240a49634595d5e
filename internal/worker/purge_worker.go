package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdeck/prepdeck-backend/internal/config"
)

const PurgePollTimeout = 1 * time.Second

// PurgeWorker consumes purge_sessions_queue and removes deleted study
// sessions: database rows plus any leftover Redis keys. Deletion is best
// effort; a failed item is requeued.
type PurgeWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewPurgeWorker creates a new PurgeWorker.
func NewPurgeWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *PurgeWorker {
	return &PurgeWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "purge_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *PurgeWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *PurgeWorker) processNext(ctx context.Context) {
	item, err := w.rdb.BLPop(ctx, PurgePollTimeout, config.WorkerKey.PurgeSessionsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(item) < 2 {
		return
	}

	if err := w.purge(ctx, item[1]); err != nil {
		w.log.Error().Err(err).Str("session_id", item[1]).Msg("Purge error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.PurgeSessionsQueue, item[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *PurgeWorker) purge(ctx context.Context, rawID string) error {
	sessionID, err := uuid.Parse(rawID)
	if err != nil {
		// A malformed id can never succeed; drop it.
		w.log.Warn().Str("session_id", rawID).Msg("Dropping malformed purge item")
		return nil
	}

	// session_questions rows go with the session via ON DELETE CASCADE.
	if _, err := w.pool.Exec(ctx,
		`DELETE FROM play_sessions WHERE id = $1`, sessionID,
	); err != nil {
		return err
	}

	pipe := w.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.SessionAnswersKey(rawID))
	pipe.Del(ctx, config.CacheKey.SessionPaperKey(rawID))
	_, _ = pipe.Exec(ctx)

	w.log.Info().Str("session_id", rawID).Msg("Session purged")
	return nil
}

func (w *PurgeWorker) drain(ctx context.Context) {
	drained := 0
	for {
		item, err := w.rdb.LPop(ctx, config.WorkerKey.PurgeSessionsQueue).Result()
		if err != nil {
			break
		}
		if err := w.purge(ctx, item); err != nil {
			w.rdb.RPush(ctx, config.WorkerKey.PurgeSessionsQueue, item)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
