package service

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/engine"
	"github.com/prepdeck/prepdeck-backend/internal/model"
	"github.com/prepdeck/prepdeck-backend/internal/repository"
)

// Common player errors.
var (
	ErrNotOwner        = errors.New("session belongs to another user")
	ErrSessionFinished = errors.New("session is already graded")
	ErrSessionNotOpen  = errors.New("session is not open")
	ErrGradeInFlight   = errors.New("grading already in progress")
	ErrStudyOnly       = errors.New("action is study-mode only")
	ErrNoQuestions     = errors.New("session has no questions")
)

// TimerUpdate is one clock broadcast pushed to websocket subscribers.
type TimerUpdate struct {
	Seconds int    `json:"seconds"`
	Clock   string `json:"clock"`
	Expired bool   `json:"expired"`
	Paused  bool   `json:"paused"`
}

// savedState is the per-question mirror kept in the session's Redis hash,
// keyed by question order. It survives a process crash between flushes.
type savedState struct {
	AnswerID int64 `json:"answer_id"`
	Status   int   `json:"status"`
	Correct  int   `json:"correct"`
	Marked   bool  `json:"marked"`
}

// persistMsg is one item on the persist_states_queue.
type persistMsg struct {
	SessionID string `json:"session_id"`
	Order     int    `json:"order"`
	AnswerID  int64  `json:"answer_id"`
	Status    int    `json:"status"`
	Correct   int    `json:"correct"`
	Marked    bool   `json:"marked"`
}

// liveSession pairs an engine instance with its metadata. All access goes
// through mu; the timer runner and HTTP handlers share one lock.
type liveSession struct {
	mu      sync.Mutex
	eng     *engine.Session
	meta    *model.PlaySession
	grading bool
	stop    chan struct{}
	subs    map[chan TimerUpdate]struct{}
}

func (ls *liveSession) broadcast(u TimerUpdate) {
	for ch := range ls.subs {
		select {
		case ch <- u:
		default:
			// Slow subscriber: drop the tick, the next one carries the
			// current value anyway.
		}
	}
}

// GradeSummary is the result of finalizing a session.
type GradeSummary struct {
	SessionID      uuid.UUID `json:"session_id"`
	StudyUnit      string    `json:"study_unit"`
	TotalQuestions int       `json:"total_questions"`
	Answered       int       `json:"answered"`
	Correct        int       `json:"correct"`
	FirstTry       int       `json:"first_try"`
	Score          float64   `json:"score"`
	TimeRemaining  int       `json:"time_remaining"`
}

// PlayerService owns the in-memory registry of open sessions and all play
// operations. Engine state is authoritative while a session is open;
// PostgreSQL holds the durable copy, Redis the crash-recovery mirror.
type PlayerService struct {
	sessionRepo  *repository.SessionRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	cfg          *config.Config
	log          zerolog.Logger

	mu   sync.Mutex
	live map[uuid.UUID]*liveSession
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(
	sessionRepo *repository.SessionRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *PlayerService {
	return &PlayerService{
		sessionRepo:  sessionRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		cfg:          cfg,
		log:          log.With().Str("component", "player_service").Logger(),
		live:         make(map[uuid.UUID]*liveSession),
	}
}

// Open hydrates a session into memory and starts its clock. Re-opening an
// already open session is idempotent and returns the running state, so a
// page reload never resets progress.
func (s *PlayerService) Open(ctx context.Context, sessionID uuid.UUID, userID int) (engine.Snapshot, error) {
	s.mu.Lock()
	if ls, ok := s.live[sessionID]; ok {
		s.mu.Unlock()
		ls.mu.Lock()
		defer ls.mu.Unlock()
		if ls.meta.UserID != userID {
			return engine.Snapshot{}, ErrNotOwner
		}
		return ls.eng.Snapshot(), nil
	}
	s.mu.Unlock()

	meta, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	if meta.UserID != userID {
		return engine.Snapshot{}, ErrNotOwner
	}
	if meta.Status == model.SessionStatusFinished {
		return engine.Snapshot{}, ErrSessionFinished
	}

	questions, err := s.loadPaper(ctx, sessionID)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("load paper: %w", err)
	}
	if len(questions) == 0 {
		return engine.Snapshot{}, ErrNoQuestions
	}

	mirror, err := s.loadMirror(ctx, sessionID)
	if err != nil {
		// The mirror is best-effort recovery state; losing it falls back
		// to the last durable flush.
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Answer mirror unavailable")
		mirror = nil
	}

	seeds := make([]engine.SeedQuestion, len(questions))
	for i, q := range questions {
		opts := make([]engine.AnswerOption, len(q.Options))
		for j, o := range q.Options {
			opts[j] = engine.AnswerOption{ID: o.ID, Text: o.Text, Weight: o.Weight, Feedback: o.Feedback}
		}
		seed := engine.SeedQuestion{
			Order:            q.QuestionOrder,
			Text:             q.QuestionText,
			Options:          opts,
			SelectedAnswerID: q.SelectedAnswerID,
			Status:           engine.Status(q.Status),
			Correct:          engine.Correctness(q.Correct),
			Marked:           q.Marked,
		}
		// Redis state is newer than the durable copy when the process
		// died between flushes.
		if st, ok := mirror[q.QuestionOrder]; ok {
			seed.SelectedAnswerID = st.AnswerID
			seed.Status = engine.Status(st.Status)
			seed.Correct = engine.Correctness(st.Correct)
			seed.Marked = st.Marked
		}
		seeds[i] = seed
	}

	mode := engine.ModeExam
	if meta.Mode == model.SessionModeStudy {
		mode = engine.ModeStudy
	}

	eng, err := engine.New(engine.Config{
		Mode:          mode,
		Questions:     seeds,
		TimeSeconds:   meta.TimeRemaining,
		RandomAnswers: meta.RandomAnswers,
		ShuffleSeed:   shuffleSeed(sessionID),
	})
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("hydrate engine: %w", err)
	}

	ls := &liveSession{
		eng:  eng,
		meta: meta,
		stop: make(chan struct{}),
		subs: make(map[chan TimerUpdate]struct{}),
	}

	s.mu.Lock()
	if racing, ok := s.live[sessionID]; ok {
		// Lost an open race; use the winner's instance.
		s.mu.Unlock()
		racing.mu.Lock()
		defer racing.mu.Unlock()
		return racing.eng.Snapshot(), nil
	}
	s.live[sessionID] = ls
	s.mu.Unlock()

	go s.runTimer(ls, sessionID)

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("mode", string(meta.Mode)).
		Int("questions", len(seeds)).
		Msg("Session opened")

	ls.mu.Lock()
	defer ls.mu.Unlock()
	// First display of the initial question.
	_, _ = eng.Dispatch(engine.GoTo{Order: 1})
	return eng.Snapshot(), nil
}

// runTimer ticks a live session's clock once per second until the session
// closes. Exactly one runner exists per live entry.
func (s *PlayerService) runTimer(ls *liveSession, sessionID uuid.UUID) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ls.stop:
			return
		case <-ticker.C:
			ls.mu.Lock()
			out, _ := ls.eng.Dispatch(engine.Tick{})
			tm := ls.eng.Timer()
			update := TimerUpdate{
				Seconds: tm.Seconds(),
				Clock:   tm.Display(),
				Expired: tm.Expired(),
				Paused:  tm.Paused(),
			}
			ls.broadcast(update)
			ls.mu.Unlock()

			if out.Notice == engine.NoticeTimeExpired {
				s.log.Info().Str("session_id", sessionID.String()).Msg("Session time expired")
			}
		}
	}
}

// State returns the current snapshot of an open session.
func (s *PlayerService) State(_ context.Context, sessionID uuid.UUID, userID int) (engine.Snapshot, error) {
	ls, err := s.lookup(sessionID, userID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.eng.Snapshot(), nil
}

// ApplyEvent dispatches one player event and returns the resulting
// snapshot. Answer and mark changes are mirrored to Redis and queued for
// background persistence.
func (s *PlayerService) ApplyEvent(ctx context.Context, sessionID uuid.UUID, userID int, ev engine.Event) (engine.Snapshot, engine.Outcome, error) {
	ls, err := s.lookup(sessionID, userID)
	if err != nil {
		return engine.Snapshot{}, engine.Outcome{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.grading {
		return engine.Snapshot{}, engine.Outcome{}, ErrGradeInFlight
	}

	out, err := ls.eng.Dispatch(ev)
	if err != nil {
		return engine.Snapshot{}, engine.Outcome{}, err
	}

	switch e := ev.(type) {
	case engine.Answer:
		s.mirrorState(ctx, sessionID, ls.eng, e.Order)
	case engine.ToggleMark:
		s.mirrorState(ctx, sessionID, ls.eng, e.Order)
	}

	return ls.eng.Snapshot(), out, nil
}

// mirrorState writes one question's state to the Redis hash and enqueues a
// durable write. Caller holds the session lock.
func (s *PlayerService) mirrorState(ctx context.Context, sessionID uuid.UUID, eng *engine.Session, order int) {
	st, err := eng.State(order)
	if err != nil {
		return
	}

	saved := savedState{
		AnswerID: st.SelectedAnswerID,
		Status:   int(st.Status),
		Correct:  int(st.Correct),
		Marked:   st.Marked,
	}
	raw, _ := json.Marshal(saved)

	key := config.CacheKey.SessionAnswersKey(sessionID.String())
	if err := s.rdb.HSet(ctx, key, order, raw).Err(); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Mirror HSet failed")
	}

	msg, _ := json.Marshal(persistMsg{
		SessionID: sessionID.String(),
		Order:     order,
		AnswerID:  st.SelectedAnswerID,
		Status:    int(st.Status),
		Correct:   int(st.Correct),
		Marked:    st.Marked,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistStatesQueue, msg).Err(); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Persist enqueue failed")
	}
}

// Save flushes the full session state to PostgreSQL and closes the live
// entry ("save & exit"). The session stays IN_PROGRESS and can be
// re-opened later.
func (s *PlayerService) Save(ctx context.Context, sessionID uuid.UUID, userID int) error {
	ls, err := s.lookup(sessionID, userID)
	if err != nil {
		return err
	}

	ls.mu.Lock()
	if ls.grading {
		ls.mu.Unlock()
		return ErrGradeInFlight
	}
	rows, timeRemaining := flushRows(ls.eng)
	ls.mu.Unlock()

	if err := s.sessionRepo.SaveProgress(ctx, sessionID, timeRemaining, rows); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}

	s.close(sessionID, ls)
	s.clearMirror(ctx, sessionID)
	s.log.Info().Str("session_id", sessionID.String()).Msg("Session saved and closed")
	return nil
}

// Grade finalizes a session: builds the submission payload, persists it,
// marks the session FINISHED and returns the summary. Concurrent grade
// requests collapse into one.
func (s *PlayerService) Grade(ctx context.Context, sessionID uuid.UUID, userID int) (GradeSummary, error) {
	ls, err := s.lookup(sessionID, userID)
	if err != nil {
		return GradeSummary{}, err
	}

	ls.mu.Lock()
	if ls.grading {
		ls.mu.Unlock()
		return GradeSummary{}, ErrGradeInFlight
	}
	ls.grading = true
	payload := ls.eng.BuildPayload()
	rows, timeRemaining := flushRows(ls.eng)
	meta := ls.meta
	ls.mu.Unlock()

	if err := s.sessionRepo.Finish(ctx, sessionID, timeRemaining, rows); err != nil {
		// Leave the session recoverable: the live entry stays open and a
		// retry is allowed.
		ls.mu.Lock()
		ls.grading = false
		ls.mu.Unlock()
		return GradeSummary{}, fmt.Errorf("finalize session: %w", err)
	}

	summary := GradeSummary{
		SessionID:      sessionID,
		StudyUnit:      meta.StudyUnit,
		TotalQuestions: meta.TotalQuestions,
		TimeRemaining:  payload.TimeRemaining,
	}
	for order, c := range payload.Correct {
		if _, answered := payload.Answers[order]; answered {
			summary.Answered++
		}
		if c == int(engine.CorrectFirstTry) {
			summary.FirstTry++
		}
		if c != int(engine.Incorrect) {
			summary.Correct++
		}
	}
	if summary.TotalQuestions > 0 {
		summary.Score = float64(summary.Correct) / float64(summary.TotalQuestions) * 100
	}

	s.close(sessionID, ls)
	s.clearMirror(ctx, sessionID)

	s.log.Info().
		Str("session_id", sessionID.String()).
		Float64("score", summary.Score).
		Int("answered", summary.Answered).
		Msg("Session graded")
	return summary, nil
}

// Delete removes a study session. The removal itself runs in the purge
// worker; enqueue failures are logged and swallowed so the client can
// always leave.
func (s *PlayerService) Delete(ctx context.Context, sessionID uuid.UUID, userID int) error {
	meta, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if meta.UserID != userID {
		return ErrNotOwner
	}
	if meta.Mode != model.SessionModeStudy {
		return ErrStudyOnly
	}

	s.mu.Lock()
	ls := s.live[sessionID]
	s.mu.Unlock()
	if ls != nil {
		s.close(sessionID, ls)
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PurgeSessionsQueue, sessionID.String()).Err(); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Purge enqueue failed")
	}
	return nil
}

// Subscribe registers a timer update channel for an open session. The
// returned cancel function must be called when the consumer goes away.
func (s *PlayerService) Subscribe(sessionID uuid.UUID, userID int) (<-chan TimerUpdate, func(), error) {
	ls, err := s.lookup(sessionID, userID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan TimerUpdate, 4)
	ls.mu.Lock()
	ls.subs[ch] = struct{}{}
	ls.mu.Unlock()

	cancel := func() {
		ls.mu.Lock()
		delete(ls.subs, ch)
		ls.mu.Unlock()
	}
	return ch, cancel, nil
}

// Close flushes every live session to PostgreSQL. Called on shutdown.
func (s *PlayerService) Close(ctx context.Context) {
	s.mu.Lock()
	open := make(map[uuid.UUID]*liveSession, len(s.live))
	for id, ls := range s.live {
		open[id] = ls
	}
	s.mu.Unlock()

	for id, ls := range open {
		ls.mu.Lock()
		rows, timeRemaining := flushRows(ls.eng)
		ls.mu.Unlock()

		if err := s.sessionRepo.SaveProgress(ctx, id, timeRemaining, rows); err != nil {
			s.log.Error().Err(err).Str("session_id", id.String()).Msg("Shutdown flush failed")
			continue
		}
		s.close(id, ls)
	}

	if len(open) > 0 {
		s.log.Info().Int("count", len(open)).Msg("Flushed live sessions on shutdown")
	}
}

func (s *PlayerService) lookup(sessionID uuid.UUID, userID int) (*liveSession, error) {
	s.mu.Lock()
	ls, ok := s.live[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotOpen
	}
	if ls.meta.UserID != userID {
		return nil, ErrNotOwner
	}
	return ls, nil
}

// close stops the timer runner and removes the live entry. Safe to call
// more than once per session.
func (s *PlayerService) close(sessionID uuid.UUID, ls *liveSession) {
	s.mu.Lock()
	if s.live[sessionID] == ls {
		delete(s.live, sessionID)
		close(ls.stop)
	}
	s.mu.Unlock()
}

func (s *PlayerService) clearMirror(ctx context.Context, sessionID uuid.UUID) {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.SessionAnswersKey(sessionID.String()))
	pipe.Del(ctx, config.CacheKey.SessionPaperKey(sessionID.String()))
	_, _ = pipe.Exec(ctx)
}

// loadPaper reads the session's question payload with a Redis
// read-through: cache hit avoids the PostgreSQL scan on every reload.
func (s *PlayerService) loadPaper(ctx context.Context, sessionID uuid.UUID) ([]model.SessionQuestion, error) {
	key := config.CacheKey.SessionPaperKey(sessionID.String())

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var questions []model.SessionQuestion
		if err := json.Unmarshal([]byte(cached), &questions); err == nil {
			return questions, nil
		}
		// Corrupt cache entry: fall through to the database.
		_ = s.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	questions, err := s.questionRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(questions); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.cfg.PaperCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Paper cache write failed")
		}
	}
	return questions, nil
}

// loadMirror reads the crash-recovery hash, keyed by question order.
func (s *PlayerService) loadMirror(ctx context.Context, sessionID uuid.UUID) (map[int]savedState, error) {
	key := config.CacheKey.SessionAnswersKey(sessionID.String())
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	mirror := make(map[int]savedState, len(fields))
	for field, raw := range fields {
		var order int
		if _, err := fmt.Sscanf(field, "%d", &order); err != nil {
			continue
		}
		var st savedState
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			continue
		}
		mirror[order] = st
	}
	return mirror, nil
}

// shuffleSeed derives a stable per-session seed so a reload reproduces the
// same option order.
func shuffleSeed(sessionID uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(sessionID[:8]))
}

// flushRows converts the engine's payload into repository rows. Caller
// holds the session lock.
func flushRows(eng *engine.Session) ([]repository.QuestionStateRow, int) {
	payload := eng.BuildPayload()

	rows := make([]repository.QuestionStateRow, 0, eng.Len())
	for order := 1; order <= eng.Len(); order++ {
		rows = append(rows, repository.QuestionStateRow{
			Order:            order,
			SelectedAnswerID: payload.Answers[order],
			Status:           payload.Status[order],
			Correct:          payload.Correct[order],
			Marked:           payload.MarkedForReview[order] == 1,
		})
	}
	return rows, payload.TimeRemaining
}
