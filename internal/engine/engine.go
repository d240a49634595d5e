// Package engine implements the play-session state machine: per-question
// answer/status/correctness/marked state, subset-based navigation with
// section review and study filters, the countdown/count-up timer, and the
// grading payload assembler.
//
// The engine is pure and I/O-free. All user actions enter through
// Session.Dispatch and mutate only the Session; persistence, transport and
// rendering live in the service and handler layers.
package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// Mode selects the exam or study rule set. The two modes share one state
// machine; the mode toggles timer direction, answer shuffling, section
// review (exam) and ad-hoc filtering (study).
type Mode int

const (
	ModeExam Mode = iota
	ModeStudy
)

func (m Mode) String() string {
	if m == ModeStudy {
		return "study"
	}
	return "exam"
}

// Status is the per-question lifecycle stage.
type Status int

const (
	StatusUnseen     Status = 0 // never displayed
	StatusIncomplete Status = 1 // displayed but unanswered
	StatusComplete   Status = 2 // an answer is selected
)

// Correctness classifies the current answer. It is meaningful only once a
// question is Complete. CorrectFirstTry is reached only when a question
// goes straight from never-answered to a correct answer.
type Correctness int

const (
	Incorrect       Correctness = 0
	CorrectLater    Correctness = 1
	CorrectFirstTry Correctness = 2
)

// ReviewType selects the review subset (exam flow).
type ReviewType int

const (
	ReviewNone ReviewType = iota
	ReviewAll
	ReviewIncomplete
	ReviewMarked
)

func (r ReviewType) String() string {
	switch r {
	case ReviewAll:
		return "all"
	case ReviewIncomplete:
		return "incomplete"
	case ReviewMarked:
		return "marked"
	}
	return "none"
}

// Filter selects the ad-hoc sidebar/paging subset (study flow).
type Filter int

const (
	FilterNone Filter = iota
	FilterIncomplete
	FilterMarked
	FilterIncorrect
)

func (f Filter) String() string {
	switch f {
	case FilterIncomplete:
		return "incomplete"
	case FilterMarked:
		return "marked"
	case FilterIncorrect:
		return "incorrect"
	}
	return "none"
}

// View is the visible screen: a single question or the section review
// overview.
type View int

const (
	ViewQuestion View = iota
	ViewSectionReview
)

func (v View) String() string {
	if v == ViewSectionReview {
		return "section_review"
	}
	return "question"
}

// Engine errors surfaced by Dispatch.
var (
	ErrUnknownOrder  = errors.New("question order out of range")
	ErrUnknownAnswer = errors.New("answer option not found on question")
	ErrWrongMode     = errors.New("event not available in this session mode")
)

// AnswerOption is one selectable answer. Weight > 0 means the option is
// correct.
type AnswerOption struct {
	ID       int64
	Text     string
	Weight   float64
	Feedback string
}

// Question is immutable for the life of a session.
type Question struct {
	Order   int
	Text    string
	Options []AnswerOption
}

// QuestionState is the mutable per-question state, keyed by order.
type QuestionState struct {
	Status           Status
	Correct          Correctness
	Marked           bool
	SelectedAnswerID int64 // 0 = none
}

// SeedQuestion carries one question plus its saved state into New.
type SeedQuestion struct {
	Order            int
	Text             string
	Options          []AnswerOption
	SelectedAnswerID int64
	Status           Status
	Correct          Correctness
	Marked           bool
}

// Config hydrates a Session.
type Config struct {
	Mode      Mode
	Questions []SeedQuestion

	// TimeSeconds is signed for exam mode: negative means the countdown
	// already expired and has counted up by that many seconds. For study
	// mode it is the non-negative elapsed time.
	TimeSeconds int

	// RandomAnswers shuffles each question's options once at hydration
	// (study sessions only).
	RandomAnswers bool
	ShuffleSeed   int64
}

// Session is the owned, in-memory exam state. It is not safe for concurrent
// use; callers serialize access (the service registry holds one mutex per
// live session).
type Session struct {
	mode       Mode
	questions  []Question
	states     []QuestionState
	current    int
	view       View
	reviewType ReviewType
	filter     Filter
	timer      Timer
}

// New builds a Session from hydrated questions and saved state. Questions
// must have unique, dense 1-based orders.
func New(cfg Config) (*Session, error) {
	if len(cfg.Questions) == 0 {
		return nil, errors.New("session has no questions")
	}

	seeds := make([]SeedQuestion, len(cfg.Questions))
	copy(seeds, cfg.Questions)
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].Order < seeds[j].Order })

	s := &Session{
		mode:      cfg.Mode,
		questions: make([]Question, len(seeds)),
		states:    make([]QuestionState, len(seeds)),
		current:   1,
		view:      ViewQuestion,
		timer:     newTimer(cfg.Mode, cfg.TimeSeconds),
	}

	var rng *rand.Rand
	if cfg.Mode == ModeStudy && cfg.RandomAnswers {
		rng = rand.New(rand.NewSource(cfg.ShuffleSeed))
	}

	for i, seed := range seeds {
		if seed.Order != i+1 {
			return nil, fmt.Errorf("question orders must be dense starting at 1, got %d at position %d", seed.Order, i+1)
		}

		opts := make([]AnswerOption, len(seed.Options))
		copy(opts, seed.Options)
		if rng != nil {
			rng.Shuffle(len(opts), func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })
		}
		s.questions[i] = Question{Order: seed.Order, Text: seed.Text, Options: opts}

		st := QuestionState{
			Status:           seed.Status,
			Correct:          seed.Correct,
			Marked:           seed.Marked,
			SelectedAnswerID: seed.SelectedAnswerID,
		}
		// Normalize saved state against the model invariants rather than
		// trusting the store blindly.
		if st.Status == StatusUnseen {
			st.SelectedAnswerID = 0
			st.Correct = Incorrect
		}
		if st.SelectedAnswerID != 0 {
			st.Status = StatusComplete
		}
		s.states[i] = st
	}

	return s, nil
}

// Len returns the number of questions.
func (s *Session) Len() int { return len(s.questions) }

// Mode returns the session mode.
func (s *Session) Mode() Mode { return s.mode }

// Current returns the current question order.
func (s *Session) Current() int { return s.current }

// View returns the visible screen.
func (s *Session) View() View { return s.view }

// ReviewType returns the active review subset, ReviewNone outside review.
func (s *Session) ReviewType() ReviewType { return s.reviewType }

// ActiveFilter returns the active study filter.
func (s *Session) ActiveFilter() Filter { return s.filter }

// Timer returns a copy of the timer state.
func (s *Session) Timer() Timer { return s.timer }

// Question returns the question at the given 1-based order.
func (s *Session) Question(order int) (Question, error) {
	if order < 1 || order > len(s.questions) {
		return Question{}, ErrUnknownOrder
	}
	return s.questions[order-1], nil
}

// State returns a copy of the per-question state at the given order.
func (s *Session) State(order int) (QuestionState, error) {
	if order < 1 || order > len(s.states) {
		return QuestionState{}, ErrUnknownOrder
	}
	return s.states[order-1], nil
}
