package engine

// Event is a typed user or clock action. The presentation adapter translates
// UI gestures into events and calls Dispatch; the engine never sees raw
// transport or DOM concerns.
type Event interface{ isEvent() }

// Answer selects an answer option on a question.
type Answer struct {
	Order    int
	AnswerID int64
}

// GoTo jumps directly to a question (navigator screen, sidebar, first
// render).
type GoTo struct{ Order int }

// Next advances within the active candidate list.
type Next struct{}

// Previous steps back within the active candidate list.
type Previous struct{}

// ToggleMark flips the marked-for-review flag on a question.
type ToggleMark struct{ Order int }

// SectionReview opens the review overview screen (exam only).
type SectionReview struct{}

// StartReview enters a review subset from the overview (exam only).
type StartReview struct{ Type ReviewType }

// SetFilter applies or clears the ad-hoc filter (study only).
type SetFilter struct{ Filter Filter }

// TogglePause pauses/resumes the study clock (study only).
type TogglePause struct{}

// Tick advances the clock by one second. Emitted by the timer runner, never
// by clients.
type Tick struct{}

func (Answer) isEvent()        {}
func (GoTo) isEvent()          {}
func (Next) isEvent()          {}
func (Previous) isEvent()      {}
func (ToggleMark) isEvent()    {}
func (SectionReview) isEvent() {}
func (StartReview) isEvent()   {}
func (SetFilter) isEvent()     {}
func (TogglePause) isEvent()   {}
func (Tick) isEvent()          {}

// Notice is a one-shot, user-visible side note produced by a dispatch.
// Notices are informational; they never fail the dispatch.
type Notice int

const (
	NoticeNone Notice = iota
	NoticeTimeExpired
	NoticeNothingToReview
)

func (n Notice) String() string {
	switch n {
	case NoticeTimeExpired:
		return "time_expired"
	case NoticeNothingToReview:
		return "nothing_to_review"
	}
	return ""
}

// Outcome carries the one-shot notice of a dispatch, if any.
type Outcome struct {
	Notice Notice
}

// Dispatch applies one event to the session. All state transitions funnel
// through here.
func (s *Session) Dispatch(ev Event) (Outcome, error) {
	switch e := ev.(type) {
	case Answer:
		return Outcome{}, s.recordAnswer(e.Order, e.AnswerID)
	case GoTo:
		return Outcome{}, s.goTo(e.Order)
	case Next:
		s.next()
		return Outcome{}, nil
	case Previous:
		s.previous()
		return Outcome{}, nil
	case ToggleMark:
		return Outcome{}, s.toggleMark(e.Order)
	case SectionReview:
		if s.mode != ModeExam {
			return Outcome{}, ErrWrongMode
		}
		s.enterSectionReview()
		return Outcome{}, nil
	case StartReview:
		return s.startReview(e.Type)
	case SetFilter:
		return Outcome{}, s.setFilter(e.Filter)
	case TogglePause:
		if s.mode != ModeStudy {
			return Outcome{}, ErrWrongMode
		}
		s.timer.togglePause()
		return Outcome{}, nil
	case Tick:
		if s.timer.tick() {
			return Outcome{Notice: NoticeTimeExpired}, nil
		}
		return Outcome{}, nil
	}
	return Outcome{}, ErrWrongMode
}
