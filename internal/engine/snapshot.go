package engine

// OptionView is an answer option as shown to the player. Weights never
// leave the engine; feedback is included only in study mode.
type OptionView struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Feedback string `json:"feedback,omitempty"`
}

// QuestionView is the full current question.
type QuestionView struct {
	Order            int          `json:"order"`
	Text             string       `json:"text"`
	Options          []OptionView `json:"options"`
	SelectedAnswerID int64        `json:"selected_answer_id"`
	Status           int          `json:"status"`
	Marked           bool         `json:"marked"`
}

// QuestionSummary is one sidebar/navigator entry.
type QuestionSummary struct {
	Order  int  `json:"order"`
	Status int  `json:"status"`
	Marked bool `json:"marked"`
}

// Snapshot is the complete render state of a session.
type Snapshot struct {
	Mode           string `json:"mode"`
	View           string `json:"view"`
	ReviewType     string `json:"review_type"`
	Filter         string `json:"filter"`
	Current        int    `json:"current"`
	TotalQuestions int    `json:"total_questions"`

	// CurrentVisible is false when an active study filter excludes the
	// current question; the question area renders empty then.
	CurrentVisible bool `json:"current_visible"`
	PrevEnabled    bool `json:"prev_enabled"`
	NextEnabled    bool `json:"next_enabled"`

	Clock        string `json:"clock"`
	TimerSeconds int    `json:"timer_seconds"`
	TimerExpired bool   `json:"timer_expired"`
	Paused       bool   `json:"paused"`

	Counts        Counts            `json:"counts"`
	VisibleOrders []int             `json:"visible_orders"`
	Questions     []QuestionSummary `json:"questions"`
	Question      *QuestionView     `json:"question,omitempty"`
}

// activeOrders returns the candidate list navigation currently steps
// through: the review subset inside exam review, the filter subset when a
// study filter is active, otherwise every order.
func (s *Session) activeOrders() []int {
	if s.mode == ModeExam && s.reviewType != ReviewNone {
		return s.candidateOrders(s.reviewType)
	}
	if cands := s.filterOrders(); cands != nil {
		return cands
	}
	all := make([]int, len(s.questions))
	for i := range all {
		all[i] = i + 1
	}
	return all
}

// Snapshot renders the session for the client.
func (s *Session) Snapshot() Snapshot {
	visible := s.activeOrders()

	snap := Snapshot{
		Mode:           s.mode.String(),
		View:           s.view.String(),
		ReviewType:     s.reviewType.String(),
		Filter:         s.filter.String(),
		Current:        s.current,
		TotalQuestions: len(s.questions),
		Clock:          s.timer.Display(),
		TimerSeconds:   s.timer.Seconds(),
		TimerExpired:   s.timer.Expired(),
		Paused:         s.timer.Paused(),
		Counts:         s.StatusCounts(),
		VisibleOrders:  visible,
		Questions:      make([]QuestionSummary, len(s.states)),
	}

	for i := range s.states {
		snap.Questions[i] = QuestionSummary{
			Order:  i + 1,
			Status: int(s.states[i].Status),
			Marked: s.states[i].Marked,
		}
	}

	if s.view == ViewSectionReview {
		return snap
	}

	inSubset := contains(visible, s.current)
	snap.CurrentVisible = inSubset
	if inSubset {
		_, snap.NextEnabled = nextAfter(visible, s.current)
		_, snap.PrevEnabled = prevBefore(visible, s.current)
		if s.mode == ModeExam {
			// Next never dead-ends in exam mode: on the last question it
			// opens the section review overview, and on the last review
			// candidate it returns there.
			snap.NextEnabled = true
		}
		snap.Question = s.questionView(s.current)
	}
	return snap
}

func (s *Session) questionView(order int) *QuestionView {
	q := s.questions[order-1]
	st := s.states[order-1]

	view := &QuestionView{
		Order:            q.Order,
		Text:             q.Text,
		Options:          make([]OptionView, len(q.Options)),
		SelectedAnswerID: st.SelectedAnswerID,
		Status:           int(st.Status),
		Marked:           st.Marked,
	}
	for i, opt := range q.Options {
		view.Options[i] = OptionView{ID: opt.ID, Text: opt.Text}
		if s.mode == ModeStudy {
			view.Options[i].Feedback = opt.Feedback
		}
	}
	return view
}
