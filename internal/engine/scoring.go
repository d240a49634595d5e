package engine

// recordAnswer applies an answer selection to one question. The correctness
// classification must read the status as it was before this answer, so it
// is computed first and the status promotion to Complete happens last.
//
// A correct answer on a never-completed question earns CorrectFirstTry; a
// correct answer replacing an incorrect one earns CorrectLater; an already
// earned CorrectFirstTry/CorrectLater survives re-selecting a correct
// option. An incorrect answer always classifies the question Incorrect,
// even after an earlier first-try correct (current answer wins).
func (s *Session) recordAnswer(order int, answerID int64) error {
	if order < 1 || order > len(s.questions) {
		return ErrUnknownOrder
	}

	var chosen *AnswerOption
	for i := range s.questions[order-1].Options {
		if s.questions[order-1].Options[i].ID == answerID {
			chosen = &s.questions[order-1].Options[i]
			break
		}
	}
	if chosen == nil {
		return ErrUnknownAnswer
	}

	st := &s.states[order-1]
	if chosen.Weight > 0 {
		switch {
		case st.Status != StatusComplete:
			// First time this question reaches Complete.
			st.Correct = CorrectFirstTry
		case st.Correct == Incorrect:
			// Was wrong before, right now.
			st.Correct = CorrectLater
		}
		// Already CorrectFirstTry or CorrectLater: never downgrade.
	} else {
		st.Correct = Incorrect
	}

	st.Status = StatusComplete
	st.SelectedAnswerID = answerID
	return nil
}

// recordView promotes an Unseen question to Incomplete the first time it is
// displayed, or straight to Complete when a saved answer already exists.
// Viewing never downgrades a question.
func (s *Session) recordView(order int) {
	if order < 1 || order > len(s.states) {
		return
	}
	st := &s.states[order-1]
	if st.Status != StatusUnseen {
		return
	}
	if st.SelectedAnswerID != 0 {
		st.Status = StatusComplete
	} else {
		st.Status = StatusIncomplete
	}
}

// Counts aggregates question statuses for the section review overview.
type Counts struct {
	Complete   int `json:"complete"`
	Incomplete int `json:"incomplete"`
	Unseen     int `json:"unseen"`
}

// StatusCounts tallies all questions by status.
func (s *Session) StatusCounts() Counts {
	var c Counts
	for i := range s.states {
		switch s.states[i].Status {
		case StatusComplete:
			c.Complete++
		case StatusIncomplete:
			c.Incomplete++
		default:
			c.Unseen++
		}
	}
	return c
}
