package engine

// Payload is the grading submission assembled from a session. Map keys are
// question orders. Answers holds only questions with a selection; the other
// three maps always cover every order.
type Payload struct {
	TimeRemaining   int             `json:"timeremaining"`
	Answers         map[int]int64   `json:"answers"`
	Status          map[int]int     `json:"status"`
	MarkedForReview map[int]int     `json:"markedforreview"`
	Correct         map[int]int     `json:"correct"`
}

// BuildPayload snapshots the session into a grading submission. Overtime in
// an expired exam is reported as negative remaining time.
func (s *Session) BuildPayload() Payload {
	p := Payload{
		TimeRemaining:   s.timer.Signed(),
		Answers:         make(map[int]int64),
		Status:          make(map[int]int, len(s.states)),
		MarkedForReview: make(map[int]int, len(s.states)),
		Correct:         make(map[int]int, len(s.states)),
	}
	for i := range s.states {
		st := &s.states[i]
		order := i + 1
		if st.SelectedAnswerID != 0 {
			p.Answers[order] = st.SelectedAnswerID
		}
		p.Status[order] = int(st.Status)
		p.Correct[order] = int(st.Correct)
		if st.Marked {
			p.MarkedForReview[order] = 1
		} else {
			p.MarkedForReview[order] = 0
		}
	}
	return p
}
