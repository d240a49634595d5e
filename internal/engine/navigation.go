package engine

// Review subsets and study filters are both ordered candidate lists over
// question orders; navigation steps through whichever list is active.

// candidateOrders returns the ascending orders belonging to a review subset.
func (s *Session) candidateOrders(rt ReviewType) []int {
	var out []int
	for i := range s.states {
		order := i + 1
		switch rt {
		case ReviewAll:
			out = append(out, order)
		case ReviewIncomplete:
			if s.states[i].Status != StatusComplete {
				out = append(out, order)
			}
		case ReviewMarked:
			if s.states[i].Marked {
				out = append(out, order)
			}
		}
	}
	return out
}

// filterOrders returns the ascending orders matching the active study
// filter, or nil when no filter is applied. An active filter with zero
// matches returns an empty, non-nil slice: everything hidden.
func (s *Session) filterOrders() []int {
	if s.filter == FilterNone {
		return nil
	}
	out := []int{}
	for i := range s.states {
		order := i + 1
		switch s.filter {
		case FilterIncomplete:
			if s.states[i].Status != StatusComplete {
				out = append(out, order)
			}
		case FilterMarked:
			if s.states[i].Marked {
				out = append(out, order)
			}
		case FilterIncorrect:
			if s.states[i].Status == StatusComplete && s.states[i].Correct == Incorrect {
				out = append(out, order)
			}
		}
	}
	return out
}

func nextAfter(cands []int, cur int) (int, bool) {
	for _, o := range cands {
		if o > cur {
			return o, true
		}
	}
	return 0, false
}

func prevBefore(cands []int, cur int) (int, bool) {
	for i := len(cands) - 1; i >= 0; i-- {
		if cands[i] < cur {
			return cands[i], true
		}
	}
	return 0, false
}

func contains(cands []int, order int) bool {
	for _, o := range cands {
		if o == order {
			return true
		}
	}
	return false
}

// show moves the visible screen to the given question and records the view.
func (s *Session) show(order int) {
	s.current = order
	s.view = ViewQuestion
	s.recordView(order)
}

// enterSectionReview switches to the overview screen. Leaving a review
// subset always lands here with the subset cleared.
func (s *Session) enterSectionReview() {
	s.view = ViewSectionReview
	s.reviewType = ReviewNone
}

func (s *Session) next() {
	if s.view == ViewSectionReview {
		return
	}

	if s.mode == ModeExam {
		if s.reviewType != ReviewNone {
			if n, ok := nextAfter(s.candidateOrders(s.reviewType), s.current); ok {
				s.show(n)
			} else {
				s.enterSectionReview()
			}
			return
		}
		if s.current < len(s.questions) {
			s.show(s.current + 1)
		} else {
			// Next on the last question opens the section review instead
			// of failing.
			s.enterSectionReview()
		}
		return
	}

	// Study: normal paging, restricted to the filter subset when active.
	if cands := s.filterOrders(); cands != nil {
		if n, ok := nextAfter(cands, s.current); ok {
			s.show(n)
		}
		return
	}
	if s.current < len(s.questions) {
		s.show(s.current + 1)
	}
}

func (s *Session) previous() {
	if s.view == ViewSectionReview {
		// Backing out of the overview returns to the last question.
		s.show(len(s.questions))
		return
	}

	if s.mode == ModeExam && s.reviewType != ReviewNone {
		if p, ok := prevBefore(s.candidateOrders(s.reviewType), s.current); ok {
			s.show(p)
		}
		return
	}

	if cands := s.filterOrders(); cands != nil {
		if p, ok := prevBefore(cands, s.current); ok {
			s.show(p)
		}
		return
	}
	if s.current > 1 {
		s.show(s.current - 1)
	}
}

func (s *Session) goTo(order int) error {
	if order < 1 || order > len(s.questions) {
		return ErrUnknownOrder
	}
	s.show(order)
	return nil
}

// startReview enters a review subset from the section review overview.
// Review All always starts at question 1; Incomplete and Marked land on
// their first candidate, or stay on the overview with a notice when the
// candidate list is empty.
func (s *Session) startReview(rt ReviewType) (Outcome, error) {
	if s.mode != ModeExam {
		return Outcome{}, ErrWrongMode
	}

	if rt == ReviewAll {
		s.reviewType = ReviewAll
		s.show(1)
		return Outcome{}, nil
	}

	cands := s.candidateOrders(rt)
	if len(cands) == 0 {
		s.enterSectionReview()
		return Outcome{Notice: NoticeNothingToReview}, nil
	}
	s.reviewType = rt
	s.show(cands[0])
	return Outcome{}, nil
}

// setFilter applies or clears a study filter and recomputes the visible
// subset. When the current question falls outside a non-empty subset,
// navigation jumps to the first match; an empty subset leaves every
// question hidden with both nav buttons disabled.
func (s *Session) setFilter(f Filter) error {
	if s.mode != ModeStudy {
		return ErrWrongMode
	}
	s.filter = f
	if f == FilterNone {
		return nil
	}
	cands := s.filterOrders()
	if len(cands) > 0 && !contains(cands, s.current) {
		s.show(cands[0])
	}
	return nil
}

func (s *Session) toggleMark(order int) error {
	if order < 1 || order > len(s.states) {
		return ErrUnknownOrder
	}
	s.states[order-1].Marked = !s.states[order-1].Marked
	return nil
}
