package engine

import "testing"

func dispatch(t *testing.T, s *Session, ev Event) Outcome {
	t.Helper()
	out, err := s.Dispatch(ev)
	if err != nil {
		t.Fatalf("dispatch %T: %v", ev, err)
	}
	return out
}

func TestExamLinearNavigation(t *testing.T) {
	s := newTestSession(t, ModeExam, 3)

	dispatch(t, s, GoTo{Order: 1})
	dispatch(t, s, Next{})
	if s.Current() != 2 {
		t.Fatalf("current = %d, want 2", s.Current())
	}
	dispatch(t, s, Previous{})
	if s.Current() != 1 {
		t.Fatalf("current = %d, want 1", s.Current())
	}
	// Previous on question 1 is a no-op.
	dispatch(t, s, Previous{})
	if s.Current() != 1 {
		t.Fatalf("previous at start moved to %d", s.Current())
	}
}

func TestExamNextAtEndOpensSectionReview(t *testing.T) {
	s := newTestSession(t, ModeExam, 2)

	dispatch(t, s, GoTo{Order: 2})
	dispatch(t, s, Next{})
	if s.View() != ViewSectionReview {
		t.Fatalf("view = %v, want section review", s.View())
	}
	// Next inside the overview is inert.
	dispatch(t, s, Next{})
	if s.View() != ViewSectionReview {
		t.Fatalf("view left overview: %v", s.View())
	}
}

func TestPreviousOnOverviewReturnsToLastQuestion(t *testing.T) {
	s := newTestSession(t, ModeExam, 3)

	dispatch(t, s, GoTo{Order: 3})
	dispatch(t, s, Next{})
	if s.View() != ViewSectionReview {
		t.Fatalf("view = %v, want section review", s.View())
	}

	dispatch(t, s, Previous{})
	if s.View() != ViewQuestion || s.Current() != 3 {
		t.Fatalf("backing out landed on %v/%d, want question/3", s.View(), s.Current())
	}

	// Same from an overview opened directly, not via the last question.
	dispatch(t, s, GoTo{Order: 1})
	dispatch(t, s, SectionReview{})
	dispatch(t, s, Previous{})
	if s.View() != ViewQuestion || s.Current() != 3 {
		t.Fatalf("backing out landed on %v/%d, want question/3", s.View(), s.Current())
	}
}

func TestReviewSubsetStepping(t *testing.T) {
	s := newTestSession(t, ModeExam, 5)

	// Leave questions 2 and 4 unanswered.
	for _, order := range []int{1, 3, 5} {
		answer(t, s, order, int64(order*10+1))
	}
	dispatch(t, s, SectionReview{})
	dispatch(t, s, StartReview{Type: ReviewIncomplete})

	if s.Current() != 2 {
		t.Fatalf("review entry landed on %d, want 2", s.Current())
	}
	dispatch(t, s, Next{})
	if s.Current() != 4 {
		t.Fatalf("review next landed on %d, want 4", s.Current())
	}
	dispatch(t, s, Previous{})
	if s.Current() != 2 {
		t.Fatalf("review previous landed on %d, want 2", s.Current())
	}
	// Stepping past the last candidate returns to the overview and clears
	// the subset.
	dispatch(t, s, Next{})
	dispatch(t, s, Next{})
	if s.View() != ViewSectionReview {
		t.Fatalf("view = %v, want section review", s.View())
	}
	if s.ReviewType() != ReviewNone {
		t.Fatalf("review type = %v, want none", s.ReviewType())
	}
}

func TestReviewNextEnabledOnLastCandidate(t *testing.T) {
	s := newTestSession(t, ModeExam, 3)
	answer(t, s, 1, 11)
	answer(t, s, 3, 31)

	dispatch(t, s, SectionReview{})
	dispatch(t, s, StartReview{Type: ReviewIncomplete})
	if s.Current() != 2 {
		t.Fatalf("entry = %d, want 2", s.Current())
	}

	// Question 2 is the only candidate. Next still shows as enabled
	// because stepping past it returns to the overview.
	snap := s.Snapshot()
	if !snap.NextEnabled {
		t.Fatal("next disabled on last review candidate")
	}
	dispatch(t, s, Next{})
	if s.View() != ViewSectionReview {
		t.Fatalf("view = %v, want section review", s.View())
	}
}

func TestReviewSubsetSteppingAfterMidReviewAnswer(t *testing.T) {
	s := newTestSession(t, ModeExam, 4)
	answer(t, s, 1, 11)
	answer(t, s, 4, 41)

	dispatch(t, s, SectionReview{})
	dispatch(t, s, StartReview{Type: ReviewIncomplete})
	if s.Current() != 2 {
		t.Fatalf("entry = %d, want 2", s.Current())
	}

	// Answering question 2 removes it from the incomplete set; the next
	// step still finds question 3.
	answer(t, s, 2, 21)
	dispatch(t, s, Next{})
	if s.Current() != 3 {
		t.Fatalf("after answering mid-review, next = %d, want 3", s.Current())
	}
}

func TestReviewAllStartsAtOne(t *testing.T) {
	s := newTestSession(t, ModeExam, 3)
	dispatch(t, s, GoTo{Order: 3})
	dispatch(t, s, SectionReview{})
	dispatch(t, s, StartReview{Type: ReviewAll})
	if s.Current() != 1 || s.View() != ViewQuestion {
		t.Fatalf("review all landed on %d/%v, want 1/question", s.Current(), s.View())
	}
}

func TestEmptyReviewSubsetStaysOnOverview(t *testing.T) {
	s := newTestSession(t, ModeExam, 2)
	answer(t, s, 1, 11)
	answer(t, s, 2, 21)

	dispatch(t, s, SectionReview{})
	out := dispatch(t, s, StartReview{Type: ReviewIncomplete})
	if out.Notice != NoticeNothingToReview {
		t.Fatalf("notice = %v, want nothing_to_review", out.Notice)
	}
	if s.View() != ViewSectionReview {
		t.Fatalf("view = %v, want section review", s.View())
	}

	out = dispatch(t, s, StartReview{Type: ReviewMarked})
	if out.Notice != NoticeNothingToReview {
		t.Fatalf("marked notice = %v", out.Notice)
	}
}

func TestStudyFilterNavigation(t *testing.T) {
	s := newTestSession(t, ModeStudy, 5)

	// Mark 2 and 5, then filter on marked.
	dispatch(t, s, ToggleMark{Order: 2})
	dispatch(t, s, ToggleMark{Order: 5})
	dispatch(t, s, GoTo{Order: 1})
	dispatch(t, s, SetFilter{Filter: FilterMarked})

	// Current was outside the subset, so navigation jumped to the first
	// candidate.
	if s.Current() != 2 {
		t.Fatalf("filter jump landed on %d, want 2", s.Current())
	}
	dispatch(t, s, Next{})
	if s.Current() != 5 {
		t.Fatalf("filtered next = %d, want 5", s.Current())
	}
	// Boundary: no candidate past 5, stay put.
	dispatch(t, s, Next{})
	if s.Current() != 5 {
		t.Fatalf("filtered next at end moved to %d", s.Current())
	}
	dispatch(t, s, Previous{})
	if s.Current() != 2 {
		t.Fatalf("filtered previous = %d, want 2", s.Current())
	}

	// Clearing the filter restores full paging.
	dispatch(t, s, SetFilter{Filter: FilterNone})
	dispatch(t, s, Next{})
	if s.Current() != 3 {
		t.Fatalf("unfiltered next = %d, want 3", s.Current())
	}
}

func TestStudyFilterIncorrect(t *testing.T) {
	s := newTestSession(t, ModeStudy, 4)
	answer(t, s, 1, 12) // incorrect
	answer(t, s, 2, 21) // correct
	answer(t, s, 3, 32) // incorrect

	dispatch(t, s, SetFilter{Filter: FilterIncorrect})
	snap := s.Snapshot()
	if len(snap.VisibleOrders) != 2 || snap.VisibleOrders[0] != 1 || snap.VisibleOrders[1] != 3 {
		t.Fatalf("visible orders = %v, want [1 3]", snap.VisibleOrders)
	}
}

func TestEmptyStudyFilterHidesEverything(t *testing.T) {
	s := newTestSession(t, ModeStudy, 2)
	dispatch(t, s, GoTo{Order: 1})
	dispatch(t, s, SetFilter{Filter: FilterMarked})

	snap := s.Snapshot()
	if len(snap.VisibleOrders) != 0 {
		t.Fatalf("visible orders = %v, want empty", snap.VisibleOrders)
	}
	if snap.CurrentVisible {
		t.Fatal("current should be hidden under an empty filter")
	}
	if snap.PrevEnabled || snap.NextEnabled {
		t.Fatal("nav buttons should be disabled under an empty filter")
	}
	// Navigation is inert until the filter changes.
	dispatch(t, s, Next{})
	dispatch(t, s, Previous{})
	if s.Current() != 1 {
		t.Fatalf("current moved to %d under empty filter", s.Current())
	}
}

func TestModeGating(t *testing.T) {
	exam := newTestSession(t, ModeExam, 2)
	study := newTestSession(t, ModeStudy, 2)

	if _, err := exam.Dispatch(SetFilter{Filter: FilterMarked}); err != ErrWrongMode {
		t.Fatalf("exam filter: err = %v, want ErrWrongMode", err)
	}
	if _, err := exam.Dispatch(TogglePause{}); err != ErrWrongMode {
		t.Fatalf("exam pause: err = %v, want ErrWrongMode", err)
	}
	if _, err := study.Dispatch(SectionReview{}); err != ErrWrongMode {
		t.Fatalf("study section review: err = %v, want ErrWrongMode", err)
	}
	if _, err := study.Dispatch(StartReview{Type: ReviewAll}); err != ErrWrongMode {
		t.Fatalf("study review: err = %v, want ErrWrongMode", err)
	}
}

func TestToggleMark(t *testing.T) {
	s := newTestSession(t, ModeExam, 2)

	dispatch(t, s, ToggleMark{Order: 1})
	if st := mustState(t, s, 1); !st.Marked {
		t.Fatal("mark not set")
	}
	dispatch(t, s, ToggleMark{Order: 1})
	if st := mustState(t, s, 1); st.Marked {
		t.Fatal("mark not cleared")
	}
	// Marking never touches the status.
	if st := mustState(t, s, 1); st.Status != StatusUnseen {
		t.Fatalf("mark changed status to %d", st.Status)
	}
	if _, err := s.Dispatch(ToggleMark{Order: 9}); err != ErrUnknownOrder {
		t.Fatalf("out-of-range mark: err = %v", err)
	}
}

func TestGoToBounds(t *testing.T) {
	s := newTestSession(t, ModeExam, 2)
	for _, order := range []int{0, -1, 3} {
		if _, err := s.Dispatch(GoTo{Order: order}); err != ErrUnknownOrder {
			t.Fatalf("goto %d: err = %v, want ErrUnknownOrder", order, err)
		}
	}
}
