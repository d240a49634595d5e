package engine

import "testing"

// newTestSession builds an exam session with n two-option questions.
// Option IDs follow the pattern order*10+1 (correct) and order*10+2
// (incorrect).
func newTestSession(t *testing.T, mode Mode, n int) *Session {
	t.Helper()
	seeds := make([]SeedQuestion, n)
	for i := 0; i < n; i++ {
		order := i + 1
		seeds[i] = SeedQuestion{
			Order: order,
			Text:  "question",
			Options: []AnswerOption{
				{ID: int64(order*10 + 1), Text: "right", Weight: 1},
				{ID: int64(order*10 + 2), Text: "wrong"},
			},
		}
	}
	s, err := New(Config{Mode: mode, Questions: seeds, TimeSeconds: 600})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func answer(t *testing.T, s *Session, order int, answerID int64) {
	t.Helper()
	if _, err := s.Dispatch(Answer{Order: order, AnswerID: answerID}); err != nil {
		t.Fatalf("answer q%d=%d: %v", order, answerID, err)
	}
}

func mustState(t *testing.T, s *Session, order int) QuestionState {
	t.Helper()
	st, err := s.State(order)
	if err != nil {
		t.Fatalf("State(%d): %v", order, err)
	}
	return st
}

func TestAnswerCorrectnessClassification(t *testing.T) {
	tests := []struct {
		name        string
		answers     []int64 // sequence of option IDs applied to question 1
		wantCorrect Correctness
	}{
		{name: "correct on first attempt", answers: []int64{11}, wantCorrect: CorrectFirstTry},
		{name: "correct after incorrect", answers: []int64{12, 11}, wantCorrect: CorrectLater},
		{name: "incorrect only", answers: []int64{12}, wantCorrect: Incorrect},
		{name: "first-try survives reselect", answers: []int64{11, 11}, wantCorrect: CorrectFirstTry},
		{name: "correct-later survives reselect", answers: []int64{12, 11, 11}, wantCorrect: CorrectLater},
		{name: "incorrect after first-try regresses", answers: []int64{11, 12}, wantCorrect: Incorrect},
		{name: "regressed then correct again is later", answers: []int64{11, 12, 11}, wantCorrect: CorrectLater},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t, ModeExam, 3)
			for _, id := range tc.answers {
				answer(t, s, 1, id)
			}
			st := mustState(t, s, 1)
			if st.Correct != tc.wantCorrect {
				t.Fatalf("correctness = %d, want %d", st.Correct, tc.wantCorrect)
			}
			if st.Status != StatusComplete {
				t.Fatalf("status = %d, want Complete", st.Status)
			}
			if st.SelectedAnswerID != tc.answers[len(tc.answers)-1] {
				t.Fatalf("selected = %d, want %d", st.SelectedAnswerID, tc.answers[len(tc.answers)-1])
			}
		})
	}
}

func TestAnswerStatusNeverRegresses(t *testing.T) {
	s := newTestSession(t, ModeExam, 2)

	answer(t, s, 1, 12)
	if st := mustState(t, s, 1); st.Status != StatusComplete {
		t.Fatalf("after answer, status = %d", st.Status)
	}

	// Re-visiting and re-answering keeps the question Complete.
	if _, err := s.Dispatch(GoTo{Order: 2}); err != nil {
		t.Fatalf("goto: %v", err)
	}
	if _, err := s.Dispatch(GoTo{Order: 1}); err != nil {
		t.Fatalf("goto back: %v", err)
	}
	answer(t, s, 1, 11)
	if st := mustState(t, s, 1); st.Status != StatusComplete {
		t.Fatalf("after revisit, status = %d", st.Status)
	}
}

func TestAnswerValidation(t *testing.T) {
	s := newTestSession(t, ModeExam, 2)

	if _, err := s.Dispatch(Answer{Order: 5, AnswerID: 11}); err != ErrUnknownOrder {
		t.Fatalf("out-of-range order: err = %v, want ErrUnknownOrder", err)
	}
	if _, err := s.Dispatch(Answer{Order: 1, AnswerID: 999}); err != ErrUnknownAnswer {
		t.Fatalf("unknown answer: err = %v, want ErrUnknownAnswer", err)
	}
	// A failed dispatch leaves the question untouched.
	if st := mustState(t, s, 1); st.Status != StatusUnseen || st.SelectedAnswerID != 0 {
		t.Fatalf("state mutated by rejected answer: %+v", st)
	}
}

func TestViewPromotesUnseen(t *testing.T) {
	s := newTestSession(t, ModeExam, 3)

	if _, err := s.Dispatch(GoTo{Order: 2}); err != nil {
		t.Fatalf("goto: %v", err)
	}
	if st := mustState(t, s, 2); st.Status != StatusIncomplete {
		t.Fatalf("viewed question status = %d, want Incomplete", st.Status)
	}
	// Questions never navigated to stay Unseen.
	if st := mustState(t, s, 3); st.Status != StatusUnseen {
		t.Fatalf("unvisited question status = %d, want Unseen", st.Status)
	}
	// Viewing again does not change anything.
	if _, err := s.Dispatch(GoTo{Order: 2}); err != nil {
		t.Fatalf("second goto: %v", err)
	}
	if st := mustState(t, s, 2); st.Status != StatusIncomplete {
		t.Fatalf("re-viewed question status = %d", st.Status)
	}
}

func TestViewWithSavedAnswerGoesComplete(t *testing.T) {
	seeds := []SeedQuestion{
		{
			Order: 1,
			Options: []AnswerOption{
				{ID: 11, Weight: 1},
				{ID: 12},
			},
			// Saved as answered but the status column was lost; hydration
			// normalizes it to Complete.
			SelectedAnswerID: 11,
			Status:           StatusIncomplete,
			Correct:          CorrectFirstTry,
		},
	}
	s, err := New(Config{Mode: ModeExam, Questions: seeds, TimeSeconds: 60})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	st := mustState(t, s, 1)
	if st.Status != StatusComplete {
		t.Fatalf("hydrated status = %d, want Complete", st.Status)
	}
	// Saved correctness is trusted, not re-derived.
	if st.Correct != CorrectFirstTry {
		t.Fatalf("hydrated correctness = %d, want CorrectFirstTry", st.Correct)
	}
}

func TestStatusCounts(t *testing.T) {
	s := newTestSession(t, ModeExam, 4)

	answer(t, s, 1, 11)
	if _, err := s.Dispatch(GoTo{Order: 2}); err != nil {
		t.Fatalf("goto: %v", err)
	}

	got := s.StatusCounts()
	want := Counts{Complete: 1, Incomplete: 1, Unseen: 2}
	if got != want {
		t.Fatalf("counts = %+v, want %+v", got, want)
	}
}
