package engine

import (
	"reflect"
	"testing"
)

func TestPayloadFreshExamSingleAnswer(t *testing.T) {
	s := newTestSession(t, ModeExam, 5)

	// Answer question 3 correctly on first view; everything else stays
	// untouched.
	dispatch(t, s, GoTo{Order: 3})
	answer(t, s, 3, 31)

	p := s.BuildPayload()
	if !reflect.DeepEqual(p.Answers, map[int]int64{3: 31}) {
		t.Fatalf("answers = %v", p.Answers)
	}
	wantStatus := map[int]int{1: 0, 2: 0, 3: 2, 4: 0, 5: 0}
	if !reflect.DeepEqual(p.Status, wantStatus) {
		t.Fatalf("status = %v, want %v", p.Status, wantStatus)
	}
	wantCorrect := map[int]int{1: 0, 2: 0, 3: 2, 4: 0, 5: 0}
	if !reflect.DeepEqual(p.Correct, wantCorrect) {
		t.Fatalf("correct = %v, want %v", p.Correct, wantCorrect)
	}
	wantMarked := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	if !reflect.DeepEqual(p.MarkedForReview, wantMarked) {
		t.Fatalf("marked = %v, want %v", p.MarkedForReview, wantMarked)
	}
	if p.TimeRemaining != 600 {
		t.Fatalf("time = %d, want 600", p.TimeRemaining)
	}
}

func TestPayloadSignConvention(t *testing.T) {
	seeds := []SeedQuestion{{Order: 1, Options: []AnswerOption{{ID: 11, Weight: 1}}}}

	expired, err := New(Config{Mode: ModeExam, Questions: seeds, TimeSeconds: -7})
	if err != nil {
		t.Fatalf("New expired: %v", err)
	}
	if got := expired.BuildPayload().TimeRemaining; got != -7 {
		t.Fatalf("expired payload time = %d, want -7", got)
	}

	running, err := New(Config{Mode: ModeExam, Questions: seeds, TimeSeconds: 42})
	if err != nil {
		t.Fatalf("New running: %v", err)
	}
	if got := running.BuildPayload().TimeRemaining; got != 42 {
		t.Fatalf("running payload time = %d, want 42", got)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	seeds := []SeedQuestion{
		{Order: 1, Options: []AnswerOption{{ID: 11, Weight: 1}, {ID: 12}},
			SelectedAnswerID: 11, Status: StatusComplete, Correct: CorrectFirstTry, Marked: true},
		{Order: 2, Options: []AnswerOption{{ID: 21, Weight: 1}, {ID: 22}},
			Status: StatusIncomplete},
		{Order: 3, Options: []AnswerOption{{ID: 31, Weight: 1}, {ID: 32}},
			SelectedAnswerID: 32, Status: StatusComplete, Correct: Incorrect},
		{Order: 4, Options: []AnswerOption{{ID: 41, Weight: 1}, {ID: 42}}},
	}
	s, err := New(Config{Mode: ModeExam, Questions: seeds, TimeSeconds: 90})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Hydrate then immediately rebuild: payload must reflect the saved
	// state unchanged.
	p := s.BuildPayload()
	if !reflect.DeepEqual(p.Answers, map[int]int64{1: 11, 3: 32}) {
		t.Fatalf("answers = %v", p.Answers)
	}
	if !reflect.DeepEqual(p.Status, map[int]int{1: 2, 2: 1, 3: 2, 4: 0}) {
		t.Fatalf("status = %v", p.Status)
	}
	if !reflect.DeepEqual(p.Correct, map[int]int{1: 2, 2: 0, 3: 0, 4: 0}) {
		t.Fatalf("correct = %v", p.Correct)
	}
	if !reflect.DeepEqual(p.MarkedForReview, map[int]int{1: 1, 2: 0, 3: 0, 4: 0}) {
		t.Fatalf("marked = %v", p.MarkedForReview)
	}
	if p.TimeRemaining != 90 {
		t.Fatalf("time = %d", p.TimeRemaining)
	}
}

func TestStudyShufflePreservesOptionSet(t *testing.T) {
	opts := []AnswerOption{{ID: 1, Weight: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	seeds := []SeedQuestion{{Order: 1, Options: opts}}

	s, err := New(Config{
		Mode:          ModeStudy,
		Questions:     seeds,
		RandomAnswers: true,
		ShuffleSeed:   7,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	q, err := s.Question(1)
	if err != nil {
		t.Fatalf("Question: %v", err)
	}
	seen := map[int64]bool{}
	for _, o := range q.Options {
		seen[o.ID] = true
	}
	for _, o := range opts {
		if !seen[o.ID] {
			t.Fatalf("option %d lost in shuffle", o.ID)
		}
	}
	if len(q.Options) != len(opts) {
		t.Fatalf("option count = %d, want %d", len(q.Options), len(opts))
	}

	// Same seed reproduces the same permutation on rehydration.
	s2, err := New(Config{Mode: ModeStudy, Questions: seeds, RandomAnswers: true, ShuffleSeed: 7})
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	q2, _ := s2.Question(1)
	for i := range q.Options {
		if q.Options[i].ID != q2.Options[i].ID {
			t.Fatalf("shuffle not reproducible at index %d", i)
		}
	}
}
