package engine

import "testing"

func tickN(t *testing.T, s *Session, n int) int {
	t.Helper()
	flips := 0
	for i := 0; i < n; i++ {
		out, err := s.Dispatch(Tick{})
		if err != nil {
			t.Fatalf("tick %d: %v", i+1, err)
		}
		if out.Notice == NoticeTimeExpired {
			flips++
		}
	}
	return flips
}

func TestExamCountdownFlipsExactlyOnce(t *testing.T) {
	const start, overtime = 5, 3
	seeds := []SeedQuestion{{Order: 1, Options: []AnswerOption{{ID: 11, Weight: 1}}}}
	s, err := New(Config{Mode: ModeExam, Questions: seeds, TimeSeconds: start})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Count down to the display reaching 0.
	if flips := tickN(t, s, start); flips != 0 {
		t.Fatalf("expiry fired during countdown (%d times)", flips)
	}
	if tm := s.Timer(); tm.Seconds() != 0 || tm.Expired() {
		t.Fatalf("after %d ticks: seconds=%d expired=%v", start, tm.Seconds(), tm.Expired())
	}

	// After start+k ticks the displayed value is k, the expiry notice
	// fired exactly once, and subsequent ticks count up.
	if flips := tickN(t, s, overtime); flips != 1 {
		t.Fatalf("expiry fired %d times, want once", flips)
	}
	tm := s.Timer()
	if !tm.Expired() {
		t.Fatal("expired flag not set")
	}
	if tm.Seconds() != overtime {
		t.Fatalf("overtime display = %d, want %d", tm.Seconds(), overtime)
	}
	if tm.Signed() != -overtime {
		t.Fatalf("signed value = %d, want %d", tm.Signed(), -overtime)
	}
}

func TestExamHydratesFromNegativeSavedTime(t *testing.T) {
	seeds := []SeedQuestion{{Order: 1, Options: []AnswerOption{{ID: 11, Weight: 1}}}}
	s, err := New(Config{Mode: ModeExam, Questions: seeds, TimeSeconds: -42})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tm := s.Timer()
	if !tm.Expired() || tm.Seconds() != 42 {
		t.Fatalf("hydrated timer = %d/expired=%v, want 42/true", tm.Seconds(), tm.Expired())
	}

	// Already-expired timers keep counting up without re-firing the
	// notice.
	if flips := tickN(t, s, 3); flips != 0 {
		t.Fatalf("expiry re-fired %d times", flips)
	}
	if got := s.Timer().Signed(); got != -45 {
		t.Fatalf("signed = %d, want -45", got)
	}
}

func TestStudyTimerCountsUpAndPauses(t *testing.T) {
	s := newTestSession(t, ModeStudy, 2)

	tickN(t, s, 4)
	if got := s.Timer().Seconds(); got != 604 {
		t.Fatalf("elapsed = %d, want 604", got)
	}

	dispatch(t, s, TogglePause{})
	tickN(t, s, 10)
	if got := s.Timer().Seconds(); got != 604 {
		t.Fatalf("paused timer advanced to %d", got)
	}
	if !s.Timer().Paused() {
		t.Fatal("paused flag not set")
	}

	dispatch(t, s, TogglePause{})
	tickN(t, s, 1)
	if got := s.Timer().Seconds(); got != 605 {
		t.Fatalf("resumed timer = %d, want 605", got)
	}
	if got := s.Timer().Signed(); got != 605 {
		t.Fatalf("study signed = %d, want 605", got)
	}
}

func TestTimerDisplay(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		seconds int
		want    string
	}{
		{name: "exam minutes", mode: ModeExam, seconds: 125, want: "2:05"},
		{name: "exam zero", mode: ModeExam, seconds: 0, want: "0:00"},
		{name: "study padded", mode: ModeStudy, seconds: 65, want: "01:05"},
		{name: "study zero", mode: ModeStudy, seconds: 0, want: "00:00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tm := newTimer(tc.mode, tc.seconds)
			if got := tm.Display(); got != tc.want {
				t.Fatalf("Display() = %q, want %q", got, tc.want)
			}
		})
	}
}
