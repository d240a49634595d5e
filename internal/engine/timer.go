package engine

import "fmt"

// Timer models the one-second-tick session clock. Exam sessions count down
// and, after a single irreversible expiry, count up; study sessions count
// up and can be paused. The stored seconds value is always non-negative;
// the expired flag carries the sign for the grading contract.
type Timer struct {
	mode    Mode
	seconds int
	expired bool
	paused  bool
}

func newTimer(mode Mode, seconds int) Timer {
	if mode == ModeStudy {
		if seconds < 0 {
			seconds = 0
		}
		return Timer{mode: mode, seconds: seconds}
	}
	if seconds < 0 {
		// A negative saved value means the countdown already expired and
		// counted up by that many seconds.
		return Timer{mode: mode, seconds: -seconds, expired: true}
	}
	return Timer{mode: mode, seconds: seconds}
}

// tick advances the clock by one second. The zero check happens before the
// decrement, so the expiry flip fires on the tick after the display reaches
// 0:00 and exactly once per session; from then on the clock runs upward.
// Returns true only on the flip tick.
func (t *Timer) tick() bool {
	if t.mode == ModeStudy {
		if !t.paused {
			t.seconds++
		}
		return false
	}

	if t.expired {
		t.seconds++
		return false
	}
	if t.seconds == 0 {
		t.expired = true
		t.seconds++
		return true
	}
	t.seconds--
	return false
}

// togglePause flips the study pause flag. No-op for exam timers.
func (t *Timer) togglePause() {
	if t.mode == ModeStudy {
		t.paused = !t.paused
	}
}

// Seconds returns the displayed magnitude: remaining (or overtime) seconds
// for exams, elapsed seconds for study.
func (t Timer) Seconds() int { return t.seconds }

// Expired reports whether the exam countdown has flipped to overtime.
func (t Timer) Expired() bool { return t.expired }

// Paused reports whether a study timer is paused.
func (t Timer) Paused() bool { return t.paused }

// Signed returns the value for the grading contract: negative overtime for
// expired exams, the raw value otherwise.
func (t Timer) Signed() int {
	if t.mode == ModeExam && t.expired {
		return -t.seconds
	}
	return t.seconds
}

// Display formats the clock. Exams use M:SS (magnitude only; the expired
// flag drives the visual style), study sessions use zero-padded MM:SS.
func (t Timer) Display() string {
	m := t.seconds / 60
	sec := t.seconds % 60
	if t.mode == ModeStudy {
		return fmt.Sprintf("%02d:%02d", m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
