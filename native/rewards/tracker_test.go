package rewards

import (
	"errors"
	"math"
	"testing"
)

func streakEntry(activity ActivityID, count uint32) *Entry {
	return &Entry{Owner: "alice", Activity: activity, ConsecutiveCount: count, NumTasks: 1, NumUsers: 1}
}

func TestAdvanceWithoutPrior(t *testing.T) {
	n, decay, err := Advance(nil, ActivityCheckIn)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if n != 1 || decay != NoDecay {
		t.Fatalf("expected (1, no decay) got (%d, %s)", n, decay)
	}
}

func TestAdvanceSwitchResetsStreak(t *testing.T) {
	for _, prior := range []uint32{1, 2, 7, math.MaxUint32} {
		n, decay, err := Advance(streakEntry(ActivityCheckIn, prior), ActivityViewAnalytics)
		if err != nil {
			t.Fatalf("advance from %d: %v", prior, err)
		}
		if n != 1 || decay != NoDecay {
			t.Fatalf("streak %d: expected reset got (%d, %s)", prior, n, decay)
		}
	}
}

func TestAdvanceRepeatIncrements(t *testing.T) {
	var prior *Entry
	for i := uint32(1); i <= 10; i++ {
		n, decay, err := Advance(prior, ActivityCheckIn)
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if n != i {
			t.Fatalf("expected count %d got %d", i, n)
		}
		if decay != DecayFor(i) {
			t.Fatalf("count %d: expected decay %s got %s", i, DecayFor(i), decay)
		}
		prior = streakEntry(ActivityCheckIn, n)
	}
}

func TestDecayFor(t *testing.T) {
	cases := map[uint32]string{
		1:  "1",
		2:  "1",
		3:  "2",
		4:  "4",
		5:  "8",
		10: "256",
	}
	for n, want := range cases {
		if got := DecayFor(n).Divisor().String(); got != want {
			t.Fatalf("n=%d: expected divisor %s got %s", n, want, got)
		}
	}
	if got := DecayFor(100).String(); got != "2^98" {
		t.Fatalf("expected 2^98 got %s", got)
	}
}

func TestAdvanceCounterExhausted(t *testing.T) {
	_, _, err := Advance(streakEntry(ActivityCheckIn, math.MaxUint32), ActivityCheckIn)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow got %v", err)
	}
	n, _, err := Advance(streakEntry(ActivityCheckIn, math.MaxUint32-1), ActivityCheckIn)
	if err != nil {
		t.Fatalf("advance below limit: %v", err)
	}
	if n != math.MaxUint32 {
		t.Fatalf("expected max count got %d", n)
	}
}

func TestAdvanceRejectsCorruptPrior(t *testing.T) {
	_, _, err := Advance(streakEntry(ActivityCheckIn, 0), ActivityCheckIn)
	if !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected invalid entry got %v", err)
	}
}
