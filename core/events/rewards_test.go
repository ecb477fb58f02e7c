package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewardAppliedAttributes(t *testing.T) {
	evt := RewardApplied{
		Slot:             "slot-1",
		Owner:            "alice",
		Activity:         "Check-in",
		NumTasks:         100,
		NumUsers:         50,
		ConsecutiveCount: 3,
		RewardAmount:     600_000_000,
		BaseReward:       10_000_000,
		MultiplierBps:    12_000,
		DecayShift:       1,
		Timestamp:        42,
	}.Event()
	require.Equal(t, TypeRewardApplied, evt.Type)
	require.Equal(t, "600000000", evt.Attr("reward"))
	require.Equal(t, "3", evt.Attr("consecutive"))
	require.Equal(t, "12000", evt.Attr("multiplier"))
	require.Equal(t, "", evt.Attr("missing"))
}

func TestFanoutAndRecorder(t *testing.T) {
	first := &Recorder{}
	second := &Recorder{}
	fan := Fanout{first, nil, second, NoopEmitter{}}
	fan.Emit(RewardRejected{Slot: "s", Owner: "o", Activity: "a", Reason: "overflow"})

	for _, rec := range []*Recorder{first, second} {
		got := rec.Events()
		require.Len(t, got, 1)
		require.Equal(t, TypeRewardRejected, got[0].Type)
		require.Equal(t, "overflow", got[0].Attr("reason"))
	}

	// Mutating a returned copy must not leak back into the recorder.
	got := first.Events()
	got[0].Attributes["reason"] = "changed"
	require.Equal(t, "overflow", first.Events()[0].Attr("reason"))
}
