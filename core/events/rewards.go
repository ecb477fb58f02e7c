package events

import (
	"strconv"

	"activityrewards/core/types"
)

const (
	TypeRewardApplied  = "rewards.applied"
	TypeRewardRejected = "rewards.rejected"
)

// RewardApplied is emitted after a new ledger entry has been persisted.
type RewardApplied struct {
	Slot             string
	Owner            string
	Activity         string
	NumTasks         uint64
	NumUsers         uint64
	ConsecutiveCount uint32
	RewardAmount     uint64
	BaseReward       uint64
	MultiplierBps    uint64
	DecayShift       uint32
	Timestamp        uint64
}

// EventType implements the Event interface.
func (RewardApplied) EventType() string { return TypeRewardApplied }

// Event converts the application to the generic representation.
func (e RewardApplied) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardApplied,
		Attributes: map[string]string{
			"slot":        e.Slot,
			"owner":       e.Owner,
			"activity":    e.Activity,
			"numTasks":    strconv.FormatUint(e.NumTasks, 10),
			"numUsers":    strconv.FormatUint(e.NumUsers, 10),
			"consecutive": strconv.FormatUint(uint64(e.ConsecutiveCount), 10),
			"reward":      strconv.FormatUint(e.RewardAmount, 10),
			"baseReward":  strconv.FormatUint(e.BaseReward, 10),
			"multiplier":  strconv.FormatUint(e.MultiplierBps, 10),
			"decayShift":  strconv.FormatUint(uint64(e.DecayShift), 10),
			"timestamp":   strconv.FormatUint(e.Timestamp, 10),
		},
	}
}

// RewardRejected is emitted when an application fails and the slot is left
// untouched.
type RewardRejected struct {
	Slot     string
	Owner    string
	Activity string
	Reason   string
}

// EventType implements the Event interface.
func (RewardRejected) EventType() string { return TypeRewardRejected }

// Event converts the rejection to the generic representation.
func (e RewardRejected) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardRejected,
		Attributes: map[string]string{
			"slot":     e.Slot,
			"owner":    e.Owner,
			"activity": e.Activity,
			"reason":   e.Reason,
		},
	}
}
