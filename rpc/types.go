package rpc

import (
	"activityrewards/core/ledger"
	"activityrewards/native/rewards"
)

// EntryResult is the JSON view of a stored slot entry. Amounts are decimal
// strings; RewardUnits carries the exact base-unit value.
type EntryResult struct {
	Slot             string `json:"slot"`
	Owner            string `json:"owner"`
	Activity         string `json:"activity"`
	NumTasks         uint64 `json:"numTasks"`
	NumUsers         uint64 `json:"numUsers"`
	ConsecutiveCount uint32 `json:"consecutiveCount"`
	RewardAmount     string `json:"rewardAmount"`
	RewardUnits      uint64 `json:"rewardUnits"`
	Timestamp        uint64 `json:"timestamp"`
}

// OutcomeResult adds the pricing inputs to an entry.
type OutcomeResult struct {
	EntryResult
	BaseReward    string `json:"baseReward"`
	Multiplier    string `json:"multiplier"`
	MultiplierBps uint64 `json:"multiplierBps"`
	Decay         string `json:"decay"`
	DecayShift    uint32 `json:"decayShift"`
	Persisted     bool   `json:"persisted"`
}

// ActivityResult lists one catalog entry.
type ActivityResult struct {
	Activity   string `json:"activity"`
	BaseReward string `json:"baseReward"`
	BaseUnits  uint64 `json:"baseUnits"`
}

type SlotResult struct {
	Slot string `json:"slot"`
}

func entryResultFrom(slot ledger.SlotID, entry *rewards.Entry) EntryResult {
	return EntryResult{
		Slot:             string(slot),
		Owner:            string(entry.Owner),
		Activity:         string(entry.Activity),
		NumTasks:         entry.NumTasks,
		NumUsers:         entry.NumUsers,
		ConsecutiveCount: entry.ConsecutiveCount,
		RewardAmount:     rewards.FormatAmount(entry.RewardAmount),
		RewardUnits:      entry.RewardAmount,
		Timestamp:        entry.Timestamp,
	}
}

func outcomeResultFrom(slot ledger.SlotID, outcome *rewards.Outcome, persisted bool) OutcomeResult {
	return OutcomeResult{
		EntryResult:   entryResultFrom(slot, outcome.Entry),
		BaseReward:    rewards.FormatAmount(outcome.BaseReward),
		Multiplier:    outcome.Multiplier.String(),
		MultiplierBps: outcome.Multiplier.Bps,
		Decay:         outcome.Decay.String(),
		DecayShift:    outcome.Decay.Shift,
		Persisted:     persisted,
	}
}
