package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"activityrewards/core/ledger"
	"activityrewards/integrations/exports"
	"activityrewards/native/rewards"
)

// outcomeView is the printable form of an applied or quoted reward.
type outcomeView struct {
	exports.Row
	BaseReward    string `json:"base_reward"`
	Multiplier    string `json:"multiplier"`
	MultiplierBps uint64 `json:"multiplier_bps"`
	Decay         string `json:"decay"`
	DecayShift    uint32 `json:"decay_shift"`
	Persisted     bool   `json:"persisted"`
}

func newOutcomeView(slot ledger.SlotID, outcome *rewards.Outcome, persisted bool) outcomeView {
	rows := exports.Rows([]ledger.SlotEntry{{Slot: slot, Entry: outcome.Entry}})
	var row exports.Row
	if len(rows) == 1 {
		row = rows[0]
	}
	return outcomeView{
		Row:           row,
		BaseReward:    rewards.FormatAmount(outcome.BaseReward),
		Multiplier:    outcome.Multiplier.String(),
		MultiplierBps: outcome.Multiplier.Bps,
		Decay:         outcome.Decay.String(),
		DecayShift:    outcome.Decay.Shift,
		Persisted:     persisted,
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printOutcome(w io.Writer, asJSON bool, view outcomeView) error {
	if asJSON {
		return printJSON(w, view)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "slot\t%s\n", view.Slot)
	fmt.Fprintf(tw, "owner\t%s\n", view.Owner)
	fmt.Fprintf(tw, "activity\t%s\n", view.Activity)
	fmt.Fprintf(tw, "tasks/users\t%d/%d\n", view.NumTasks, view.NumUsers)
	fmt.Fprintf(tw, "streak\t%d\n", view.ConsecutiveCount)
	fmt.Fprintf(tw, "base\t%s\n", view.BaseReward)
	fmt.Fprintf(tw, "multiplier\t%s\n", view.Multiplier)
	fmt.Fprintf(tw, "decay\t%s\n", view.Decay)
	fmt.Fprintf(tw, "reward\t%s\n", view.RewardAmount)
	fmt.Fprintf(tw, "timestamp\t%d\n", view.Timestamp)
	fmt.Fprintf(tw, "persisted\t%t\n", view.Persisted)
	return tw.Flush()
}

func printRows(w io.Writer, asJSON bool, rows []exports.Row) error {
	if asJSON {
		return printJSON(w, rows)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tOWNER\tACTIVITY\tSTREAK\tREWARD\tTIMESTAMP")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\n", row.Slot, row.Owner, row.Activity, row.ConsecutiveCount, row.RewardAmount, row.Timestamp)
	}
	return tw.Flush()
}
