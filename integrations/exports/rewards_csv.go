package exports

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"activityrewards/core/ledger"
)

var csvHeader = []string{"slot", "owner", "activity", "num_tasks", "num_users", "consecutive_count", "reward_amount", "reward_units", "timestamp"}

// RewardsCSV builds a CSV export for the supplied ledger entries and returns the
// serialised data alongside a SHA-256 checksum of the payload.
func RewardsCSV(entries []ledger.SlotEntry) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write(csvHeader); err != nil {
		return nil, "", err
	}
	for _, row := range Rows(entries) {
		record := []string{
			row.Slot,
			row.Owner,
			row.Activity,
			strconv.FormatUint(row.NumTasks, 10),
			strconv.FormatUint(row.NumUsers, 10),
			strconv.FormatUint(uint64(row.ConsecutiveCount), 10),
			row.RewardAmount,
			strconv.FormatUint(row.RewardUnits, 10),
			strconv.FormatUint(row.Timestamp, 10),
		}
		if err := writer.Write(record); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	data := buffer.Bytes()
	return data, checksum(data), nil
}
