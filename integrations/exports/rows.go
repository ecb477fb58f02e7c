package exports

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"activityrewards/core/ledger"
	"activityrewards/native/rewards"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts csv, jsonl (or ndjson) and parquet in any case.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSONL, "ndjson":
		return FormatJSONL, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("exports: unknown format %q", raw)
	}
}

// Row is the flat export view of one ledger slot.
type Row struct {
	Slot             string `json:"slot"`
	Owner            string `json:"owner"`
	Activity         string `json:"activity"`
	NumTasks         uint64 `json:"num_tasks"`
	NumUsers         uint64 `json:"num_users"`
	ConsecutiveCount uint32 `json:"consecutive_count"`
	RewardAmount     string `json:"reward_amount"`
	RewardUnits      uint64 `json:"reward_units"`
	Timestamp        uint64 `json:"timestamp"`
}

// Rows flattens entries ordered by slot. Nil entries are skipped.
func Rows(entries []ledger.SlotEntry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, item := range entries {
		if item.Entry == nil {
			continue
		}
		rows = append(rows, Row{
			Slot:             string(item.Slot),
			Owner:            string(item.Entry.Owner),
			Activity:         string(item.Entry.Activity),
			NumTasks:         item.Entry.NumTasks,
			NumUsers:         item.Entry.NumUsers,
			ConsecutiveCount: item.Entry.ConsecutiveCount,
			RewardAmount:     rewards.FormatAmount(item.Entry.RewardAmount),
			RewardUnits:      item.Entry.RewardAmount,
			Timestamp:        item.Entry.Timestamp,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Slot < rows[j].Slot })
	return rows
}

// Encode serialises entries in format and returns the payload with its
// SHA-256 checksum.
func Encode(format Format, entries []ledger.SlotEntry) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		return RewardsCSV(entries)
	case FormatJSONL:
		return RewardsJSONL(entries)
	case FormatParquet:
		return RewardsParquet(entries)
	default:
		return nil, "", fmt.Errorf("exports: unknown format %q", format)
	}
}

// Write encodes entries to w and returns the checksum.
func Write(w io.Writer, format Format, entries []ledger.SlotEntry) (string, error) {
	data, sum, err := Encode(format, entries)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("exports: write: %w", err)
	}
	return sum, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
