package exports

import (
	"bytes"
	"encoding/json"

	"activityrewards/core/ledger"
)

// RewardsJSONL builds a JSON Lines export for the supplied ledger entries and
// returns the serialised payload alongside a checksum.
func RewardsJSONL(entries []ledger.SlotEntry) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, row := range Rows(entries) {
		if err := encoder.Encode(row); err != nil {
			return nil, "", err
		}
	}
	data := buffer.Bytes()
	return data, checksum(data), nil
}
