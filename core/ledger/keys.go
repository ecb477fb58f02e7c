package ledger

import (
	"encoding/hex"

	"activityrewards/native/rewards"
)

var (
	slotPrefix  = []byte("rewards/slot/")
	ownerPrefix = []byte("rewards/owner/")
)

func slotKey(slot SlotID) []byte {
	return append(append([]byte(nil), slotPrefix...), slot...)
}

// ownerIndexPrefix hex-encodes the owner so one owner's prefix can never match
// another's.
func ownerIndexPrefix(owner rewards.UserID) []byte {
	key := append([]byte(nil), ownerPrefix...)
	key = append(key, hex.EncodeToString([]byte(owner))...)
	return append(key, '/')
}

func ownerIndexKey(owner rewards.UserID, slot SlotID) []byte {
	return append(ownerIndexPrefix(owner), slot...)
}
