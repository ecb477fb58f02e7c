package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"activityrewards/native/rewards"
)

const maxSlotLength = 128

// SlotID names one ledger slot. A slot holds at most one entry and belongs to
// the user who first wrote it.
type SlotID string

// NewSlotID allocates a fresh random slot. Every application against a fresh
// slot starts a new streak.
func NewSlotID() SlotID {
	return SlotID(uuid.NewString())
}

// DeriveSlotID returns the stable slot for an owner and label. Callers reuse it
// to accumulate a streak across applications.
func DeriveSlotID(owner rewards.UserID, label string) (SlotID, error) {
	if strings.TrimSpace(string(owner)) == "" {
		return "", fmt.Errorf("%w: owner required", ErrInvalidSlot)
	}
	hasher := blake3.New(32, nil)
	hasher.Write([]byte("rewards/slot"))
	hasher.Write([]byte{0})
	hasher.Write([]byte(owner))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	return SlotID(hex.EncodeToString(hasher.Sum(nil))), nil
}

// ParseSlotID validates raw as a slot identifier.
func ParseSlotID(raw string) (SlotID, error) {
	slot := SlotID(strings.TrimSpace(raw))
	if err := slot.Validate(); err != nil {
		return "", err
	}
	return slot, nil
}

// Validate checks the slot is non-empty, bounded and uses only letters, digits,
// '-' and '_'.
func (s SlotID) Validate() error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSlot)
	}
	if len(s) > maxSlotLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidSlot, maxSlotLength)
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: invalid character %q", ErrInvalidSlot, r)
		}
	}
	return nil
}

func (s SlotID) String() string { return string(s) }
