package ledger

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSlotIDUnique(t *testing.T) {
	a, b := NewSlotID(), NewSlotID()
	require.NotEqual(t, a, b)
	require.NoError(t, a.Validate())
}

func TestDeriveSlotIDStable(t *testing.T) {
	a, err := DeriveSlotID("alice", "daily")
	require.NoError(t, err)
	again, err := DeriveSlotID("alice", "daily")
	require.NoError(t, err)
	require.Equal(t, a, again)
	require.Len(t, string(a), 64)
	require.NoError(t, a.Validate())

	other, err := DeriveSlotID("bob", "daily")
	require.NoError(t, err)
	require.NotEqual(t, a, other)

	// The separator keeps owner/label boundaries distinct.
	split1, _ := DeriveSlotID("ab", "c")
	split2, _ := DeriveSlotID("a", "bc")
	require.NotEqual(t, split1, split2)

	_, err = DeriveSlotID(" ", "daily")
	require.True(t, errors.Is(err, ErrInvalidSlot))
}

func TestParseSlotID(t *testing.T) {
	slot, err := ParseSlotID("  slot_1-A ")
	require.NoError(t, err)
	require.Equal(t, SlotID("slot_1-A"), slot)

	for _, raw := range []string{"", "a/b", "has space", strings.Repeat("x", maxSlotLength+1)} {
		_, err := ParseSlotID(raw)
		require.Truef(t, errors.Is(err, ErrInvalidSlot), "raw %q: %v", raw, err)
	}
}
