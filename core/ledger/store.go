package ledger

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"activityrewards/native/rewards"
	"activityrewards/storage"
)

// storedEntry is the RLP layout persisted for each slot.
type storedEntry struct {
	Owner            string
	Activity         string
	NumTasks         uint64
	NumUsers         uint64
	ConsecutiveCount uint32
	RewardAmount     uint64
	Timestamp        uint64
}

func encodeEntry(entry *rewards.Entry) ([]byte, error) {
	return rlp.EncodeToBytes(&storedEntry{
		Owner:            string(entry.Owner),
		Activity:         string(entry.Activity),
		NumTasks:         entry.NumTasks,
		NumUsers:         entry.NumUsers,
		ConsecutiveCount: entry.ConsecutiveCount,
		RewardAmount:     entry.RewardAmount,
		Timestamp:        entry.Timestamp,
	})
}

func decodeEntry(raw []byte) (*rewards.Entry, error) {
	var stored storedEntry
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	entry := &rewards.Entry{
		Owner:            rewards.UserID(stored.Owner),
		Activity:         rewards.ActivityID(stored.Activity),
		NumTasks:         stored.NumTasks,
		NumUsers:         stored.NumUsers,
		ConsecutiveCount: stored.ConsecutiveCount,
		RewardAmount:     stored.RewardAmount,
		Timestamp:        stored.Timestamp,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// SlotEntry pairs a slot with the entry stored in it.
type SlotEntry struct {
	Slot  SlotID
	Entry *rewards.Entry
}

// Store persists the latest entry of each slot together with an owner index.
// It performs no locking of its own; Processor serialises writers per slot.
type Store struct {
	db storage.Database
}

// NewStore wraps db.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

func (s *Store) database() (storage.Database, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("%w: store has no database", ErrNotInitialised)
	}
	return s.db, nil
}

// Get returns the entry stored in slot, or ErrSlotNotFound.
func (s *Store) Get(slot SlotID) (*rewards.Entry, error) {
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	raw, err := db.Get(slotKey(slot))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: load slot %s: %w", slot, err)
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		return nil, fmt.Errorf("ledger: decode slot %s: %w", slot, err)
	}
	return entry, nil
}

// Lookup is Get with a found flag instead of ErrSlotNotFound.
func (s *Store) Lookup(slot SlotID) (*rewards.Entry, bool, error) {
	entry, err := s.Get(slot)
	if errors.Is(err, ErrSlotNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// Put replaces the entry in slot and keeps the owner index in step.
func (s *Store) Put(slot SlotID, entry *rewards.Entry) error {
	db, err := s.database()
	if err != nil {
		return err
	}
	if err := slot.Validate(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	previous, found, err := s.Lookup(slot)
	if err != nil {
		return err
	}
	encoded, err := encodeEntry(entry)
	if err != nil {
		return fmt.Errorf("ledger: encode slot %s: %w", slot, err)
	}
	// Index first so a slot is never stored without being listable.
	if err := db.Put(ownerIndexKey(entry.Owner, slot), []byte{}); err != nil {
		return fmt.Errorf("ledger: index slot %s: %w", slot, err)
	}
	if err := db.Put(slotKey(slot), encoded); err != nil {
		return fmt.Errorf("ledger: persist slot %s: %w", slot, err)
	}
	if found && previous.Owner != entry.Owner {
		if err := db.Delete(ownerIndexKey(previous.Owner, slot)); err != nil {
			return fmt.Errorf("ledger: unindex slot %s: %w", slot, err)
		}
	}
	return nil
}

// Delete removes slot and its index entry. Deleting an absent slot is a no-op.
func (s *Store) Delete(slot SlotID) error {
	db, err := s.database()
	if err != nil {
		return err
	}
	previous, found, err := s.Lookup(slot)
	if err != nil || !found {
		return err
	}
	if err := db.Delete(slotKey(slot)); err != nil {
		return fmt.Errorf("ledger: delete slot %s: %w", slot, err)
	}
	if err := db.Delete(ownerIndexKey(previous.Owner, slot)); err != nil {
		return fmt.Errorf("ledger: unindex slot %s: %w", slot, err)
	}
	return nil
}

// ListByOwner returns the owner's slots in ascending slot order. Index entries
// whose slot is missing or now owned by someone else are skipped.
func (s *Store) ListByOwner(owner rewards.UserID) ([]SlotEntry, error) {
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	prefix := ownerIndexPrefix(owner)
	var slots []SlotID
	err = db.Iterate(prefix, func(key, _ []byte) error {
		slots = append(slots, SlotID(bytes.TrimPrefix(key, prefix)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: scan owner index: %w", err)
	}
	out := make([]SlotEntry, 0, len(slots))
	for _, slot := range slots {
		entry, found, err := s.Lookup(slot)
		if err != nil {
			return nil, err
		}
		if !found || entry.Owner != owner {
			continue
		}
		out = append(out, SlotEntry{Slot: slot, Entry: entry})
	}
	return out, nil
}

// Each visits every stored slot in ascending slot order.
func (s *Store) Each(fn func(SlotEntry) error) error {
	db, err := s.database()
	if err != nil {
		return err
	}
	return db.Iterate(slotPrefix, func(key, value []byte) error {
		slot := SlotID(bytes.TrimPrefix(key, slotPrefix))
		entry, err := decodeEntry(value)
		if err != nil {
			return fmt.Errorf("ledger: decode slot %s: %w", slot, err)
		}
		return fn(SlotEntry{Slot: slot, Entry: entry})
	})
}

// All collects every stored slot in ascending slot order.
func (s *Store) All() ([]SlotEntry, error) {
	var out []SlotEntry
	err := s.Each(func(item SlotEntry) error {
		out = append(out, item)
		return nil
	})
	return out, err
}
