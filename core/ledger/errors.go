package ledger

import "errors"

var (
	// ErrSlotNotFound is returned when a slot has never been written.
	ErrSlotNotFound = errors.New("ledger: slot not found")
	// ErrSlotOwner is returned when a user applies against a slot another user
	// owns.
	ErrSlotOwner = errors.New("ledger: slot owned by another user")
	// ErrInvalidSlot is returned for malformed slot identifiers.
	ErrInvalidSlot = errors.New("ledger: invalid slot")
	// ErrNotInitialised is returned when a store or processor is used before it
	// has a backing database or engine.
	ErrNotInitialised = errors.New("ledger: not initialised")
)
