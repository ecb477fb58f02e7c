package rewards

import "fmt"

// Entry is the latest reward record held by a ledger slot. RewardAmount is
// derived state and is recomputed from scratch on every application.
type Entry struct {
	Owner            UserID
	Activity         ActivityID
	NumTasks         uint64
	NumUsers         uint64
	ConsecutiveCount uint32
	RewardAmount     uint64
	Timestamp        uint64
}

// NewEntry constructs a validated entry.
func NewEntry(owner UserID, activity ActivityID, numTasks, numUsers uint64, consecutive uint32, reward, timestamp uint64) (*Entry, error) {
	entry := &Entry{
		Owner:            owner,
		Activity:         activity,
		NumTasks:         numTasks,
		NumUsers:         numUsers,
		ConsecutiveCount: consecutive,
		RewardAmount:     reward,
		Timestamp:        timestamp,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Validate checks the entry invariants.
func (e *Entry) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidEntry)
	}
	if e.ConsecutiveCount == 0 {
		return fmt.Errorf("%w: consecutive count must be at least 1", ErrInvalidEntry)
	}
	if e.Owner == "" {
		return fmt.Errorf("%w: owner required", ErrInvalidEntry)
	}
	if e.Activity == "" {
		return fmt.Errorf("%w: activity required", ErrInvalidEntry)
	}
	return nil
}

// Clone returns a copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}
