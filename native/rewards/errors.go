package rewards

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks requests that cannot be priced with the loaded
	// activity configuration.
	ErrConfig = errors.New("rewards: config error")
	// ErrUnknownActivity is returned when the requested activity has no
	// configured base reward.
	ErrUnknownActivity = fmt.Errorf("%w: unknown activity", ErrConfig)
	// ErrOverflow is returned when a streak counter or reward amount cannot be
	// represented in its stored integer width.
	ErrOverflow = errors.New("rewards: overflow")
	// ErrInvalidEntry indicates a prior ledger entry violating the entry
	// invariants, usually a sign of upstream corruption.
	ErrInvalidEntry = errors.New("rewards: invalid entry")
	// ErrInvalidRequest is returned for requests missing a user.
	ErrInvalidRequest = errors.New("rewards: invalid request")
	// ErrInvalidAmount is returned when a decimal amount cannot be expressed in
	// base units.
	ErrInvalidAmount = errors.New("rewards: invalid amount")
)
