package rewards

import (
	"fmt"
	"math"
	"math/big"
)

// UnpenalizedRepeats is the number of leading occurrences in a streak that
// are paid without decay.
const UnpenalizedRepeats = 2

// Decay is the anti-farming divisor 2^Shift. It is kept as an exponent so a
// long streak never has to materialise a huge integer.
type Decay struct {
	Shift uint32
}

// NoDecay is the divisor applied to the first occurrences of a streak.
var NoDecay = Decay{}

// DecayFor returns the decay for the n-th consecutive occurrence of an
// activity: 1 for n <= 2 and 2^(n-2) afterwards.
func DecayFor(n uint32) Decay {
	if n <= UnpenalizedRepeats {
		return NoDecay
	}
	return Decay{Shift: n - UnpenalizedRepeats}
}

// Divisor returns 2^Shift.
func (d Decay) Divisor() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(d.Shift))
}

func (d Decay) String() string {
	if d.Shift < 63 {
		return fmt.Sprintf("%d", uint64(1)<<d.Shift)
	}
	return fmt.Sprintf("2^%d", d.Shift)
}

// Advance derives the streak position and decay for a request against the
// entry currently occupying the slot. Switching activity resets the streak to
// one with no memory of the previous streak's length.
func Advance(prior *Entry, activity ActivityID) (uint32, Decay, error) {
	if prior == nil {
		return 1, NoDecay, nil
	}
	if err := prior.Validate(); err != nil {
		return 0, Decay{}, err
	}
	if prior.Activity != activity {
		return 1, NoDecay, nil
	}
	if prior.ConsecutiveCount == math.MaxUint32 {
		return 0, Decay{}, fmt.Errorf("%w: consecutive count for %q exhausted", ErrOverflow, activity)
	}
	n := prior.ConsecutiveCount + 1
	return n, DecayFor(n), nil
}
