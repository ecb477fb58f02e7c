package rewards

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// MultiplierDenominator is the basis point denominator for demand
	// multipliers.
	MultiplierDenominator = 10_000
	// HighDemandBps applies when open tasks outnumber active users.
	HighDemandBps = 12_000
	// LowDemandBps applies when active users outnumber open tasks.
	LowDemandBps = 9_000
	// BalancedBps applies when tasks and users are equal.
	BalancedBps = 10_000
)

// Multiplier is an exact rational Bps/MultiplierDenominator.
type Multiplier struct {
	Bps uint64
}

// DemandMultiplier maps the current task and user counts to a reward
// multiplier. It is total over all inputs.
func DemandMultiplier(numTasks, numUsers uint64) Multiplier {
	switch {
	case numTasks > numUsers:
		return Multiplier{Bps: HighDemandBps}
	case numUsers > numTasks:
		return Multiplier{Bps: LowDemandBps}
	default:
		return Multiplier{Bps: BalancedBps}
	}
}

// Rat returns the multiplier as an exact rational.
func (m Multiplier) Rat() *big.Rat {
	return new(big.Rat).SetFrac(new(big.Int).SetUint64(m.Bps), big.NewInt(MultiplierDenominator))
}

// String renders the multiplier with two decimals, e.g. "1.20".
func (m Multiplier) String() string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(m.Bps), -4).StringFixed(2)
}
