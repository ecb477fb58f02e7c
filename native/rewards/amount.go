package rewards

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountDecimals is the number of fractional digits carried by base units.
// One whole reward unit equals 10^9 base units.
const AmountDecimals = 9

var maxAmount = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// ParseAmount converts a decimal string such as "0.01" into base units. The
// value must be non-negative, carry at most AmountDecimals fractional digits
// and fit in a uint64 once scaled.
func ParseAmount(raw string) (uint64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, raw, err)
	}
	if value.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, raw)
	}
	scaled := value.Shift(AmountDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q exceeds %d decimals", ErrInvalidAmount, raw, AmountDecimals)
	}
	if scaled.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, raw)
	}
	return scaled.BigInt().Uint64(), nil
}

// FormatAmount renders base units as a decimal string without trailing zeros.
func FormatAmount(units uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -AmountDecimals).String()
}
