// Package scaled converts between on-chain fixed-point integers and
// arbitrary-precision decimals. The Betoken contracts encode every
// fractional quantity as an integer scaled by 1e18.
package scaled

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places used by the on-chain
// fixed-point representation.
const Precision = 18

// FromFixed converts a 1e18-scaled integer into a decimal value.
// A nil input is treated as zero.
func FromFixed(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -Precision)
}

// ToFixed converts a decimal value back into its 1e18-scaled integer
// form, truncating toward zero any precision beyond 18 places.
func ToFixed(d decimal.Decimal) *big.Int {
	return d.Shift(Precision).Truncate(0).BigInt()
}

// FromUnits converts an integer scaled by 10^decimals into a decimal.
// Used for ERC20 balances whose tokens carry non-standard decimals.
func FromUnits(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// ToUnits converts a decimal into an integer scaled by 10^decimals,
// truncating toward zero.
func ToUnits(d decimal.Decimal, decimals int32) *big.Int {
	return d.Shift(decimals).Truncate(0).BigInt()
}

// ParseFixed parses a base-10 integer string as produced by contract
// calls and converts it to a decimal via FromFixed.
func ParseFixed(s string) (decimal.Decimal, error) {
	raw, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("scaled: parse fixed-point integer %q", s)
	}
	return FromFixed(raw), nil
}
