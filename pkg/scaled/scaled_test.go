package scaled

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFixed(t *testing.T) {
	raw, ok := new(big.Int).SetString("1500000000000000000", 10)
	require.True(t, ok)
	assert.True(t, FromFixed(raw).Equal(decimal.RequireFromString("1.5")))
	assert.True(t, FromFixed(nil).IsZero())
}

func TestToFixedTruncates(t *testing.T) {
	// 19 decimal places, the last digit must drop without rounding up.
	d := decimal.RequireFromString("1.2345678901234567899")
	want, _ := new(big.Int).SetString("1234567890123456789", 10)
	assert.Equal(t, want, ToFixed(d))
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "2.5", "-3.125", "0.000000000000000001"} {
		d := decimal.RequireFromString(s)
		assert.True(t, FromFixed(ToFixed(d)).Equal(d), "round trip of %s", s)
	}
}

func TestUnits(t *testing.T) {
	// USDC-style 6 decimals.
	raw := big.NewInt(1250000)
	assert.True(t, FromUnits(raw, 6).Equal(decimal.RequireFromString("1.25")))
	assert.Equal(t, raw, ToUnits(decimal.RequireFromString("1.25"), 6))
	assert.True(t, FromUnits(nil, 6).IsZero())
}

func TestParseFixed(t *testing.T) {
	d, err := ParseFixed("2500000000000000000")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("2.5")))

	_, err = ParseFixed("not-a-number")
	assert.Error(t, err)
}
