package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAccumulateRiskSumsOpenPositions(t *testing.T) {
	now := time.Unix(1700000000, 0)
	records := []PositionRecord{
		{CycleNumber: 4, Stake: decimal.NewFromInt(10), BuyTime: now.Add(-time.Hour)},
		{CycleNumber: 4, Stake: decimal.NewFromInt(5), BuyTime: now.Add(-2 * time.Hour), IsSold: true}, // sold, excluded
		{CycleNumber: 3, Stake: decimal.NewFromInt(7), BuyTime: now.Add(-time.Hour)},                   // stale cycle, excluded
	}

	state := AccumulateRisk(records, decimal.NewFromInt(1000), decimal.NewFromInt(100), 4, now)

	// 10e18 stake-seconds per second over one hour, on top of the carried 1000.
	wantRisk := decimal.NewFromInt(10).Shift(18).Mul(decimal.NewFromInt(3600)).Add(decimal.NewFromInt(1000))
	assert.True(t, state.AccumulatedRisk.Equal(wantRisk), "accumulated risk was %s", state.AccumulatedRisk)

	wantThreshold := decimal.NewFromInt(100).Shift(18).Mul(decimal.NewFromInt(259200))
	assert.True(t, state.Threshold.Equal(wantThreshold), "threshold was %s", state.Threshold)

	wantPct := wantRisk.Div(wantThreshold)
	assert.True(t, state.Percentage.Equal(wantPct), "percentage was %s", state.Percentage)
}

func TestAccumulateRiskClampsToOne(t *testing.T) {
	now := time.Unix(1700000000, 0)
	records := []PositionRecord{
		// Full base stake held open for well past three days.
		{CycleNumber: 4, Stake: decimal.NewFromInt(100), BuyTime: now.Add(-90 * 24 * time.Hour)},
	}
	state := AccumulateRisk(records, decimal.Zero, decimal.NewFromInt(100), 4, now)
	assert.True(t, state.Percentage.Equal(decimal.NewFromInt(1)), "percentage was %s", state.Percentage)
}

func TestAccumulateRiskZeroThreshold(t *testing.T) {
	now := time.Unix(1700000000, 0)
	records := []PositionRecord{
		{CycleNumber: 4, Stake: decimal.NewFromInt(10), BuyTime: now.Add(-time.Hour)},
	}
	state := AccumulateRisk(records, decimal.Zero, decimal.Zero, 4, now)
	assert.True(t, state.Percentage.IsZero(), "zero threshold must yield zero percentage, got %s", state.Percentage)
}

func TestAccumulateRiskNegativeClampsToZero(t *testing.T) {
	now := time.Unix(1700000000, 0)
	state := AccumulateRisk(nil, decimal.NewFromInt(-5), decimal.NewFromInt(100), 4, now)
	assert.True(t, state.Percentage.IsZero(), "percentage was %s", state.Percentage)
}
