package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEstimateCommissionZeroSupply(t *testing.T) {
	got := EstimateCommission(CommissionInput{
		CyclePhase:           PhaseIntermission,
		KairoBalance:         decimal.NewFromInt(10),
		KairoTotalSupply:     decimal.Zero,
		CycleTotalCommission: decimal.NewFromInt(500),
	})
	assert.True(t, got.IsZero(), "commission was %s", got)
}

func TestEstimateCommissionIntermission(t *testing.T) {
	got := EstimateCommission(CommissionInput{
		CyclePhase:           PhaseIntermission,
		KairoBalance:         decimal.NewFromInt(10),
		KairoTotalSupply:     decimal.NewFromInt(100),
		CycleTotalCommission: decimal.NewFromInt(500),
	})
	assert.True(t, got.Equal(decimal.NewFromInt(50)), "commission was %s", got)
}

func TestEstimateCommissionManagePhase(t *testing.T) {
	got := EstimateCommission(CommissionInput{
		CyclePhase:       PhaseManage,
		KairoBalance:     decimal.NewFromInt(10),
		PortfolioValue:   decimal.NewFromInt(20),
		KairoTotalSupply: decimal.NewFromInt(100),
		TotalFunds:       decimal.NewFromInt(1100),
		CycleROI:         decimal.NewFromInt(10),
		CommissionRate:   decimal.RequireFromString("0.2"),
		AssetFeeRate:     decimal.RequireFromString("0.01"),
	})
	// Cycle-start funds 1000, profit 100. Pool = 100*0.2 + 1100*0.01 = 31,
	// claimed at the 20/100 portfolio share.
	assert.True(t, got.Equal(decimal.RequireFromString("6.2")), "commission was %s", got)
}

func TestEstimateCommissionManagePhaseUsesPortfolioValue(t *testing.T) {
	// A manager with most Kairo staked into open positions still earns
	// on the full portfolio, not just the idle balance.
	got := EstimateCommission(CommissionInput{
		CyclePhase:       PhaseManage,
		KairoBalance:     decimal.NewFromInt(10),
		PortfolioValue:   decimal.NewFromInt(50),
		KairoTotalSupply: decimal.NewFromInt(100),
		TotalFunds:       decimal.NewFromInt(1000),
		CycleROI:         decimal.NewFromInt(25),
		CommissionRate:   decimal.RequireFromString("0.2"),
	})
	// Cycle-start funds 800, profit 200. Pool = 200*0.2 = 40, half claimed.
	assert.True(t, got.Equal(decimal.NewFromInt(20)), "commission was %s", got)
}

func TestEstimateCommissionManagePhaseLoss(t *testing.T) {
	got := EstimateCommission(CommissionInput{
		CyclePhase:       PhaseManage,
		KairoBalance:     decimal.NewFromInt(10),
		PortfolioValue:   decimal.NewFromInt(10),
		KairoTotalSupply: decimal.NewFromInt(100),
		TotalFunds:       decimal.NewFromInt(900),
		CycleROI:         decimal.NewFromInt(-10),
		CommissionRate:   decimal.RequireFromString("0.2"),
		AssetFeeRate:     decimal.RequireFromString("0.01"),
	})
	// No profit to take commission on, only the asset fee: 900*0.01*0.1.
	assert.True(t, got.Equal(decimal.RequireFromString("0.9")), "commission was %s", got)
}

func TestEstimateCommissionTotalWipeout(t *testing.T) {
	got := EstimateCommission(CommissionInput{
		CyclePhase:       PhaseManage,
		KairoBalance:     decimal.NewFromInt(10),
		PortfolioValue:   decimal.NewFromInt(10),
		KairoTotalSupply: decimal.NewFromInt(100),
		TotalFunds:       decimal.Zero,
		CycleROI:         decimal.NewFromInt(-100),
		CommissionRate:   decimal.RequireFromString("0.2"),
		AssetFeeRate:     decimal.RequireFromString("0.01"),
	})
	assert.True(t, got.IsZero(), "commission was %s", got)
}
