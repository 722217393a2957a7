package valuation

import (
	"github.com/shopspring/decimal"
)

// Cycle phases as stored on chain.
const (
	PhaseIntermission int64 = 0
	PhaseManage       int64 = 1
)

// CommissionInput gathers everything a commission estimate depends on.
// Rates are fractions, CycleROI is a percentage.
type CommissionInput struct {
	CyclePhase int64
	// KairoBalance is the claim basis during intermission, when the
	// cycle's commission pool is already fixed.
	KairoBalance decimal.Decimal
	// PortfolioValue is the claim basis while the manage phase runs:
	// open stake marked to market plus the idle Kairo balance.
	PortfolioValue       decimal.Decimal
	KairoTotalSupply     decimal.Decimal
	CycleTotalCommission decimal.Decimal
	TotalFunds           decimal.Decimal
	CycleROI             decimal.Decimal
	CommissionRate       decimal.Decimal
	AssetFeeRate         decimal.Decimal
}

// EstimateCommission computes the manager's commission entitlement for
// the running cycle. During intermission the manager holds a pro-rata
// claim, by Kairo balance, on the fixed pool. During the manage phase
// the pool is projected from the cycle's return so far plus the asset
// fee on managed funds, and the claim scales with portfolio value since
// staked Kairo still counts. A zero Kairo supply means no claims exist.
func EstimateCommission(in CommissionInput) decimal.Decimal {
	if in.KairoTotalSupply.IsZero() {
		return decimal.Zero
	}

	if in.CyclePhase == PhaseIntermission {
		return in.CycleTotalCommission.Mul(in.KairoBalance.Div(in.KairoTotalSupply))
	}

	// Back out the cycle-start fund size from the running return. A
	// return at or below -100% leaves nothing to take commission on.
	divisor := one.Add(in.CycleROI.Div(hundred))
	totalProfit := decimal.Zero
	if divisor.GreaterThan(decimal.Zero) {
		totalProfit = in.TotalFunds.Sub(in.TotalFunds.Div(divisor))
	}
	if totalProfit.LessThan(decimal.Zero) {
		totalProfit = decimal.Zero
	}

	pool := totalProfit.Mul(in.CommissionRate).Add(in.TotalFunds.Mul(in.AssetFeeRate))
	return pool.Mul(in.PortfolioValue.Div(in.KairoTotalSupply))
}
