package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"betoken-api/pkg/chain"
	"betoken-api/pkg/scaled"
)

// kairoPriceFloor is the minimum DAI price a unit of Kairo ever trades
// at, regardless of fund performance.
var kairoPriceFloor = decimal.New(25, -1)

// FundState is the fund-wide picture for the running cycle, read once
// per valuation pass.
type FundState struct {
	CycleNumber          int64
	CyclePhase           int64
	PhaseStart           time.Time
	PhaseLengths         []time.Duration
	TotalFunds           decimal.Decimal
	KairoTotalSupply     decimal.Decimal
	SharesTotalSupply    decimal.Decimal
	CycleTotalCommission decimal.Decimal
	CommissionRate       decimal.Decimal
	AssetFeeRate         decimal.Decimal
	// CycleROI is the fund's running return this cycle, in percent.
	CycleROI decimal.Decimal
}

// TimeTillPhaseEnd returns how long the current phase has left. Elapsed
// phases report zero, never a negative duration.
func (s FundState) TimeTillPhaseEnd(now time.Time) time.Duration {
	if int(s.CyclePhase) >= len(s.PhaseLengths) {
		return 0
	}
	end := s.PhaseStart.Add(s.PhaseLengths[s.CyclePhase])
	if remaining := end.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// FundStats are the fund-wide derived figures published with each pass.
type FundStats struct {
	SharesPrice       decimal.Decimal
	KairoPrice        decimal.Decimal
	TotalFunds        decimal.Decimal
	InvestmentBalance decimal.Decimal
}

// Stats derives per-unit prices from the fund state. An empty shares
// supply prices shares at par; the Kairo price never falls below its
// floor.
func (s FundState) Stats(investmentBalance decimal.Decimal) FundStats {
	stats := FundStats{
		SharesPrice:       one,
		KairoPrice:        kairoPriceFloor,
		TotalFunds:        s.TotalFunds,
		InvestmentBalance: investmentBalance,
	}
	if !s.SharesTotalSupply.IsZero() {
		stats.SharesPrice = s.TotalFunds.Div(s.SharesTotalSupply)
	}
	if !s.KairoTotalSupply.IsZero() {
		price := s.TotalFunds.Div(s.KairoTotalSupply)
		if price.GreaterThan(kairoPriceFloor) {
			stats.KairoPrice = price
		}
	}
	return stats
}

// InvestmentBalance values a shareholder's stake in DAI: their slice of
// the shares supply applied to the fund total. A zero supply means no
// stake exists to value.
func (s FundState) InvestmentBalance(shareBalance decimal.Decimal) decimal.Decimal {
	if s.SharesTotalSupply.IsZero() {
		return decimal.Zero
	}
	return shareBalance.Div(s.SharesTotalSupply).Mul(s.TotalFunds)
}

// LoadFundState reads the fund-wide variables in one sweep. CycleROI is
// left zero; callers fill it from their own running valuation.
func LoadFundState(ctx context.Context, reader chain.Reader) (FundState, error) {
	var state FundState

	intVars := []struct {
		name string
		dst  *int64
	}{
		{"cycleNumber", &state.CycleNumber},
		{"cyclePhase", &state.CyclePhase},
	}
	for _, v := range intVars {
		raw, err := reader.GetPrimitiveVar(ctx, v.name)
		if err != nil {
			return FundState{}, fmt.Errorf("valuation: read %s: %w", v.name, err)
		}
		*v.dst = raw.Int64()
	}

	startRaw, err := reader.GetPrimitiveVar(ctx, "startTimeOfCyclePhase")
	if err != nil {
		return FundState{}, fmt.Errorf("valuation: read startTimeOfCyclePhase: %w", err)
	}
	state.PhaseStart = time.Unix(startRaw.Int64(), 0)

	fixedVars := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"totalFundsInDAI", &state.TotalFunds},
		{"totalCommissionOfCycle", &state.CycleTotalCommission},
		{"commissionRate", &state.CommissionRate},
		{"assetFeeRate", &state.AssetFeeRate},
	}
	for _, v := range fixedVars {
		raw, err := reader.GetPrimitiveVar(ctx, v.name)
		if err != nil {
			return FundState{}, fmt.Errorf("valuation: read %s: %w", v.name, err)
		}
		*v.dst = scaled.FromFixed(raw)
	}

	// The cycle alternates between exactly two phases.
	for i := 0; i < 2; i++ {
		raw, err := reader.GetMappingValue(ctx, "phaseLengths", i)
		if err != nil {
			return FundState{}, fmt.Errorf("valuation: read phaseLengths[%d]: %w", i, err)
		}
		state.PhaseLengths = append(state.PhaseLengths, time.Duration(raw.Int64())*time.Second)
	}

	kairoSupply, err := reader.GetKairoTotalSupply(ctx)
	if err != nil {
		return FundState{}, fmt.Errorf("valuation: read kairo supply: %w", err)
	}
	state.KairoTotalSupply = scaled.FromFixed(kairoSupply)

	sharesSupply, err := reader.GetShareTotalSupply(ctx)
	if err != nil {
		return FundState{}, fmt.Errorf("valuation: read shares supply: %w", err)
	}
	state.SharesTotalSupply = scaled.FromFixed(sharesSupply)

	return state, nil
}
