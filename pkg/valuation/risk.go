package valuation

import (
	"time"

	"github.com/shopspring/decimal"

	"betoken-api/pkg/scaled"
)

// threeDays is the reference window the risk threshold is expressed in.
const threeDays = 3 * 24 * time.Hour

var threeDaysSeconds = decimal.NewFromInt(int64(threeDays / time.Second))

// AccumulateRisk folds the current cycle's open positions on top of the
// on-chain accumulated risk and relates the total to the manager's
// threshold. Contributions are stake-seconds in fixed-point scale, each
// truncated to an integer before summing so the fold matches the
// on-chain bookkeeping exactly. A non-finite or negative ratio clamps
// into [0, 1]; a zero threshold yields zero.
func AccumulateRisk(records []PositionRecord, riskOnChain, baseStake decimal.Decimal, cycle int64, now time.Time) RiskState {
	total := riskOnChain
	for _, rec := range records {
		if !rec.Open(cycle) {
			continue
		}
		age := decimal.NewFromInt(now.Unix() - rec.BuyTime.Unix())
		contribution := rec.Stake.Shift(scaled.Precision).Mul(age).Truncate(0)
		total = total.Add(contribution)
	}

	threshold := baseStake.Shift(scaled.Precision).Mul(threeDaysSeconds)
	state := RiskState{
		AccumulatedRisk: total,
		Threshold:       threshold,
	}
	if threshold.IsZero() {
		state.Percentage = decimal.Zero
		return state
	}
	pct := total.Div(threshold)
	switch {
	case pct.LessThan(decimal.Zero):
		pct = decimal.Zero
	case pct.GreaterThan(one):
		pct = one
	}
	state.Percentage = pct
	return state
}
