package valuation

import (
	"github.com/shopspring/decimal"
)

// Aggregate folds the manager's records for one cycle into a portfolio
// snapshot. Stake is the live value of open positions, so unrealized
// returns are marked in; the Kairo change folds over every record of
// the cycle, sold or not. Addition order never affects the result.
func Aggregate(records []PositionRecord, cycle int64, kairoBalance, baseStake decimal.Decimal) PortfolioSnapshot {
	stake := decimal.Zero
	totalKROChange := decimal.Zero
	cycleRecords := make([]PositionRecord, 0, len(records))
	for _, rec := range records {
		if rec.CycleNumber != cycle {
			continue
		}
		cycleRecords = append(cycleRecords, rec)
		totalKROChange = totalKROChange.Add(rec.KROChange)
		if !rec.IsSold {
			stake = stake.Add(rec.CurrValue)
		}
	}

	snapshot := PortfolioSnapshot{
		PortfolioValue: stake.Add(kairoBalance),
		Stake:          stake,
		Records:        cycleRecords,
	}
	if baseStake.GreaterThan(decimal.Zero) {
		snapshot.ManagerROI = totalKROChange.Div(baseStake).Mul(hundred)
	}
	return snapshot
}
