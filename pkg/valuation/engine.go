package valuation

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"betoken-api/pkg/chain"
	"betoken-api/pkg/scaled"
	"betoken-api/pkg/tokens"
)

// AccountValuation is the full per-manager result of one pass.
type AccountValuation struct {
	User              common.Address
	Portfolio         PortfolioSnapshot
	Risk              RiskState
	Commission        decimal.Decimal
	KairoBalance      decimal.Decimal
	BaseStake         decimal.Decimal
	ShareBalance      decimal.Decimal
	CommissionBalance decimal.Decimal
	// LastCommissionRedemption is the cycle of the user's most recent
	// commission redemption, zero if they never redeemed.
	LastCommissionRedemption int64
	ComputedAt               time.Time
}

// Engine drives a valuation pass: it fans out the on-chain reads,
// normalizes every position and folds the aggregates.
type Engine struct {
	reader   chain.Reader
	registry *tokens.Registry
	clock    func() time.Time
}

// EngineOption configures a new Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source used for risk aging.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewEngine builds a valuation engine over an on-chain reader and the
// token registry.
func NewEngine(reader chain.Reader, registry *tokens.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		reader:   reader,
		registry: registry,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadFund reads the fund-wide state for the running cycle.
func (e *Engine) LoadFund(ctx context.Context) (FundState, error) {
	return LoadFundState(ctx, e.reader)
}

// Valuate computes one manager's complete valuation against the given
// fund state and priced catalog. All independent on-chain reads run
// concurrently; any single failure aborts the pass so a partial result
// is never published.
func (e *Engine) Valuate(ctx context.Context, user common.Address, catalog *tokens.Catalog, fund FundState) (*AccountValuation, error) {
	var (
		wg sync.WaitGroup

		investments    []chain.RawInvestment
		compoundOrders []chain.RawCompoundOrder
		balances       [6]*big.Int
		fetchErrs      [8]error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		investments, fetchErrs[0] = e.reader.GetPositions(ctx, user)
	}()
	go func() {
		defer wg.Done()
		compoundOrders, fetchErrs[1] = e.reader.GetCompoundOrders(ctx, user)
	}()

	balanceReads := []struct {
		name string
		call func(context.Context, common.Address) (*big.Int, error)
	}{
		{"kairo balance", e.reader.GetKairoBalance},
		{"base stake", e.reader.GetBaseStake},
		{"risk taken", e.reader.GetRiskTaken},
		{"share balance", e.reader.GetShareBalance},
		{"commission balance", e.reader.GetCommissionBalance},
		{"last commission redemption", e.reader.GetLastCommissionRedemption},
	}
	for i, read := range balanceReads {
		wg.Add(1)
		go func(i int, name string, call func(context.Context, common.Address) (*big.Int, error)) {
			defer wg.Done()
			value, err := call(ctx, user)
			if err != nil {
				fetchErrs[2+i] = fmt.Errorf("valuation: %s: %w", name, err)
				return
			}
			balances[i] = value
		}(i, read.name, read.call)
	}
	wg.Wait()

	for _, err := range fetchErrs {
		if err != nil {
			return nil, err
		}
	}

	kairoBalance := scaled.FromFixed(balances[0])
	baseStake := scaled.FromFixed(balances[1])
	riskTaken := decimal.NewFromBigInt(balances[2], 0)
	shareBalance := scaled.FromFixed(balances[3])
	commissionBalance := scaled.FromFixed(balances[4])
	lastRedemption := balances[5].Int64()

	records, err := e.normalizeAll(ctx, investments, compoundOrders, catalog)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	portfolio := Aggregate(records, fund.CycleNumber, kairoBalance, baseStake)
	risk := AccumulateRisk(records, riskTaken, baseStake, fund.CycleNumber, now)
	commission := EstimateCommission(CommissionInput{
		CyclePhase:           fund.CyclePhase,
		KairoBalance:         kairoBalance,
		PortfolioValue:       portfolio.PortfolioValue,
		KairoTotalSupply:     fund.KairoTotalSupply,
		CycleTotalCommission: fund.CycleTotalCommission,
		TotalFunds:           fund.TotalFunds,
		CycleROI:             fund.CycleROI,
		CommissionRate:       fund.CommissionRate,
		AssetFeeRate:         fund.AssetFeeRate,
	})

	return &AccountValuation{
		User:                     user,
		Portfolio:                portfolio,
		Risk:                     risk,
		Commission:               commission,
		KairoBalance:             kairoBalance,
		BaseStake:                baseStake,
		ShareBalance:             shareBalance,
		CommissionBalance:        commissionBalance,
		LastCommissionRedemption: lastRedemption,
		ComputedAt:               now,
	}, nil
}

// normalizeAll converts raw positions concurrently, keeping input order
// in the result. Compound orders are numbered after the investments.
func (e *Engine) normalizeAll(ctx context.Context, investments []chain.RawInvestment, orders []chain.RawCompoundOrder, catalog *tokens.Catalog) ([]PositionRecord, error) {
	records := make([]PositionRecord, len(investments)+len(orders))
	errs := make([]error, len(investments)+len(orders))

	var wg sync.WaitGroup
	for i, raw := range investments {
		wg.Add(1)
		go func(i int, raw chain.RawInvestment) {
			defer wg.Done()
			records[i], errs[i] = NormalizeInvestment(ctx, i, raw, catalog, e.registry, e.reader)
		}(i, raw)
	}
	for j, raw := range orders {
		idx := len(investments) + j
		records[idx], errs[idx] = NormalizeCompoundOrder(idx, raw, e.registry)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}
