package valuation

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betoken-api/pkg/chain"
)

type stubReader struct {
	investments    []chain.RawInvestment
	compoundOrders []chain.RawCompoundOrder
	kairoBalance   *big.Int
	baseStake      *big.Int
	riskTaken      *big.Int
	shareBalance   *big.Int
	commission     *big.Int

	marginMark        decimal.Decimal
	marginLiquidation decimal.Decimal

	balanceErr error
}

var _ chain.Reader = (*stubReader)(nil)

func (s *stubReader) GetPositions(ctx context.Context, user common.Address) ([]chain.RawInvestment, error) {
	return s.investments, nil
}

func (s *stubReader) GetCompoundOrders(ctx context.Context, user common.Address) ([]chain.RawCompoundOrder, error) {
	return s.compoundOrders, nil
}

func (s *stubReader) GetKairoBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	if s.balanceErr != nil {
		return nil, s.balanceErr
	}
	return s.kairoBalance, nil
}

func (s *stubReader) GetKairoBalanceAtCycleStart(ctx context.Context, user common.Address) (*big.Int, error) {
	return s.baseStake, nil
}

func (s *stubReader) GetBaseStake(ctx context.Context, user common.Address) (*big.Int, error) {
	return s.baseStake, nil
}

func (s *stubReader) GetRiskTaken(ctx context.Context, user common.Address) (*big.Int, error) {
	return s.riskTaken, nil
}

func (s *stubReader) GetRiskThreshold(ctx context.Context, user common.Address) (*big.Int, error) {
	return new(big.Int).Mul(s.baseStake, big.NewInt(259200)), nil
}

func (s *stubReader) GetShareBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	return s.shareBalance, nil
}

func (s *stubReader) GetCommissionBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	return s.commission, nil
}

func (s *stubReader) GetLastCommissionRedemption(ctx context.Context, user common.Address) (*big.Int, error) {
	return big.NewInt(3), nil
}

func (s *stubReader) GetKairoTotalSupply(ctx context.Context) (*big.Int, error) {
	return fixed("1000"), nil
}

func (s *stubReader) GetShareTotalSupply(ctx context.Context) (*big.Int, error) {
	return fixed("5000"), nil
}

func (s *stubReader) GetMarginPrice(ctx context.Context, token common.Address, underlying decimal.Decimal) (decimal.Decimal, error) {
	return s.marginMark, nil
}

func (s *stubReader) GetMarginLiquidationPrice(ctx context.Context, token common.Address, underlying decimal.Decimal) (decimal.Decimal, error) {
	return s.marginLiquidation, nil
}

func (s *stubReader) GetTokenPrice(ctx context.Context, token common.Address) (decimal.Decimal, error) {
	return decimal.NewFromInt(1), nil
}

func (s *stubReader) GetPrimitiveVar(ctx context.Context, name string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (s *stubReader) GetMappingValue(ctx context.Context, name string, key any) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (s *stubReader) GetDoubleMapping(ctx context.Context, name string, key1, key2 any) (*big.Int, error) {
	return big.NewInt(0), nil
}

func fundedStubReader() *stubReader {
	return &stubReader{
		investments: []chain.RawInvestment{
			{
				TokenAddress: omgAddr,
				CycleNumber:  big.NewInt(4),
				Stake:        fixed("10"),
				BuyPrice:     fixed("2"),
				BuyTime:      big.NewInt(1700000000),
			},
		},
		compoundOrders: []chain.RawCompoundOrder{
			{
				TokenAddress:     cTokenAddr,
				CycleNumber:      big.NewInt(4),
				Stake:            fixed("10"),
				CollateralAmount: fixed("50"),
				BuyTime:          big.NewInt(1700000000),
				CollateralRatio:  fixed("2.5"),
				CurrProfit:       chain.SignedAmount{Amount: fixed("10")},
				CurrLiquidity:    chain.SignedAmount{Amount: fixed("40")},
				CollateralFactor: fixed("0.5"),
			},
		},
		kairoBalance: fixed("70"),
		baseStake:    fixed("100"),
		riskTaken:    big.NewInt(0),
		shareBalance: fixed("25"),
		commission:   fixed("1.5"),
	}
}

func TestEngineValuate(t *testing.T) {
	registry := testRegistry(t)
	catalog := testCatalog(t, decimal.NewFromInt(3), decimal.NewFromInt(200))
	now := time.Unix(1700003600, 0)
	reader := fundedStubReader()

	engine := NewEngine(reader, registry, WithClock(func() time.Time { return now }))
	fund := FundState{
		CycleNumber:          4,
		CyclePhase:           PhaseIntermission,
		KairoTotalSupply:     decimal.NewFromInt(1000),
		CycleTotalCommission: decimal.NewFromInt(500),
	}

	result, err := engine.Valuate(context.Background(), common.HexToAddress("0x1"), catalog, fund)
	require.NoError(t, err)

	require.Len(t, result.Portfolio.Records, 2)
	// OMG open at price 3 against buy price 2: roi 50%, change +5,
	// live value 15. Compound order: 10 profit on 50 collateral,
	// change +2, live value 12.
	assert.True(t, result.Portfolio.Stake.Equal(decimal.NewFromInt(27)), "stake was %s", result.Portfolio.Stake)
	assert.True(t, result.Portfolio.PortfolioValue.Equal(decimal.NewFromInt(97)), "portfolio value was %s", result.Portfolio.PortfolioValue)
	assert.True(t, result.Portfolio.ManagerROI.Equal(decimal.NewFromInt(7)), "manager roi was %s", result.Portfolio.ManagerROI)

	// Both stakes open for one hour on a 100-unit base.
	wantRisk := decimal.NewFromInt(20).Shift(18).Mul(decimal.NewFromInt(3600))
	assert.True(t, result.Risk.AccumulatedRisk.Equal(wantRisk), "risk was %s", result.Risk.AccumulatedRisk)

	// Intermission: 70/1000 of the 500 commission pool.
	assert.True(t, result.Commission.Equal(decimal.NewFromInt(35)), "commission was %s", result.Commission)

	assert.True(t, result.KairoBalance.Equal(decimal.NewFromInt(70)))
	assert.True(t, result.BaseStake.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.ShareBalance.Equal(decimal.NewFromInt(25)))
	assert.True(t, result.CommissionBalance.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, int64(3), result.LastCommissionRedemption)
	assert.Equal(t, now, result.ComputedAt)
}

func TestEngineValuateManagePhaseCommission(t *testing.T) {
	registry := testRegistry(t)
	catalog := testCatalog(t, decimal.NewFromInt(3), decimal.NewFromInt(200))
	reader := fundedStubReader()

	engine := NewEngine(reader, registry)
	fund := FundState{
		CycleNumber:      4,
		CyclePhase:       PhaseManage,
		KairoTotalSupply: decimal.NewFromInt(1000),
		TotalFunds:       decimal.NewFromInt(1100),
		CycleROI:         decimal.NewFromInt(10),
		CommissionRate:   decimal.RequireFromString("0.2"),
		AssetFeeRate:     decimal.RequireFromString("0.01"),
	}

	result, err := engine.Valuate(context.Background(), common.HexToAddress("0x1"), catalog, fund)
	require.NoError(t, err)

	// Pool = 100*0.2 + 1100*0.01 = 31, claimed at the manager's 97/1000
	// portfolio share rather than the 70/1000 idle Kairo balance.
	assert.True(t, result.Commission.Equal(decimal.RequireFromString("3.007")), "commission was %s", result.Commission)
}

func TestEngineValuateAbortsOnReadFailure(t *testing.T) {
	registry := testRegistry(t)
	catalog := testCatalog(t, decimal.NewFromInt(3), decimal.NewFromInt(200))

	reader := &stubReader{
		kairoBalance: fixed("70"),
		baseStake:    fixed("100"),
		riskTaken:    big.NewInt(0),
		shareBalance: fixed("25"),
		commission:   big.NewInt(0),
		balanceErr:   errors.New("rpc timeout"),
	}

	engine := NewEngine(reader, registry)
	_, err := engine.Valuate(context.Background(), common.HexToAddress("0x1"), catalog, FundState{CycleNumber: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kairo balance")
}
