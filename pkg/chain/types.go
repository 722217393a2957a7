package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"betoken-api/pkg/scaled"
)

// SignedAmount is the {amount, isNegative} pair used by the compound
// order contracts to report signed magnitudes.
type SignedAmount struct {
	Amount     *big.Int
	IsNegative bool
}

// Decimal decodes the pair into a signed decimal, unscaling from 1e18.
func (s SignedAmount) Decimal() decimal.Decimal {
	d := scaled.FromFixed(s.Amount)
	if s.IsNegative {
		return d.Neg()
	}
	return d
}

// RawInvestment mirrors one entry of the fund's userInvestments array,
// untouched fixed-point integers included. Covers both basic positions
// and margin (pToken) positions; classification happens downstream.
type RawInvestment struct {
	TokenAddress common.Address
	CycleNumber  *big.Int
	Stake        *big.Int
	TokenAmount  *big.Int
	BuyPrice     *big.Int
	SellPrice    *big.Int
	BuyTime      *big.Int
	IsSold       bool
}

// RawCompoundOrder bundles the per-order contract reads for one
// leveraged (compound) order.
type RawCompoundOrder struct {
	OrderAddress     common.Address
	TokenAddress     common.Address // compound cToken address
	CycleNumber      *big.Int
	Stake            *big.Int
	CollateralAmount *big.Int
	IsSold           bool
	IsShort          bool // orderType: true when shorting
	BuyTime          *big.Int

	CollateralRatio  *big.Int
	CurrCollateral   *big.Int
	CurrBorrow       *big.Int
	CurrCash         *big.Int
	CurrProfit       SignedAmount
	CurrLiquidity    SignedAmount
	CollateralFactor *big.Int // market collateral factor, 1e18 scaled
}
