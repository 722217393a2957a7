// Package valuation derives per-manager financial metrics from raw
// on-chain position records: normalized positions with their returns,
// time-weighted risk exposure, aggregate portfolio value and commission
// entitlement. Everything is recomputed wholesale on each pass from an
// immutable context; nothing persists between passes.
package valuation

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"betoken-api/pkg/tokens"
)

// ErrDivisionByZero indicates a ratio denominator was zero at a point
// where no fallback is defined.
var ErrDivisionByZero = errors.New("valuation: division by zero")

// Variant identifies the kind of a position record.
type Variant string

const (
	VariantBasic     Variant = "basic"
	VariantMargin    Variant = "margin"
	VariantLeveraged Variant = "leveraged"
)

// UnsafeCollateralRatioMultiplier is the safety cushion positions must
// keep above their liquidation boundary: 1.1 means a 10% margin.
var UnsafeCollateralRatioMultiplier = decimal.New(11, -1)

// collateralRatioModifier adjusts the minimum collateral ratio when
// deriving effective leverage for compound orders.
var collateralRatioModifier = decimal.NewFromInt(4).Div(decimal.NewFromInt(3))

// MarginDetails carries the margin-variant fields.
type MarginDetails struct {
	Leverage         decimal.Decimal
	OrderType        tokens.OrderType
	LiquidationPrice decimal.Decimal
	// Safe is true when the mark price keeps at least the configured
	// cushion away from the liquidation price.
	Safe bool
}

// LeveragedDetails carries the leveraged (compound) variant fields.
// All magnitudes are in DAI.
type LeveragedDetails struct {
	CollateralAmount   decimal.Decimal
	CollateralRatio    decimal.Decimal
	MinCollateralRatio decimal.Decimal
	CurrProfit         decimal.Decimal
	CurrCollateral     decimal.Decimal
	CurrBorrow         decimal.Decimal
	CurrCash           decimal.Decimal
	CurrLiquidity      decimal.Decimal
	Leverage           decimal.Decimal
	OrderType          tokens.OrderType
	// Safe is true when the collateral ratio clears the minimum with the
	// configured cushion.
	Safe bool
}

// PositionRecord is one normalized position. Exactly one of Margin or
// Leveraged is set, matching the Variant tag; both are nil for basic
// positions.
type PositionRecord struct {
	ID           int
	Variant      Variant
	TokenSymbol  string
	TokenAddress common.Address
	CycleNumber  int64
	Stake        decimal.Decimal
	BuyPrice     decimal.Decimal
	SellPrice    decimal.Decimal // mark price while open, realized price once sold
	IsSold       bool
	BuyTime      time.Time

	ROI       decimal.Decimal // percentage
	KROChange decimal.Decimal
	CurrValue decimal.Decimal

	Margin    *MarginDetails
	Leveraged *LeveragedDetails
}

// Open reports whether the record still counts toward live exposure in
// the given cycle.
func (r PositionRecord) Open(cycle int64) bool {
	return !r.IsSold && r.CycleNumber == cycle
}

// RiskState is the accumulated time-weighted exposure relative to the
// manager's threshold. Percentage is always within [0, 1].
type RiskState struct {
	AccumulatedRisk decimal.Decimal // fixed-point stake-seconds
	Threshold       decimal.Decimal
	Percentage      decimal.Decimal
}

// PortfolioSnapshot is the externally visible aggregate for one manager,
// rebuilt wholesale each valuation pass.
type PortfolioSnapshot struct {
	PortfolioValue decimal.Decimal
	ManagerROI     decimal.Decimal // percentage
	Stake          decimal.Decimal
	Records        []PositionRecord
}
