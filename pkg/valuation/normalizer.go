package valuation

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"betoken-api/pkg/chain"
	"betoken-api/pkg/scaled"
	"betoken-api/pkg/tokens"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// MarginPricer provides the live mark and liquidation prices needed to
// value open margin positions. Satisfied by chain.Client.
type MarginPricer interface {
	GetMarginPrice(ctx context.Context, token common.Address, underlyingPrice decimal.Decimal) (decimal.Decimal, error)
	GetMarginLiquidationPrice(ctx context.Context, token common.Address, underlyingPrice decimal.Decimal) (decimal.Decimal, error)
}

// NormalizeInvestment converts one raw investment into a typed record.
// The variant is classified by address membership: margin-registry
// addresses become margin records, anything else must resolve through
// the catalog as a basic record. Pure except the mark-price fetch for
// open margin positions.
func NormalizeInvestment(ctx context.Context, id int, raw chain.RawInvestment, catalog *tokens.Catalog, registry *tokens.Registry, pricer MarginPricer) (PositionRecord, error) {
	if registry.IsMarginTokenAddress(raw.TokenAddress) {
		return normalizeMargin(ctx, id, raw, catalog, registry, pricer)
	}
	return normalizeBasic(id, raw, catalog)
}

func normalizeBasic(id int, raw chain.RawInvestment, catalog *tokens.Catalog) (PositionRecord, error) {
	info, err := catalog.ByAddress(raw.TokenAddress)
	if err != nil {
		return PositionRecord{}, err
	}

	rec := PositionRecord{
		ID:           id,
		Variant:      VariantBasic,
		TokenSymbol:  info.Symbol,
		TokenAddress: raw.TokenAddress,
		CycleNumber:  bigToInt64(raw.CycleNumber),
		Stake:        scaled.FromFixed(raw.Stake),
		BuyPrice:     scaled.FromFixed(raw.BuyPrice),
		IsSold:       raw.IsSold,
		BuyTime:      unixTime(raw.BuyTime),
	}
	if raw.IsSold {
		rec.SellPrice = scaled.FromFixed(raw.SellPrice)
	} else {
		rec.SellPrice = info.Price
	}
	if err := rec.computeReturns(); err != nil {
		return PositionRecord{}, err
	}
	return rec, nil
}

func normalizeMargin(ctx context.Context, id int, raw chain.RawInvestment, catalog *tokens.Catalog, registry *tokens.Registry, pricer MarginPricer) (PositionRecord, error) {
	symbol, err := registry.MarginUnderlying(raw.TokenAddress)
	if err != nil {
		return PositionRecord{}, err
	}
	listing, err := registry.MarginTokenInfo(raw.TokenAddress)
	if err != nil {
		return PositionRecord{}, err
	}
	underlyingPrice, err := catalog.PriceOf(symbol)
	if err != nil {
		return PositionRecord{}, err
	}

	rec := PositionRecord{
		ID:           id,
		Variant:      VariantMargin,
		TokenSymbol:  symbol,
		TokenAddress: raw.TokenAddress,
		CycleNumber:  bigToInt64(raw.CycleNumber),
		Stake:        scaled.FromFixed(raw.Stake),
		BuyPrice:     scaled.FromFixed(raw.BuyPrice),
		IsSold:       raw.IsSold,
		BuyTime:      unixTime(raw.BuyTime),
	}
	if raw.IsSold {
		rec.SellPrice = scaled.FromFixed(raw.SellPrice)
	} else {
		mark, err := pricer.GetMarginPrice(ctx, raw.TokenAddress, underlyingPrice)
		if err != nil {
			return PositionRecord{}, fmt.Errorf("margin mark price for position %d: %w", id, err)
		}
		rec.SellPrice = mark
	}
	if err := rec.computeReturns(); err != nil {
		return PositionRecord{}, err
	}

	liquidation, err := pricer.GetMarginLiquidationPrice(ctx, raw.TokenAddress, underlyingPrice)
	if err != nil {
		return PositionRecord{}, fmt.Errorf("margin liquidation price for position %d: %w", id, err)
	}
	rec.Margin = &MarginDetails{
		Leverage:         listing.Leverage,
		OrderType:        listing.Type,
		LiquidationPrice: liquidation,
		Safe:             marginSafety(liquidation, rec.SellPrice),
	}
	return rec, nil
}

// marginSafety reports whether the distance between the liquidation
// price and the mark price clears the safety cushion. A zero mark price
// cannot demonstrate any cushion and is treated as unsafe.
func marginSafety(liquidation, sellPrice decimal.Decimal) bool {
	if sellPrice.IsZero() {
		return false
	}
	cushion := UnsafeCollateralRatioMultiplier.Sub(one)
	return liquidation.Sub(sellPrice).Div(sellPrice).Abs().GreaterThan(cushion)
}

// NormalizeCompoundOrder converts one raw compound order into a
// leveraged record. Pure: all live figures were already read alongside
// the order.
func NormalizeCompoundOrder(id int, raw chain.RawCompoundOrder, registry *tokens.Registry) (PositionRecord, error) {
	symbol, err := registry.CompoundSymbol(raw.TokenAddress)
	if err != nil {
		return PositionRecord{}, err
	}

	collateralFactor := scaled.FromFixed(raw.CollateralFactor)
	if collateralFactor.IsZero() {
		return PositionRecord{}, fmt.Errorf("%w: market collateral factor of order %d", ErrDivisionByZero, id)
	}
	minCollateralRatio := one.Div(collateralFactor)

	collateralAmount := scaled.FromFixed(raw.CollateralAmount)
	if collateralAmount.IsZero() {
		return PositionRecord{}, fmt.Errorf("%w: collateral amount of order %d", ErrDivisionByZero, id)
	}
	profit := raw.CurrProfit.Decimal()

	rec := PositionRecord{
		ID:           id,
		Variant:      VariantLeveraged,
		TokenSymbol:  symbol,
		TokenAddress: raw.TokenAddress,
		CycleNumber:  bigToInt64(raw.CycleNumber),
		Stake:        scaled.FromFixed(raw.Stake),
		IsSold:       raw.IsSold,
		BuyTime:      unixTime(raw.BuyTime),
	}
	rec.ROI = profit.Div(collateralAmount).Mul(hundred)
	rec.KROChange = rec.ROI.Mul(rec.Stake).Div(hundred)
	rec.CurrValue = rec.Stake.Add(rec.KROChange)

	orderType := tokens.OrderLong
	if raw.IsShort {
		orderType = tokens.OrderShort
	}
	collateralRatio := scaled.FromFixed(raw.CollateralRatio)
	rec.Leveraged = &LeveragedDetails{
		CollateralAmount:   collateralAmount,
		CollateralRatio:    collateralRatio,
		MinCollateralRatio: minCollateralRatio,
		CurrProfit:         profit,
		CurrCollateral:     scaled.FromFixed(raw.CurrCollateral),
		CurrBorrow:         scaled.FromFixed(raw.CurrBorrow),
		CurrCash:           scaled.FromFixed(raw.CurrCash),
		CurrLiquidity:      raw.CurrLiquidity.Decimal(),
		Leverage:           compoundLeverage(minCollateralRatio, raw.IsShort),
		OrderType:          orderType,
		Safe:               collateralRatio.GreaterThan(minCollateralRatio.Mul(UnsafeCollateralRatioMultiplier)),
	}
	return rec, nil
}

// compoundLeverage derives the effective leverage from the minimum
// collateral ratio. Long orders carry the collateral itself on top of
// the borrowed exposure, hence the extra unit.
func compoundLeverage(minCollateralRatio decimal.Decimal, isShort bool) decimal.Decimal {
	inverse := one.Div(minCollateralRatio.Mul(collateralRatioModifier))
	if isShort {
		return inverse.Round(4)
	}
	return one.Add(inverse).Round(4)
}

// computeReturns fills ROI, KROChange and CurrValue from the price pair.
func (r *PositionRecord) computeReturns() error {
	if r.BuyPrice.IsZero() {
		return fmt.Errorf("%w: buy price of position %d", ErrDivisionByZero, r.ID)
	}
	r.ROI = r.SellPrice.Sub(r.BuyPrice).Div(r.BuyPrice).Mul(hundred)
	r.KROChange = r.ROI.Mul(r.Stake).Div(hundred)
	r.CurrValue = r.Stake.Add(r.KROChange)
	return nil
}

func bigToInt64(v *big.Int) int64 {
	if v == nil {
		return 0
	}
	return v.Int64()
}

func unixTime(v *big.Int) time.Time {
	if v == nil {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0)
}
