package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Reader exposes the typed on-chain getters consumed by the valuation
// engine. Every call is context-aware and may fail with a transport or
// reverted-call error; the engine performs no retries of its own.
type Reader interface {
	// GetPositions lists a user's investments, raw fixed-point values intact.
	GetPositions(ctx context.Context, user common.Address) ([]RawInvestment, error)
	// GetCompoundOrders lists a user's leveraged orders with their live
	// collateral figures.
	GetCompoundOrders(ctx context.Context, user common.Address) ([]RawCompoundOrder, error)

	GetKairoBalance(ctx context.Context, user common.Address) (*big.Int, error)
	GetKairoBalanceAtCycleStart(ctx context.Context, user common.Address) (*big.Int, error)
	// GetBaseStake returns the cycle-start Kairo balance, falling back to
	// the registered minimum stake when that balance is zero.
	GetBaseStake(ctx context.Context, user common.Address) (*big.Int, error)
	GetRiskTaken(ctx context.Context, user common.Address) (*big.Int, error)
	GetRiskThreshold(ctx context.Context, user common.Address) (*big.Int, error)
	GetShareBalance(ctx context.Context, user common.Address) (*big.Int, error)
	GetCommissionBalance(ctx context.Context, user common.Address) (*big.Int, error)
	// GetLastCommissionRedemption returns the cycle in which the user
	// last redeemed commission, zero if they never have.
	GetLastCommissionRedemption(ctx context.Context, user common.Address) (*big.Int, error)
	GetKairoTotalSupply(ctx context.Context) (*big.Int, error)
	GetShareTotalSupply(ctx context.Context) (*big.Int, error)

	// GetMarginPrice returns the live mark price of a margin (pToken)
	// position in DAI terms. Failures propagate; an open margin position
	// without a mark price must abort the pass.
	GetMarginPrice(ctx context.Context, token common.Address, underlyingPrice decimal.Decimal) (decimal.Decimal, error)
	GetMarginLiquidationPrice(ctx context.Context, token common.Address, underlyingPrice decimal.Decimal) (decimal.Decimal, error)

	// GetTokenPrice quotes a token in DAI via the on-chain exchange rate.
	// Returns zero (not an error) when the quote reverts.
	GetTokenPrice(ctx context.Context, token common.Address) (decimal.Decimal, error)

	GetPrimitiveVar(ctx context.Context, name string) (*big.Int, error)
	GetMappingValue(ctx context.Context, name string, key any) (*big.Int, error)
	GetDoubleMapping(ctx context.Context, name string, key1, key2 any) (*big.Int, error)
}
