package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"betoken-api/pkg/scaled"
)

// Mainnet deployment addresses.
const (
	DefaultProxyAddr = "0xC7CbB403D1722EE3E4ae61f452Dc36d71E8800DE"
	DefaultDAIAddr   = "0x89d24A6b4CcB1B6fAA2625fE562bDD9a23260359"
	DefaultKyberAddr = "0x818E6FECD516Ecc3849DAf6845e3EC868087B755"

	// ETHTokenAddr is the sentinel address the fund uses for ether.
	ETHTokenAddr = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
)

const threeDaysInSeconds = 3 * 24 * 60 * 60

var _ Reader = (*Client)(nil)

// Backend is the subset of ethclient.Client the reader depends on.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client implements Reader against a live Ethereum backend.
type Client struct {
	backend Backend

	proxy  common.Address
	fund   common.Address
	kairo  common.Address
	shares common.Address
	kyber  common.Address
	dai    common.Address
	eth    common.Address
}

// Option customises the chain client.
type Option func(*Client)

// WithProxyAddress overrides the BetokenProxy address.
func WithProxyAddress(addr string) Option {
	return func(c *Client) {
		if common.IsHexAddress(addr) {
			c.proxy = common.HexToAddress(addr)
		}
	}
}

// WithKyberAddress overrides the KyberNetwork address.
func WithKyberAddress(addr string) Option {
	return func(c *Client) {
		if common.IsHexAddress(addr) {
			c.kyber = common.HexToAddress(addr)
		}
	}
}

// WithDAIAddress overrides the DAI token address.
func WithDAIAddress(addr string) Option {
	return func(c *Client) {
		if common.IsHexAddress(addr) {
			c.dai = common.HexToAddress(addr)
		}
	}
}

// NewClient resolves the fund and token contract addresses through the
// proxy and returns a ready reader.
func NewClient(ctx context.Context, backend Backend, opts ...Option) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("chain: backend is required")
	}
	c := &Client{
		backend: backend,
		proxy:   common.HexToAddress(DefaultProxyAddr),
		kyber:   common.HexToAddress(DefaultKyberAddr),
		dai:     common.HexToAddress(DefaultDAIAddr),
		eth:     common.HexToAddress(ETHTokenAddr),
	}
	for _, opt := range opts {
		opt(c)
	}

	fund, err := c.callAddress(ctx, proxyABI, c.proxy, "betokenFundAddress")
	if err != nil {
		return nil, fmt.Errorf("chain: resolve fund address: %w", err)
	}
	c.fund = fund

	kairo, err := c.callAddress(ctx, fundABI, c.fund, "controlTokenAddr")
	if err != nil {
		return nil, fmt.Errorf("chain: resolve kairo address: %w", err)
	}
	c.kairo = kairo

	shares, err := c.callAddress(ctx, fundABI, c.fund, "shareTokenAddr")
	if err != nil {
		return nil, fmt.Errorf("chain: resolve shares address: %w", err)
	}
	c.shares = shares

	return c, nil
}

// FundAddress returns the resolved BetokenFund address.
func (c *Client) FundAddress() common.Address { return c.fund }

func (c *Client) call(ctx context.Context, a abi.ABI, addr common.Address, method string, args ...any) ([]any, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	res, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s on %s: %w", method, addr.Hex(), err)
	}
	out, err := a.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return out, nil
}

func (c *Client) callUint(ctx context.Context, a abi.ABI, addr common.Address, method string, args ...any) (*big.Int, error) {
	out, err := c.call(ctx, a, addr, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: %s returned %T, want *big.Int", method, out[0])
	}
	return v, nil
}

func (c *Client) callBool(ctx context.Context, a abi.ABI, addr common.Address, method string, args ...any) (bool, error) {
	out, err := c.call(ctx, a, addr, method, args...)
	if err != nil {
		return false, err
	}
	v, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("chain: %s returned %T, want bool", method, out[0])
	}
	return v, nil
}

func (c *Client) callAddress(ctx context.Context, a abi.ABI, addr common.Address, method string, args ...any) (common.Address, error) {
	out, err := c.call(ctx, a, addr, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	v, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("chain: %s returned %T, want address", method, out[0])
	}
	return v, nil
}

func (c *Client) callSigned(ctx context.Context, addr common.Address, method string) (SignedAmount, error) {
	out, err := c.call(ctx, compoundOrderABI, addr, method)
	if err != nil {
		return SignedAmount{}, err
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return SignedAmount{}, fmt.Errorf("chain: %s returned %T, want *big.Int", method, out[0])
	}
	negative, ok := out[1].(bool)
	if !ok {
		return SignedAmount{}, fmt.Errorf("chain: %s returned %T, want bool", method, out[1])
	}
	return SignedAmount{Amount: amount, IsNegative: negative}, nil
}

// GetPrimitiveVar reads a no-argument public variable on the fund.
func (c *Client) GetPrimitiveVar(ctx context.Context, name string) (*big.Int, error) {
	return c.callUint(ctx, fundABI, c.fund, name)
}

// GetMappingValue reads a one-key public mapping or array on the fund.
func (c *Client) GetMappingValue(ctx context.Context, name string, key any) (*big.Int, error) {
	arg, err := toCallArg(key)
	if err != nil {
		return nil, fmt.Errorf("chain: mapping %s: %w", name, err)
	}
	return c.callUint(ctx, fundABI, c.fund, name, arg)
}

// GetDoubleMapping reads a two-key public mapping on the fund.
func (c *Client) GetDoubleMapping(ctx context.Context, name string, key1, key2 any) (*big.Int, error) {
	arg1, err := toCallArg(key1)
	if err != nil {
		return nil, fmt.Errorf("chain: mapping %s: %w", name, err)
	}
	arg2, err := toCallArg(key2)
	if err != nil {
		return nil, fmt.Errorf("chain: mapping %s: %w", name, err)
	}
	return c.callUint(ctx, fundABI, c.fund, name, arg1, arg2)
}

func toCallArg(key any) (any, error) {
	switch v := key.(type) {
	case common.Address, *big.Int:
		return v, nil
	case string:
		if !common.IsHexAddress(v) {
			return nil, fmt.Errorf("invalid address key %q", v)
		}
		return common.HexToAddress(v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported key type %T", key)
	}
}

// GetPositions fetches all of a user's investments concurrently and
// joins them in index order.
func (c *Client) GetPositions(ctx context.Context, user common.Address) ([]RawInvestment, error) {
	count, err := c.callUint(ctx, fundABI, c.fund, "investmentsCount", user)
	if err != nil {
		return nil, err
	}
	n := int(count.Int64())
	if n == 0 {
		return nil, nil
	}

	investments := make([]RawInvestment, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			investments[id], errs[id] = c.getInvestment(ctx, user, id)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return investments, nil
}

func (c *Client) getInvestment(ctx context.Context, user common.Address, id int) (RawInvestment, error) {
	out, err := c.call(ctx, fundABI, c.fund, "userInvestments", user, big.NewInt(int64(id)))
	if err != nil {
		return RawInvestment{}, err
	}
	return decodeInvestment(out)
}

func decodeInvestment(out []any) (RawInvestment, error) {
	if len(out) != 8 {
		return RawInvestment{}, fmt.Errorf("chain: userInvestments returned %d values, want 8", len(out))
	}
	var inv RawInvestment
	var ok bool
	if inv.TokenAddress, ok = out[0].(common.Address); !ok {
		return RawInvestment{}, fmt.Errorf("chain: userInvestments field 0 is %T, want address", out[0])
	}
	uints := []struct {
		idx int
		dst **big.Int
	}{
		{1, &inv.CycleNumber},
		{2, &inv.Stake},
		{3, &inv.TokenAmount},
		{4, &inv.BuyPrice},
		{5, &inv.SellPrice},
		{6, &inv.BuyTime},
	}
	for _, f := range uints {
		v, ok := out[f.idx].(*big.Int)
		if !ok {
			return RawInvestment{}, fmt.Errorf("chain: userInvestments field %d is %T, want *big.Int", f.idx, out[f.idx])
		}
		*f.dst = v
	}
	if inv.IsSold, ok = out[7].(bool); !ok {
		return RawInvestment{}, fmt.Errorf("chain: userInvestments field 7 is %T, want bool", out[7])
	}
	return inv, nil
}

// GetCompoundOrders fetches all of a user's compound orders. Order
// addresses are read from the fund, then each order's fields are read
// concurrently across orders.
func (c *Client) GetCompoundOrders(ctx context.Context, user common.Address) ([]RawCompoundOrder, error) {
	count, err := c.callUint(ctx, fundABI, c.fund, "compoundOrdersCount", user)
	if err != nil {
		return nil, err
	}
	n := int(count.Int64())
	if n == 0 {
		return nil, nil
	}

	orders := make([]RawCompoundOrder, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			orders[id], errs[id] = c.getCompoundOrder(ctx, user, id)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (c *Client) getCompoundOrder(ctx context.Context, user common.Address, id int) (RawCompoundOrder, error) {
	addr, err := c.callAddress(ctx, fundABI, c.fund, "userCompoundOrders", user, big.NewInt(int64(id)))
	if err != nil {
		return RawCompoundOrder{}, err
	}
	order := RawCompoundOrder{OrderAddress: addr}

	if order.Stake, err = c.callUint(ctx, compoundOrderABI, addr, "stake"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.CycleNumber, err = c.callUint(ctx, compoundOrderABI, addr, "cycleNumber"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.CollateralAmount, err = c.callUint(ctx, compoundOrderABI, addr, "collateralAmountInDAI"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.TokenAddress, err = c.callAddress(ctx, compoundOrderABI, addr, "compoundTokenAddr"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.IsSold, err = c.callBool(ctx, compoundOrderABI, addr, "isSold"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.IsShort, err = c.callBool(ctx, compoundOrderABI, addr, "orderType"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.BuyTime, err = c.callUint(ctx, compoundOrderABI, addr, "buyTime"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.CollateralRatio, err = c.callUint(ctx, compoundOrderABI, addr, "getCurrentCollateralRatioInDAI"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.CurrCollateral, err = c.callUint(ctx, compoundOrderABI, addr, "getCurrentCollateralInDAI"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.CurrBorrow, err = c.callUint(ctx, compoundOrderABI, addr, "getCurrentBorrowInDAI"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.CurrCash, err = c.callUint(ctx, compoundOrderABI, addr, "getCurrentCashInDAI"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.CurrProfit, err = c.callSigned(ctx, addr, "getCurrentProfitInDAI"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.CurrLiquidity, err = c.callSigned(ctx, addr, "getCurrentLiquidityInDAI"); err != nil {
		return RawCompoundOrder{}, err
	}
	if order.CollateralFactor, err = c.callUint(ctx, compoundOrderABI, addr, "getMarketCollateralFactor"); err != nil {
		return RawCompoundOrder{}, err
	}
	return order, nil
}

// GetKairoBalance returns the user's current Kairo balance, 1e18 scaled.
func (c *Client) GetKairoBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	return c.callUint(ctx, minimeABI, c.kairo, "balanceOf", user)
}

// GetKairoBalanceAtCycleStart returns the user's Kairo balance at the
// block that ended the previous cycle's manage phase.
func (c *Client) GetKairoBalanceAtCycleStart(ctx context.Context, user common.Address) (*big.Int, error) {
	cycle, err := c.GetPrimitiveVar(ctx, "cycleNumber")
	if err != nil {
		return nil, err
	}
	prev := new(big.Int).Sub(cycle, big.NewInt(1))
	block, err := c.callUint(ctx, fundABI, c.fund, "managePhaseEndBlock", prev)
	if err != nil {
		return nil, err
	}
	return c.callUint(ctx, minimeABI, c.kairo, "balanceOfAt", user, block)
}

// GetBaseStake returns the cycle-start Kairo balance, substituting the
// registered minimum stake when the balance is zero.
func (c *Client) GetBaseStake(ctx context.Context, user common.Address) (*big.Int, error) {
	base, err := c.GetKairoBalanceAtCycleStart(ctx, user)
	if err != nil {
		return nil, err
	}
	if base.Sign() != 0 {
		return base, nil
	}
	return c.GetMappingValue(ctx, "baseRiskStakeFallback", user)
}

// GetRiskTaken returns the user's accumulated risk counter for the
// current cycle, in fixed-point stake-seconds.
func (c *Client) GetRiskTaken(ctx context.Context, user common.Address) (*big.Int, error) {
	cycle, err := c.GetPrimitiveVar(ctx, "cycleNumber")
	if err != nil {
		return nil, err
	}
	return c.GetDoubleMapping(ctx, "riskTakenInCycle", user, cycle)
}

// GetRiskThreshold returns baseStake scaled by the three-day risk window.
func (c *Client) GetRiskThreshold(ctx context.Context, user common.Address) (*big.Int, error) {
	base, err := c.GetBaseStake(ctx, user)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(base, big.NewInt(threeDaysInSeconds)), nil
}

// GetKairoTotalSupply returns the total Kairo supply, 1e18 scaled.
func (c *Client) GetKairoTotalSupply(ctx context.Context) (*big.Int, error) {
	return c.callUint(ctx, minimeABI, c.kairo, "totalSupply")
}

// GetShareTotalSupply returns the total share supply, 1e18 scaled.
func (c *Client) GetShareTotalSupply(ctx context.Context) (*big.Int, error) {
	return c.callUint(ctx, minimeABI, c.shares, "totalSupply")
}

// GetShareBalance returns the user's share token balance, 1e18 scaled.
func (c *Client) GetShareBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	return c.callUint(ctx, minimeABI, c.shares, "balanceOf", user)
}

// GetCommissionBalance returns the user's redeemable commission, 1e18
// scaled. The contract also reports a penalty figure, which is ignored.
func (c *Client) GetCommissionBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	out, err := c.call(ctx, fundABI, c.fund, "commissionBalanceOf", user)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: commissionBalanceOf returned %T, want *big.Int", out[0])
	}
	return v, nil
}

// GetLastCommissionRedemption returns the cycle of the user's most
// recent commission redemption.
func (c *Client) GetLastCommissionRedemption(ctx context.Context, user common.Address) (*big.Int, error) {
	return c.GetMappingValue(ctx, "lastCommissionRedemption", user)
}

// GetMarginPrice quotes a margin pToken in DAI. When the loan token is
// not DAI the price is crossed through the underlying's DAI price.
func (c *Client) GetMarginPrice(ctx context.Context, token common.Address, underlyingPrice decimal.Decimal) (decimal.Decimal, error) {
	return c.marginQuote(ctx, token, "tokenPrice", underlyingPrice)
}

// GetMarginLiquidationPrice quotes the liquidation price of a margin
// pToken in DAI.
func (c *Client) GetMarginLiquidationPrice(ctx context.Context, token common.Address, underlyingPrice decimal.Decimal) (decimal.Decimal, error) {
	return c.marginQuote(ctx, token, "liquidationPrice", underlyingPrice)
}

func (c *Client) marginQuote(ctx context.Context, token common.Address, method string, underlyingPrice decimal.Decimal) (decimal.Decimal, error) {
	raw, err := c.callUint(ctx, positionTokenABI, token, method)
	if err != nil {
		return decimal.Zero, err
	}
	loan, err := c.callAddress(ctx, positionTokenABI, token, "loanTokenAddress")
	if err != nil {
		return decimal.Zero, err
	}
	price := scaled.FromFixed(raw)
	if loan == c.dai {
		return price, nil
	}
	return price.Mul(underlyingPrice), nil
}

// GetTokenPrice quotes one whole token in DAI via the Kyber expected
// rate. DAI prices at exactly 1; a reverted or failed quote prices at 0
// rather than failing the caller.
func (c *Client) GetTokenPrice(ctx context.Context, token common.Address) (decimal.Decimal, error) {
	if token == c.dai {
		return decimal.NewFromInt(1), nil
	}
	decimals, err := c.tokenDecimals(ctx, token)
	if err != nil {
		return decimal.Zero, nil
	}
	srcQty := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	out, err := c.call(ctx, kyberABI, c.kyber, "getExpectedRate", token, c.dai, srcQty)
	if err != nil {
		return decimal.Zero, nil
	}
	rate, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, nil
	}
	return scaled.FromFixed(rate), nil
}

func (c *Client) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	if token == c.eth {
		return 18, nil
	}
	out, err := c.call(ctx, erc20ABI, token, "decimals")
	if err != nil {
		return 0, err
	}
	v, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("chain: decimals returned %T, want uint8", out[0])
	}
	return v, nil
}
