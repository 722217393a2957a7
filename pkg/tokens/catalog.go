// Package tokens maintains the token catalog and the static registries
// (margin pTokens, compound cTokens, stablecoins) used to classify
// positions and resolve symbols, addresses and prices.
package tokens

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ErrUnknownToken indicates a symbol or address absent from the catalog
// or registry. Normalization treats it as fatal for the whole pass.
var ErrUnknownToken = errors.New("tokens: unknown token")

// TokenInfo describes one tradeable token within a catalog snapshot.
type TokenInfo struct {
	Name        string
	Symbol      string
	Address     common.Address
	Decimals    int32
	Price       decimal.Decimal
	DailyVolume decimal.Decimal
	PriceChange decimal.Decimal // 24h USD change
}

// Catalog is an immutable snapshot of token metadata indexed by symbol
// and by checksummed address. It is replaced wholesale on refresh and
// never mutated in place, so concurrent readers are safe by construction.
type Catalog struct {
	ordered   []TokenInfo
	bySymbol  map[string]int
	byAddress map[common.Address]int
}

// NewCatalog builds an indexed catalog. Symbols and addresses must be
// unique within one snapshot.
func NewCatalog(infos []TokenInfo) (*Catalog, error) {
	c := &Catalog{
		ordered:   make([]TokenInfo, len(infos)),
		bySymbol:  make(map[string]int, len(infos)),
		byAddress: make(map[common.Address]int, len(infos)),
	}
	copy(c.ordered, infos)
	for i, info := range c.ordered {
		if _, dup := c.bySymbol[info.Symbol]; dup {
			return nil, fmt.Errorf("tokens: duplicate symbol %s in catalog", info.Symbol)
		}
		if _, dup := c.byAddress[info.Address]; dup {
			return nil, fmt.Errorf("tokens: duplicate address %s in catalog", info.Address.Hex())
		}
		c.bySymbol[info.Symbol] = i
		c.byAddress[info.Address] = i
	}
	return c, nil
}

// BySymbol resolves a token by its symbol.
func (c *Catalog) BySymbol(symbol string) (TokenInfo, error) {
	i, ok := c.bySymbol[symbol]
	if !ok {
		return TokenInfo{}, fmt.Errorf("%w: symbol %s", ErrUnknownToken, symbol)
	}
	return c.ordered[i], nil
}

// ByAddress resolves a token by its checksummed address.
func (c *Catalog) ByAddress(addr common.Address) (TokenInfo, error) {
	i, ok := c.byAddress[addr]
	if !ok {
		return TokenInfo{}, fmt.Errorf("%w: address %s", ErrUnknownToken, addr.Hex())
	}
	return c.ordered[i], nil
}

// PriceOf returns the current price for a symbol.
func (c *Catalog) PriceOf(symbol string) (decimal.Decimal, error) {
	info, err := c.BySymbol(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return info.Price, nil
}

// Tokens returns a copy of the catalog entries in insertion order.
func (c *Catalog) Tokens() []TokenInfo {
	out := make([]TokenInfo, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// Pricing carries the refreshed market figures for one symbol.
type Pricing struct {
	Price       decimal.Decimal
	DailyVolume decimal.Decimal
	PriceChange decimal.Decimal
}

// WithPrices returns a new catalog with prices applied. Symbols missing
// from the update keep their previous figures; the receiver is untouched
// (copy-on-refresh).
func (c *Catalog) WithPrices(updates map[string]Pricing) *Catalog {
	next := &Catalog{
		ordered:   make([]TokenInfo, len(c.ordered)),
		bySymbol:  c.bySymbol,
		byAddress: c.byAddress,
	}
	copy(next.ordered, c.ordered)
	for i := range next.ordered {
		if p, ok := updates[next.ordered[i].Symbol]; ok {
			next.ordered[i].Price = p.Price
			next.ordered[i].DailyVolume = p.DailyVolume
			next.ordered[i].PriceChange = p.PriceChange
		}
	}
	return next
}
