package tokens

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// OrderType distinguishes long from short leveraged positions.
type OrderType string

const (
	OrderLong  OrderType = "long"
	OrderShort OrderType = "short"
)

// MarginToken describes one pToken tracking an underlying asset with a
// fixed leverage and direction.
type MarginToken struct {
	Address  common.Address
	Leverage decimal.Decimal
	Type     OrderType
}

// Registry holds the static token lists: margin (pToken) listings per
// underlying symbol, the compound cToken symbol/address map, the
// stablecoin exclusion list and the base token metadata used to seed
// the catalog. Loaded once from YAML config and read-only afterwards.
type Registry struct {
	base []TokenInfo

	marginBySymbol  map[string][]MarginToken
	marginByAddress map[common.Address]marginEntry

	compoundBySymbol  map[string]common.Address
	compoundByAddress map[common.Address]string

	stablecoins map[string]struct{}
}

type marginEntry struct {
	underlying string
	token      MarginToken
}

type registryFile struct {
	Tokens []struct {
		Name     string `yaml:"name"`
		Symbol   string `yaml:"symbol"`
		Address  string `yaml:"address"`
		Decimals int32  `yaml:"decimals"`
	} `yaml:"tokens"`
	Margin []struct {
		Symbol string `yaml:"symbol"`
		Tokens []struct {
			Address  string `yaml:"address"`
			Leverage string `yaml:"leverage"`
			Type     string `yaml:"type"`
		} `yaml:"tokens"`
	} `yaml:"margin"`
	Compound []struct {
		Symbol  string `yaml:"symbol"`
		Address string `yaml:"address"`
	} `yaml:"compound"`
	Stablecoins []string `yaml:"stablecoins"`
}

// LoadRegistry reads the token registry from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tokens: read registry %s: %w", path, err)
	}
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("tokens: parse registry %s: %w", path, err)
	}
	return buildRegistry(file)
}

func buildRegistry(file registryFile) (*Registry, error) {
	r := &Registry{
		marginBySymbol:    make(map[string][]MarginToken),
		marginByAddress:   make(map[common.Address]marginEntry),
		compoundBySymbol:  make(map[string]common.Address),
		compoundByAddress: make(map[common.Address]string),
		stablecoins:       make(map[string]struct{}),
	}

	for _, t := range file.Tokens {
		addr, err := parseAddress(t.Address)
		if err != nil {
			return nil, fmt.Errorf("tokens: base token %s: %w", t.Symbol, err)
		}
		r.base = append(r.base, TokenInfo{
			Name:     t.Name,
			Symbol:   t.Symbol,
			Address:  addr,
			Decimals: t.Decimals,
		})
	}

	for _, listing := range file.Margin {
		for _, pt := range listing.Tokens {
			addr, err := parseAddress(pt.Address)
			if err != nil {
				return nil, fmt.Errorf("tokens: margin token for %s: %w", listing.Symbol, err)
			}
			leverage, err := decimal.NewFromString(pt.Leverage)
			if err != nil {
				return nil, fmt.Errorf("tokens: margin leverage for %s: %w", listing.Symbol, err)
			}
			orderType := OrderType(pt.Type)
			if orderType != OrderLong && orderType != OrderShort {
				return nil, fmt.Errorf("tokens: margin order type %q for %s must be long or short", pt.Type, listing.Symbol)
			}
			token := MarginToken{Address: addr, Leverage: leverage, Type: orderType}
			r.marginBySymbol[listing.Symbol] = append(r.marginBySymbol[listing.Symbol], token)
			r.marginByAddress[addr] = marginEntry{underlying: listing.Symbol, token: token}
		}
	}

	for _, ct := range file.Compound {
		addr, err := parseAddress(ct.Address)
		if err != nil {
			return nil, fmt.Errorf("tokens: compound token %s: %w", ct.Symbol, err)
		}
		r.compoundBySymbol[ct.Symbol] = addr
		r.compoundByAddress[addr] = ct.Symbol
	}

	for _, s := range file.Stablecoins {
		r.stablecoins[s] = struct{}{}
	}
	return r, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// BaseTokens returns the catalog seed entries from the registry file.
func (r *Registry) BaseTokens() []TokenInfo {
	out := make([]TokenInfo, len(r.base))
	copy(out, r.base)
	return out
}

// NewCatalog builds a fresh price-less catalog from the base token list.
func (r *Registry) NewCatalog() (*Catalog, error) {
	return NewCatalog(r.BaseTokens())
}

// IsStablecoin reports whether managers are barred from investing in the
// symbol.
func (r *Registry) IsStablecoin(symbol string) bool {
	_, ok := r.stablecoins[symbol]
	return ok
}

// IsMarginToken reports whether the symbol has margin listings.
func (r *Registry) IsMarginToken(symbol string) bool {
	return len(r.marginBySymbol[symbol]) > 0
}

// IsMarginTokenAddress reports whether the address belongs to the margin
// token registry. This is the variant classification test used by the
// normalizer.
func (r *Registry) IsMarginTokenAddress(addr common.Address) bool {
	_, ok := r.marginByAddress[addr]
	return ok
}

// MarginTokens lists the pTokens available for an underlying symbol.
func (r *Registry) MarginTokens(symbol string) []MarginToken {
	return r.marginBySymbol[symbol]
}

// MarginUnderlying resolves a pToken address to its underlying symbol.
func (r *Registry) MarginUnderlying(addr common.Address) (string, error) {
	entry, ok := r.marginByAddress[addr]
	if !ok {
		return "", fmt.Errorf("%w: margin token %s", ErrUnknownToken, addr.Hex())
	}
	return entry.underlying, nil
}

// MarginTokenInfo resolves a pToken address to its listing details.
func (r *Registry) MarginTokenInfo(addr common.Address) (MarginToken, error) {
	entry, ok := r.marginByAddress[addr]
	if !ok {
		return MarginToken{}, fmt.Errorf("%w: margin token %s", ErrUnknownToken, addr.Hex())
	}
	return entry.token, nil
}

// IsCompoundToken reports whether the symbol has a cToken listing.
func (r *Registry) IsCompoundToken(symbol string) bool {
	_, ok := r.compoundBySymbol[symbol]
	return ok
}

// CompoundAddress resolves a symbol to its cToken address.
func (r *Registry) CompoundAddress(symbol string) (common.Address, error) {
	addr, ok := r.compoundBySymbol[symbol]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: compound token for %s", ErrUnknownToken, symbol)
	}
	return addr, nil
}

// CompoundSymbol resolves a cToken address back to its symbol.
func (r *Registry) CompoundSymbol(addr common.Address) (string, error) {
	symbol, ok := r.compoundByAddress[addr]
	if !ok {
		return "", fmt.Errorf("%w: compound token %s", ErrUnknownToken, addr.Hex())
	}
	return symbol, nil
}
