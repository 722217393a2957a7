package tokens

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryYAML = `
tokens:
  - name: Ethereum
    symbol: ETH
    address: "0x00000000000000000000000000000000000000a1"
    decimals: 18
  - name: OmiseGO
    symbol: OMG
    address: "0x00000000000000000000000000000000000000a2"
    decimals: 18
margin:
  - symbol: ETH
    tokens:
      - address: "0x00000000000000000000000000000000000000b1"
        leverage: "2"
        type: short
      - address: "0x00000000000000000000000000000000000000b2"
        leverage: "4"
        type: long
compound:
  - symbol: ETH
    address: "0x00000000000000000000000000000000000000c1"
stablecoins:
  - DAI
  - TUSD
`

func loadTestRegistry(t *testing.T, yaml string) (*Registry, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return LoadRegistry(path)
}

func TestLoadRegistry(t *testing.T) {
	registry, err := loadTestRegistry(t, registryYAML)
	require.NoError(t, err)

	assert.Len(t, registry.BaseTokens(), 2)
	assert.True(t, registry.IsStablecoin("DAI"))
	assert.False(t, registry.IsStablecoin("ETH"))

	assert.True(t, registry.IsMarginToken("ETH"))
	assert.False(t, registry.IsMarginToken("OMG"))
	listings := registry.MarginTokens("ETH")
	require.Len(t, listings, 2)
	assert.Equal(t, OrderShort, listings[0].Type)
	assert.True(t, listings[1].Leverage.Equal(decimal.NewFromInt(4)))

	pAddr := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	assert.True(t, registry.IsMarginTokenAddress(pAddr))
	underlying, err := registry.MarginUnderlying(pAddr)
	require.NoError(t, err)
	assert.Equal(t, "ETH", underlying)

	cAddr := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	symbol, err := registry.CompoundSymbol(cAddr)
	require.NoError(t, err)
	assert.Equal(t, "ETH", symbol)
	resolved, err := registry.CompoundAddress("ETH")
	require.NoError(t, err)
	assert.Equal(t, cAddr, resolved)
}

func TestLoadRegistryRejectsBadAddress(t *testing.T) {
	_, err := loadTestRegistry(t, `
tokens:
  - name: Broken
    symbol: BRK
    address: "zzz"
    decimals: 18
`)
	assert.Error(t, err)
}

func TestLoadRegistryRejectsBadOrderType(t *testing.T) {
	_, err := loadTestRegistry(t, `
margin:
  - symbol: ETH
    tokens:
      - address: "0x00000000000000000000000000000000000000b1"
        leverage: "2"
        type: sideways
`)
	assert.Error(t, err)
}

func TestRegistryCatalogSeed(t *testing.T) {
	registry, err := loadTestRegistry(t, registryYAML)
	require.NoError(t, err)

	catalog, err := registry.NewCatalog()
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())
	info, err := catalog.BySymbol("ETH")
	require.NoError(t, err)
	assert.True(t, info.Price.IsZero(), "seed catalog carries no prices yet")
}
