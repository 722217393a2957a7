package tokens

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInfos() []TokenInfo {
	return []TokenInfo{
		{
			Name:    "Ethereum",
			Symbol:  "ETH",
			Address: common.HexToAddress("0x00000000000000000000000000000000000000a1"),
			Price:   decimal.NewFromInt(200),
		},
		{
			Name:    "OmiseGO",
			Symbol:  "OMG",
			Address: common.HexToAddress("0x00000000000000000000000000000000000000a2"),
			Price:   decimal.NewFromInt(3),
		},
	}
}

func TestCatalogLookups(t *testing.T) {
	catalog, err := NewCatalog(testInfos())
	require.NoError(t, err)

	info, err := catalog.BySymbol("OMG")
	require.NoError(t, err)
	assert.Equal(t, "OmiseGO", info.Name)

	info, err = catalog.ByAddress(common.HexToAddress("0x00000000000000000000000000000000000000a1"))
	require.NoError(t, err)
	assert.Equal(t, "ETH", info.Symbol)

	price, err := catalog.PriceOf("ETH")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(200)))

	_, err = catalog.BySymbol("NOPE")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestCatalogRejectsDuplicates(t *testing.T) {
	infos := testInfos()
	infos[1].Symbol = "ETH"
	_, err := NewCatalog(infos)
	assert.Error(t, err)
}

func TestWithPricesCopyOnRefresh(t *testing.T) {
	catalog, err := NewCatalog(testInfos())
	require.NoError(t, err)

	next := catalog.WithPrices(map[string]Pricing{
		"ETH": {Price: decimal.NewFromInt(250), DailyVolume: decimal.NewFromInt(1000)},
	})

	// The original snapshot is untouched.
	old, err := catalog.PriceOf("ETH")
	require.NoError(t, err)
	assert.True(t, old.Equal(decimal.NewFromInt(200)))

	fresh, err := next.PriceOf("ETH")
	require.NoError(t, err)
	assert.True(t, fresh.Equal(decimal.NewFromInt(250)))

	// Symbols missing from the update keep their previous figures.
	omg, err := next.PriceOf("OMG")
	require.NoError(t, err)
	assert.True(t, omg.Equal(decimal.NewFromInt(3)))
}
