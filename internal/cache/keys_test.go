package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"betoken-api/internal/config"
)

func TestNewTTLSet(t *testing.T) {
	ttl := NewTTLSet(config.CacheTTL{Short: 5, Medium: 30, Long: 120})
	assert.Equal(t, 5*time.Second, ttl.Duration(TTLShort))
	assert.Equal(t, 30*time.Second, ttl.Duration(TTLMedium))
	assert.Equal(t, 2*time.Minute, ttl.Duration(TTLLong))

	// Zero falls back to the defaults, negative disables.
	ttl = NewTTLSet(config.CacheTTL{Short: 0, Medium: -1})
	assert.Equal(t, 10*time.Second, ttl.Short)
	assert.Equal(t, time.Duration(0), ttl.Medium)
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "betoken:prices:catalog", PriceCatalogKey())
	assert.Equal(t, "betoken:fund:state", FundStateKey())
	assert.Equal(t, "betoken:valuation:0xabc", ValuationKey("0xABC"))
}

func TestPricePointRoundTrip(t *testing.T) {
	points := []pricePoint{
		{Symbol: "ETH", Price: "204.5", DailyVolume: "1000000", PriceChange: "-1.25"},
	}
	payload, err := msgpack.Marshal(points)
	require.NoError(t, err)

	var decoded []pricePoint
	require.NoError(t, msgpack.Unmarshal(payload, &decoded))
	require.Len(t, decoded, 1)

	pricing, err := parsePricing(decoded[0])
	require.NoError(t, err)
	assert.Equal(t, "204.5", pricing.Price.String())
	assert.Equal(t, "-1.25", pricing.PriceChange.String())
}

func TestParsePricingRejectsGarbage(t *testing.T) {
	_, err := parsePricing(pricePoint{Symbol: "ETH", Price: "??", DailyVolume: "0", PriceChange: "0"})
	assert.Error(t, err)
}

func TestNilPriceStore(t *testing.T) {
	var store *PriceStore
	assert.NoError(t, store.SaveCatalog(nil, nil))
	_, err := store.LoadPrices(nil)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
