package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"betoken-api/pkg/tokens"
)

// ErrNoSnapshot indicates no cached price snapshot exists.
var ErrNoSnapshot = errors.New("cache: no price snapshot")

// PriceStore persists the latest token prices in Redis so a restarted
// daemon can seed its catalog before the first oracle refresh lands.
type PriceStore struct {
	rds *redis.Redis
	ttl TTLSet
}

// NewPriceStore wires a price snapshot store. A nil redis client yields
// a nil store, which every method tolerates.
func NewPriceStore(rds *redis.Redis, ttl TTLSet) *PriceStore {
	if rds == nil {
		return nil
	}
	return &PriceStore{rds: rds, ttl: ttl}
}

// Decimals travel as strings so the snapshot stays exact regardless of
// msgpack's float handling.
type pricePoint struct {
	Symbol      string `msgpack:"symbol"`
	Price       string `msgpack:"price"`
	DailyVolume string `msgpack:"daily_volume"`
	PriceChange string `msgpack:"price_change"`
}

// SaveCatalog caches the catalog's current prices.
func (s *PriceStore) SaveCatalog(ctx context.Context, catalog *tokens.Catalog) error {
	if s == nil {
		return nil
	}
	points := make([]pricePoint, 0, catalog.Len())
	for _, info := range catalog.Tokens() {
		points = append(points, pricePoint{
			Symbol:      info.Symbol,
			Price:       info.Price.String(),
			DailyVolume: info.DailyVolume.String(),
			PriceChange: info.PriceChange.String(),
		})
	}
	payload, err := msgpack.Marshal(points)
	if err != nil {
		return fmt.Errorf("cache: encode price snapshot: %w", err)
	}
	ttl := int(PriceCatalogTTL(s.ttl).Seconds())
	if err := s.rds.SetexCtx(ctx, PriceCatalogKey(), string(payload), ttl); err != nil {
		return fmt.Errorf("cache: store price snapshot: %w", err)
	}
	return nil
}

// LoadPrices returns the cached per-symbol prices, or ErrNoSnapshot
// when the cache is cold.
func (s *PriceStore) LoadPrices(ctx context.Context) (map[string]tokens.Pricing, error) {
	if s == nil {
		return nil, ErrNoSnapshot
	}
	payload, err := s.rds.GetCtx(ctx, PriceCatalogKey())
	if err != nil {
		return nil, fmt.Errorf("cache: read price snapshot: %w", err)
	}
	if payload == "" {
		return nil, ErrNoSnapshot
	}
	var points []pricePoint
	if err := msgpack.Unmarshal([]byte(payload), &points); err != nil {
		return nil, fmt.Errorf("cache: decode price snapshot: %w", err)
	}
	prices := make(map[string]tokens.Pricing, len(points))
	for _, p := range points {
		pricing, err := parsePricing(p)
		if err != nil {
			return nil, err
		}
		prices[p.Symbol] = pricing
	}
	return prices, nil
}

func parsePricing(p pricePoint) (tokens.Pricing, error) {
	var (
		pricing tokens.Pricing
		err     error
	)
	if pricing.Price, err = decimal.NewFromString(p.Price); err != nil {
		return tokens.Pricing{}, fmt.Errorf("cache: price of %s: %w", p.Symbol, err)
	}
	if pricing.DailyVolume, err = decimal.NewFromString(p.DailyVolume); err != nil {
		return tokens.Pricing{}, fmt.Errorf("cache: volume of %s: %w", p.Symbol, err)
	}
	if pricing.PriceChange, err = decimal.NewFromString(p.PriceChange); err != nil {
		return tokens.Pricing{}, fmt.Errorf("cache: change of %s: %w", p.Symbol, err)
	}
	return pricing, nil
}
