// Package oracle fetches token market data from the Kyber HTTP API and
// applies it to the token catalog. Prices are expressed in DAI by
// crossing every pair's ETH mid-price through the DAI/ETH mid-price.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"betoken-api/pkg/tokens"
)

const (
	defaultBaseURL          = "https://api.kyber.network"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 3
	defaultRetryBackoffBase = 150 * time.Millisecond

	ethSymbol = "ETH"
	daiSymbol = "DAI"
)

// Provider exposes the market data operations the valuation loop needs.
type Provider interface {
	// FetchMarketSnapshot returns the current bid/ask/volume per symbol.
	FetchMarketSnapshot(ctx context.Context) (MarketSnapshot, error)
	// RefreshPrices returns a new catalog carrying fresh DAI prices.
	RefreshPrices(ctx context.Context, catalog *tokens.Catalog) (*tokens.Catalog, error)
}

// MarketEntry is the normalized quote for one symbol.
type MarketEntry struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Volume decimal.Decimal // 24h USD volume
}

// MarketSnapshot maps symbol to its current quote.
type MarketSnapshot map[string]MarketEntry

// Client talks to the Kyber public market API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *log.Logger
}

var _ Provider = (*Client)(nil)

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// WithLogger injects a custom logger (defaults to log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient constructs a Kyber market API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if client.logger == nil {
		client.logger = log.Default()
	}
	return client
}

func (c *Client) doGet(ctx context.Context, path string, result interface{}) error {
	url := c.baseURL + path
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("oracle: build request: %w", err)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("oracle: read response: %w", readErr)
			} else if resp.StatusCode < http.StatusOK || resp.StatusCode >= 300 {
				lastErr = fmt.Errorf("oracle: http status %d: %s", resp.StatusCode, string(body))
			} else {
				if err := json.Unmarshal(body, result); err != nil {
					return fmt.Errorf("oracle: decode response: %w", err)
				}
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("oracle: request %s failed", path)
}

type marketResponse struct {
	Error bool `json:"error"`
	Data  []struct {
		BaseSymbol   string  `json:"base_symbol"`
		CurrentBid   float64 `json:"current_bid"`
		CurrentAsk   float64 `json:"current_ask"`
		USD24hVolume float64 `json:"usd_24h_volume"`
	} `json:"data"`
}

type change24hEntry struct {
	ChangeUSD24h float64 `json:"change_usd_24h"`
}

// FetchMarketSnapshot retrieves the market listing and normalizes it
// into a per-symbol snapshot.
func (c *Client) FetchMarketSnapshot(ctx context.Context) (MarketSnapshot, error) {
	var resp marketResponse
	if err := c.doGet(ctx, "/market", &resp); err != nil {
		return nil, err
	}
	if resp.Error {
		return nil, fmt.Errorf("oracle: market endpoint reported an error")
	}
	snapshot := make(MarketSnapshot, len(resp.Data))
	for _, row := range resp.Data {
		snapshot[row.BaseSymbol] = MarketEntry{
			Symbol: row.BaseSymbol,
			Bid:    decimal.NewFromFloat(row.CurrentBid),
			Ask:    decimal.NewFromFloat(row.CurrentAsk),
			Volume: decimal.NewFromFloat(row.USD24hVolume),
		}
	}
	return snapshot, nil
}

// Mid returns the bid/ask midpoint in ETH terms. A zero bid or ask is
// substituted with its counterpart so one-sided books still price.
func (e MarketEntry) Mid() decimal.Decimal {
	bid, ask := e.Bid, e.Ask
	if bid.IsZero() {
		bid = ask
	} else if ask.IsZero() {
		ask = bid
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2))
}

// RefreshPrices prices every catalog token in DAI from a fresh market
// snapshot plus the 24h change listing, returning a new catalog. The
// input catalog is never mutated; symbols absent from the feed keep
// their previous price.
func (c *Client) RefreshPrices(ctx context.Context, catalog *tokens.Catalog) (*tokens.Catalog, error) {
	snapshot, err := c.FetchMarketSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	dai, ok := snapshot[daiSymbol]
	if !ok || dai.Mid().IsZero() {
		return nil, fmt.Errorf("oracle: %s quote missing from market snapshot", daiSymbol)
	}
	daiMid := dai.Mid()

	var changes map[string]change24hEntry
	if err := c.doGet(ctx, "/change24h", &changes); err != nil {
		return nil, err
	}

	totalVolume := decimal.Zero
	for _, entry := range snapshot {
		totalVolume = totalVolume.Add(entry.Volume)
	}

	updates := make(map[string]tokens.Pricing, catalog.Len())
	for _, info := range catalog.Tokens() {
		var pricing tokens.Pricing
		if info.Symbol == ethSymbol {
			// Quotes are ETH-based, so ether itself prices off DAI alone.
			pricing.Price = decimal.NewFromInt(1).Div(daiMid)
			pricing.DailyVolume = totalVolume
		} else {
			entry, ok := snapshot[info.Symbol]
			if !ok {
				c.logger.Printf("oracle: no market quote for %s, keeping previous price", info.Symbol)
				continue
			}
			pricing.Price = entry.Mid().Div(daiMid)
			pricing.DailyVolume = entry.Volume
		}
		if change, ok := changes["ETH_"+info.Symbol]; ok {
			pricing.PriceChange = decimal.NewFromFloat(change.ChangeUSD24h)
		}
		updates[info.Symbol] = pricing
	}
	return catalog.WithPrices(updates), nil
}
