package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the public CoinGecko v3 API.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	coinID        = "the-open-network"
	vsCurrency    = "usd"
	clientTimeout = 10 * time.Second
)

// CoinGeckoClient fetches TON/USD prices from the CoinGecko API.
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
}

func NewCoinGeckoClient(baseURL string) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CoinGeckoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: clientTimeout},
	}
}

// Spot returns the current TON/USD price.
func (c *CoinGeckoClient) Spot(ctx context.Context) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", c.baseURL, coinID, vsCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch spot price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("spot price: unexpected status %d", resp.StatusCode)
	}

	var payload map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode spot price: %w", err)
	}

	price, ok := payload[coinID][vsCurrency]
	if !ok || price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("spot price missing from response")
	}
	return price, nil
}

// Historical returns the TON/USD price on the given calendar date.
func (c *CoinGeckoClient) Historical(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	// CoinGecko's history endpoint wants dd-mm-yyyy.
	url := fmt.Sprintf("%s/coins/%s/history?date=%s", c.baseURL, coinID, date.UTC().Format("02-01-2006"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch historical price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("historical price: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		MarketData struct {
			CurrentPrice map[string]decimal.Decimal `json:"current_price"`
		} `json:"market_data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode historical price: %w", err)
	}

	price, ok := payload.MarketData.CurrentPrice[vsCurrency]
	if !ok || price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("historical price missing from response")
	}
	return price, nil
}
