package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the public Frankfurter API
	DefaultBaseURL = "https://api.frankfurter.dev/v1"
	cacheTTL       = 1 * time.Hour
)

// ExchangeRates represents the response from Frankfurter API
type ExchangeRates struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Client handles currency conversion using a Frankfurter compatible API
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      map[string]*cachedRates
	cacheMu    sync.RWMutex
	now        func() time.Time
}

type cachedRates struct {
	rates     *ExchangeRates
	expiresAt time.Time
}

// NewClient creates a new currency client. An empty baseURL selects the
// public Frankfurter API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: make(map[string]*cachedRates),
		now:   time.Now,
	}
}

// GetLatestRates fetches the latest exchange rates for a base currency
func (c *Client) GetLatestRates(ctx context.Context, baseCurrency string) (*ExchangeRates, error) {
	baseCurrency = strings.ToUpper(baseCurrency)
	cacheKey := fmt.Sprintf("latest_%s", baseCurrency)

	// Check cache
	c.cacheMu.RLock()
	if cached, ok := c.cache[cacheKey]; ok && c.now().Before(cached.expiresAt) {
		c.cacheMu.RUnlock()
		return cached.rates, nil
	}
	c.cacheMu.RUnlock()

	url := fmt.Sprintf("%s/latest?base=%s", c.baseURL, baseCurrency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var rates ExchangeRates
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = &cachedRates{
		rates:     &rates,
		expiresAt: c.now().Add(cacheTTL),
	}
	c.cacheMu.Unlock()

	return &rates, nil
}

// Rate returns the multiplier that converts fromCurrency into toCurrency
func (c *Client) Rate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	fromCurrency = strings.ToUpper(fromCurrency)
	toCurrency = strings.ToUpper(toCurrency)
	if fromCurrency == toCurrency {
		return 1, nil
	}

	rates, err := c.GetLatestRates(ctx, fromCurrency)
	if err != nil {
		return 0, fmt.Errorf("failed to get exchange rates: %w", err)
	}

	rate, ok := rates.Rates[toCurrency]
	if !ok {
		return 0, fmt.Errorf("exchange rate not found for %s to %s", fromCurrency, toCurrency)
	}
	return rate, nil
}

// Convert converts an amount from one currency to another
func (c *Client) Convert(ctx context.Context, amount float64, fromCurrency, toCurrency string) (float64, error) {
	rate, err := c.Rate(ctx, fromCurrency, toCurrency)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

// GetSupportedCurrencies returns the supported currency codes, sorted
func (c *Client) GetSupportedCurrencies(ctx context.Context) ([]string, error) {
	rates, err := c.GetLatestRates(ctx, "EUR")
	if err != nil {
		return nil, err
	}

	currencies := make([]string, 0, len(rates.Rates)+1)
	currencies = append(currencies, "EUR") // Add base currency
	for currency := range rates.Rates {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	return currencies, nil
}
