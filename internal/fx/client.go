package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Client fetches live rates from a frankfurter-compatible endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient constructs Client against the given endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type latestResponse struct {
	Rates map[string]json.Number `json:"rates"`
}

// FetchRate returns the current base→quote rate.
func (c *Client) FetchRate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	u := fmt.Sprintf("%s/latest?from=%s&to=%s", c.endpoint, url.QueryEscape(base), url.QueryEscape(quote))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fx: fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fx: rate endpoint returned %d", resp.StatusCode)
	}

	var body latestResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("fx: decode rate response: %w", err)
	}
	raw, ok := body.Rates[quote]
	if !ok {
		return decimal.Zero, fmt.Errorf("fx: response missing rate for %s", quote)
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("fx: parse rate %q: %w", raw.String(), err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("fx: non-positive rate %s", rate)
	}
	return rate, nil
}
