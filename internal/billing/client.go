// Package billing provides a client for fetching billed spend actuals from a
// provider billing API, for reconciliation against ledger estimates.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://billing.costlens.dev/api"
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates the billing API key is expired or invalid.
	ErrUnauthorized = errors.New("billing: unauthorized (API key expired or invalid)")
	// ErrRateLimited indicates the billing API rate limit was hit.
	ErrRateLimited = errors.New("billing: rate limited")
)

// Client fetches billed spend from the provider billing API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given API key. baseURL may be empty to
// use the default endpoint. Returns nil if the key is empty.
func NewClient(apiKey, baseURL string) *Client {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
	}
}

// FetchActuals fetches the spend report for the first billing account over
// [start, end]. Partial data is returned even if the spend request fails.
func (c *Client) FetchActuals(ctx context.Context, start, end time.Time) *ActualsData {
	result := &ActualsData{FetchedAt: time.Now()}

	accounts, err := c.FetchAccounts(ctx)
	if err != nil {
		result.Error = err
		return result
	}
	if len(accounts) == 0 {
		result.Error = errors.New("billing: no accounts found")
		return result
	}

	result.Account = accounts[0]
	spend, err := c.FetchSpend(ctx, accounts[0].ID, start, end)
	if err != nil {
		result.Error = err
		return result
	}
	result.Spend = spend
	return result
}

// FetchAccounts returns the billing accounts visible to this API key.
func (c *Client) FetchAccounts(ctx context.Context) ([]Account, error) {
	body, err := c.get(ctx, "/v1/accounts")
	if err != nil {
		return nil, err
	}

	var accounts []Account
	if err := json.Unmarshal(body, &accounts); err != nil {
		return nil, fmt.Errorf("billing: parsing accounts: %w", err)
	}
	return accounts, nil
}

// FetchSpend returns the parsed spend report for one account over [start, end].
func (c *Client) FetchSpend(ctx context.Context, accountID string, start, end time.Time) (*ParsedSpend, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))

	body, err := c.get(ctx, fmt.Sprintf("/v1/accounts/%s/spend?%s", url.PathEscape(accountID), q.Encode()))
	if err != nil {
		return nil, err
	}

	var raw SpendResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("billing: parsing spend: %w", err)
	}
	return parseSpend(raw), nil
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("billing: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/Jrmromao/costlens/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("billing: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("billing: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("billing: reading response: %w", err)
	}
	return body, nil
}

// parseSpend converts a raw spend response into normalized dollars.
func parseSpend(raw SpendResponse) *ParsedSpend {
	ps := &ParsedSpend{ByModel: make(map[string]float64)}

	if v, ok := parseAmount(raw.TotalUSD); ok {
		ps.TotalUSD = v
	}
	for m, amt := range raw.ByModel {
		if v, ok := parseAmount(amt); ok {
			ps.ByModel[m] = v
		}
	}
	if raw.PeriodStart != nil {
		if t, err := time.Parse(time.RFC3339, *raw.PeriodStart); err == nil {
			ps.PeriodStart = t
		}
	}
	if raw.PeriodEnd != nil {
		if t, err := time.Parse(time.RFC3339, *raw.PeriodEnd); err == nil {
			ps.PeriodEnd = t
		}
	}
	return ps
}

// parseAmount defensively parses a polymorphic dollar amount.
// Handles numbers (12.34), and strings ("12.34", "$12.34", "1,234.56").
func parseAmount(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	// json.Unmarshal leaves a float64 untouched on null, reporting success.
	// A missing amount is not $0.
	if string(raw) == "null" {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, true
		}
	}

	return 0, false
}
