package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
)

// OpenERAPIProvider fetches USD-base rates from an open exchange-rate API
// (default https://open.er-api.com/v6/latest/USD). The base URL is
// configurable so tests can point it at a local server.
type OpenERAPIProvider struct {
	baseURL string
	client  *http.Client
}

func NewOpenERAPIProvider(baseURL string) *OpenERAPIProvider {
	return &OpenERAPIProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *OpenERAPIProvider) Name() string {
	return "OpenERAPI"
}

func (p *OpenERAPIProvider) QuoteUSD(ctx context.Context, currency domain.Currency) (*domain.LiveQuote, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	var payload struct {
		Result string             `json:"result"`
		Rates  map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode rates payload: %w", err)
	}
	if payload.Result != "" && payload.Result != "success" {
		return nil, fmt.Errorf("rate provider result %q", payload.Result)
	}

	rate, ok := payload.Rates[string(currency)]
	if !ok || rate <= 0 {
		return nil, fmt.Errorf("no usable rate for %s", currency)
	}

	return &domain.LiveQuote{
		Currency:  currency,
		Rate:      decimal.NewFromFloat(rate),
		Source:    p.Name(),
		FetchedAt: time.Now().UTC(),
	}, nil
}
