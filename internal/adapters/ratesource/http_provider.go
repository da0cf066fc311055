// Package ratesource fetches exchange rate tables from an external HTTP API
// in the exchangerate-api response shape: GET {base_url}/{CUR} returns a JSON
// object with "base" and a "rates" map.
package ratesource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/core/ports/providers"
	"github.com/shopspring/decimal"
)

type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a rate provider against the given API base URL.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ providers.RateProvider = (*HTTPProvider)(nil)

type ratesPayload struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FetchRates retrieves the rate table relative to the base currency.
func (p *HTTPProvider) FetchRates(ctx context.Context, baseCurrency string) (domain.RateTable, error) {
	url := fmt.Sprintf("%s/%s", p.baseURL, baseCurrency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.RateTable{}, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.RateTable{}, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RateTable{}, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var payload ratesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.RateTable{}, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return domain.RateTable{}, fmt.Errorf("rate API returned no rates for %s", baseCurrency)
	}

	return domain.RateTable{
		Base:      payload.Base,
		Rates:     payload.Rates,
		FetchedAt: time.Now(),
	}, nil
}
