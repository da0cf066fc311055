package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/core/ports/providers"
	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/middleware"
	"github.com/shopspring/decimal"
)

// exchangeRateService normalizes claim amounts into the company currency
// using a rate table fetched from a pluggable provider. The table is cached
// with a TTL so submission does not pay a network round trip every time.
type exchangeRateService struct {
	provider providers.RateProvider
	ttl      time.Duration

	mu     sync.RWMutex
	cached map[string]domain.RateTable // keyed by base currency
}

// NewExchangeRateService creates a new ExchangeRateService.
func NewExchangeRateService(provider providers.RateProvider, ttl time.Duration) portssvc.ExchangeRateSvcFacade {
	return &exchangeRateService{
		provider: provider,
		ttl:      ttl,
		cached:   make(map[string]domain.RateTable),
	}
}

var _ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)

// RateTable returns the cached table for the base currency, refreshing it
// from the provider when stale or absent.
func (s *exchangeRateService) RateTable(ctx context.Context, baseCurrency string) (domain.RateTable, error) {
	baseCurrency = strings.ToUpper(baseCurrency)
	if len(baseCurrency) != 3 {
		return domain.RateTable{}, fmt.Errorf("%w: base currency code must be 3 letters", apperrors.ErrValidation)
	}

	s.mu.RLock()
	table, ok := s.cached[baseCurrency]
	s.mu.RUnlock()
	if ok && time.Since(table.FetchedAt) < s.ttl {
		return table, nil
	}

	fetched, err := s.provider.FetchRates(ctx, baseCurrency)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Rate provider fetch failed", "base", baseCurrency, "error", err.Error())
		// A stale table beats no table; submission falls back to leaving the
		// normalized amount unset only when nothing was ever fetched.
		if ok {
			return table, nil
		}
		return domain.RateTable{}, fmt.Errorf("failed to fetch rate table: %w", err)
	}

	s.mu.Lock()
	s.cached[baseCurrency] = fetched
	s.mu.Unlock()
	return fetched, nil
}

// NormalizeAmount converts amount from one currency to another.
// Same-currency conversion returns the amount unchanged, with no rounding
// drift. Otherwise the table's rates are relative to a base currency and the
// conversion is amount / rate[from] * rate[to]. Never assumes parity when a
// rate is missing.
func (s *exchangeRateService) NormalizeAmount(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, error) {
	fromCurrency = strings.ToUpper(fromCurrency)
	toCurrency = strings.ToUpper(toCurrency)
	if len(fromCurrency) != 3 || len(toCurrency) != 3 {
		return decimal.Zero, fmt.Errorf("%w: currency codes must be 3 letters", apperrors.ErrValidation)
	}

	if fromCurrency == toCurrency {
		return amount, nil
	}

	table, err := s.RateTable(ctx, toCurrency)
	if err != nil {
		return decimal.Zero, err
	}

	return ConvertAmount(amount, fromCurrency, toCurrency, table)
}

// ConvertAmount applies the rate-table conversion without any caching or
// fetching. Exposed for callers that already hold a table.
func ConvertAmount(amount decimal.Decimal, fromCurrency, toCurrency string, table domain.RateTable) (decimal.Decimal, error) {
	if fromCurrency == toCurrency {
		return amount, nil
	}
	fromRate, ok := table.Rate(fromCurrency)
	if !ok || fromRate.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", apperrors.ErrRateUnavailable, fromCurrency)
	}
	toRate, ok := table.Rate(toCurrency)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", apperrors.ErrRateUnavailable, toCurrency)
	}
	return amount.Div(fromRate).Mul(toRate), nil
}
