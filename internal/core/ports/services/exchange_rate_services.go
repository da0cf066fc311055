package services

import (
	"context"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ExchangeRateSvcFacade exposes currency normalization against a fetched
// rate table.
type ExchangeRateSvcFacade interface {
	// NormalizeAmount converts an amount from one currency into another using
	// the current rate table. Same-currency conversion is the exact identity.
	// A currency missing from the table yields apperrors.ErrRateUnavailable.
	NormalizeAmount(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, error)

	// RateTable returns the cached table, refreshing it from the provider
	// when stale. Provider failures surface as errors; callers decide whether
	// to proceed without normalization.
	RateTable(ctx context.Context, baseCurrency string) (domain.RateTable, error)
}
