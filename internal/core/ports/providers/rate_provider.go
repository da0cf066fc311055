package providers

import (
	"context"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
)

// RateProvider fetches exchange rates relative to a base currency from an
// external source. Network behavior, caching and retry policy belong to the
// implementation and its callers; the approval engine only ever consumes the
// returned table.
type RateProvider interface {
	FetchRates(ctx context.Context, baseCurrency string) (domain.RateTable, error)
}
