package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateTable holds exchange rates relative to a base currency, as fetched from
// an external rate provider. The engine consumes an already-fetched table;
// fetching, caching and staleness are the provider's concern.
type RateTable struct {
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetchedAt"`
}

// Rate returns the rate for a currency code and whether it is present.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t.Rates[code]
	return r, ok
}
