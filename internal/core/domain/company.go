package domain

// Company represents a registered company. Expenses are reported in the
// company's currency, and the company designates which approval rule governs
// newly submitted expenses.
type Company struct {
	CompanyID    string `json:"companyID"` // Primary Key (UUID)
	Name         string `json:"name"`
	CurrencyCode string `json:"currencyCode"` // Reporting currency, e.g. "USD"
	Country      string `json:"country"`
	// DefaultRuleID points at the approval rule applied to new expenses.
	// Nil means no rule is designated: submissions build an empty chain and
	// auto-approve.
	DefaultRuleID *string `json:"defaultRuleID,omitempty"`
	AuditFields
}
