package dto

import (
	"time"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
)

// SetDefaultRuleRequest designates the rule used for new expense submissions.
// A null ruleID clears the designation.
type SetDefaultRuleRequest struct {
	RuleID *string `json:"ruleID"`
}

// CompanyResponse defines the structure for API responses containing company details.
type CompanyResponse struct {
	CompanyID     string    `json:"companyID"`
	Name          string    `json:"name"`
	CurrencyCode  string    `json:"currencyCode"`
	Country       string    `json:"country"`
	DefaultRuleID *string   `json:"defaultRuleID,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToCompanyResponse converts a domain.Company to CompanyResponse DTO
func ToCompanyResponse(company *domain.Company) CompanyResponse {
	return CompanyResponse{
		CompanyID:     company.CompanyID,
		Name:          company.Name,
		CurrencyCode:  company.CurrencyCode,
		Country:       company.Country,
		DefaultRuleID: company.DefaultRuleID,
		CreatedAt:     company.CreatedAt,
	}
}
