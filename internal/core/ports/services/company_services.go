package services

import (
	"context"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
)

// CompanyReaderSvc defines read operations for company data
type CompanyReaderSvc interface {
	// GetCompanyByID retrieves a specific company.
	GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)
}

// CompanyWriterSvc defines write operations for company data
type CompanyWriterSvc interface {
	// SetDefaultRule designates the approval rule applied to new expenses.
	// Admin only; the rule must belong to the same company. A nil ruleID
	// clears the designation.
	SetDefaultRule(ctx context.Context, companyID string, ruleID *string, requestingUserID string) (*domain.Company, error)
}

// CompanySvcFacade combines all company-related service interfaces
type CompanySvcFacade interface {
	CompanyReaderSvc
	CompanyWriterSvc
}
