package repositories

import (
	"context"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
)

// ApprovalRuleReader defines read operations for approval rule data
type ApprovalRuleReader interface {
	// FindRuleByID retrieves a rule with its approver configs.
	FindRuleByID(ctx context.Context, ruleID string) (*domain.ApprovalRule, error)

	// FindRulesByCompany retrieves all rules of a company.
	FindRulesByCompany(ctx context.Context, companyID string) ([]domain.ApprovalRule, error)
}

// ApprovalRuleWriter defines write operations for approval rule data
type ApprovalRuleWriter interface {
	// SaveRule persists a new rule and its approver configs.
	SaveRule(ctx context.Context, rule domain.ApprovalRule) error

	// UpdateRule replaces a rule and its approver configs. Chains already
	// built from the rule are snapshots and remain untouched.
	UpdateRule(ctx context.Context, rule domain.ApprovalRule) error

	// DeleteRule removes a rule. Expenses whose chains were built from it are
	// unaffected.
	DeleteRule(ctx context.Context, ruleID string) error
}

// ApprovalRuleRepositoryFacade combines all rule-related repository interfaces
type ApprovalRuleRepositoryFacade interface {
	ApprovalRuleReader
	ApprovalRuleWriter
}
