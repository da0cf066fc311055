package services

import (
	"context"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/dto"
)

// ApprovalRuleReaderSvc defines read operations for the rule catalog
type ApprovalRuleReaderSvc interface {
	// GetRuleByID retrieves a rule scoped to the requesting user's company.
	GetRuleByID(ctx context.Context, ruleID string, requestingUserID string) (*domain.ApprovalRule, error)

	// ListRules retrieves all rules of the requesting user's company.
	ListRules(ctx context.Context, requestingUserID string) ([]domain.ApprovalRule, error)
}

// ApprovalRuleWriterSvc defines write operations for the rule catalog
type ApprovalRuleWriterSvc interface {
	// CreateRule validates and persists a new rule. Admin only. Validation
	// reports every violated invariant, not just the first.
	CreateRule(ctx context.Context, req dto.CreateApprovalRuleRequest, creatorUserID string) (*domain.ApprovalRule, error)

	// UpdateRule validates and replaces a rule's definition. Admin only.
	// Already-built chains are snapshots and are not affected.
	UpdateRule(ctx context.Context, ruleID string, req dto.UpdateApprovalRuleRequest, updaterUserID string) (*domain.ApprovalRule, error)

	// DeleteRule removes a rule from the catalog. Admin only. In-flight
	// expenses keep their snapshotted chains; the company's default-rule
	// designation is cleared when it pointed at the deleted rule.
	DeleteRule(ctx context.Context, ruleID string, deleterUserID string) error
}

// ApprovalRuleSvcFacade combines all rule-related service interfaces
type ApprovalRuleSvcFacade interface {
	ApprovalRuleReaderSvc
	ApprovalRuleWriterSvc
}
