package dto

import (
	"time"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
)

// ApproverConfigRequest is one approver slot in a rule definition.
type ApproverConfigRequest struct {
	UserID   string `json:"userID" binding:"required"`
	Sequence int    `json:"sequence" binding:"min=0"`
}

// CreateApprovalRuleRequest defines the structure for creating a rule.
// Structural validation happens through binding tags; the invariant checks
// of the catalog (contiguous sequences, threshold bounds, specific approver
// membership) live in the service so every violation can be reported at once.
type CreateApprovalRuleRequest struct {
	Name                string                  `json:"name" binding:"required"`
	Type                domain.RuleType         `json:"type" binding:"required,oneof=sequential percentage specific hybrid"`
	IsManagerApprover   bool                    `json:"isManagerApprover"`
	Approvers           []ApproverConfigRequest `json:"approvers" binding:"required,dive"`
	PercentageThreshold *int                    `json:"percentageThreshold" binding:"omitempty,min=1,max=100"`
	SpecificApproverID  *string                 `json:"specificApproverID"`
}

// UpdateApprovalRuleRequest replaces a rule's definition wholesale. Chains
// already built from the rule are snapshots and stay as they were.
type UpdateApprovalRuleRequest struct {
	Name                string                  `json:"name" binding:"required"`
	Type                domain.RuleType         `json:"type" binding:"required,oneof=sequential percentage specific hybrid"`
	IsManagerApprover   bool                    `json:"isManagerApprover"`
	Approvers           []ApproverConfigRequest `json:"approvers" binding:"required,dive"`
	PercentageThreshold *int                    `json:"percentageThreshold" binding:"omitempty,min=1,max=100"`
	SpecificApproverID  *string                 `json:"specificApproverID"`
}

// ApproverConfigResponse mirrors a configured approver slot.
type ApproverConfigResponse struct {
	UserID   string `json:"userID"`
	UserName string `json:"userName"`
	Sequence int    `json:"sequence"`
}

// ApprovalRuleResponse defines the structure for API responses containing rule details.
type ApprovalRuleResponse struct {
	RuleID              string                   `json:"ruleID"`
	CompanyID           string                   `json:"companyID"`
	Name                string                   `json:"name"`
	Type                domain.RuleType          `json:"type"`
	IsManagerApprover   bool                     `json:"isManagerApprover"`
	Approvers           []ApproverConfigResponse `json:"approvers"`
	PercentageThreshold *int                     `json:"percentageThreshold,omitempty"`
	SpecificApproverID  *string                  `json:"specificApproverID,omitempty"`
	CreatedAt           time.Time                `json:"createdAt"`
}

// ToApprovalRuleResponse converts a domain.ApprovalRule to ApprovalRuleResponse DTO
func ToApprovalRuleResponse(rule *domain.ApprovalRule) ApprovalRuleResponse {
	approvers := make([]ApproverConfigResponse, len(rule.Approvers))
	for i, cfg := range rule.Approvers {
		approvers[i] = ApproverConfigResponse{
			UserID:   cfg.UserID,
			UserName: cfg.UserName,
			Sequence: cfg.Sequence,
		}
	}
	return ApprovalRuleResponse{
		RuleID:              rule.RuleID,
		CompanyID:           rule.CompanyID,
		Name:                rule.Name,
		Type:                rule.Type,
		IsManagerApprover:   rule.IsManagerApprover,
		Approvers:           approvers,
		PercentageThreshold: rule.PercentageThreshold,
		SpecificApproverID:  rule.SpecificApproverID,
		CreatedAt:           rule.CreatedAt,
	}
}

// ListApprovalRulesResponse wraps the list of rules.
type ListApprovalRulesResponse struct {
	Rules []ApprovalRuleResponse `json:"rules"`
}

// ToListApprovalRulesResponse converts a slice of domain.ApprovalRule to the list DTO
func ToListApprovalRulesResponse(rules []domain.ApprovalRule) ListApprovalRulesResponse {
	responses := make([]ApprovalRuleResponse, len(rules))
	for i, rule := range rules {
		responses[i] = ToApprovalRuleResponse(&rule)
	}
	return ListApprovalRulesResponse{Rules: responses}
}
