package domain

// RuleType tags the resolution behavior of an approval rule. The evaluator
// dispatches on this tag with one resolution function per variant; adding a
// variant must extend that switch.
type RuleType string

const (
	// RuleSequential requires every approver in chain order.
	RuleSequential RuleType = "sequential"
	// RulePercentage finalizes once the approved share reaches the threshold.
	RulePercentage RuleType = "percentage"
	// RuleSpecific finalizes the instant the designated approver approves.
	RuleSpecific RuleType = "specific"
	// RuleHybrid finalizes when either the percentage or the specific
	// condition is met, whichever happens first.
	RuleHybrid RuleType = "hybrid"
)

// ApproverConfig is one configured approver slot within a rule. Sequence
// values are contiguous from 0 and unique within the rule.
type ApproverConfig struct {
	UserID   string `json:"userID"`
	UserName string `json:"userName"`
	Sequence int    `json:"sequence"`
}

// ApprovalRule describes how an approval chain is constructed for an expense.
// Rules are read by the chain builder but never mutated by it; chains built
// from a rule are independent snapshots, so later edits or deletion of the
// rule cannot touch in-flight expenses.
type ApprovalRule struct {
	RuleID    string   `json:"ruleID"` // Primary Key (UUID)
	CompanyID string   `json:"companyID"`
	Name      string   `json:"name"`
	Type      RuleType `json:"type"`
	// IsManagerApprover prepends the submitter's manager as step 0.
	IsManagerApprover bool             `json:"isManagerApprover"`
	Approvers         []ApproverConfig `json:"approvers"`
	// PercentageThreshold (1-100) is required for percentage and hybrid rules.
	PercentageThreshold *int `json:"percentageThreshold,omitempty"`
	// SpecificApproverID is required for specific and hybrid rules.
	SpecificApproverID *string `json:"specificApproverID,omitempty"`
	AuditFields
}
