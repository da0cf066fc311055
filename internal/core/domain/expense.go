package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus is the overall approval state of an expense.
// Approved and rejected are terminal: no transitions out.
type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
	ExpenseRejected ExpenseStatus = "rejected"
)

// IsTerminal reports whether no further decisions are permitted.
func (s ExpenseStatus) IsTerminal() bool {
	return s == ExpenseApproved || s == ExpenseRejected
}

// StepStatus is the state of a single approval step.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

// ApprovalDecision is an approver's verdict on their step.
type ApprovalDecision string

const (
	DecisionApprove ApprovalDecision = "approve"
	DecisionReject  ApprovalDecision = "reject"
)

// ApprovalStep is one entry in an expense's approval chain. The approver
// name is snapshotted at build time so history stays intact even if the user
// record is later deleted.
type ApprovalStep struct {
	ApproverID   string     `json:"approverID"`
	ApproverName string     `json:"approverName"`
	Status       StepStatus `json:"status"`
	Comment      string     `json:"comment,omitempty"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`
	Sequence     int        `json:"sequence"` // Position in the built chain, contiguous from 0
}

// Expense is a submitted claim together with its approval progress. The
// expense exclusively owns its ApprovalSteps: they are created as a snapshot
// of the rule at submission time and never shared. Expenses are mutated only
// through approval decisions and never deleted.
type Expense struct {
	ExpenseID    string          `json:"expenseID"` // Primary Key (UUID)
	CompanyID    string          `json:"companyID"`
	EmployeeID   string          `json:"employeeID"`
	EmployeeName string          `json:"employeeName"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
	// AmountCompanyCurrency is the amount normalized to the company's
	// reporting currency. Nil until computed; stays nil when no rate was
	// available at submission.
	AmountCompanyCurrency *decimal.Decimal `json:"amountCompanyCurrency,omitempty"`
	Category              string           `json:"category"`
	Description           string           `json:"description"`
	ExpenseDate           time.Time        `json:"expenseDate"`
	Status                ExpenseStatus    `json:"status"`
	// RuleType records the resolution behavior snapshotted from the rule the
	// chain was built from. Empty when the chain was empty.
	RuleType RuleType `json:"ruleType,omitempty"`
	// PercentageThreshold / SpecificApproverID are snapshotted alongside the
	// chain so rule edits cannot change how an in-flight expense resolves.
	PercentageThreshold *int    `json:"percentageThreshold,omitempty"`
	SpecificApproverID  *string `json:"specificApproverID,omitempty"`
	// CurrentApproverID is the approver whose decision currently blocks
	// progress. Nil once terminal. For non-sequential rules it tracks the
	// lowest pending sequence while several approvers are eligible at once.
	CurrentApproverID *string        `json:"currentApproverID,omitempty"`
	ApprovalHistory   []ApprovalStep `json:"approvalHistory"`
	ReceiptRef        *string        `json:"receiptRef,omitempty"`
	AuditFields
}
