package approval

import (
	"fmt"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
)

// Outcome is the evaluator's verdict after a non-rejecting decision.
type Outcome int

const (
	// StillPending means more decisions are required.
	StillPending Outcome = iota
	// FinalizeApproved means the expense is finally approved now; remaining
	// pending steps stay pending in history but are never awaited.
	FinalizeApproved
)

// Evaluate decides whether an expense can finalize early after an approval.
// It is invoked after every non-rejecting decision; rejection short-circuits
// in the state machine before the evaluator is ever consulted.
//
// Dispatch is an exhaustive switch over the rule type snapshotted onto the
// expense, one resolution function per variant.
func Evaluate(expense *domain.Expense) (Outcome, error) {
	switch expense.RuleType {
	case domain.RuleSequential, "":
		// Sequential never finalizes early; the state machine finalizes on
		// chain exhaustion. An empty type means the chain was empty and the
		// expense auto-approved at submission.
		return StillPending, nil
	case domain.RulePercentage:
		return evaluatePercentage(expense), nil
	case domain.RuleSpecific:
		return evaluateSpecific(expense), nil
	case domain.RuleHybrid:
		if evaluateSpecific(expense) == FinalizeApproved {
			return FinalizeApproved, nil
		}
		return evaluatePercentage(expense), nil
	default:
		return StillPending, fmt.Errorf("unknown rule type %q", expense.RuleType)
	}
}

// evaluatePercentage finalizes once approvedCount/totalCount*100 meets the
// threshold. The comparison is kept in integers: approved*100 >= threshold*total
// avoids any rounding question around the boundary.
func evaluatePercentage(expense *domain.Expense) Outcome {
	if expense.PercentageThreshold == nil {
		return StillPending
	}
	total := len(expense.ApprovalHistory)
	if total == 0 {
		return StillPending
	}
	approved := 0
	for _, step := range expense.ApprovalHistory {
		if step.Status == domain.StepApproved {
			approved++
		}
	}
	if approved*100 >= *expense.PercentageThreshold*total {
		return FinalizeApproved
	}
	return StillPending
}

// evaluateSpecific finalizes the instant the designated approver's step is
// approved, regardless of sequence position or other pending steps.
func evaluateSpecific(expense *domain.Expense) Outcome {
	if expense.SpecificApproverID == nil {
		return StillPending
	}
	for _, step := range expense.ApprovalHistory {
		if step.ApproverID == *expense.SpecificApproverID && step.Status == domain.StepApproved {
			return FinalizeApproved
		}
	}
	return StillPending
}
