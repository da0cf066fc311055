package approval_test

import (
	"testing"

	"github.com/expenseflow/expense_management_app/internal/core/approval"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func stepsWithStatuses(statuses ...domain.StepStatus) []domain.ApprovalStep {
	steps := make([]domain.ApprovalStep, len(statuses))
	for i, status := range statuses {
		steps[i] = domain.ApprovalStep{
			ApproverID: string(rune('a' + i)),
			Status:     status,
			Sequence:   i,
		}
	}
	return steps
}

func TestEvaluate_SequentialNeverFinalizesEarly(t *testing.T) {
	expense := &domain.Expense{
		RuleType:        domain.RuleSequential,
		ApprovalHistory: stepsWithStatuses(domain.StepApproved, domain.StepApproved, domain.StepPending),
	}

	outcome, err := approval.Evaluate(expense)
	require.NoError(t, err)
	assert.Equal(t, approval.StillPending, outcome)
}

func TestEvaluate_PercentageAtThresholdFinalizes(t *testing.T) {
	// 2 of 3 approved is 66.7%, meeting a 60% threshold.
	expense := &domain.Expense{
		RuleType:            domain.RulePercentage,
		PercentageThreshold: intPtr(60),
		ApprovalHistory:     stepsWithStatuses(domain.StepApproved, domain.StepApproved, domain.StepPending),
	}

	outcome, err := approval.Evaluate(expense)
	require.NoError(t, err)
	assert.Equal(t, approval.FinalizeApproved, outcome)
}

func TestEvaluate_PercentageBelowThresholdStaysPending(t *testing.T) {
	// 1 of 3 approved is 33.3%, below a 60% threshold.
	expense := &domain.Expense{
		RuleType:            domain.RulePercentage,
		PercentageThreshold: intPtr(60),
		ApprovalHistory:     stepsWithStatuses(domain.StepApproved, domain.StepPending, domain.StepPending),
	}

	outcome, err := approval.Evaluate(expense)
	require.NoError(t, err)
	assert.Equal(t, approval.StillPending, outcome)
}

func TestEvaluate_PercentageExactBoundaryCountsAsMet(t *testing.T) {
	// 1 of 2 approved is exactly 50% against a 50% threshold.
	expense := &domain.Expense{
		RuleType:            domain.RulePercentage,
		PercentageThreshold: intPtr(50),
		ApprovalHistory:     stepsWithStatuses(domain.StepApproved, domain.StepPending),
	}

	outcome, err := approval.Evaluate(expense)
	require.NoError(t, err)
	assert.Equal(t, approval.FinalizeApproved, outcome)
}

func TestEvaluate_PercentageCountsRejectedInDenominator(t *testing.T) {
	// 2 approved of 4 total is 50%, below a 60% threshold even though only
	// one step is still pending.
	expense := &domain.Expense{
		RuleType:            domain.RulePercentage,
		PercentageThreshold: intPtr(60),
		ApprovalHistory:     stepsWithStatuses(domain.StepApproved, domain.StepApproved, domain.StepRejected, domain.StepPending),
	}

	outcome, err := approval.Evaluate(expense)
	require.NoError(t, err)
	assert.Equal(t, approval.StillPending, outcome)
}

func TestEvaluate_SpecificApproverFinalizesInstantly(t *testing.T) {
	specificID := "cfo-1"
	expense := &domain.Expense{
		RuleType:           domain.RuleSpecific,
		SpecificApproverID: &specificID,
		ApprovalHistory: []domain.ApprovalStep{
			{ApproverID: "u-a", Status: domain.StepPending, Sequence: 0},
			{ApproverID: "cfo-1", Status: domain.StepApproved, Sequence: 1},
			{ApproverID: "u-c", Status: domain.StepPending, Sequence: 2},
		},
	}

	outcome, err := approval.Evaluate(expense)
	require.NoError(t, err)
	assert.Equal(t, approval.FinalizeApproved, outcome)
}

func TestEvaluate_SpecificStaysPendingWithoutDesignatedApproval(t *testing.T) {
	specificID := "cfo-1"
	expense := &domain.Expense{
		RuleType:           domain.RuleSpecific,
		SpecificApproverID: &specificID,
		ApprovalHistory: []domain.ApprovalStep{
			{ApproverID: "u-a", Status: domain.StepApproved, Sequence: 0},
			{ApproverID: "cfo-1", Status: domain.StepPending, Sequence: 1},
		},
	}

	outcome, err := approval.Evaluate(expense)
	require.NoError(t, err)
	assert.Equal(t, approval.StillPending, outcome)
}

func TestEvaluate_HybridFinalizesOnEitherCondition(t *testing.T) {
	specificID := "cfo-1"

	// Specific condition met, percentage not.
	bySpecific := &domain.Expense{
		RuleType:            domain.RuleHybrid,
		PercentageThreshold: intPtr(100),
		SpecificApproverID:  &specificID,
		ApprovalHistory: []domain.ApprovalStep{
			{ApproverID: "cfo-1", Status: domain.StepApproved, Sequence: 0},
			{ApproverID: "u-b", Status: domain.StepPending, Sequence: 1},
		},
	}
	outcome, err := approval.Evaluate(bySpecific)
	require.NoError(t, err)
	assert.Equal(t, approval.FinalizeApproved, outcome)

	// Percentage condition met, specific not.
	byPercentage := &domain.Expense{
		RuleType:            domain.RuleHybrid,
		PercentageThreshold: intPtr(50),
		SpecificApproverID:  &specificID,
		ApprovalHistory: []domain.ApprovalStep{
			{ApproverID: "u-a", Status: domain.StepApproved, Sequence: 0},
			{ApproverID: "cfo-1", Status: domain.StepPending, Sequence: 1},
		},
	}
	outcome, err = approval.Evaluate(byPercentage)
	require.NoError(t, err)
	assert.Equal(t, approval.FinalizeApproved, outcome)
}

func TestEvaluate_EmptyRuleTypeStaysPending(t *testing.T) {
	expense := &domain.Expense{ApprovalHistory: nil}

	outcome, err := approval.Evaluate(expense)
	require.NoError(t, err)
	assert.Equal(t, approval.StillPending, outcome)
}

func TestEvaluate_UnknownRuleTypeErrors(t *testing.T) {
	expense := &domain.Expense{RuleType: domain.RuleType("majority")}

	_, err := approval.Evaluate(expense)
	assert.Error(t, err)
}
