// Package approval holds the pure approval-workflow logic: building a chain
// of approval steps from a rule, and deciding when enough decisions exist to
// finalize an expense. It performs no I/O so the same inputs always yield the
// same outputs.
package approval

import "github.com/expenseflow/expense_management_app/internal/core/domain"

// UserLookup resolves a user by ID. A miss returns nil.
type UserLookup func(userID string) *domain.User

// BuildChain materializes the ordered approval steps for a submission.
//
// When the rule flags the manager as first approver and the submitter has a
// resolvable manager, that manager becomes step 0 and every configured
// approver's sequence is offset by 1, keeping the emitted sequence contiguous
// from 0 either way. Configured approvers are emitted in ascending configured
// sequence. A nil rule yields an empty chain; so does a manager-only rule
// whose submitter has no manager. An empty chain means no approvers are
// required and the caller auto-approves the expense.
func BuildChain(rule *domain.ApprovalRule, submitter *domain.User, lookup UserLookup) []domain.ApprovalStep {
	if rule == nil {
		return nil
	}

	var steps []domain.ApprovalStep
	offset := 0

	if rule.IsManagerApprover && submitter != nil && submitter.ManagerID != nil {
		if manager := lookup(*submitter.ManagerID); manager != nil {
			steps = append(steps, domain.ApprovalStep{
				ApproverID:   manager.UserID,
				ApproverName: manager.Name,
				Status:       domain.StepPending,
				Sequence:     0,
			})
			offset = 1
		}
	}

	for _, cfg := range sortedApprovers(rule.Approvers) {
		steps = append(steps, domain.ApprovalStep{
			ApproverID:   cfg.UserID,
			ApproverName: cfg.UserName,
			Status:       domain.StepPending,
			Sequence:     cfg.Sequence + offset,
		})
	}

	return steps
}

// sortedApprovers returns the configs in ascending sequence without mutating
// the rule's slice (rules are shared, chains are snapshots).
func sortedApprovers(configs []domain.ApproverConfig) []domain.ApproverConfig {
	out := make([]domain.ApproverConfig, len(configs))
	copy(out, configs)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Sequence < out[j-1].Sequence; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// NextPending returns the pending step with the lowest sequence, or nil when
// every step is resolved.
func NextPending(steps []domain.ApprovalStep) *domain.ApprovalStep {
	var next *domain.ApprovalStep
	for i := range steps {
		if steps[i].Status != domain.StepPending {
			continue
		}
		if next == nil || steps[i].Sequence < next.Sequence {
			next = &steps[i]
		}
	}
	return next
}

// StepFor returns the step belonging to the given approver, or nil when the
// approver has no slot in the chain.
func StepFor(steps []domain.ApprovalStep, approverID string) *domain.ApprovalStep {
	for i := range steps {
		if steps[i].ApproverID == approverID {
			return &steps[i]
		}
	}
	return nil
}
