package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/approval"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/dto"
	"github.com/expenseflow/expense_management_app/internal/middleware"
	"github.com/google/uuid"
)

// Decision outcomes surfaced as typed errors so handlers can map them to
// precise status codes.
var (
	// ErrNotActiveApprover is returned when the caller holds no step in the
	// chain, or holds one that is not yet eligible under the rule type.
	ErrNotActiveApprover = errors.New("user is not an active approver for this expense")
	// ErrAlreadyDecided is returned when the caller's step was already
	// resolved. Exactly one of two racing decisions on the same step wins.
	ErrAlreadyDecided = errors.New("approver has already decided on this expense")
	// ErrExpenseFinalized is returned for any decision on a terminal expense.
	ErrExpenseFinalized = errors.New("expense is already finalized")
)

type expenseService struct {
	expenseRepo  repositories.ExpenseRepositoryWithTx
	userRepo     repositories.UserReader
	companyRepo  repositories.CompanyReader
	ruleRepo     repositories.ApprovalRuleReader
	exchangeRate portssvc.ExchangeRateSvcFacade
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(
	expenseRepo repositories.ExpenseRepositoryWithTx,
	userRepo repositories.UserReader,
	companyRepo repositories.CompanyReader,
	ruleRepo repositories.ApprovalRuleReader,
	exchangeRate portssvc.ExchangeRateSvcFacade,
) portssvc.ExpenseSvcFacade {
	return &expenseService{
		expenseRepo:  expenseRepo,
		userRepo:     userRepo,
		companyRepo:  companyRepo,
		ruleRepo:     ruleRepo,
		exchangeRate: exchangeRate,
	}
}

var _ portssvc.ExpenseSvcFacade = (*expenseService)(nil)

// GetExpenseByID retrieves an expense visible to the requesting user: the
// submitter, any chain participant, or a company admin.
func (s *expenseService) GetExpenseByID(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error) {
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requesting user: %w", err)
	}

	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense %s: %w", expenseID, err)
	}
	if expense.CompanyID != requester.CompanyID {
		return nil, fmt.Errorf("%w: expense %s not found", apperrors.ErrNotFound, expenseID)
	}
	if expense.EmployeeID != requestingUserID && !requester.IsAdmin() && approval.StepFor(expense.ApprovalHistory, requestingUserID) == nil {
		return nil, fmt.Errorf("%w: not a participant of this expense", apperrors.ErrForbidden)
	}
	return expense, nil
}

// ListMyExpenses retrieves the requesting user's own expenses, newest first.
func (s *expenseService) ListMyExpenses(ctx context.Context, requestingUserID string) ([]domain.Expense, error) {
	expenses, err := s.expenseRepo.FindExpensesByEmployee(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for employee %s: %w", requestingUserID, err)
	}
	return expenses, nil
}

// ListCompanyExpenses retrieves every expense of the company. Admin only.
func (s *expenseService) ListCompanyExpenses(ctx context.Context, requestingUserID string) ([]domain.Expense, error) {
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requesting user: %w", err)
	}
	if !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can list all company expenses", apperrors.ErrForbidden)
	}

	expenses, err := s.expenseRepo.FindExpensesByCompany(ctx, requester.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for company %s: %w", requester.CompanyID, err)
	}
	return expenses, nil
}

// ListPendingApproval retrieves pending expenses the requesting user can act
// on right now. The repository narrows to pending expenses where the user
// holds an undecided step; eligibility under the rule type is applied here:
// sequential chains admit only the current approver, every other type admits
// any undecided step holder.
func (s *expenseService) ListPendingApproval(ctx context.Context, requestingUserID string) ([]domain.Expense, error) {
	candidates, err := s.expenseRepo.FindExpensesPendingApprover(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals for %s: %w", requestingUserID, err)
	}

	actionable := make([]domain.Expense, 0, len(candidates))
	for _, expense := range candidates {
		if isEligibleApprover(&expense, requestingUserID) {
			actionable = append(actionable, expense)
		}
	}
	return actionable, nil
}

// SubmitExpense creates an expense claim. The amount is normalized into the
// company currency when a rate is available; a provider outage or missing
// rate never blocks submission, the normalized amount just stays unset. The
// approval chain is snapshotted from the company's default rule at this
// moment; later rule edits cannot touch it. An empty chain auto-approves.
func (s *expenseService) SubmitExpense(ctx context.Context, req dto.CreateExpenseRequest, submitterUserID string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	submitter, err := s.userRepo.FindUserByID(ctx, submitterUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submitting user: %w", err)
	}
	company, err := s.companyRepo.FindCompanyByID(ctx, submitter.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get company %s: %w", submitter.CompanyID, err)
	}

	var rule *domain.ApprovalRule
	if company.DefaultRuleID != nil {
		rule, err = s.ruleRepo.FindRuleByID(ctx, *company.DefaultRuleID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("failed to get default rule %s: %w", *company.DefaultRuleID, err)
			}
			// A dangling designation behaves like no designation at all.
			logger.Warn("Default rule designation is dangling", "rule_id", *company.DefaultRuleID)
			rule = nil
		}
	}

	companyUsers, err := s.userRepo.FindUsersByCompany(ctx, submitter.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company users: %w", err)
	}
	byID := make(map[string]*domain.User, len(companyUsers))
	for i := range companyUsers {
		byID[companyUsers[i].UserID] = &companyUsers[i]
	}
	lookup := func(userID string) *domain.User { return byID[userID] }

	steps := approval.BuildChain(rule, submitter, lookup)

	currency := strings.ToUpper(req.CurrencyCode)
	now := time.Now()
	expense := domain.Expense{
		ExpenseID:       uuid.NewString(),
		CompanyID:       submitter.CompanyID,
		EmployeeID:      submitter.UserID,
		EmployeeName:    submitter.Name,
		Amount:          req.Amount,
		CurrencyCode:    currency,
		Category:        req.Category,
		Description:     req.Description,
		ExpenseDate:     req.ExpenseDate,
		Status:          domain.ExpensePending,
		ApprovalHistory: steps,
		ReceiptRef:      req.ReceiptRef,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     submitter.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: submitter.UserID,
		},
	}

	if converted, err := s.exchangeRate.NormalizeAmount(ctx, req.Amount, currency, company.CurrencyCode); err != nil {
		// Submission never fails on a rate problem; reporting just shows the
		// original currency until a backfill.
		logger.Warn("Amount normalization unavailable", "from", currency, "to", company.CurrencyCode, "error", err.Error())
	} else {
		expense.AmountCompanyCurrency = &converted
	}

	if len(steps) == 0 {
		expense.Status = domain.ExpenseApproved
	} else {
		// Rule parameters travel with the chain snapshot; an empty chain
		// leaves them unset and the expense auto-approves.
		expense.RuleType = rule.Type
		expense.PercentageThreshold = rule.PercentageThreshold
		expense.SpecificApproverID = rule.SpecificApproverID
		first := approval.NextPending(steps)
		expense.CurrentApproverID = &first.ApproverID
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	logger.Info("Expense submitted",
		"expense_id", expense.ExpenseID,
		"status", string(expense.Status),
		"chain_length", len(steps),
		"rule_type", string(expense.RuleType),
	)
	return &expense, nil
}

// DecideExpense applies one approver's decision. The whole read-check-mutate
// cycle runs under the repository's row lock, so concurrent decisions on the
// same expense serialize and the loser fails its guard against the winner's
// already-persisted state. Any guard failure leaves the expense untouched.
func (s *expenseService) DecideExpense(ctx context.Context, expenseID string, req dto.DecisionRequest, approverUserID string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	approver, err := s.userRepo.FindUserByID(ctx, approverUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get approving user: %w", err)
	}

	decided, err := s.expenseRepo.DecideExpense(ctx, expenseID, func(expense *domain.Expense) error {
		if expense.CompanyID != approver.CompanyID {
			return fmt.Errorf("%w: expense %s not found", apperrors.ErrNotFound, expenseID)
		}
		return applyDecision(expense, approverUserID, req.Decision, req.Comment)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Expense decision applied",
		"expense_id", expenseID,
		"decision", string(req.Decision),
		"status", string(decided.Status),
	)
	return decided, nil
}

// applyDecision is the approval state machine. It mutates the expense in
// place and returns a typed error when the decision is not permitted.
func applyDecision(expense *domain.Expense, approverID string, decision domain.ApprovalDecision, comment string) error {
	if expense.Status.IsTerminal() {
		return ErrExpenseFinalized
	}

	step := firstPendingStepFor(expense.ApprovalHistory, approverID)
	if step == nil {
		if approval.StepFor(expense.ApprovalHistory, approverID) != nil {
			return ErrAlreadyDecided
		}
		return ErrNotActiveApprover
	}

	// Sequential chains admit only the holder of the lowest pending step;
	// the other rule types admit any undecided step holder.
	if expense.RuleType == domain.RuleSequential || expense.RuleType == "" {
		if next := approval.NextPending(expense.ApprovalHistory); next == nil || next.Sequence != step.Sequence {
			return ErrNotActiveApprover
		}
	}

	now := time.Now()
	step.Comment = comment
	step.DecidedAt = &now
	expense.LastUpdatedAt = now
	expense.LastUpdatedBy = approverID

	if decision == domain.DecisionReject {
		// One rejection is final for every rule type. Remaining steps stay
		// pending in history but are never awaited.
		step.Status = domain.StepRejected
		expense.Status = domain.ExpenseRejected
		expense.CurrentApproverID = nil
		return nil
	}

	step.Status = domain.StepApproved

	outcome, err := approval.Evaluate(expense)
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInternal, err.Error())
	}
	if outcome == approval.FinalizeApproved {
		expense.Status = domain.ExpenseApproved
		expense.CurrentApproverID = nil
		return nil
	}

	// Chain exhaustion finalizes regardless of rule type.
	next := approval.NextPending(expense.ApprovalHistory)
	if next == nil {
		expense.Status = domain.ExpenseApproved
		expense.CurrentApproverID = nil
		return nil
	}
	expense.CurrentApproverID = &next.ApproverID
	return nil
}

// firstPendingStepFor returns the approver's lowest-sequence pending step.
// An approver can hold several slots when the manager slot duplicates a
// configured one; decisions resolve their slots lowest first.
func firstPendingStepFor(steps []domain.ApprovalStep, approverID string) *domain.ApprovalStep {
	var found *domain.ApprovalStep
	for i := range steps {
		if steps[i].ApproverID != approverID || steps[i].Status != domain.StepPending {
			continue
		}
		if found == nil || steps[i].Sequence < found.Sequence {
			found = &steps[i]
		}
	}
	return found
}

// isEligibleApprover reports whether the user can act on the expense now.
func isEligibleApprover(expense *domain.Expense, userID string) bool {
	if expense.Status != domain.ExpensePending {
		return false
	}
	step := firstPendingStepFor(expense.ApprovalHistory, userID)
	if step == nil {
		return false
	}
	if expense.RuleType == domain.RuleSequential || expense.RuleType == "" {
		next := approval.NextPending(expense.ApprovalHistory)
		return next != nil && next.Sequence == step.Sequence
	}
	return true
}

func validateSubmission(req dto.CreateExpenseRequest) error {
	var violations []string
	if !req.Amount.IsPositive() {
		violations = append(violations, "amount must be greater than zero")
	}
	if len(req.CurrencyCode) != 3 {
		violations = append(violations, "currency code must be 3 letters")
	}
	if strings.TrimSpace(req.Category) == "" {
		violations = append(violations, "category must not be empty")
	}
	if req.ExpenseDate.IsZero() {
		violations = append(violations, "expense date is required")
	}
	return apperrors.NewValidationError(violations)
}
