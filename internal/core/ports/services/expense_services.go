package services

import (
	"context"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/dto"
)

// ExpenseReaderSvc defines read operations for expenses
type ExpenseReaderSvc interface {
	// GetExpenseByID retrieves an expense visible to the requesting user
	// (own expense, a chain participant, or a company admin).
	GetExpenseByID(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error)

	// ListMyExpenses retrieves the requesting user's own expenses.
	ListMyExpenses(ctx context.Context, requestingUserID string) ([]domain.Expense, error)

	// ListCompanyExpenses retrieves all company expenses. Admin only.
	ListCompanyExpenses(ctx context.Context, requestingUserID string) ([]domain.Expense, error)

	// ListPendingApproval retrieves expenses currently awaiting the
	// requesting user's decision.
	ListPendingApproval(ctx context.Context, requestingUserID string) ([]domain.Expense, error)
}

// ExpenseWriterSvc defines the submission and decision operations
type ExpenseWriterSvc interface {
	// SubmitExpense creates an expense: normalizes the amount into the
	// company currency (left unset when no rate is available), snapshots the
	// approval chain from the company's default rule, and activates step 0.
	// An empty chain auto-approves the expense.
	SubmitExpense(ctx context.Context, req dto.CreateExpenseRequest, submitterUserID string) (*domain.Expense, error)

	// DecideExpense applies one approver's decision atomically. Returns
	// ErrNotActiveApprover, ErrAlreadyDecided or ErrExpenseFinalized as
	// typed outcomes; no state changes on error.
	DecideExpense(ctx context.Context, expenseID string, req dto.DecisionRequest, approverUserID string) (*domain.Expense, error)
}

// ExpenseSvcFacade combines all expense-related service interfaces
type ExpenseSvcFacade interface {
	ExpenseReaderSvc
	ExpenseWriterSvc
}
