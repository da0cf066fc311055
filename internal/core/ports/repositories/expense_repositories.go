package repositories

import (
	"context"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
)

// ExpenseReader defines read operations for expense data
type ExpenseReader interface {
	// FindExpenseByID retrieves an expense with its full approval history.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// FindExpensesByEmployee retrieves an employee's expenses, newest first.
	FindExpensesByEmployee(ctx context.Context, employeeID string) ([]domain.Expense, error)

	// FindExpensesByCompany retrieves a company's expenses, newest first.
	FindExpensesByCompany(ctx context.Context, companyID string) ([]domain.Expense, error)

	// FindExpensesPendingApprover retrieves pending expenses on which the
	// given user currently holds an undecided step.
	FindExpensesPendingApprover(ctx context.Context, approverID string) ([]domain.Expense, error)
}

// ExpenseWriter defines write operations for expense data
type ExpenseWriter interface {
	// SaveExpense persists a new expense together with its approval step
	// snapshot in one transaction.
	SaveExpense(ctx context.Context, expense domain.Expense) error
}

// ExpenseDecider applies a decision as an atomic read-modify-write.
type ExpenseDecider interface {
	// DecideExpense loads the expense under an exclusive row lock, invokes fn
	// on the loaded state, and persists the mutated expense and steps before
	// committing. Concurrent calls on the same expense serialize, so exactly
	// one of two racing decisions wins; the loser re-reads the already
	// mutated state and fails its own guard inside fn. An error from fn
	// rolls everything back.
	DecideExpense(ctx context.Context, expenseID string, fn func(*domain.Expense) error) (*domain.Expense, error)
}

// ExpenseRepositoryFacade combines all expense-related repository interfaces
type ExpenseRepositoryFacade interface {
	ExpenseReader
	ExpenseWriter
	ExpenseDecider
}

// ExpenseRepositoryWithTx extends ExpenseRepositoryFacade with transaction capabilities
type ExpenseRepositoryWithTx interface {
	ExpenseRepositoryFacade
	TransactionManager
}
