package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const expenseColumns = `expense_id, company_id, employee_id, employee_name, amount, currency_code,
               amount_company_currency, category, description, expense_date, status,
               rule_type, percentage_threshold, specific_approver_id, current_approver_id,
               receipt_ref, created_at, created_by, last_updated_at, last_updated_by`

type ExpenseRepository struct {
	db *pgxpool.Pool
}

func NewExpenseRepository(db *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

var _ repositories.ExpenseRepositoryWithTx = (*ExpenseRepository)(nil)

// Begin starts a new database transaction.
func (r *ExpenseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

// Commit commits a transaction.
func (r *ExpenseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

// Rollback rolls back a transaction.
func (r *ExpenseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var expense domain.Expense
	err := row.Scan(
		&expense.ExpenseID,
		&expense.CompanyID,
		&expense.EmployeeID,
		&expense.EmployeeName,
		&expense.Amount,
		&expense.CurrencyCode,
		&expense.AmountCompanyCurrency,
		&expense.Category,
		&expense.Description,
		&expense.ExpenseDate,
		&expense.Status,
		&expense.RuleType,
		&expense.PercentageThreshold,
		&expense.SpecificApproverID,
		&expense.CurrentApproverID,
		&expense.ReceiptRef,
		&expense.CreatedAt,
		&expense.CreatedBy,
		&expense.LastUpdatedAt,
		&expense.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *ExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	query := `
        SELECT ` + expenseColumns + `
        FROM expenses
        WHERE expense_id = $1;
    `
	expense, err := scanExpense(r.db.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expenseID)
		}
		return nil, fmt.Errorf("failed to find expense by ID: %w", err)
	}

	steps, err := r.loadSteps(ctx, r.db, []string{expenseID})
	if err != nil {
		return nil, err
	}
	expense.ApprovalHistory = steps[expenseID]
	return expense, nil
}

func (r *ExpenseRepository) FindExpensesByEmployee(ctx context.Context, employeeID string) ([]domain.Expense, error) {
	query := `
        SELECT ` + expenseColumns + `
        FROM expenses
        WHERE employee_id = $1
        ORDER BY created_at DESC;
    `
	return r.queryExpenses(ctx, query, employeeID)
}

func (r *ExpenseRepository) FindExpensesByCompany(ctx context.Context, companyID string) ([]domain.Expense, error) {
	query := `
        SELECT ` + expenseColumns + `
        FROM expenses
        WHERE company_id = $1
        ORDER BY created_at DESC;
    `
	return r.queryExpenses(ctx, query, companyID)
}

// FindExpensesPendingApprover narrows to pending expenses on which the user
// still holds an undecided step. Rule-type eligibility (sequential order) is
// the service's concern.
func (r *ExpenseRepository) FindExpensesPendingApprover(ctx context.Context, approverID string) ([]domain.Expense, error) {
	query := `
        SELECT ` + expenseColumns + `
        FROM expenses e
        WHERE e.status = 'pending'
          AND EXISTS (
              SELECT 1 FROM expense_approval_steps s
              WHERE s.expense_id = e.expense_id
                AND s.approver_id = $1
                AND s.status = 'pending'
          )
        ORDER BY e.created_at DESC;
    `
	return r.queryExpenses(ctx, query, approverID)
}

func (r *ExpenseRepository) queryExpenses(ctx context.Context, query string, arg any) ([]domain.Expense, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	expenseIDs := []string{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		expenses = append(expenses, *expense)
		expenseIDs = append(expenseIDs, expense.ExpenseID)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating expense rows: %w", rows.Err())
	}

	steps, err := r.loadSteps(ctx, r.db, expenseIDs)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		expenses[i].ApprovalHistory = steps[expenses[i].ExpenseID]
	}
	return expenses, nil
}

// SaveExpense persists the expense together with its approval step snapshot
// in one transaction.
func (r *ExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
        INSERT INTO expenses (expense_id, company_id, employee_id, employee_name, amount, currency_code,
                              amount_company_currency, category, description, expense_date, status,
                              rule_type, percentage_threshold, specific_approver_id, current_approver_id,
                              receipt_ref, created_at, created_by, last_updated_at, last_updated_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
    `
	_, err = tx.Exec(ctx, query,
		expense.ExpenseID,
		expense.CompanyID,
		expense.EmployeeID,
		expense.EmployeeName,
		expense.Amount,
		expense.CurrencyCode,
		expense.AmountCompanyCurrency,
		expense.Category,
		expense.Description,
		expense.ExpenseDate,
		expense.Status,
		expense.RuleType,
		expense.PercentageThreshold,
		expense.SpecificApproverID,
		expense.CurrentApproverID,
		expense.ReceiptRef,
		expense.CreatedAt,
		expense.CreatedBy,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	stepQuery := `
        INSERT INTO expense_approval_steps (expense_id, approver_id, approver_name, status, comment, decided_at, sequence)
        VALUES ($1, $2, $3, $4, $5, $6, $7);
    `
	for _, step := range expense.ApprovalHistory {
		_, err := tx.Exec(ctx, stepQuery,
			expense.ExpenseID,
			step.ApproverID,
			step.ApproverName,
			step.Status,
			step.Comment,
			step.DecidedAt,
			step.Sequence,
		)
		if err != nil {
			return fmt.Errorf("failed to save approval step: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit expense save: %w", err)
	}
	return nil
}

// DecideExpense loads the expense under an exclusive row lock, invokes fn on
// the loaded state, persists the mutated expense and steps, and commits.
// Racing decisions on the same expense serialize on the lock; the second
// caller sees the first caller's committed state inside fn. An error from fn
// rolls everything back.
func (r *ExpenseRepository) DecideExpense(ctx context.Context, expenseID string, fn func(*domain.Expense) error) (*domain.Expense, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
        SELECT ` + expenseColumns + `
        FROM expenses
        WHERE expense_id = $1
        FOR UPDATE;
    `
	expense, err := scanExpense(tx.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expenseID)
		}
		return nil, fmt.Errorf("failed to lock expense: %w", err)
	}

	steps, err := r.loadSteps(ctx, tx, []string{expenseID})
	if err != nil {
		return nil, err
	}
	expense.ApprovalHistory = steps[expenseID]

	if err := fn(expense); err != nil {
		return nil, err
	}

	updateQuery := `
        UPDATE expenses
        SET status = $2, current_approver_id = $3, last_updated_at = $4, last_updated_by = $5
        WHERE expense_id = $1;
    `
	_, err = tx.Exec(ctx, updateQuery,
		expense.ExpenseID,
		expense.Status,
		expense.CurrentApproverID,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	stepQuery := `
        UPDATE expense_approval_steps
        SET status = $3, comment = $4, decided_at = $5
        WHERE expense_id = $1 AND sequence = $2;
    `
	for _, step := range expense.ApprovalHistory {
		_, err := tx.Exec(ctx, stepQuery,
			expense.ExpenseID,
			step.Sequence,
			step.Status,
			step.Comment,
			step.DecidedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update approval step: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit decision: %w", err)
	}
	return expense, nil
}

// querier abstracts over the pool and an open transaction for reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *ExpenseRepository) loadSteps(ctx context.Context, q querier, expenseIDs []string) (map[string][]domain.ApprovalStep, error) {
	result := make(map[string][]domain.ApprovalStep, len(expenseIDs))
	if len(expenseIDs) == 0 {
		return result, nil
	}

	query := `
        SELECT expense_id, approver_id, approver_name, status, comment, decided_at, sequence
        FROM expense_approval_steps
        WHERE expense_id = ANY($1)
        ORDER BY expense_id, sequence ASC;
    `
	rows, err := q.Query(ctx, query, expenseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var step domain.ApprovalStep
		if err := rows.Scan(&expenseID, &step.ApproverID, &step.ApproverName, &step.Status, &step.Comment, &step.DecidedAt, &step.Sequence); err != nil {
			return nil, fmt.Errorf("failed to scan approval step row: %w", err)
		}
		result[expenseID] = append(result[expenseID], step)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating approval step rows: %w", rows.Err())
	}
	return result, nil
}
