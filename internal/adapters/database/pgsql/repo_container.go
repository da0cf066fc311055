package pgsql

import (
	"github.com/expenseflow/expense_management_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider builds the full set of PostgreSQL-backed
// repositories sharing one connection pool.
func NewRepositoryProvider(pool *pgxpool.Pool) repositories.RepositoryProvider {
	return repositories.RepositoryProvider{
		CompanyRepo: NewCompanyRepository(pool),
		UserRepo:    NewUserRepository(pool),
		RuleRepo:    NewApprovalRuleRepository(pool),
		ExpenseRepo: NewExpenseRepository(pool),
	}
}
