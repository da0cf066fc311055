package services

import (
	"github.com/expenseflow/expense_management_app/internal/core/ports/providers"
	"github.com/expenseflow/expense_management_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/pkg/config"
)

// NewServiceContainer wires every service with its repository dependencies.
// This is the single composition point for the core; handlers only ever see
// the container.
func NewServiceContainer(cfg *config.Config, repos repositories.RepositoryProvider, rateProvider providers.RateProvider) *portssvc.ServiceContainer {
	exchangeRateSvc := NewExchangeRateService(rateProvider, cfg.RateCacheTTL())

	return &portssvc.ServiceContainer{
		Company:      NewCompanyService(repos.CompanyRepo, repos.UserRepo, repos.RuleRepo),
		User:         NewUserService(repos.UserRepo),
		ApprovalRule: NewApprovalRuleService(repos.RuleRepo, repos.UserRepo, repos.CompanyRepo),
		ExchangeRate: exchangeRateSvc,
		Expense:      NewExpenseService(repos.ExpenseRepo, repos.UserRepo, repos.CompanyRepo, repos.RuleRepo, exchangeRateSvc),
		Auth:         NewAuthService(repos.UserRepo, repos.CompanyRepo, cfg.JWTSecret, cfg.JWTExpiry(), cfg.JWTIssuer),
	}
}
