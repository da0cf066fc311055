package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/middleware"
)

type companyService struct {
	companyRepo repositories.CompanyRepositoryFacade
	userRepo    repositories.UserReader
	ruleRepo    repositories.ApprovalRuleReader
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(companyRepo repositories.CompanyRepositoryFacade, userRepo repositories.UserReader, ruleRepo repositories.ApprovalRuleReader) portssvc.CompanySvcFacade {
	return &companyService{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		ruleRepo:    ruleRepo,
	}
}

var _ portssvc.CompanySvcFacade = (*companyService)(nil)

// GetCompanyByID retrieves a company by ID.
func (s *companyService) GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get company %s: %w", companyID, err)
	}
	return company, nil
}

// SetDefaultRule designates the rule applied to newly submitted expenses.
// Admin only; the rule must belong to the requester's company. A nil ruleID
// clears the designation, after which submissions auto-approve on an empty
// chain.
func (s *companyService) SetDefaultRule(ctx context.Context, companyID string, ruleID *string, requestingUserID string) (*domain.Company, error) {
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requesting user: %w", err)
	}
	if !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can set the default approval rule", apperrors.ErrForbidden)
	}
	if requester.CompanyID != companyID {
		return nil, fmt.Errorf("%w: company mismatch", apperrors.ErrForbidden)
	}

	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get company %s: %w", companyID, err)
	}

	if ruleID != nil {
		rule, err := s.ruleRepo.FindRuleByID(ctx, *ruleID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: rule %s not found", apperrors.ErrValidation, *ruleID)
			}
			return nil, fmt.Errorf("failed to get rule %s: %w", *ruleID, err)
		}
		if rule.CompanyID != companyID {
			return nil, fmt.Errorf("%w: rule belongs to a different company", apperrors.ErrValidation)
		}
	}

	if err := s.companyRepo.UpdateDefaultRule(ctx, companyID, ruleID, requestingUserID); err != nil {
		return nil, fmt.Errorf("failed to update default rule for company %s: %w", companyID, err)
	}

	company.DefaultRuleID = ruleID
	company.LastUpdatedAt = time.Now()
	company.LastUpdatedBy = requestingUserID

	logger := middleware.GetLoggerFromCtx(ctx)
	if ruleID == nil {
		logger.Info("Default approval rule cleared", "company_id", companyID)
	} else {
		logger.Info("Default approval rule set", "company_id", companyID, "rule_id", *ruleID)
	}
	return company, nil
}
